package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims are the claims carried by dashboard bearer tokens.
// Tokens are HMAC-signed with the configured secret; there is no user
// database, an operator either holds a valid token or does not.
type OperatorClaims struct {
	Subject string `json:"sub"`
	Name    string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies an HMAC-signed operator token.
func ValidateToken(tokenString, secret string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// IssueToken signs a token for an operator. Used by provisioning
// tooling and tests.
func IssueToken(subject, name, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		Subject: subject,
		Name:    name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

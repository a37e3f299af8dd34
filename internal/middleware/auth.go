package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/auth"
	"github.com/clipforge/api/pkg/response"
)

// AuthMiddleware guards the dashboard API with HMAC bearer tokens.
type AuthMiddleware struct {
	jwtSecret string
}

// NewAuthMiddleware creates auth middleware with the shared operator secret
func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// Authenticate validates the bearer token from the Authorization header
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return response.Unauthorized(c, "Invalid authorization header format")
		}

		claims, err := auth.ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}

		c.Locals("operator", claims.Subject)
		return c.Next()
	}
}

// GetOperator returns the authenticated operator id, if any.
func GetOperator(c *fiber.Ctx) string {
	if v, ok := c.Locals("operator").(string); ok {
		return v
	}
	return ""
}

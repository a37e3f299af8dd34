package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/pkg/response"
)

// GatewayAuthMiddleware reads operator identity from X-Operator-* headers
// set by the reverse proxy's ForwardAuth and populates Fiber context locals.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		operatorID := c.Get("X-Operator-Id")
		if operatorID == "" {
			return response.Unauthorized(c, "Missing operator identity headers")
		}

		c.Locals("operator", operatorID)
		c.Locals("operatorName", c.Get("X-Operator-Name"))

		return c.Next()
	}
}

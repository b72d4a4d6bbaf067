package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lyricstudio/api/pkg/response"
)

// GatewayAuthMiddleware trusts X-User-* headers set by an authenticating
// reverse proxy in front of the service. Only enable behind a gateway that
// strips these headers from client requests.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-Id")
		if userID == "" {
			return response.Unauthorized(c, "Missing gateway identity")
		}

		c.Locals("userId", userID)
		c.Locals("email", c.Get("X-User-Email"))
		return c.Next()
	}
}

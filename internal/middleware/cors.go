package middleware

import (
	"strings"

	"tradenet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowedSuffix string // origin suffix for the deployed front end
	DevPassword   string // header escape hatch for local tooling
}

// CORS allows origins ending with AllowedSuffix, localhost during
// development, and requests carrying the dev-password header. Everything
// else gets a 403 in the standard error envelope.
func CORS(cfg CORSConfig) fiber.Handler {
	allowedSuffix := strings.ToLower(cfg.AllowedSuffix)

	allowed := func(c *fiber.Ctx, origin string) bool {
		if isLocalOrigin(origin) {
			return true
		}
		if allowedSuffix != "" && strings.HasSuffix(strings.ToLower(origin), allowedSuffix) {
			return true
		}
		return cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword
	}

	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin == "" {
			// Same-origin request or a non-browser client.
			return c.Next()
		}
		if !allowed(c, origin) {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, nil)
		}

		c.Set("Access-Control-Allow-Origin", origin)
		c.Set("Access-Control-Allow-Credentials", "true")
		c.Set("Access-Control-Allow-Headers", "Content-Type, dev-password")

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") ||
		strings.HasPrefix(origin, "http://127.0.0.1:")
}

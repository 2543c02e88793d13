package middleware

import (
	"business-directory-backend/config"
	"business-directory-backend/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminOnly gates the import and merge surface. The pipeline itself does no
// authorization logic; this is the single "is this caller an admin" check.
func AdminOnly(ctx *AppContext) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := c.Cookies("access_token")
		if accessToken == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
				"error":   "Authentication required",
			})
		}

		payload, err := ctx.PasetoMaker.VerifyToken(accessToken)
		if err != nil {
			config.Logger.Debug("Invalid access token encountered", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
				"error":   "Session expired or invalid. Please log in again.",
			})
		}

		if !payload.IsAdmin() {
			config.Logger.Warn("Non-admin attempted admin operation",
				zap.String("email", payload.Email),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Forbidden",
				"error":   "Admin access required",
			})
		}

		c.Locals("user", payload)
		return c.Next()
	}
}

// ActorEmail extracts the authenticated caller's email from the request
// context. Returns "" when the route is not behind AdminOnly.
func ActorEmail(c *fiber.Ctx) string {
	if payload, ok := c.Locals("user").(*token.Payload); ok {
		return payload.Email
	}
	return ""
}

package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oarkflow/pinauth/pkg/models"
)

// RequirePIN guards routes that need a PIN-verified session. Verify
// must run first so the session view is in locals.
func RequirePIN(c *fiber.Ctx) error {
	session, ok := c.Locals("session").(models.AuthSession)
	if !ok {
		return SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	if session.RequiresPINSetup {
		return SendError(c, fiber.StatusForbidden, "pin setup required")
	}
	if session.RequiresPIN && !session.PINVerified {
		return SendError(c, fiber.StatusForbidden, "pin verification required")
	}
	return c.Next()
}

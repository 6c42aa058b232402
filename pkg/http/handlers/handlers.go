package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/oarkflow/pinauth/pkg/libs"
	"github.com/oarkflow/pinauth/pkg/models"
	"github.com/oarkflow/pinauth/pkg/objects"
	"github.com/oarkflow/pinauth/pkg/utils"
)

func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"name":   objects.Config.GetString("app.name", "PINAuth"),
	})
}

// AppStatus is the demo endpoint behind the PIN gate. Anything it
// returns is only reachable once the session passed verification.
func AppStatus(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.JSON(fiber.Map{
		"username":     session.Username,
		"pin_verified": session.PINVerified,
	})
}

func currentSession(c *fiber.Ctx) (models.AuthSession, bool) {
	session, ok := c.Locals("session").(models.AuthSession)
	return session, ok
}

func sessionName() string {
	name := objects.Config.GetString("pin.session_name")
	if name == "" {
		name = utils.DefaultSessionName
	}
	return name
}

// issueSession writes a fresh session cookie for the given session
// view. Called at login and whenever the gate changes the PIN flags.
func issueSession(c *fiber.Ctx, session models.AuthSession) error {
	secret := []byte(objects.Config.GetString("pin.secret"))
	timeout := objects.Config.GetDuration("pin.session_timeout", "24h")
	now := time.Now()

	tokenStr, err := libs.CreateSessionToken(secret, timeout, session, utils.GetClientIP(c), now)
	if err != nil {
		return err
	}
	secure := objects.Config.GetBool("app.https", false)
	environment := objects.Config.GetString("app.env", "development")
	c.Cookie(utils.GetCookie(secure, environment, sessionName(), tokenStr, now.Add(timeout)))
	return nil
}

func clearSession(c *fiber.Ctx) {
	secure := objects.Config.GetBool("app.https", false)
	environment := objects.Config.GetString("app.env", "development")
	c.Cookie(utils.GetCookie(secure, environment, sessionName(), "", time.Now().Add(-time.Hour)))
}

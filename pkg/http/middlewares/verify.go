package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/oarkflow/pinauth/pkg/libs"
	"github.com/oarkflow/pinauth/pkg/objects"
	"github.com/oarkflow/pinauth/pkg/utils"
)

func SendError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"status":  status,
	})
}

// Verify authenticates the session token and loads the session view
// into locals. The pin_verified claim is downgraded when the PIN was
// changed after the token was issued.
func Verify(c *fiber.Ctx) error {
	tokenStr := ""
	sessionName := objects.Config.GetString("pin.session_name")
	if sessionName == "" {
		sessionName = utils.DefaultSessionName
	}
	cookie := c.Cookies(sessionName)
	if cookie != "" {
		tokenStr = cookie
	} else {
		auth := c.Get("Authorization")
		if len(auth) > 7 && auth[:7] == "Bearer " {
			tokenStr = auth[7:]
		} else {
			tokenStr = auth
		}
	}
	if tokenStr == "" {
		return SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	secret := objects.Config.GetString("pin.secret")
	session, claims, err := libs.ParseSessionToken([]byte(secret), tokenStr)
	if err != nil {
		return SendError(c, fiber.StatusUnauthorized, "invalid session")
	}

	claimIP, _ := claims["ip"].(string)
	currentIP := utils.GetClientIP(c)
	if isNotLocalhost(claimIP) && claimIP != currentIP {
		return SendError(c, fiber.StatusUnauthorized, "IP mismatch")
	}

	userInfo, exists := objects.Manager.LookupUserByID(session.UserID)
	if !exists || !userInfo.IsActive {
		return SendError(c, fiber.StatusUnauthorized, "user not found")
	}

	iat := libs.ClaimIssuedAt(claims)
	if iat > 0 && objects.Manager.Sessions().IsUserLoggedOut(session.UserID, iat) {
		return SendError(c, fiber.StatusUnauthorized, "session logged out")
	}
	// A PIN change after issuance forces re-verification.
	if session.PINVerified && objects.Manager.Sessions().IsPINStateStale(session.UserID, iat) {
		session.PINVerified = false
	}

	c.Locals("session", session)
	c.Locals("userInfo", userInfo)
	c.Locals("user_id", session.UserID)
	c.Locals("claims", claims)
	c.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
	return c.Next()
}

func isNotLocalhost(ip string) bool {
	if ip == "" {
		return true
	}
	if strings.HasPrefix(ip, "127.") || strings.HasPrefix(ip, "::1") || strings.HasPrefix(ip, "localhost") {
		return false
	}
	if strings.HasPrefix(ip, "192.168.") || strings.HasPrefix(ip, "10.") || strings.HasPrefix(ip, "172.") {
		return false
	}
	return true
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/oarkflow/pinauth/pkg/http/requests"
	"github.com/oarkflow/pinauth/pkg/http/responses"
	"github.com/oarkflow/pinauth/pkg/models"
	"github.com/oarkflow/pinauth/pkg/objects"
	"github.com/oarkflow/pinauth/pkg/pin"
	"github.com/oarkflow/pinauth/pkg/utils"
)

// PostPINVerify runs one verification attempt for the session user.
// Failed attempts return the post-update count so clients can warn;
// locked sessions get the lockout expiry for a countdown.
func PostPINVerify(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return responses.Fail(c, http.StatusUnauthorized, "authentication required")
	}
	var req requests.PINVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return responses.Fail(c, http.StatusBadRequest, "invalid request body")
	}

	result, err := objects.Manager.Gate().Verify(session.UserID, req.PIN, utils.ClientMeta(c))
	switch {
	case errors.Is(err, pin.ErrInvalidPIN):
		return responses.Fail(c, http.StatusBadRequest, "pin must be numeric")
	case errors.Is(err, pin.ErrPINNotSet):
		return responses.Fail(c, http.StatusBadRequest, "pin setup required")
	case errors.Is(err, pin.ErrNotFound):
		// Indistinguishable from a wrong PIN on purpose.
		return responses.Fail(c, http.StatusUnauthorized, "pin verification failed")
	case errors.Is(err, pin.ErrLocked):
		return responses.FailWith(c, http.StatusLocked, "too many failed attempts", fiber.Map{
			"locked":       true,
			"locked_until": result.LockedUntil,
			"attempts":     result.Attempts,
		})
	case err != nil:
		return responses.Fail(c, http.StatusInternalServerError, "verification unavailable")
	}

	if !result.Success {
		status := http.StatusUnauthorized
		if result.Locked {
			status = http.StatusLocked
		}
		return responses.FailWith(c, status, "pin verification failed", fiber.Map{
			"attempts":     result.Attempts,
			"locked":       result.Locked,
			"locked_until": result.LockedUntil,
		})
	}

	session.PINVerified = true
	session.RequiresPIN = true
	if err := issueSession(c, session); err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to refresh session")
	}
	return responses.Success(c, result)
}

// PostPINSetup handles first-time PIN creation. The session moves
// straight to verified once the PIN is stored.
func PostPINSetup(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return responses.Fail(c, http.StatusUnauthorized, "authentication required")
	}
	if !session.RequiresPINSetup {
		return responses.Fail(c, http.StatusBadRequest, "pin already set")
	}
	var req requests.PINSetupRequest
	if err := c.BodyParser(&req); err != nil {
		return responses.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.PIN != req.ConfirmPIN {
		return responses.Fail(c, http.StatusBadRequest, "pins do not match")
	}

	err := objects.Manager.Gate().SetPIN(session.UserID, req.PIN, models.PINAuthorization{}, utils.ClientMeta(c))
	switch {
	case errors.Is(err, pin.ErrInvalidPIN):
		return responses.Fail(c, http.StatusBadRequest, pinFormatMessage())
	case err != nil:
		return responses.Fail(c, http.StatusInternalServerError, "failed to store pin")
	}

	session.RequiresPINSetup = false
	session.RequiresPIN = true
	session.PINVerified = true
	if err := issueSession(c, session); err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to refresh session")
	}
	return responses.Success(c, session)
}

// PostPINChange replaces the PIN after checking the current one.
// Sessions verified against the old PIN are forced to re-verify.
func PostPINChange(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return responses.Fail(c, http.StatusUnauthorized, "authentication required")
	}
	var req requests.PINChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return responses.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.NewPIN != req.ConfirmPIN {
		return responses.Fail(c, http.StatusBadRequest, "pins do not match")
	}

	auth := models.PINAuthorization{CurrentPIN: req.CurrentPIN}
	err := objects.Manager.Gate().SetPIN(session.UserID, req.NewPIN, auth, utils.ClientMeta(c))
	switch {
	case errors.Is(err, pin.ErrInvalidPIN):
		return responses.Fail(c, http.StatusBadRequest, pinFormatMessage())
	case errors.Is(err, pin.ErrUnauthorized):
		return responses.Fail(c, http.StatusUnauthorized, "current pin incorrect")
	case errors.Is(err, pin.ErrLocked):
		return responses.Fail(c, http.StatusLocked, "too many failed attempts")
	case errors.Is(err, pin.ErrNotFound), errors.Is(err, pin.ErrPINNotSet):
		return responses.Fail(c, http.StatusBadRequest, "pin setup required")
	case err != nil:
		return responses.Fail(c, http.StatusInternalServerError, "failed to change pin")
	}

	objects.Manager.Sessions().MarkPINChanged(session.UserID)
	session.RequiresPIN = true
	session.PINVerified = true
	if err := issueSession(c, session); err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to refresh session")
	}
	return responses.Success(c, fiber.Map{"changed": true})
}

// PostPINRecovery issues a single-use recovery token and hands it to
// the notification handler. The token itself never appears in the
// response.
func PostPINRecovery(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return responses.Fail(c, http.StatusUnauthorized, "authentication required")
	}

	grant, err := objects.Manager.Gate().RequestRecovery(session.UserID)
	switch {
	case errors.Is(err, pin.ErrNotFound), errors.Is(err, pin.ErrPINNotSet):
		return responses.Fail(c, http.StatusBadRequest, "no pin to recover")
	case err != nil:
		return responses.Fail(c, http.StatusInternalServerError, "failed to issue recovery token")
	}

	if err := objects.Manager.Notifier().SendRecoveryToken(session.Username, grant); err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to deliver recovery token")
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"success":    true,
		"expires_at": grant.ExpiresAt,
	})
}

// PostPINReset redeems a recovery token and installs a new PIN without
// the old one, clearing any lockout.
func PostPINReset(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return responses.Fail(c, http.StatusUnauthorized, "authentication required")
	}
	var req requests.PINResetRequest
	if err := c.BodyParser(&req); err != nil {
		return responses.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.NewPIN != req.ConfirmPIN {
		return responses.Fail(c, http.StatusBadRequest, "pins do not match")
	}
	if req.RecoveryToken == "" {
		return responses.Fail(c, http.StatusBadRequest, "recovery token is required")
	}

	auth := models.PINAuthorization{RecoveryToken: req.RecoveryToken}
	err := objects.Manager.Gate().SetPIN(session.UserID, req.NewPIN, auth, utils.ClientMeta(c))
	switch {
	case errors.Is(err, pin.ErrInvalidPIN):
		return responses.Fail(c, http.StatusBadRequest, pinFormatMessage())
	// Expired and mismatched tokens are deliberately the same failure
	// to the caller.
	case errors.Is(err, pin.ErrTokenExpired), errors.Is(err, pin.ErrTokenMismatch):
		return responses.Fail(c, http.StatusUnauthorized, "invalid or expired recovery token")
	case errors.Is(err, pin.ErrNotFound):
		return responses.Fail(c, http.StatusUnauthorized, "invalid or expired recovery token")
	case err != nil:
		return responses.Fail(c, http.StatusInternalServerError, "failed to reset pin")
	}

	objects.Manager.Sessions().MarkPINChanged(session.UserID)
	session.RequiresPIN = true
	session.RequiresPINSetup = false
	session.PINVerified = true
	if err := issueSession(c, session); err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to refresh session")
	}
	return responses.Success(c, fiber.Map{"reset": true})
}

// AuditLogs lists the caller's own PIN audit trail, newest first.
func AuditLogs(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return responses.Fail(c, http.StatusUnauthorized, "authentication required")
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	entries, err := objects.Manager.Vault().ListAuditLogs(session.UserID, limit)
	if err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to load audit log")
	}
	return responses.Success(c, entries)
}

func pinFormatMessage() string {
	minLen := objects.Config.GetInt("pin.min_length", 4)
	maxLen := objects.Config.GetInt("pin.max_length", 8)
	return "pin must be " + strconv.Itoa(minLen) + "-" + strconv.Itoa(maxLen) + " digits"
}

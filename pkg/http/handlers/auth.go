package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/oarkflow/xid/wuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oarkflow/pinauth/pkg/http/requests"
	"github.com/oarkflow/pinauth/pkg/http/responses"
	"github.com/oarkflow/pinauth/pkg/models"
	"github.com/oarkflow/pinauth/pkg/objects"
	"github.com/oarkflow/pinauth/pkg/utils"
)

func PostRegister(c *fiber.Ctx) error {
	var req requests.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return responses.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" {
		return responses.Fail(c, http.StatusBadRequest, "username is required")
	}
	if req.Password != req.ConfirmPassword {
		return responses.Fail(c, http.StatusBadRequest, "passwords do not match")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return responses.Fail(c, http.StatusBadRequest, err.Error())
	}
	if _, exists := objects.Manager.LookupUserByUsername(req.Username); exists {
		return responses.Fail(c, http.StatusConflict, "username already registered")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to hash password")
	}

	info := models.UserInfo{
		UserID:   wuid.New().Int64(),
		Username: req.Username,
		IsActive: true,
	}
	if err := objects.Manager.Vault().SetUserInfo(info); err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to create user")
	}
	if err := objects.Manager.Vault().SetUserSecret(info.UserID, string(passHash)); err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to store credentials")
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"user_id":  info.UserID,
		"username": info.Username,
	})
}

func PostLogin(c *fiber.Ctx) error {
	var req requests.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return responses.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return responses.Fail(c, http.StatusBadRequest, "username and password are required")
	}

	// A generic message for every failure path keeps usernames
	// unenumerable.
	info, exists := objects.Manager.LookupUserByUsername(req.Username)
	if !exists || !info.IsActive {
		return responses.Fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	secretHash, err := objects.Manager.Vault().GetUserSecret(info.UserID)
	if err != nil {
		return responses.Fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(req.Password)) != nil {
		return responses.Fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	session, err := objects.Manager.Gate().SessionFor(info.UserID)
	if err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to initialize session")
	}
	session.Username = info.Username

	objects.Manager.Sessions().ClearUserLogout(info.UserID)
	if err := issueSession(c, session); err != nil {
		return responses.Fail(c, http.StatusInternalServerError, "failed to create session token")
	}
	return responses.Success(c, session)
}

func PostLogout(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if ok {
		objects.Manager.Sessions().SetUserLogout(session.UserID)
	}
	clearSession(c)
	return responses.Success(c, fiber.Map{"logged_out": true})
}

func SessionInfo(c *fiber.Ctx) error {
	session, ok := currentSession(c)
	if !ok {
		return responses.Fail(c, http.StatusUnauthorized, "authentication required")
	}
	return responses.Success(c, session)
}

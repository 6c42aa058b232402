package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/oarkflow/pinauth/pkg/models"
)

const passwordMinLength = 8

func GetClientIP(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); len(xff) > 0 {
		if comma := strings.IndexByte(xff, ','); comma > 0 {
			return strings.TrimSpace(xff[:comma])
		}
		return strings.TrimSpace(xff)
	}

	if xri := c.Get("X-Real-IP"); len(xri) > 0 {
		return strings.TrimSpace(xri)
	}

	// c.IP() is already a string; avoid SplitHostPort if no colon
	ip := c.IP()
	if i := strings.LastIndexByte(ip, ':'); i != -1 {
		return ip[:i]
	}
	return ip
}

// ClientMeta extracts the request metadata recorded in audit entries.
func ClientMeta(c *fiber.Ctx) models.ClientMeta {
	return models.ClientMeta{
		IPAddress: GetClientIP(c),
		UserAgent: c.Get("User-Agent"),
	}
}

func GetCookie(secure bool, environment, name, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secure || environment == "production",
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

func StringPtr(s string) *string {
	return &s
}

func ValidatePassword(password string) error {
	if len(password) < passwordMinLength {
		return fmt.Errorf("password must be at least %d characters", passwordMinLength)
	}

	hasUpper, hasLower, hasDigit, hasSpecial := false, false, false, false

	for _, c := range password {
		switch {
		case 'A' <= c && c <= 'Z':
			hasUpper = true
		case 'a' <= c && c <= 'z':
			hasLower = true
		case '0' <= c && c <= '9':
			hasDigit = true
		case isSpecialChar(c):
			hasSpecial = true
		}

		if hasUpper && hasLower && hasDigit && hasSpecial {
			return nil
		}
	}

	if !hasUpper {
		return errors.New("must contain uppercase letter")
	}
	if !hasLower {
		return errors.New("must contain lowercase letter")
	}
	if !hasDigit {
		return errors.New("must contain digit")
	}
	return errors.New("must contain special character")
}

func isSpecialChar(c rune) bool {
	switch c {
	case '!', '@', '#', '$', '%', '^', '&', '*', '(', ')',
		'_', '+', '-', '=', '[', ']', '{', '}', '|',
		';', ':', ',', '.', '<', '>', '?':
		return true
	}
	return false
}

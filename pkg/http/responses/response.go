package responses

import (
	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"status":  status,
	})
}

// FailWith attaches extra fields to an error response, used to carry
// attempt counts and lockout expiry alongside the message.
func FailWith(c *fiber.Ctx, status int, message string, extra fiber.Map) error {
	body := fiber.Map{
		"success": false,
		"error":   message,
		"status":  status,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

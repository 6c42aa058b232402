package middlewares

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/oarkflow/pinauth/pkg/objects"
	"github.com/oarkflow/pinauth/pkg/utils"
)

// RateLimit middleware for protecting endpoints from excessive requests
func RateLimit(c *fiber.Ctx) error {
	return RateLimitWithMax(30)(c) // Default to 30 requests per minute
}

// RateLimitWithMax creates a rate limiting middleware with custom max requests per window
func RateLimitWithMax(maxRequests int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientIP := utils.GetClientIP(c)

		// Unique identifier per endpoint so one hot path cannot starve
		// the rest.
		endpointID := fmt.Sprintf("%s:%s", clientIP, c.Path())

		if objects.Manager.Security().IsRateLimitedWithMax(endpointID, maxRequests) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many requests",
				"message":     "Please wait before making another request",
				"retry_after": "60", // seconds
			})
		}

		objects.Manager.Security().RecordRequest(endpointID)
		return c.Next()
	}
}

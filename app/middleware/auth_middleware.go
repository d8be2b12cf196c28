// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/quickship/charge-console/app/dto"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyMiddleware guards the console endpoints with a shared admin API key.
// Only the bcrypt hash of the key is held in memory.
type AdminKeyMiddleware struct {
	keyHash []byte
}

// NewAdminKeyMiddleware creates a middleware validating against the given
// bcrypt hash of the admin API key.
func NewAdminKeyMiddleware(keyHash string) *AdminKeyMiddleware {
	return &AdminKeyMiddleware{keyHash: []byte(keyHash)}
}

// Authenticate validates the X-Admin-Key header on every request.
func (m *AdminKeyMiddleware) Authenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		key := strings.TrimSpace(c.Get("X-Admin-Key"))
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Admin API key is required",
				Error: dto.ErrorDetail{
					Code: "MISSING_ADMIN_KEY",
				},
			})
		}

		if err := bcrypt.CompareHashAndPassword(m.keyHash, []byte(key)); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid admin API key",
				Error: dto.ErrorDetail{
					Code: "INVALID_ADMIN_KEY",
				},
			})
		}

		return c.Next()
	}
}

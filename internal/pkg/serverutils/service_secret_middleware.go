package serverutils

import (
	"crypto/hmac"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ServiceSecretMiddleware guards inter-service endpoints with a shared
// secret. An empty configured secret disables the check entirely, which
// keeps local development friction-free.
func ServiceSecretMiddleware(secret string) fiber.Handler {
	trimmedSecret := strings.TrimSpace(secret)

	return func(ctx *fiber.Ctx) error {
		if trimmedSecret == "" {
			return ctx.Next()
		}

		provided := strings.TrimSpace(ctx.Get("x-service-secret"))
		if provided == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing service authentication"))
		}

		if !hmac.Equal([]byte(provided), []byte(trimmedSecret)) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid service authentication"))
		}

		return ctx.Next()
	}
}

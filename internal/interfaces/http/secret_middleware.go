package http

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
)

// RequireSharedSecret protege rutas máquina-a-máquina (cron, dispatcher) con
// "Authorization: Bearer <secret>".
//
// Comportamiento:
//   - 503 Service Unavailable → secret sin configurar; la ruta queda deshabilitada.
//   - 401 Unauthorized        → header ausente o secret distinto.
func RequireSharedSecret(secret, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "DISABLED",
				Message: name + " no está configurado",
			})
		}
		got, ok := bearerToken(c)
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "credencial inválida",
			})
		}
		return c.Next()
	}
}

package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
)

var validate = validator.New()

// bindAndValidate parsea el body en dst y lo valida con las etiquetas validate:"...".
// Devuelve *fiber.Error si el JSON no se puede leer y validator.ValidationErrors si no cumple.
func bindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cuerpo inválido")
	}
	return validate.Struct(dst)
}

// parsePage lee ?limit=&offset= aplicando los valores por defecto antes de validar.
func parsePage(c *fiber.Ctx) (dto.PageRequest, error) {
	var p dto.PageRequest
	if err := c.QueryParser(&p); err != nil {
		return p, fiber.NewError(fiber.StatusBadRequest, "parámetros de paginación inválidos")
	}
	p.Normalize()
	return p, validate.Struct(p)
}

// sweepInstant ?now=YYYY-MM-DD permite repetir un barrido para una fecha concreta;
// sin parámetro se usa el reloj del servidor.
func sweepInstant(c *fiber.Ctx, clock func() time.Time) (time.Time, error) {
	d, err := billing.SweepInstant(c.Query("now"), clock)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "now debe tener formato YYYY-MM-DD")
	}
	return d, nil
}

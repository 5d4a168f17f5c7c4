package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
)

// errorMapping status HTTP y código público de un error de dominio.
type errorMapping struct {
	status int
	code   string
}

// domainErrors orden de evaluación: el primer errors.Is que coincide gana.
var domainErrors = []struct {
	target error
	errorMapping
}{
	{domain.ErrInvalidInput, errorMapping{fiber.StatusBadRequest, "VALIDATION"}},
	{domain.ErrTokenInvalid, errorMapping{fiber.StatusUnauthorized, "TOKEN_INVALID"}},
	{domain.ErrUnauthorized, errorMapping{fiber.StatusUnauthorized, "UNAUTHORIZED"}},
	{domain.ErrTokenExpired, errorMapping{fiber.StatusForbidden, "TOKEN_EXPIRED"}},
	{domain.ErrForbidden, errorMapping{fiber.StatusForbidden, "FORBIDDEN"}},
	{domain.ErrNotFound, errorMapping{fiber.StatusNotFound, "NOT_FOUND"}},
	{domain.ErrUserNotFound, errorMapping{fiber.StatusNotFound, "NOT_FOUND"}},
	{domain.ErrInvalidTransition, errorMapping{fiber.StatusConflict, "INVALID_TRANSITION"}},
	{domain.ErrInvoiceLocked, errorMapping{fiber.StatusConflict, "INVOICE_LOCKED"}},
	{domain.ErrAlreadyApproved, errorMapping{fiber.StatusConflict, "ALREADY_APPROVED"}},
	{domain.ErrEmailAlreadyExists, errorMapping{fiber.StatusConflict, "EMAIL_EXISTS"}},
	{domain.ErrDuplicate, errorMapping{fiber.StatusConflict, "CONFLICT"}},
	{domain.ErrConflict, errorMapping{fiber.StatusConflict, "CONFLICT"}},
	{domain.ErrWeakPassword, errorMapping{fiber.StatusUnprocessableEntity, "WEAK_PASSWORD"}},
}

// respondError traduce err a dto.ErrorResponse. Los 500 llevan un mensaje genérico;
// el detalle solo va al log junto con el request id.
func respondError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: fe.Message})
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: describeValidation(ve)})
	}
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: publicMessage(err, m.target)})
		}
	}
	log.Error().Err(err).
		Str("request_id", requestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("error interno en petición HTTP")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

// publicMessage las transiciones describen la arista intentada; el resto usa el texto del sentinel.
func publicMessage(err, target error) string {
	var te *domain.TransitionError
	if errors.As(err, &te) {
		return te.Error()
	}
	return target.Error()
}

func describeValidation(ve validator.ValidationErrors) string {
	if len(ve) == 0 {
		return "datos inválidos"
	}
	fe := ve[0]
	msg := "campo " + fe.Field() + " no cumple " + fe.Tag()
	if len(ve) > 1 {
		msg += " (y otros errores)"
	}
	return msg
}

func requestID(c *fiber.Ctx) string {
	if s, ok := c.Locals("requestid").(string); ok {
		return s
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

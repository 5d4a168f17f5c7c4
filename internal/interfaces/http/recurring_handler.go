package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
)

// RecurringHandler maneja schedules recurrentes y plantillas de líneas (protegido).
type RecurringHandler struct {
	uc *billing.RecurringUseCase
}

// NewRecurringHandler construye el handler.
func NewRecurringHandler(uc *billing.RecurringUseCase) *RecurringHandler {
	return &RecurringHandler{uc: uc}
}

// Create godoc
// @Summary      Crear schedule recurrente
// @Tags         recurring
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateRecurringRequest  true  "cliente, plantilla y cadencia"
// @Success      201   {object}  dto.RecurringResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/recurring-invoices [post]
func (h *RecurringHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRecurringRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Create(c.Context(), GetContractorID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/recurring-invoices
func (h *RecurringHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.Context(), GetContractorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/recurring-invoices/:id
func (h *RecurringHandler) GetByID(c *fiber.Ctx) error {
	return h.byID(c, h.uc.Get)
}

// Pause POST /api/recurring-invoices/:id/pause
func (h *RecurringHandler) Pause(c *fiber.Ctx) error {
	return h.byID(c, h.uc.Pause)
}

// Resume POST /api/recurring-invoices/:id/resume. Si la próxima fecha quedó atrás
// se adelanta a la siguiente ocurrencia futura.
func (h *RecurringHandler) Resume(c *fiber.Ctx) error {
	return h.byID(c, h.uc.Resume)
}

func (h *RecurringHandler) byID(c *fiber.Ctx, fn func(ctx context.Context, contractorID, id string) (*dto.RecurringResponse, error)) error {
	out, err := fn(c.Context(), GetContractorID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update PATCH /api/recurring-invoices/:id
func (h *RecurringHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateRecurringRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Update(c.Context(), GetContractorID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CreateTemplate POST /api/invoice-templates
func (h *RecurringHandler) CreateTemplate(c *fiber.Ctx) error {
	var in dto.CreateTemplateRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.CreateTemplate(c.Context(), GetContractorID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListTemplates GET /api/invoice-templates
func (h *RecurringHandler) ListTemplates(c *fiber.Ctx) error {
	list, err := h.uc.ListTemplates(c.Context(), GetContractorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

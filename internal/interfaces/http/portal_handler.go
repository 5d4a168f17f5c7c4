package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/portal"
)

// PortalHandler frontera pública del portal de clientes. La autenticación va en el
// propio body (token opaco), no en el header.
type PortalHandler struct {
	uc *portal.UseCase
}

// NewPortalHandler construye el handler.
func NewPortalHandler(uc *portal.UseCase) *PortalHandler {
	return &PortalHandler{uc: uc}
}

// Handle godoc
// @Summary      Acción del portal de clientes
// @Description  Acciones: get_invoices, view_invoice, approve_invoice.
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PortalRequest  true  "token, action, invoice_id, approved_by"
// @Success      200   {object}  dto.PortalResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/portal [post]
func (h *PortalHandler) Handle(c *fiber.Ctx) error {
	var in dto.PortalRequest
	if err := bindAndValidate(c, &in); err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.Handle(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/zzp-facturatie-api/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del dashboard financiero.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve el resumen financiero del contractor.
// GET /api/dashboard
//
// Respuesta: DashboardDTO (outstanding_cents, overdue_cents, paid_this_month_cents,
// status_counts, monthly_revenue[12]).
// No requiere parámetros; el mes en curso se calcula en el servidor.
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.Context(), GetContractorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

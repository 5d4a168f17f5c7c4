package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
)

// GenerationRunner barrido de facturas recurrentes (*billing.GenerationSweep).
type GenerationRunner interface {
	Run(ctx context.Context, now time.Time) (*dto.GenerationReport, error)
}

// OverdueRunner barrido de recordatorios y vencimientos (*billing.OverdueSweep).
type OverdueRunner interface {
	Run(ctx context.Context, now time.Time) (*dto.SweepReport, error)
}

// CronHandler disparadores de los barridos. Van detrás de RequireSharedSecret.
// Un fallo por ítem no es un error HTTP: viaja dentro del reporte.
type CronHandler struct {
	generation GenerationRunner
	overdue    OverdueRunner
	now        func() time.Time
}

// NewCronHandler construye el handler.
func NewCronHandler(generation GenerationRunner, overdue OverdueRunner) *CronHandler {
	return &CronHandler{generation: generation, overdue: overdue, now: time.Now}
}

// GenerateRecurring POST /api/cron/generate-recurring[?now=YYYY-MM-DD]
func (h *CronHandler) GenerateRecurring(c *fiber.Ctx) error {
	now, err := sweepInstant(c, h.now)
	if err != nil {
		return respondError(c, err)
	}
	report, err := h.generation.Run(c.Context(), now)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// OverdueSweep POST /api/cron/overdue-sweep[?now=YYYY-MM-DD]
func (h *CronHandler) OverdueSweep(c *fiber.Ctx) error {
	now, err := sweepInstant(c, h.now)
	if err != nil {
		return respondError(c, err)
	}
	report, err := h.overdue.Run(c.Context(), now)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

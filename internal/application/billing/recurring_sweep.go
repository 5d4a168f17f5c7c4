package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/recurrence"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

// SweepConfig parámetros compartidos por los dos barridos.
type SweepConfig struct {
	ReminderWindowDays int           // días antes del vencimiento en que se envía el recordatorio
	ItemTimeout        time.Duration // límite por schedule / factura
	PublicURL          string        // base de los enlaces del portal en los emails
}

func (c SweepConfig) withDefaults() SweepConfig {
	if c.ReminderWindowDays <= 0 {
		c.ReminderWindowDays = 3
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = 15 * time.Second
	}
	return c
}

// SweepInstant instante de referencia de un barrido, común a todos los disparadores.
// raw vacío toma el reloj convertido a UTC; si no, raw es una fecha YYYY-MM-DD a medianoche UTC.
func SweepInstant(raw string, clock func() time.Time) (time.Time, error) {
	if raw == "" {
		return clock().UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}

// errNotDue el schedule dejó de estar vencido entre el listado y el bloqueo (otra ejecución lo procesó).
var errNotDue = errors.New("schedule ya procesado")

// GenerationSweep materializa las facturas de los schedules recurrentes vencidos.
type GenerationSweep struct {
	txRunner      BillingTxRunner
	recurringRepo repository.RecurringInvoiceRepository
	cfg           SweepConfig
	log           zerolog.Logger
}

// NewGenerationSweep construye el barrido. recurringRepo se usa solo para el listado inicial,
// fuera de cualquier transacción.
func NewGenerationSweep(
	txRunner BillingTxRunner,
	recurringRepo repository.RecurringInvoiceRepository,
	cfg SweepConfig,
	log zerolog.Logger,
) *GenerationSweep {
	return &GenerationSweep{
		txRunner:      txRunner,
		recurringRepo: recurringRepo,
		cfg:           cfg.withDefaults(),
		log:           log.With().Str("sweep", "recurring").Logger(),
	}
}

// Run genera como máximo una factura por schedule activo con nextInvoiceDate <= now.
// Cada schedule se procesa en su propia transacción: un fallo deja ese schedule intacto
// (reintentable en la próxima ejecución) y no afecta a los demás.
func (s *GenerationSweep) Run(ctx context.Context, now time.Time) (*dto.GenerationReport, error) {
	today := entity.DateOf(now)
	due, err := s.recurringRepo.ListDue(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("listar schedules vencidos: %w", err)
	}

	report := &dto.GenerationReport{
		RunAt:   now.UTC().Format(time.RFC3339),
		Results: make([]dto.GenerationResult, 0, len(due)),
	}
	for _, sch := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := s.generateOne(ctx, sch.ID, now)
		switch {
		case errors.Is(err, errNotDue):
			report.Skipped++
			s.log.Debug().Str("schedule_id", sch.ID).Msg("schedule ya procesado por otra ejecución")
		case err != nil:
			report.Failures++
			s.log.Error().Err(err).Str("schedule_id", sch.ID).Str("contractor_id", sch.ContractorID).
				Msg("fallo al generar factura recurrente")
			report.Results = append(report.Results, dto.GenerationResult{
				ScheduleID: sch.ID,
				Success:    false,
				Error:      err.Error(),
			})
		default:
			report.Generated++
			report.Results = append(report.Results, res)
		}
	}

	s.log.Info().
		Int("due", len(due)).
		Int("generated", report.Generated).
		Int("skipped", report.Skipped).
		Int("failures", report.Failures).
		Msg("barrido de recurrentes completado")
	return report, nil
}

// generateOne ejecuta los pasos número → factura → líneas → avance → auditoría de forma atómica.
func (s *GenerationSweep) generateOne(ctx context.Context, scheduleID string, now time.Time) (dto.GenerationResult, error) {
	itemCtx, cancel := context.WithTimeout(ctx, s.cfg.ItemTimeout)
	defer cancel()

	var result dto.GenerationResult
	err := s.txRunner.RunBilling(itemCtx, func(
		invoiceRepo repository.InvoiceRepository,
		recurringRepo repository.RecurringInvoiceRepository,
		templateRepo repository.TemplateRepository,
		numbers repository.InvoiceNumberAllocator,
		auditRepo repository.AuditRepository,
	) error {
		sch, err := recurringRepo.GetForUpdate(itemCtx, scheduleID)
		if err != nil {
			return fmt.Errorf("bloquear schedule: %w", err)
		}
		if sch == nil || !sch.IsDue(now) {
			return errNotDue
		}

		inv, err := s.buildInvoice(itemCtx, sch, templateRepo, numbers, now)
		if err != nil {
			return err
		}
		if err := invoiceRepo.Create(itemCtx, inv); err != nil {
			if errors.Is(err, domain.ErrAlreadyGenerated) {
				return errNotDue
			}
			return fmt.Errorf("crear factura: %w", err)
		}
		for i := range inv.LineItems {
			if err := invoiceRepo.CreateLineItem(itemCtx, &inv.LineItems[i]); err != nil {
				return fmt.Errorf("crear línea %d: %w", i+1, err)
			}
		}

		issued := sch.NextInvoiceDate
		if err := recurrence.Advance(sch, now); err != nil {
			return err
		}
		if err := recurringRepo.Update(itemCtx, sch); err != nil {
			return fmt.Errorf("avanzar schedule: %w", err)
		}

		if err := auditRepo.Record(itemCtx, &entity.AuditEntry{
			ID:           uuid.New().String(),
			ContractorID: sch.ContractorID,
			EntityType:   "invoice",
			EntityID:     inv.ID,
			Action:       entity.AuditRecurringRun,
			Actor:        entity.ActorSystem,
			Details: map[string]any{
				"recurring_invoice_id": sch.ID,
				"issue_date":           issued.Format(entity.DateFormat),
				"next_invoice_date":    sch.NextInvoiceDate.Format(entity.DateFormat),
				"is_active":            sch.IsActive,
			},
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("auditoría: %w", err)
		}

		result = dto.GenerationResult{
			ScheduleID:    sch.ID,
			Success:       true,
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errNotDue) {
			return result, errNotDue
		}
		return result, fmt.Errorf("%w: schedule %s: %w", domain.ErrGenerationFailure, scheduleID, err)
	}
	return result, nil
}

// buildInvoice arma la factura DRAFT de la ocurrencia actual del schedule.
func (s *GenerationSweep) buildInvoice(
	ctx context.Context,
	sch *entity.RecurringInvoice,
	templateRepo repository.TemplateRepository,
	numbers repository.InvoiceNumberAllocator,
	now time.Time,
) (*entity.Invoice, error) {
	issueDate := entity.DateOf(sch.NextInvoiceDate)
	number, err := numbers.Next(ctx, sch.ContractorID, now)
	if err != nil {
		return nil, fmt.Errorf("asignar número: %w", err)
	}

	scheduleID := sch.ID
	inv := &entity.Invoice{
		ID:                 uuid.New().String(),
		ContractorID:       sch.ContractorID,
		ClientID:           sch.ClientID,
		RecurringInvoiceID: &scheduleID,
		InvoiceNumber:      number,
		Status:             entity.InvoiceStatusDraft,
		IssueDate:          issueDate,
		DueDate:            recurrence.DueDate(issueDate, sch.PaymentTermsDays),
		VATRatePercent:     sch.VATRatePercent,
		Currency:           sch.Currency,
		Notes:              sch.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if inv.Currency == "" {
		inv.Currency = "EUR"
	}

	if sch.TemplateID != nil {
		tpl, err := templateRepo.GetByID(ctx, *sch.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("leer plantilla: %w", err)
		}
		if tpl == nil || tpl.ContractorID != sch.ContractorID {
			return nil, fmt.Errorf("plantilla %s: %w", *sch.TemplateID, domain.ErrNotFound)
		}
		inv.LineItems = tpl.ToLineItems()
	}
	for i := range inv.LineItems {
		inv.LineItems[i].ID = uuid.New().String()
		inv.LineItems[i].InvoiceID = inv.ID
	}
	inv.RecalculateTotals()
	return inv, nil
}

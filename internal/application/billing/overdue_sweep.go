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
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/lifecycle"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

// OverdueSweep envía recordatorios de pago y marca como OVERDUE las facturas vencidas.
//
// El recordatorio solo se sella si el envío tuvo éxito (un fallo se reintenta en el próximo
// barrido). El paso a OVERDUE es incondicional y la notificación es best-effort.
type OverdueSweep struct {
	txRunner       BillingTxRunner
	invoiceRepo    repository.InvoiceRepository
	contractorRepo repository.ContractorRepository
	clientRepo     repository.ClientRepository
	auditRepo      repository.AuditRepository
	notifier       Notifier
	cfg            SweepConfig
	log            zerolog.Logger
}

// NewOverdueSweep construye el barrido.
func NewOverdueSweep(
	txRunner BillingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	contractorRepo repository.ContractorRepository,
	clientRepo repository.ClientRepository,
	auditRepo repository.AuditRepository,
	notifier Notifier,
	cfg SweepConfig,
	log zerolog.Logger,
) *OverdueSweep {
	return &OverdueSweep{
		txRunner:       txRunner,
		invoiceRepo:    invoiceRepo,
		contractorRepo: contractorRepo,
		clientRepo:     clientRepo,
		auditRepo:      auditRepo,
		notifier:       notifier,
		cfg:            cfg.withDefaults(),
		log:            log.With().Str("sweep", "overdue").Logger(),
	}
}

var openStatuses = []entity.InvoiceStatus{entity.InvoiceStatusSent, entity.InvoiceStatusViewed}

// Run ejecuta la pasada de recordatorios y después la de vencidas. Es idempotente:
// una segunda ejecución con el mismo now no cambia nada y no vuelve a notificar.
func (s *OverdueSweep) Run(ctx context.Context, now time.Time) (*dto.SweepReport, error) {
	today := entity.DateOf(now)
	report := &dto.SweepReport{
		RunAt:     now.UTC().Format(time.RFC3339),
		Reminders: []dto.SweepItemResult{},
		Overdue:   []dto.SweepItemResult{},
	}
	parties := newPartyCache(s.contractorRepo, s.clientRepo)

	// ── 1. Recordatorios: vencen entre hoy y hoy + ventana, sin recordatorio previo ──
	windowEnd := entity.AddDays(today, s.cfg.ReminderWindowDays)
	upcoming, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{
		Statuses:        openStatuses,
		DueFrom:         &today,
		DueTo:           &windowEnd,
		ReminderPending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listar facturas próximas a vencer: %w", err)
	}
	for _, inv := range upcoming {
		res := s.remind(ctx, parties, inv, now)
		report.Reminders = append(report.Reminders, res)
		switch res.Outcome {
		case dto.SweepOutcomeReminded:
			report.RemindersSent++
		case dto.SweepOutcomeSkipped:
			report.Skipped++
		case dto.SweepOutcomeFailed:
			report.Failures++
		}
	}

	// ── 2. Vencidas: dueDate < hoy ───────────────────────────────────────────────
	pastDue, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{
		Statuses:  openStatuses,
		DueBefore: &today,
	})
	if err != nil {
		return nil, fmt.Errorf("listar facturas vencidas: %w", err)
	}
	for _, inv := range pastDue {
		res := s.markOverdue(ctx, parties, inv, now)
		report.Overdue = append(report.Overdue, res)
		switch res.Outcome {
		case dto.SweepOutcomeOverdue:
			report.NewlyOverdue++
		case dto.SweepOutcomeSkipped:
			report.Skipped++
		case dto.SweepOutcomeFailed:
			report.Failures++
		}
	}

	s.log.Info().
		Int("reminders_sent", report.RemindersSent).
		Int("newly_overdue", report.NewlyOverdue).
		Int("skipped", report.Skipped).
		Int("failures", report.Failures).
		Msg("barrido de vencimientos completado")
	return report, nil
}

func (s *OverdueSweep) remind(ctx context.Context, parties *partyCache, inv *entity.Invoice, now time.Time) dto.SweepItemResult {
	res := dto.SweepItemResult{InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber}
	log := s.log.With().Str("invoice_id", inv.ID).Str("pass", "reminder").Logger()

	contractor, client, err := parties.load(ctx, inv)
	if err != nil {
		log.Error().Err(err).Msg("no se pudo cargar contractor o cliente")
		res.Outcome, res.Reason = dto.SweepOutcomeFailed, "datos de contractor o cliente no disponibles"
		return res
	}
	if !contractor.Preferences.Enabled(entity.NotificationPaymentReminder) {
		log.Debug().Msg("recordatorios desactivados por el contractor")
		res.Outcome, res.Reason = dto.SweepOutcomeSkipped, "preferencia payment_reminder desactivada"
		return res
	}
	if client.RecipientEmail() == "" {
		log.Warn().Str("client_id", client.ID).Msg("cliente sin email; recordatorio omitido")
		res.Outcome, res.Reason = dto.SweepOutcomeSkipped, "cliente sin email"
		return res
	}

	data := invoiceNotificationData(inv, contractor, s.cfg.PublicURL)
	data["daysUntilDue"] = inv.DaysUntilDue(now)
	sent, result := notifyClient(ctx, s.notifier, log, entity.NotificationPaymentReminder, contractor, client, data, s.cfg.ItemTimeout)
	if !sent || !result.Success {
		res.Outcome, res.Reason = dto.SweepOutcomeFailed, domain.ErrDispatchFailure.Error()
		return res
	}
	res.Notified = true

	marked, err := s.invoiceRepo.MarkReminderSent(ctx, inv.ID, now)
	if err != nil {
		// El email salió pero la marca no: el próximo barrido lo reenviará (al menos una vez).
		log.Error().Err(err).Msg("no se pudo sellar reminder_sent_at")
		res.Outcome, res.Reason = dto.SweepOutcomeFailed, "no se pudo registrar el recordatorio"
		return res
	}
	if !marked {
		res.Outcome, res.Reason = dto.SweepOutcomeSkipped, "recordatorio ya registrado"
		return res
	}
	s.audit(ctx, inv, entity.AuditInvoiceReminded, map[string]any{"message_id": result.ID}, now)
	res.Outcome = dto.SweepOutcomeReminded
	return res
}

func (s *OverdueSweep) markOverdue(ctx context.Context, parties *partyCache, inv *entity.Invoice, now time.Time) dto.SweepItemResult {
	res := dto.SweepItemResult{InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber}
	log := s.log.With().Str("invoice_id", inv.ID).Str("pass", "overdue").Logger()

	itemCtx, cancel := context.WithTimeout(ctx, s.cfg.ItemTimeout)
	defer cancel()

	expected := inv.Status
	err := s.txRunner.RunBilling(itemCtx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.RecurringInvoiceRepository,
		_ repository.TemplateRepository,
		_ repository.InvoiceNumberAllocator,
		auditRepo repository.AuditRepository,
	) error {
		if err := lifecycle.MarkOverdue(inv, now); err != nil {
			return err
		}
		ok, err := invoiceRepo.UpdateLifecycle(itemCtx, inv, expected)
		if err != nil {
			return err
		}
		if !ok {
			return lifecycle.ErrNoop
		}
		return auditRepo.Record(itemCtx, &entity.AuditEntry{
			ID:           uuid.New().String(),
			ContractorID: inv.ContractorID,
			EntityType:   "invoice",
			EntityID:     inv.ID,
			Action:       entity.AuditInvoiceOverdue,
			Actor:        entity.ActorSystem,
			Details:      map[string]any{"from": string(expected), "due_date": inv.DueDate.Format(entity.DateFormat)},
			CreatedAt:    now,
		})
	})
	switch {
	case errors.Is(err, lifecycle.ErrNoop):
		res.Outcome, res.Reason = dto.SweepOutcomeSkipped, "estado ya actualizado"
		return res
	case err != nil:
		log.Error().Err(err).Msg("no se pudo marcar la factura como vencida")
		res.Outcome, res.Reason = dto.SweepOutcomeFailed, "no se pudo actualizar el estado"
		return res
	}
	res.Outcome = dto.SweepOutcomeOverdue

	contractor, client, err := parties.load(ctx, inv)
	if err != nil {
		log.Warn().Err(err).Msg("factura vencida sin notificación: contractor o cliente no disponibles")
		return res
	}
	data := invoiceNotificationData(inv, contractor, s.cfg.PublicURL)
	data["daysOverdue"] = -inv.DaysUntilDue(now)
	sent, result := notifyClient(ctx, s.notifier, log, entity.NotificationInvoiceOverdue, contractor, client, data, s.cfg.ItemTimeout)
	res.Notified = sent && result.Success
	return res
}

// audit registra fuera de transacción; un fallo solo se loguea.
func (s *OverdueSweep) audit(ctx context.Context, inv *entity.Invoice, action string, details map[string]any, now time.Time) {
	err := s.auditRepo.Record(ctx, &entity.AuditEntry{
		ID:           uuid.New().String(),
		ContractorID: inv.ContractorID,
		EntityType:   "invoice",
		EntityID:     inv.ID,
		Action:       action,
		Actor:        entity.ActorSystem,
		Details:      details,
		CreatedAt:    now,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("invoice_id", inv.ID).Str("action", action).Msg("no se pudo registrar auditoría")
	}
}

// partyCache evita releer el mismo contractor o cliente en una ejecución.
type partyCache struct {
	contractorRepo repository.ContractorRepository
	clientRepo     repository.ClientRepository
	contractors    map[string]*entity.Contractor
	clients        map[string]*entity.Client
}

func newPartyCache(contractorRepo repository.ContractorRepository, clientRepo repository.ClientRepository) *partyCache {
	return &partyCache{
		contractorRepo: contractorRepo,
		clientRepo:     clientRepo,
		contractors:    map[string]*entity.Contractor{},
		clients:        map[string]*entity.Client{},
	}
}

func (c *partyCache) load(ctx context.Context, inv *entity.Invoice) (*entity.Contractor, *entity.Client, error) {
	contractor, ok := c.contractors[inv.ContractorID]
	if !ok {
		var err error
		contractor, err = c.contractorRepo.GetByID(ctx, inv.ContractorID)
		if err != nil {
			return nil, nil, err
		}
		if contractor == nil {
			return nil, nil, fmt.Errorf("contractor %s: %w", inv.ContractorID, domain.ErrNotFound)
		}
		c.contractors[inv.ContractorID] = contractor
	}
	client, ok := c.clients[inv.ClientID]
	if !ok {
		var err error
		client, err = c.clientRepo.GetByID(ctx, inv.ClientID)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, fmt.Errorf("cliente %s: %w", inv.ClientID, domain.ErrNotFound)
		}
		c.clients[inv.ClientID] = client
	}
	return contractor, client, nil
}

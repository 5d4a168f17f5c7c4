package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/lifecycle"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/money"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/recurrence"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

// DefaultPaymentTermsDays plazo de pago cuando la petición no indica fecha de vencimiento ni plazo.
const DefaultPaymentTermsDays = 30

// InvoiceUseCase casos de uso del contractor sobre sus facturas.
type InvoiceUseCase struct {
	txRunner       BillingTxRunner
	invoiceRepo    repository.InvoiceRepository
	clientRepo     repository.ClientRepository
	contractorRepo repository.ContractorRepository
	auditRepo      repository.AuditRepository
	notifier       Notifier
	pdf            InvoicePDFGenerator
	ubl            UBLBuilder
	cfg            SweepConfig
	log            zerolog.Logger
	now            func() time.Time
}

// NewInvoiceUseCase construye el caso de uso inyectando todas sus dependencias.
func NewInvoiceUseCase(
	txRunner BillingTxRunner,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	contractorRepo repository.ContractorRepository,
	auditRepo repository.AuditRepository,
	notifier Notifier,
	pdf InvoicePDFGenerator,
	ubl UBLBuilder,
	cfg SweepConfig,
	log zerolog.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:       txRunner,
		invoiceRepo:    invoiceRepo,
		clientRepo:     clientRepo,
		contractorRepo: contractorRepo,
		auditRepo:      auditRepo,
		notifier:       notifier,
		pdf:            pdf,
		ubl:            ubl,
		cfg:            cfg.withDefaults(),
		log:            log.With().Str("usecase", "invoice").Logger(),
		now:            time.Now,
	}
}

// WithClock sustituye el reloj (tests).
func (uc *InvoiceUseCase) WithClock(now func() time.Time) *InvoiceUseCase {
	uc.now = now
	return uc
}

// Create crea una factura manual en DRAFT con número asignado.
func (uc *InvoiceUseCase) Create(ctx context.Context, contractorID, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	client, err := uc.ownedClient(ctx, contractorID, in.ClientID)
	if err != nil {
		return nil, err
	}
	now := uc.now()

	issueDate := entity.DateOf(now)
	if in.IssueDate != "" {
		if issueDate, err = entity.ParseDate(in.IssueDate); err != nil {
			return nil, fmt.Errorf("%w: issue_date", domain.ErrInvalidInput)
		}
	}
	dueDate, err := resolveDueDate(issueDate, in.DueDate, in.PaymentTermsDays)
	if err != nil {
		return nil, err
	}
	rate, err := resolveVATRate(in.VATRatePercent, money.VATHigh)
	if err != nil {
		return nil, err
	}
	items, err := buildLineItems(in.Items)
	if err != nil {
		return nil, err
	}

	inv := &entity.Invoice{
		ID:             uuid.New().String(),
		ContractorID:   contractorID,
		ClientID:       client.ID,
		Status:         entity.InvoiceStatusDraft,
		IssueDate:      issueDate,
		DueDate:        dueDate,
		VATRatePercent: rate,
		Currency:       "EUR",
		Notes:          in.Notes,
		LineItems:      items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range inv.LineItems {
		inv.LineItems[i].ID = uuid.New().String()
		inv.LineItems[i].InvoiceID = inv.ID
	}
	inv.RecalculateTotals()

	err = uc.txRunner.RunBilling(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.RecurringInvoiceRepository,
		_ repository.TemplateRepository,
		numbers repository.InvoiceNumberAllocator,
		auditRepo repository.AuditRepository,
	) error {
		number, err := numbers.Next(ctx, contractorID, now)
		if err != nil {
			return fmt.Errorf("asignar número: %w", err)
		}
		inv.InvoiceNumber = number
		if err := invoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		for i := range inv.LineItems {
			if err := invoiceRepo.CreateLineItem(ctx, &inv.LineItems[i]); err != nil {
				return err
			}
		}
		return auditRepo.Record(ctx, newAudit(inv, entity.AuditInvoiceCreated, userID, nil, now))
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv, client.Name), nil
}

// Update modifica una factura en DRAFT. Con cualquier otro estado devuelve ErrInvoiceLocked.
func (uc *InvoiceUseCase) Update(ctx context.Context, contractorID, userID, id string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := uc.loadOwned(ctx, contractorID, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.EnsureEditable(inv); err != nil {
		return nil, err
	}
	now := uc.now()

	if in.DueDate != "" {
		due, err := entity.ParseDate(in.DueDate)
		if err != nil || due.Before(entity.DateOf(inv.IssueDate)) {
			return nil, fmt.Errorf("%w: due_date", domain.ErrInvalidInput)
		}
		inv.DueDate = due
	}
	if in.VATRatePercent != nil {
		if inv.VATRatePercent, err = resolveVATRate(in.VATRatePercent, inv.VATRatePercent); err != nil {
			return nil, err
		}
	}
	if in.Notes != nil {
		inv.Notes = *in.Notes
	}
	replaceLines := in.Items != nil
	if replaceLines {
		items, err := buildLineItems(in.Items)
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].ID = uuid.New().String()
			items[i].InvoiceID = inv.ID
		}
		inv.LineItems = items
	}
	inv.RecalculateTotals()
	inv.UpdatedAt = now

	err = uc.txRunner.RunBilling(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.RecurringInvoiceRepository,
		_ repository.TemplateRepository,
		_ repository.InvoiceNumberAllocator,
		auditRepo repository.AuditRepository,
	) error {
		if replaceLines {
			if err := invoiceRepo.ReplaceLineItems(ctx, inv.ID, inv.LineItems); err != nil {
				return err
			}
		}
		if err := invoiceRepo.UpdateDraft(ctx, inv); err != nil {
			return err
		}
		return auditRepo.Record(ctx, newAudit(inv, entity.AuditInvoiceUpdated, userID,
			map[string]any{"total_cents": inv.TotalCents}, now))
	})
	if err != nil {
		return nil, err
	}
	return uc.respond(ctx, inv)
}

// Send DRAFT → SENT y notifica al cliente (invoice_sent, best-effort).
func (uc *InvoiceUseCase) Send(ctx context.Context, contractorID, userID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.transition(ctx, contractorID, userID, id, entity.AuditInvoiceSent, lifecycle.Send)
	if err != nil {
		return nil, err
	}
	uc.notifyClient(ctx, inv, entity.NotificationInvoiceSent, nil)
	return uc.respond(ctx, inv)
}

// MarkPaid SENT|VIEWED|OVERDUE → PAID y notifica invoice_paid.
func (uc *InvoiceUseCase) MarkPaid(ctx context.Context, contractorID, userID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.transition(ctx, contractorID, userID, id, entity.AuditInvoicePaid, lifecycle.MarkPaid)
	if err != nil {
		return nil, err
	}
	uc.notifyClient(ctx, inv, entity.NotificationInvoicePaid, map[string]any{
		"paidAt": inv.PaidAt.Format(entity.DateFormat),
	})
	return uc.respond(ctx, inv)
}

// Cancel cancela una factura no pagada. Una factura cancelada ya no admite transiciones.
func (uc *InvoiceUseCase) Cancel(ctx context.Context, contractorID, userID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.transition(ctx, contractorID, userID, id, entity.AuditInvoiceCancelled, lifecycle.Cancel)
	if err != nil {
		return nil, err
	}
	return uc.respond(ctx, inv)
}

// transition aplica fn y persiste con compare-and-set sobre el estado leído.
// Si otro actor cambió el estado entre la lectura y la escritura devuelve ErrConflict.
func (uc *InvoiceUseCase) transition(
	ctx context.Context,
	contractorID, userID, id, action string,
	fn func(*entity.Invoice, time.Time) error,
) (*entity.Invoice, error) {
	inv, err := uc.loadOwned(ctx, contractorID, id)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	expected := inv.Status
	if err := fn(inv, now); err != nil {
		return nil, err
	}
	err = uc.txRunner.RunBilling(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.RecurringInvoiceRepository,
		_ repository.TemplateRepository,
		_ repository.InvoiceNumberAllocator,
		auditRepo repository.AuditRepository,
	) error {
		ok, err := invoiceRepo.UpdateLifecycle(ctx, inv, expected)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: la factura cambió de estado", domain.ErrConflict)
		}
		return auditRepo.Record(ctx, newAudit(inv, action, userID,
			map[string]any{"from": string(expected), "to": string(inv.Status)}, now))
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Get devuelve la factura con sus líneas.
func (uc *InvoiceUseCase) Get(ctx context.Context, contractorID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.loadOwned(ctx, contractorID, id)
	if err != nil {
		return nil, err
	}
	return uc.respond(ctx, inv)
}

// List lista facturas del contractor filtrando por estado y cliente.
func (uc *InvoiceUseCase) List(ctx context.Context, contractorID string, q dto.InvoiceListQuery) ([]*dto.InvoiceResponse, error) {
	q.Normalize()
	filter := repository.InvoiceFilter{
		ContractorID: contractorID,
		ClientID:     q.ClientID,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if q.Status != "" {
		st, err := entity.ParseInvoiceStatus(q.Status)
		if err != nil {
			return nil, err
		}
		filter.Statuses = []entity.InvoiceStatus{st}
	}
	list, err := uc.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	out := make([]*dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		name, ok := names[inv.ClientID]
		if !ok {
			if c, _ := uc.clientRepo.GetByID(ctx, inv.ClientID); c != nil {
				name = c.Name
			}
			names[inv.ClientID] = name
		}
		out = append(out, ToInvoiceResponse(inv, name))
	}
	return out, nil
}

// History entradas de auditoría de la factura, de la más antigua a la más reciente.
func (uc *InvoiceUseCase) History(ctx context.Context, contractorID, id string) ([]dto.AuditEntryResponse, error) {
	if _, err := uc.loadOwned(ctx, contractorID, id); err != nil {
		return nil, err
	}
	entries, err := uc.auditRepo.ListByEntity(ctx, contractorID, "invoice", id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditEntryResponse{
			Action:    e.Action,
			Actor:     e.Actor,
			Details:   e.Details,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// DownloadPDF genera el PDF de la factura. Retorna (pdfBytes, filename, nil).
func (uc *InvoiceUseCase) DownloadPDF(ctx context.Context, contractorID, id string) ([]byte, string, error) {
	inv, contractor, client, err := uc.loadForDocument(ctx, contractorID, id)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.pdf.Generate(inv, contractor, client)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar: %w", err)
	}
	return pdfBytes, fmt.Sprintf("factuur-%s.pdf", inv.InvoiceNumber), nil
}

// ExportUBL genera el XML UBL de una factura ya enviada; en DRAFT devuelve ErrInvalidInput.
func (uc *InvoiceUseCase) ExportUBL(ctx context.Context, contractorID, id string) ([]byte, string, error) {
	inv, contractor, client, err := uc.loadForDocument(ctx, contractorID, id)
	if err != nil {
		return nil, "", err
	}
	if inv.Status == entity.InvoiceStatusDraft {
		return nil, "", fmt.Errorf("%w: la factura está en DRAFT", domain.ErrInvalidInput)
	}
	xmlBytes, err := uc.ubl.Build(inv, contractor, client)
	if err != nil {
		return nil, "", fmt.Errorf("ubl: generar: %w", err)
	}
	return xmlBytes, fmt.Sprintf("factuur-%s.xml", inv.InvoiceNumber), nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (uc *InvoiceUseCase) loadForDocument(ctx context.Context, contractorID, id string) (*entity.Invoice, *entity.Contractor, *entity.Client, error) {
	inv, err := uc.loadOwned(ctx, contractorID, id)
	if err != nil {
		return nil, nil, nil, err
	}
	contractor, err := uc.contractorRepo.GetByID(ctx, contractorID)
	if err != nil || contractor == nil {
		return nil, nil, nil, fmt.Errorf("obtener contractor: %w", errors.Join(domain.ErrNotFound, err))
	}
	client, err := uc.clientRepo.GetByID(ctx, inv.ClientID)
	if err != nil || client == nil {
		return nil, nil, nil, fmt.Errorf("obtener cliente: %w", errors.Join(domain.ErrNotFound, err))
	}
	return inv, contractor, client, nil
}

// loadOwned carga la factura con sus líneas; si no pertenece al contractor responde como inexistente.
func (uc *InvoiceUseCase) loadOwned(ctx context.Context, contractorID, id string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil || inv.ContractorID != contractorID {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	if inv.LineItems, err = uc.invoiceRepo.GetLineItems(ctx, id); err != nil {
		return nil, fmt.Errorf("obtener líneas: %w", err)
	}
	return inv, nil
}

func (uc *InvoiceUseCase) ownedClient(ctx context.Context, contractorID, clientID string) (*entity.Client, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id requerido", domain.ErrInvalidInput)
	}
	client, err := uc.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if client == nil || client.ContractorID != contractorID {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	return client, nil
}

func (uc *InvoiceUseCase) respond(ctx context.Context, inv *entity.Invoice) (*dto.InvoiceResponse, error) {
	name := ""
	if c, _ := uc.clientRepo.GetByID(ctx, inv.ClientID); c != nil {
		name = c.Name
	}
	return ToInvoiceResponse(inv, name), nil
}

// notifyClient notificación best-effort tras una transición manual; el fallo solo se loguea.
func (uc *InvoiceUseCase) notifyClient(ctx context.Context, inv *entity.Invoice, typ entity.NotificationType, extra map[string]any) {
	contractor, err := uc.contractorRepo.GetByID(ctx, inv.ContractorID)
	if err != nil || contractor == nil {
		uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("notificación omitida: contractor no disponible")
		return
	}
	client, err := uc.clientRepo.GetByID(ctx, inv.ClientID)
	if err != nil || client == nil {
		uc.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("notificación omitida: cliente no disponible")
		return
	}
	data := invoiceNotificationData(inv, contractor, uc.cfg.PublicURL)
	for k, v := range extra {
		data[k] = v
	}
	log := uc.log.With().Str("invoice_id", inv.ID).Logger()
	notifyClient(ctx, uc.notifier, log, typ, contractor, client, data, uc.cfg.ItemTimeout)
}

func newAudit(inv *entity.Invoice, action, actor string, details map[string]any, now time.Time) *entity.AuditEntry {
	if actor == "" {
		actor = entity.ActorSystem
	}
	return &entity.AuditEntry{
		ID:           uuid.New().String(),
		ContractorID: inv.ContractorID,
		EntityType:   "invoice",
		EntityID:     inv.ID,
		Action:       action,
		Actor:        actor,
		Details:      details,
		CreatedAt:    now,
	}
}

func resolveDueDate(issue time.Time, raw string, termsDays int) (time.Time, error) {
	if raw != "" {
		due, err := entity.ParseDate(raw)
		if err != nil || due.Before(issue) {
			return time.Time{}, fmt.Errorf("%w: due_date", domain.ErrInvalidInput)
		}
		return due, nil
	}
	if termsDays <= 0 {
		termsDays = DefaultPaymentTermsDays
	}
	return recurrence.DueDate(issue, termsDays), nil
}

func resolveVATRate(in *decimal.Decimal, fallback decimal.Decimal) (decimal.Decimal, error) {
	if in == nil {
		return fallback, nil
	}
	if !money.IsValidVATRate(*in) {
		return decimal.Zero, fmt.Errorf("%w: tipo de BTW %s no soportado", domain.ErrInvalidInput, in.String())
	}
	return *in, nil
}

func buildLineItems(in []dto.LineItemRequest) ([]entity.LineItem, error) {
	items := make([]entity.LineItem, 0, len(in))
	for i, it := range in {
		if it.Description == "" || it.Quantity.IsNegative() || it.UnitPriceCents < 0 {
			return nil, fmt.Errorf("%w: línea %d", domain.ErrInvalidInput, i+1)
		}
		items = append(items, entity.NewLineItem(it.Description, it.Quantity, it.UnitPriceCents))
	}
	return items, nil
}

// ToInvoiceResponse mapea la entidad a la respuesta HTTP.
func ToInvoiceResponse(inv *entity.Invoice, clientName string) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:               inv.ID,
		ContractorID:     inv.ContractorID,
		ClientID:         inv.ClientID,
		ClientName:       clientName,
		InvoiceNumber:    inv.InvoiceNumber,
		Status:           string(inv.Status),
		IssueDate:        inv.IssueDate.Format(entity.DateFormat),
		DueDate:          inv.DueDate.Format(entity.DateFormat),
		SubtotalCents:    inv.SubtotalCents,
		VATRatePercent:   inv.VATRatePercent,
		VATAmountCents:   inv.VATAmountCents,
		TotalCents:       inv.TotalCents,
		TotalFormatted:   money.FormatEUR(inv.TotalCents),
		Currency:         inv.Currency,
		Notes:            inv.Notes,
		SentAt:           formatTime(inv.SentAt),
		ViewedAt:         formatTime(inv.ViewedAt),
		PaidAt:           formatTime(inv.PaidAt),
		ReminderSentAt:   formatTime(inv.ReminderSentAt),
		ClientApprovedAt: formatTime(inv.ClientApprovedAt),
		ClientApprovedBy: inv.ClientApprovedBy,
		LineItems:        ToLineItemResponses(inv.LineItems),
	}
	if inv.RecurringInvoiceID != nil {
		resp.RecurringInvoiceID = *inv.RecurringInvoiceID
	}
	return resp
}

// ToLineItemResponses mapea líneas de factura.
func ToLineItemResponses(items []entity.LineItem) []dto.LineItemResponse {
	out := make([]dto.LineItemResponse, 0, len(items))
	for _, li := range items {
		out = append(out, dto.LineItemResponse{
			ID:             li.ID,
			Position:       li.Position,
			Description:    li.Description,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
			TotalCents:     li.TotalCents,
		})
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

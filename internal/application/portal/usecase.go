// Package portal implementa el acceso de los clientes a sus facturas mediante un token
// opaco: listar, ver (SENT → VIEWED) y aprobar.
package portal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/lifecycle"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

// visibleStatuses estados que un cliente puede ver; los borradores nunca se exponen.
var visibleStatuses = []entity.InvoiceStatus{
	entity.InvoiceStatusSent,
	entity.InvoiceStatusViewed,
	entity.InvoiceStatusOverdue,
	entity.InvoiceStatusPaid,
	entity.InvoiceStatusCancelled,
}

// UseCase atiende las peticiones del portal de clientes.
type UseCase struct {
	txRunner       billing.BillingTxRunner
	tokenRepo      repository.AccessTokenRepository
	invoiceRepo    repository.InvoiceRepository
	clientRepo     repository.ClientRepository
	contractorRepo repository.ContractorRepository
	log            zerolog.Logger
	now            func() time.Time
}

// NewUseCase construye el caso de uso del portal.
func NewUseCase(
	txRunner billing.BillingTxRunner,
	tokenRepo repository.AccessTokenRepository,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	contractorRepo repository.ContractorRepository,
	log zerolog.Logger,
) *UseCase {
	return &UseCase{
		txRunner:       txRunner,
		tokenRepo:      tokenRepo,
		invoiceRepo:    invoiceRepo,
		clientRepo:     clientRepo,
		contractorRepo: contractorRepo,
		log:            log.With().Str("usecase", "portal").Logger(),
		now:            time.Now,
	}
}

// WithClock sustituye el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// session resultado de validar el token.
type session struct {
	token      *entity.ClientAccessToken
	client     *entity.Client
	contractor *entity.Contractor
}

func (s *session) actor() string { return entity.ActorPortal + ":" + s.token.Email }

// Handle despacha la acción pedida tras validar el token.
func (uc *UseCase) Handle(ctx context.Context, req dto.PortalRequest) (*dto.PortalResponse, error) {
	sess, err := uc.authenticate(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	switch req.Action {
	case dto.PortalActionGetInvoices:
		return uc.getInvoices(ctx, sess)
	case dto.PortalActionViewInvoice:
		return uc.viewInvoice(ctx, sess, req.InvoiceID)
	case dto.PortalActionApproveInvoice:
		return uc.approveInvoice(ctx, sess, req.InvoiceID, req.ApprovedBy)
	}
	return nil, fmt.Errorf("%w: acción %q", domain.ErrInvalidInput, req.Action)
}

// authenticate valida existencia y vigencia del token y registra su uso.
func (uc *UseCase) authenticate(ctx context.Context, raw string) (*session, error) {
	if raw == "" {
		return nil, domain.ErrTokenInvalid
	}
	tok, err := uc.tokenRepo.GetByToken(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("obtener token: %w", err)
	}
	if tok == nil {
		return nil, domain.ErrTokenInvalid
	}
	now := uc.now()
	if err := tok.CheckUsable(now); err != nil {
		return nil, err
	}
	if err := uc.tokenRepo.Touch(ctx, tok.ID, now); err != nil {
		uc.log.Warn().Err(err).Str("token_id", tok.ID).Msg("no se pudo actualizar last_used_at")
	}
	client, err := uc.clientRepo.GetByID(ctx, tok.ClientID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if client == nil || client.ContractorID != tok.ContractorID {
		// El cliente se borró después de emitir el token.
		return nil, domain.ErrTokenInvalid
	}
	contractor, err := uc.contractorRepo.GetByID(ctx, tok.ContractorID)
	if err != nil {
		return nil, fmt.Errorf("obtener contractor: %w", err)
	}
	if contractor == nil {
		return nil, domain.ErrTokenInvalid
	}
	return &session{token: tok, client: client, contractor: contractor}, nil
}

func (uc *UseCase) getInvoices(ctx context.Context, sess *session) (*dto.PortalResponse, error) {
	list, err := uc.invoiceRepo.List(ctx, repository.InvoiceFilter{
		ContractorID: sess.token.ContractorID,
		ClientID:     sess.token.ClientID,
		Statuses:     visibleStatuses,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.PortalInvoice, 0, len(list))
	for _, inv := range list {
		out = append(out, toPortalInvoice(inv, sess.contractor.Name))
	}
	return &dto.PortalResponse{ClientName: sess.client.Name, Invoices: out}, nil
}

// viewInvoice devuelve la factura y, si estaba SENT, la pasa a VIEWED.
func (uc *UseCase) viewInvoice(ctx context.Context, sess *session, invoiceID string) (*dto.PortalResponse, error) {
	inv, err := uc.loadForClient(ctx, sess, invoiceID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	err = lifecycle.MarkViewed(inv, now)
	switch {
	case errors.Is(err, lifecycle.ErrNoop):
	case err != nil:
		return nil, err
	default:
		err = uc.txRunner.RunBilling(ctx, func(
			invoiceRepo repository.InvoiceRepository,
			_ repository.RecurringInvoiceRepository,
			_ repository.TemplateRepository,
			_ repository.InvoiceNumberAllocator,
			auditRepo repository.AuditRepository,
		) error {
			ok, err := invoiceRepo.UpdateLifecycle(ctx, inv, entity.InvoiceStatusSent)
			if err != nil || !ok {
				return err
			}
			return auditRepo.Record(ctx, portalAudit(inv, entity.AuditInvoiceViewed, sess.actor(), nil, now))
		})
		if err != nil {
			return nil, err
		}
		// Si otro actor cambió el estado entre medias se devuelve el estado vigente.
		if inv, err = uc.loadForClient(ctx, sess, invoiceID); err != nil {
			return nil, err
		}
	}
	view := toPortalInvoice(inv, sess.contractor.Name)
	return &dto.PortalResponse{ClientName: sess.client.Name, Invoice: &view}, nil
}

// approveInvoice registra la aprobación del cliente sin tocar el estado.
func (uc *UseCase) approveInvoice(ctx context.Context, sess *session, invoiceID, approvedBy string) (*dto.PortalResponse, error) {
	inv, err := uc.loadForClient(ctx, sess, invoiceID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	if err := lifecycle.Approve(inv, approvedBy, now); err != nil {
		return nil, err
	}
	err = uc.txRunner.RunBilling(ctx, func(
		invoiceRepo repository.InvoiceRepository,
		_ repository.RecurringInvoiceRepository,
		_ repository.TemplateRepository,
		_ repository.InvoiceNumberAllocator,
		auditRepo repository.AuditRepository,
	) error {
		ok, err := invoiceRepo.MarkApproved(ctx, inv.ID, now, approvedBy)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyApproved
		}
		return auditRepo.Record(ctx, portalAudit(inv, entity.AuditInvoiceApproved, sess.actor(),
			map[string]any{"approved_by": approvedBy}, now))
	})
	if err != nil {
		return nil, err
	}
	view := toPortalInvoice(inv, sess.contractor.Name)
	return &dto.PortalResponse{ClientName: sess.client.Name, Invoice: &view}, nil
}

// loadForClient carga la factura con líneas. Una factura de otro cliente o en DRAFT
// responde como inexistente.
func (uc *UseCase) loadForClient(ctx context.Context, sess *session, invoiceID string) (*entity.Invoice, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("%w: invoice_id requerido", domain.ErrInvalidInput)
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil ||
		inv.ContractorID != sess.token.ContractorID ||
		inv.ClientID != sess.token.ClientID ||
		inv.Status == entity.InvoiceStatusDraft {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	if inv.LineItems, err = uc.invoiceRepo.GetLineItems(ctx, inv.ID); err != nil {
		return nil, fmt.Errorf("obtener líneas: %w", err)
	}
	return inv, nil
}

func portalAudit(inv *entity.Invoice, action, actor string, details map[string]any, now time.Time) *entity.AuditEntry {
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

func toPortalInvoice(inv *entity.Invoice, contractorName string) dto.PortalInvoice {
	out := dto.PortalInvoice{
		ID:               inv.ID,
		InvoiceNumber:    inv.InvoiceNumber,
		Status:           string(inv.Status),
		IssueDate:        inv.IssueDate.Format(entity.DateFormat),
		DueDate:          inv.DueDate.Format(entity.DateFormat),
		SubtotalCents:    inv.SubtotalCents,
		VATAmountCents:   inv.VATAmountCents,
		TotalCents:       inv.TotalCents,
		Currency:         inv.Currency,
		ContractorName:   contractorName,
		ClientApprovedBy: inv.ClientApprovedBy,
	}
	if inv.ClientApprovedAt != nil {
		out.ClientApprovedAt = inv.ClientApprovedAt.UTC().Format(time.RFC3339)
	}
	if len(inv.LineItems) > 0 {
		out.LineItems = billing.ToLineItemResponses(inv.LineItems)
	}
	return out
}

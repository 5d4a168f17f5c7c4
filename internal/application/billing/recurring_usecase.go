package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/money"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/recurrence"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

// RecurringUseCase gestión de schedules recurrentes y plantillas por parte del contractor.
type RecurringUseCase struct {
	recurringRepo repository.RecurringInvoiceRepository
	templateRepo  repository.TemplateRepository
	clientRepo    repository.ClientRepository
	now           func() time.Time
}

// NewRecurringUseCase construye el caso de uso.
func NewRecurringUseCase(
	recurringRepo repository.RecurringInvoiceRepository,
	templateRepo repository.TemplateRepository,
	clientRepo repository.ClientRepository,
) *RecurringUseCase {
	return &RecurringUseCase{
		recurringRepo: recurringRepo,
		templateRepo:  templateRepo,
		clientRepo:    clientRepo,
		now:           time.Now,
	}
}

// WithClock sustituye el reloj (tests).
func (uc *RecurringUseCase) WithClock(now func() time.Time) *RecurringUseCase {
	uc.now = now
	return uc
}

// Create da de alta un schedule. Si startDate ya pasó, la primera ocurrencia es la
// primera fecha de la cadencia que no es anterior a hoy: no se facturan periodos atrasados.
func (uc *RecurringUseCase) Create(ctx context.Context, contractorID string, in dto.CreateRecurringRequest) (*dto.RecurringResponse, error) {
	client, err := uc.clientRepo.GetByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil || client.ContractorID != contractorID {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	freq, err := entity.ParseFrequency(in.Frequency)
	if err != nil {
		return nil, err
	}
	start, err := entity.ParseDate(in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date", domain.ErrInvalidInput)
	}
	var end *time.Time
	if in.EndDate != "" {
		e, err := entity.ParseDate(in.EndDate)
		if err != nil || e.Before(start) {
			return nil, fmt.Errorf("%w: end_date", domain.ErrInvalidInput)
		}
		end = &e
	}
	rate, err := resolveVATRate(in.VATRatePercent, money.VATHigh)
	if err != nil {
		return nil, err
	}
	var templateID *string
	if in.TemplateID != "" {
		tpl, err := uc.templateRepo.GetByID(ctx, in.TemplateID)
		if err != nil {
			return nil, err
		}
		if tpl == nil || tpl.ContractorID != contractorID {
			return nil, domain.ErrNotFoundOrUnauthorized
		}
		templateID = &tpl.ID
	}

	now := uc.now()
	next, err := recurrence.FirstOnOrAfter(start, now, freq)
	if err != nil {
		return nil, err
	}
	sch := &entity.RecurringInvoice{
		ID:               uuid.New().String(),
		ContractorID:     contractorID,
		ClientID:         client.ID,
		TemplateID:       templateID,
		Frequency:        freq,
		StartDate:        start,
		EndDate:          end,
		NextInvoiceDate:  next,
		IsActive:         true,
		PaymentTermsDays: in.PaymentTermsDays,
		VATRatePercent:   rate,
		Currency:         "EUR",
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if sch.PaymentTermsDays == 0 {
		sch.PaymentTermsDays = DefaultPaymentTermsDays
	}
	if sch.PastEnd(next) {
		sch.IsActive = false
	}
	if err := uc.recurringRepo.Create(ctx, sch); err != nil {
		return nil, err
	}
	return toRecurringResponse(sch), nil
}

// List schedules del contractor.
func (uc *RecurringUseCase) List(ctx context.Context, contractorID string) ([]*dto.RecurringResponse, error) {
	list, err := uc.recurringRepo.ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.RecurringResponse, 0, len(list))
	for _, sch := range list {
		out = append(out, toRecurringResponse(sch))
	}
	return out, nil
}

// Get un schedule del contractor.
func (uc *RecurringUseCase) Get(ctx context.Context, contractorID, id string) (*dto.RecurringResponse, error) {
	sch, err := uc.owned(ctx, contractorID, id)
	if err != nil {
		return nil, err
	}
	return toRecurringResponse(sch), nil
}

// Pause desactiva el schedule; el barrido deja de considerarlo.
func (uc *RecurringUseCase) Pause(ctx context.Context, contractorID, id string) (*dto.RecurringResponse, error) {
	sch, err := uc.owned(ctx, contractorID, id)
	if err != nil {
		return nil, err
	}
	sch.IsActive = false
	sch.UpdatedAt = uc.now()
	if err := uc.recurringRepo.Update(ctx, sch); err != nil {
		return nil, err
	}
	return toRecurringResponse(sch), nil
}

// Resume reactiva el schedule saltando las ocurrencias que vencieron mientras estaba en pausa.
// Un schedule cuya próxima fecha ya supera endDate no se puede reanudar.
func (uc *RecurringUseCase) Resume(ctx context.Context, contractorID, id string) (*dto.RecurringResponse, error) {
	sch, err := uc.owned(ctx, contractorID, id)
	if err != nil {
		return nil, err
	}
	if sch.IsActive {
		return toRecurringResponse(sch), nil
	}
	now := uc.now()
	next, err := recurrence.FirstOnOrAfter(sch.NextInvoiceDate, now, sch.Frequency)
	if err != nil {
		return nil, err
	}
	if sch.PastEnd(next) {
		return nil, fmt.Errorf("%w: el schedule ya superó su fecha de fin", domain.ErrConflict)
	}
	sch.NextInvoiceDate = next
	sch.IsActive = true
	sch.UpdatedAt = now
	if err := uc.recurringRepo.Update(ctx, sch); err != nil {
		return nil, err
	}
	return toRecurringResponse(sch), nil
}

// Update cambia cadencia, fechas, plazo o notas y recalcula nextInvoiceDate manteniendo
// nextInvoiceDate >= startDate y la regla de desactivación por endDate.
func (uc *RecurringUseCase) Update(ctx context.Context, contractorID, id string, in dto.UpdateRecurringRequest) (*dto.RecurringResponse, error) {
	sch, err := uc.owned(ctx, contractorID, id)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	reanchor := false
	if in.Frequency != nil {
		f, err := entity.ParseFrequency(*in.Frequency)
		if err != nil {
			return nil, err
		}
		reanchor = reanchor || f != sch.Frequency
		sch.Frequency = f
	}
	if in.StartDate != nil {
		start, err := entity.ParseDate(*in.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date", domain.ErrInvalidInput)
		}
		reanchor = reanchor || !start.Equal(sch.StartDate)
		sch.StartDate = start
	}
	switch {
	case in.ClearEndDate:
		sch.EndDate = nil
	case in.EndDate != nil:
		end, err := entity.ParseDate(*in.EndDate)
		if err != nil || end.Before(sch.StartDate) {
			return nil, fmt.Errorf("%w: end_date", domain.ErrInvalidInput)
		}
		sch.EndDate = &end
	}
	if in.PaymentTermsDays != nil {
		sch.PaymentTermsDays = *in.PaymentTermsDays
		if sch.PaymentTermsDays == 0 {
			sch.PaymentTermsDays = DefaultPaymentTermsDays
		}
	}
	if in.Notes != nil {
		sch.Notes = *in.Notes
	}

	if reanchor {
		from := now
		if sch.LastGeneratedAt != nil && sch.NextInvoiceDate.After(entity.DateOf(now)) {
			// No volver a facturar el periodo actual si ya se generó.
			from = sch.NextInvoiceDate
		}
		next, err := recurrence.FirstOnOrAfter(sch.StartDate, from, sch.Frequency)
		if err != nil {
			return nil, err
		}
		sch.NextInvoiceDate = next
	}
	if sch.NextInvoiceDate.Before(sch.StartDate) {
		sch.NextInvoiceDate = sch.StartDate
	}
	if sch.PastEnd(sch.NextInvoiceDate) {
		sch.IsActive = false
	}
	sch.UpdatedAt = now
	if err := uc.recurringRepo.Update(ctx, sch); err != nil {
		return nil, err
	}
	return toRecurringResponse(sch), nil
}

func (uc *RecurringUseCase) owned(ctx context.Context, contractorID, id string) (*entity.RecurringInvoice, error) {
	sch, err := uc.recurringRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sch == nil || sch.ContractorID != contractorID {
		return nil, domain.ErrNotFoundOrUnauthorized
	}
	return sch, nil
}

// CreateTemplate guarda una plantilla de líneas.
func (uc *RecurringUseCase) CreateTemplate(ctx context.Context, contractorID string, in dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	if in.Name == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	tpl := &entity.InvoiceTemplate{
		ID:           uuid.New().String(),
		ContractorID: contractorID,
		Name:         in.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, it := range in.Items {
		if it.Description == "" || it.Quantity.IsNegative() || it.UnitPriceCents < 0 {
			return nil, fmt.Errorf("%w: línea %d", domain.ErrInvalidInput, i+1)
		}
		tpl.Items = append(tpl.Items, entity.TemplateItem{
			ID:             uuid.New().String(),
			TemplateID:     tpl.ID,
			Position:       i + 1,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	if err := uc.templateRepo.Create(ctx, tpl); err != nil {
		return nil, err
	}
	return toTemplateResponse(tpl), nil
}

// ListTemplates plantillas del contractor.
func (uc *RecurringUseCase) ListTemplates(ctx context.Context, contractorID string) ([]*dto.TemplateResponse, error) {
	list, err := uc.templateRepo.ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.TemplateResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTemplateResponse(t))
	}
	return out, nil
}

func toTemplateResponse(t *entity.InvoiceTemplate) *dto.TemplateResponse {
	resp := &dto.TemplateResponse{ID: t.ID, Name: t.Name, Items: make([]dto.LineItemResponse, 0, len(t.Items))}
	for _, it := range t.Items {
		resp.Items = append(resp.Items, dto.LineItemResponse{
			ID:             it.ID,
			Position:       it.Position,
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			TotalCents:     money.LineTotalCents(it.Quantity, it.UnitPriceCents),
		})
	}
	return resp
}

func toRecurringResponse(s *entity.RecurringInvoice) *dto.RecurringResponse {
	resp := &dto.RecurringResponse{
		ID:               s.ID,
		ClientID:         s.ClientID,
		Frequency:        string(s.Frequency),
		StartDate:        s.StartDate.Format(entity.DateFormat),
		NextInvoiceDate:  s.NextInvoiceDate.Format(entity.DateFormat),
		IsActive:         s.IsActive,
		LastGeneratedAt:  formatTime(s.LastGeneratedAt),
		PaymentTermsDays: s.PaymentTermsDays,
		VATRatePercent:   s.VATRatePercent,
		Notes:            s.Notes,
	}
	if s.TemplateID != nil {
		resp.TemplateID = *s.TemplateID
	}
	if s.EndDate != nil {
		resp.EndDate = s.EndDate.Format(entity.DateFormat)
	}
	return resp
}

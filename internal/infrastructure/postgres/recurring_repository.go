package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var _ repository.RecurringInvoiceRepository = (*RecurringInvoiceRepo)(nil)

var recurringColumns = []string{
	"id", "contractor_id", "client_id", "template_id", "frequency", "start_date", "end_date",
	"next_invoice_date", "is_active", "last_generated_at", "payment_terms_days", "vat_rate_percent",
	"currency", "notes", "created_at", "updated_at",
}

// RecurringInvoiceRepo implementación de RecurringInvoiceRepository.
type RecurringInvoiceRepo struct {
	q Querier
}

// NewRecurringInvoiceRepository construye el adaptador (pool o tx).
func NewRecurringInvoiceRepository(q Querier) *RecurringInvoiceRepo {
	return &RecurringInvoiceRepo{q: q}
}

// Create persiste el schedule.
func (r *RecurringInvoiceRepo) Create(ctx context.Context, s *entity.RecurringInvoice) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := `
		INSERT INTO recurring_invoices (id, contractor_id, client_id, template_id, frequency, start_date, end_date,
		                                next_invoice_date, is_active, last_generated_at, payment_terms_days,
		                                vat_rate_percent, currency, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.ContractorID, s.ClientID, s.TemplateID, string(s.Frequency),
		entity.DateOf(s.StartDate), datePtr(s.EndDate), entity.DateOf(s.NextInvoiceDate),
		s.IsActive, s.LastGeneratedAt, s.PaymentTermsDays, s.VATRatePercent,
		s.Currency, s.Notes, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert recurring invoice: %w", err)
	}
	return nil
}

// Update reescribe todos los campos mutables del schedule.
func (r *RecurringInvoiceRepo) Update(ctx context.Context, s *entity.RecurringInvoice) error {
	query := `
		UPDATE recurring_invoices
		SET template_id        = $2,
		    frequency          = $3,
		    start_date         = $4,
		    end_date           = $5,
		    next_invoice_date  = $6,
		    is_active          = $7,
		    last_generated_at  = $8,
		    payment_terms_days = $9,
		    vat_rate_percent   = $10,
		    notes              = $11,
		    updated_at         = $12
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.TemplateID, string(s.Frequency), entity.DateOf(s.StartDate), datePtr(s.EndDate),
		entity.DateOf(s.NextInvoiceDate), s.IsActive, s.LastGeneratedAt, s.PaymentTermsDays,
		s.VATRatePercent, s.Notes, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update recurring invoice: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *RecurringInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.RecurringInvoice, error) {
	return r.getOne(ctx, psql.Select(recurringColumns...).From("recurring_invoices").Where(sq.Eq{"id": id}))
}

// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE) hasta el fin de la transacción.
func (r *RecurringInvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.RecurringInvoice, error) {
	return r.getOne(ctx, psql.Select(recurringColumns...).From("recurring_invoices").
		Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

// ListByContractor schedules del contractor por próxima fecha.
func (r *RecurringInvoiceRepo) ListByContractor(ctx context.Context, contractorID string) ([]*entity.RecurringInvoice, error) {
	return r.list(ctx, psql.Select(recurringColumns...).From("recurring_invoices").
		Where(sq.Eq{"contractor_id": contractorID}).OrderBy("next_invoice_date", "id"))
}

// ListDue schedules activos con next_invoice_date <= today.
func (r *RecurringInvoiceRepo) ListDue(ctx context.Context, today time.Time) ([]*entity.RecurringInvoice, error) {
	return r.list(ctx, psql.Select(recurringColumns...).From("recurring_invoices").
		Where(sq.Eq{"is_active": true}).
		Where(sq.LtOrEq{"next_invoice_date": entity.DateOf(today)}).
		OrderBy("next_invoice_date", "id"))
}

func (r *RecurringInvoiceRepo) getOne(ctx context.Context, qb sq.SelectBuilder) (*entity.RecurringInvoice, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	s, err := scanRecurring(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recurring invoice: %w", err)
	}
	return s, nil
}

func (r *RecurringInvoiceRepo) list(ctx context.Context, qb sq.SelectBuilder) ([]*entity.RecurringInvoice, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring invoices: %w", err)
	}
	defer rows.Close()
	var out []*entity.RecurringInvoice
	for rows.Next() {
		s, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring invoice: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanRecurring(row pgx.Row) (*entity.RecurringInvoice, error) {
	var s entity.RecurringInvoice
	var freq string
	err := row.Scan(
		&s.ID, &s.ContractorID, &s.ClientID, &s.TemplateID, &freq, &s.StartDate, &s.EndDate,
		&s.NextInvoiceDate, &s.IsActive, &s.LastGeneratedAt, &s.PaymentTermsDays, &s.VATRatePercent,
		&s.Currency, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.Frequency, err = entity.ParseFrequency(freq); err != nil {
		return nil, err
	}
	return &s, nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := entity.DateOf(*t)
	return &d
}

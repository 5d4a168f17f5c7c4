package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const recurringIssueConstraint = "invoices_recurring_issue_key"

var invoiceColumns = []string{
	"id", "contractor_id", "client_id", "recurring_invoice_id", "invoice_number", "status",
	"issue_date", "due_date", "subtotal_cents", "vat_rate_percent", "vat_amount_cents", "total_cents",
	"currency", "notes", "sent_at", "viewed_at", "paid_at", "reminder_sent_at", "last_reminder_at",
	"client_approved_at", "client_approved_by", "created_at", "updated_at",
}

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura. Las líneas van aparte con CreateLineItem.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, contractor_id, client_id, recurring_invoice_id, invoice_number, status,
		                      issue_date, due_date, subtotal_cents, vat_rate_percent, vat_amount_cents, total_cents,
		                      currency, notes, sent_at, viewed_at, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.ContractorID, inv.ClientID, inv.RecurringInvoiceID, inv.InvoiceNumber, string(inv.Status),
		entity.DateOf(inv.IssueDate), entity.DateOf(inv.DueDate),
		inv.SubtotalCents, inv.VATRatePercent, inv.VATAmountCents, inv.TotalCents,
		inv.Currency, inv.Notes, inv.SentAt, inv.ViewedAt, inv.PaidAt,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if violatedConstraint(err) == recurringIssueConstraint {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyGenerated, inv.IssueDate.Format(entity.DateFormat))
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: número de factura %s", domain.ErrDuplicate, inv.InvoiceNumber)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateLineItem persiste una línea de la factura.
func (r *InvoiceRepo) CreateLineItem(ctx context.Context, item *entity.LineItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_line_items (id, invoice_id, position, description, quantity, unit_price_cents, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.InvoiceID, item.Position, item.Description, item.Quantity, item.UnitPriceCents, item.TotalCents,
	)
	if err != nil {
		return fmt.Errorf("insert line item: %w", err)
	}
	return nil
}

// ReplaceLineItems borra las líneas y vuelve a insertarlas. Debe ejecutarse dentro de RunBilling.
func (r *InvoiceRepo) ReplaceLineItems(ctx context.Context, invoiceID string, items []entity.LineItem) error {
	var status string
	err := r.q.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1 FOR UPDATE`, invoiceID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("replace line items: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("lock invoice: %w", err)
	}
	if entity.InvoiceStatus(status) != entity.InvoiceStatusDraft {
		return domain.ErrInvoiceLocked
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("delete line items: %w", err)
	}
	for i := range items {
		items[i].InvoiceID = invoiceID
		if err := r.CreateLineItem(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateDraft solo actúa sobre facturas en DRAFT; otro estado devuelve ErrInvoiceLocked.
func (r *InvoiceRepo) UpdateDraft(ctx context.Context, inv *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET due_date         = $2,
		    vat_rate_percent = $3,
		    subtotal_cents   = $4,
		    vat_amount_cents = $5,
		    total_cents      = $6,
		    notes            = $7,
		    updated_at       = $8
		WHERE id = $1 AND status = 'DRAFT'`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, entity.DateOf(inv.DueDate), inv.VATRatePercent,
		inv.SubtotalCents, inv.VATAmountCents, inv.TotalCents, inv.Notes, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		cur, err := r.GetByID(ctx, inv.ID)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("update invoice: %w", domain.ErrNotFound)
		}
		return domain.ErrInvoiceLocked
	}
	return nil
}

// UpdateLifecycle compare-and-set sobre status: 0 filas afectadas significa que otro actor se adelantó.
func (r *InvoiceRepo) UpdateLifecycle(ctx context.Context, inv *entity.Invoice, expected entity.InvoiceStatus) (bool, error) {
	query := `
		UPDATE invoices
		SET status     = $2,
		    sent_at    = $3,
		    viewed_at  = $4,
		    paid_at    = $5,
		    updated_at = $6
		WHERE id = $1 AND status = $7`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, string(inv.Status), inv.SentAt, inv.ViewedAt, inv.PaidAt, inv.UpdatedAt, string(expected),
	)
	if err != nil {
		return false, fmt.Errorf("update invoice lifecycle: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkReminderSent sella el recordatorio una sola vez por factura.
func (r *InvoiceRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE invoices
		SET reminder_sent_at = $2, last_reminder_at = $2, updated_at = $2
		WHERE id = $1 AND reminder_sent_at IS NULL`
	tag, err := r.q.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkApproved registra la aprobación del cliente; no toca el estado de la factura.
func (r *InvoiceRepo) MarkApproved(ctx context.Context, id string, at time.Time, approvedBy string) (bool, error) {
	query := `
		UPDATE invoices
		SET client_approved_at = $2, client_approved_by = $3, updated_at = $2
		WHERE id = $1
		  AND client_approved_at IS NULL
		  AND status NOT IN ('PAID', 'CANCELLED')`
	tag, err := r.q.Exec(ctx, query, id, at, approvedBy)
	if err != nil {
		return false, fmt.Errorf("mark approved: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID obtiene la cabecera de la factura, sin líneas. (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query, args, err := psql.Select(invoiceColumns...).From("invoices").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetLineItems líneas de la factura en orden de posición.
func (r *InvoiceRepo) GetLineItems(ctx context.Context, invoiceID string) ([]entity.LineItem, error) {
	query := `
		SELECT id, invoice_id, position, description, quantity, unit_price_cents, total_cents
		FROM invoice_line_items WHERE invoice_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()
	var out []entity.LineItem
	for rows.Next() {
		var li entity.LineItem
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.Position, &li.Description,
			&li.Quantity, &li.UnitPriceCents, &li.TotalCents); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// List aplica el filtro con squirrel; orden: fecha de emisión y número descendentes.
func (r *InvoiceRepo) List(ctx context.Context, f repository.InvoiceFilter) ([]*entity.Invoice, error) {
	qb := psql.Select(invoiceColumns...).From("invoices").
		OrderBy("issue_date DESC", "invoice_number DESC")
	if f.ContractorID != "" {
		qb = qb.Where(sq.Eq{"contractor_id": f.ContractorID})
	}
	if f.ClientID != "" {
		qb = qb.Where(sq.Eq{"client_id": f.ClientID})
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			statuses = append(statuses, string(st))
		}
		qb = qb.Where(sq.Eq{"status": statuses})
	}
	if f.DueFrom != nil {
		qb = qb.Where(sq.GtOrEq{"due_date": entity.DateOf(*f.DueFrom)})
	}
	if f.DueTo != nil {
		qb = qb.Where(sq.LtOrEq{"due_date": entity.DateOf(*f.DueTo)})
	}
	if f.DueBefore != nil {
		qb = qb.Where(sq.Lt{"due_date": entity.DateOf(*f.DueBefore)})
	}
	if f.ReminderPending {
		qb = qb.Where(sq.Eq{"reminder_sent_at": nil})
	}
	if f.Limit > 0 {
		qb = qb.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		qb = qb.Offset(uint64(f.Offset))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var status string
	var approvedBy *string
	err := row.Scan(
		&inv.ID, &inv.ContractorID, &inv.ClientID, &inv.RecurringInvoiceID, &inv.InvoiceNumber, &status,
		&inv.IssueDate, &inv.DueDate, &inv.SubtotalCents, &inv.VATRatePercent, &inv.VATAmountCents, &inv.TotalCents,
		&inv.Currency, &inv.Notes, &inv.SentAt, &inv.ViewedAt, &inv.PaidAt, &inv.ReminderSentAt, &inv.LastReminderAt,
		&inv.ClientApprovedAt, &approvedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	st, err := entity.ParseInvoiceStatus(status)
	if err != nil {
		return nil, err
	}
	inv.Status = st
	inv.ClientApprovedBy = derefStr(approvedBy)
	return &inv, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var _ repository.TemplateRepository = (*TemplateRepo)(nil)

// TemplateRepo plantillas de líneas y sus items.
type TemplateRepo struct {
	q Querier
}

// NewTemplateRepository construye el adaptador (pool o tx).
func NewTemplateRepository(q Querier) *TemplateRepo {
	return &TemplateRepo{q: q}
}

// beginner lo implementan *pgxpool.Pool y pgx.Tx (en una tx abre un savepoint).
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Create inserta cabecera e items en una sola transacción.
func (r *TemplateRepo) Create(ctx context.Context, t *entity.InvoiceTemplate) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	b, ok := r.q.(beginner)
	if !ok {
		return r.insert(ctx, r.q, t)
	}
	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin template tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := r.insert(ctx, tx, t); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *TemplateRepo) insert(ctx context.Context, q Querier, t *entity.InvoiceTemplate) error {
	_, err := q.Exec(ctx, `
		INSERT INTO invoice_templates (id, contractor_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.ContractorID, t.Name, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	for i := range t.Items {
		it := &t.Items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.TemplateID = t.ID
		it.Position = i + 1
		_, err := q.Exec(ctx, `
			INSERT INTO invoice_template_items (id, template_id, position, description, quantity, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			it.ID, it.TemplateID, it.Position, it.Description, it.Quantity, it.UnitPriceCents,
		)
		if err != nil {
			return fmt.Errorf("insert template item: %w", err)
		}
	}
	return nil
}

// GetByID plantilla con sus items; (nil, nil) si no existe.
func (r *TemplateRepo) GetByID(ctx context.Context, id string) (*entity.InvoiceTemplate, error) {
	var t entity.InvoiceTemplate
	err := r.q.QueryRow(ctx, `
		SELECT id, contractor_id, name, created_at, updated_at
		FROM invoice_templates WHERE id = $1`, id,
	).Scan(&t.ID, &t.ContractorID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	if t.Items, err = r.items(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByContractor plantillas del contractor por nombre, con items.
func (r *TemplateRepo) ListByContractor(ctx context.Context, contractorID string) ([]*entity.InvoiceTemplate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, contractor_id, name, created_at, updated_at
		FROM invoice_templates WHERE contractor_id = $1 ORDER BY name, id`, contractorID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var out []*entity.InvoiceTemplate
	for rows.Next() {
		var t entity.InvoiceTemplate
		if err := rows.Scan(&t.ID, &t.ContractorID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, &t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Los items se leen con las filas ya cerradas: una conexión de tx no admite dos cursores.
	for _, t := range out {
		if t.Items, err = r.items(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *TemplateRepo) items(ctx context.Context, templateID string) ([]entity.TemplateItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, template_id, position, description, quantity, unit_price_cents
		FROM invoice_template_items WHERE template_id = $1 ORDER BY position`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list template items: %w", err)
	}
	defer rows.Close()
	var out []entity.TemplateItem
	for rows.Next() {
		var it entity.TemplateItem
		if err := rows.Scan(&it.ID, &it.TemplateID, &it.Position, &it.Description, &it.Quantity, &it.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("scan template item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

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

var _ repository.ClientRepository = (*ClientRepo)(nil)

const clientSelect = `
	SELECT id, contractor_id, name, contact_name, contact_email, billing_email, kvk_number,
	       vat_number, address, postal_code, city, country, created_at, updated_at
	FROM clients`

// ClientRepo implementación de ClientRepository.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador (pool o tx).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// Create persiste un cliente.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO clients (id, contractor_id, name, contact_name, contact_email, billing_email, kvk_number,
		                     vat_number, address, postal_code, city, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.ContractorID, c.Name, c.ContactName, c.ContactEmail, c.BillingEmail, c.KvKNumber,
		c.VATNumber, c.Address, c.PostalCode, c.City, c.Country, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	c, err := scanClient(r.q.QueryRow(ctx, clientSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// ListByContractor clientes por nombre, paginados.
func (r *ClientRepo) ListByContractor(ctx context.Context, contractorID string, limit, offset int) ([]*entity.Client, error) {
	rows, err := r.q.Query(ctx, clientSelect+` WHERE contractor_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`,
		contractorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var out []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClient(row pgx.Row) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(
		&c.ID, &c.ContractorID, &c.Name, &c.ContactName, &c.ContactEmail, &c.BillingEmail, &c.KvKNumber,
		&c.VATNumber, &c.Address, &c.PostalCode, &c.City, &c.Country, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

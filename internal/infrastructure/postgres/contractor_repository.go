package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var _ repository.ContractorRepository = (*ContractorRepo)(nil)

// ContractorRepo implementación de ContractorRepository. Las preferencias de
// notificación viven en una columna JSONB.
type ContractorRepo struct {
	q Querier
}

// NewContractorRepository construye el adaptador (pool o tx).
func NewContractorRepository(q Querier) *ContractorRepo {
	return &ContractorRepo{q: q}
}

// Create persiste el contractor con sus preferencias.
func (r *ContractorRepo) Create(ctx context.Context, c *entity.Contractor) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	prefs, err := json.Marshal(c.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	query := `
		INSERT INTO contractors (id, name, email, kvk_number, vat_number, iban, address, postal_code, city,
		                         notification_preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.q.Exec(ctx, query,
		c.ID, c.Name, c.Email, c.KvKNumber, c.VATNumber, c.IBAN, c.Address, c.PostalCode, c.City,
		prefs, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contractor: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe. Un JSON de preferencias corrupto se sustituye por los valores por defecto.
func (r *ContractorRepo) GetByID(ctx context.Context, id string) (*entity.Contractor, error) {
	query := `
		SELECT id, name, email, kvk_number, vat_number, iban, address, postal_code, city,
		       notification_preferences, created_at, updated_at
		FROM contractors WHERE id = $1`
	var c entity.Contractor
	var raw []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.KvKNumber, &c.VATNumber, &c.IBAN, &c.Address, &c.PostalCode, &c.City,
		&raw, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contractor: %w", err)
	}
	c.Preferences, _ = entity.DecodeNotificationPreferences(raw)
	return &c, nil
}

// UpdatePreferences reemplaza el blob completo de preferencias.
func (r *ContractorRepo) UpdatePreferences(ctx context.Context, id string, prefs entity.NotificationPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE contractors SET notification_preferences = $2, updated_at = now() WHERE id = $1`, id, raw)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var _ repository.AccessTokenRepository = (*AccessTokenRepo)(nil)

const accessTokenSelect = `
	SELECT id, token, contractor_id, client_id, email, expires_at, last_used_at, created_at
	FROM client_access_tokens`

// AccessTokenRepo tokens del portal de clientes.
type AccessTokenRepo struct {
	q Querier
}

// NewAccessTokenRepository construye el adaptador (pool o tx).
func NewAccessTokenRepository(q Querier) *AccessTokenRepo {
	return &AccessTokenRepo{q: q}
}

// Create persiste el token. Una colisión del valor opaco devuelve ErrDuplicate.
func (r *AccessTokenRepo) Create(ctx context.Context, t *entity.ClientAccessToken) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO client_access_tokens (id, token, contractor_id, client_id, email, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, t.ID, t.Token, t.ContractorID, t.ClientID, t.Email, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: token de acceso", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert access token: %w", err)
	}
	return nil
}

// GetByToken busca por el valor opaco; (nil, nil) si no existe.
func (r *AccessTokenRepo) GetByToken(ctx context.Context, token string) (*entity.ClientAccessToken, error) {
	t, err := scanAccessToken(r.q.QueryRow(ctx, accessTokenSelect+` WHERE token = $1`, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access token: %w", err)
	}
	return t, nil
}

// ListByClient tokens del cliente por fecha de creación.
func (r *AccessTokenRepo) ListByClient(ctx context.Context, clientID string) ([]*entity.ClientAccessToken, error) {
	rows, err := r.q.Query(ctx, accessTokenSelect+` WHERE client_id = $1 ORDER BY created_at`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list access tokens: %w", err)
	}
	defer rows.Close()
	var out []*entity.ClientAccessToken
	for rows.Next() {
		t, err := scanAccessToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete revoca el token si pertenece al contractor.
func (r *AccessTokenRepo) Delete(ctx context.Context, contractorID, id string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM client_access_tokens WHERE id = $1 AND contractor_id = $2`, id, contractorID)
	if err != nil {
		return false, fmt.Errorf("delete access token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Touch actualiza last_used_at.
func (r *AccessTokenRepo) Touch(ctx context.Context, id string, at time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE client_access_tokens SET last_used_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("touch access token: %w", err)
	}
	return nil
}

func scanAccessToken(row pgx.Row) (*entity.ClientAccessToken, error) {
	var t entity.ClientAccessToken
	if err := row.Scan(&t.ID, &t.Token, &t.ContractorID, &t.ClientID, &t.Email,
		&t.ExpiresAt, &t.LastUsedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

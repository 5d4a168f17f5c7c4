package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// AuditRepo log de auditoría append-only.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador (pool o tx).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Record inserta una entrada; los detalles se guardan como JSONB.
func (r *AuditRepo) Record(ctx context.Context, e *entity.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	var details []byte
	if len(e.Details) > 0 {
		var err error
		if details, err = json.Marshal(e.Details); err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}
	query := `
		INSERT INTO audit_log (id, contractor_id, entity_type, entity_id, action, actor, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, e.ID, e.ContractorID, e.EntityType, e.EntityID, e.Action, e.Actor, details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEntity historial de la entidad en orden cronológico.
func (r *AuditRepo) ListByEntity(ctx context.Context, contractorID, entityType, entityID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, contractor_id, entity_type, entity_id, action, actor, details, created_at
		FROM audit_log
		WHERE contractor_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, contractorID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	var out []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.ContractorID, &e.EntityType, &e.EntityID, &e.Action, &e.Actor, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

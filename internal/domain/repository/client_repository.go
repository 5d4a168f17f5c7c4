package repository

import (
	"context"
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// ClientRepository define el puerto de persistencia para Client.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	ListByContractor(ctx context.Context, contractorID string, limit, offset int) ([]*entity.Client, error)
}

// ContractorRepository define el puerto de persistencia para Contractor (tenant).
type ContractorRepository interface {
	Create(ctx context.Context, contractor *entity.Contractor) error
	GetByID(ctx context.Context, id string) (*entity.Contractor, error)
	UpdatePreferences(ctx context.Context, id string, prefs entity.NotificationPreferences) error
}

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

// AccessTokenRepository tokens del portal de clientes.
type AccessTokenRepository interface {
	Create(ctx context.Context, token *entity.ClientAccessToken) error
	GetByToken(ctx context.Context, token string) (*entity.ClientAccessToken, error)
	ListByClient(ctx context.Context, clientID string) ([]*entity.ClientAccessToken, error)
	// Delete revoca el token; solo borra si pertenece al contractor.
	Delete(ctx context.Context, contractorID, id string) (bool, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

// AuditRepository log de auditoría (solo inserción).
type AuditRepository interface {
	Record(ctx context.Context, entry *entity.AuditEntry) error
	ListByEntity(ctx context.Context, contractorID, entityType, entityID string) ([]*entity.AuditEntry, error)
}

package entity

import (
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
)

// ClientAccessToken capacidad que concede a un email lectura/aprobación sobre las
// facturas de un cliente. Se revoca borrándolo.
type ClientAccessToken struct {
	ID           string
	Token        string
	ContractorID string
	ClientID     string
	Email        string
	ExpiresAt    *time.Time // nil = sin vencimiento
	LastUsedAt   *time.Time
	CreatedAt    time.Time
}

// CheckUsable devuelve ErrTokenExpired si el token venció en now.
func (t *ClientAccessToken) CheckUsable(now time.Time) error {
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return domain.ErrTokenExpired
	}
	return nil
}

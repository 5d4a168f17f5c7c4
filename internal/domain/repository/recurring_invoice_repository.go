package repository

import (
	"context"
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// RecurringInvoiceRepository puerto de persistencia de los schedules recurrentes.
type RecurringInvoiceRepository interface {
	Create(ctx context.Context, s *entity.RecurringInvoice) error
	Update(ctx context.Context, s *entity.RecurringInvoice) error
	GetByID(ctx context.Context, id string) (*entity.RecurringInvoice, error)
	// GetForUpdate lee el schedule bloqueando la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.RecurringInvoice, error)
	ListByContractor(ctx context.Context, contractorID string) ([]*entity.RecurringInvoice, error)
	// ListDue devuelve los schedules activos con next_invoice_date <= today.
	ListDue(ctx context.Context, today time.Time) ([]*entity.RecurringInvoice, error)
}

// TemplateRepository puerto de persistencia de plantillas de líneas.
type TemplateRepository interface {
	Create(ctx context.Context, t *entity.InvoiceTemplate) error
	GetByID(ctx context.Context, id string) (*entity.InvoiceTemplate, error)
	ListByContractor(ctx context.Context, contractorID string) ([]*entity.InvoiceTemplate, error)
}

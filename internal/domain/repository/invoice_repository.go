package repository

import (
	"context"
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// InvoiceFilter criterios de búsqueda de facturas. Los campos vacíos no filtran.
type InvoiceFilter struct {
	ContractorID    string
	ClientID        string
	Statuses        []entity.InvoiceStatus
	DueFrom         *time.Time // due_date >= DueFrom
	DueTo           *time.Time // due_date <= DueTo
	DueBefore       *time.Time // due_date <  DueBefore
	ReminderPending bool       // reminder_sent_at IS NULL
	Limit           int
	Offset          int
}

// InvoiceRepository define el puerto de persistencia para Invoice y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateLineItem(ctx context.Context, item *entity.LineItem) error
	// ReplaceLineItems borra y vuelve a insertar las líneas (solo facturas en DRAFT).
	ReplaceLineItems(ctx context.Context, invoiceID string, items []entity.LineItem) error
	// UpdateDraft actualiza importes, fechas, notas y tipo de BTW de una factura en DRAFT.
	UpdateDraft(ctx context.Context, invoice *entity.Invoice) error
	// UpdateLifecycle persiste estado y marcas de tiempo solo si el estado almacenado
	// sigue siendo expected (compare-and-set). Devuelve false si otro actor se adelantó.
	UpdateLifecycle(ctx context.Context, invoice *entity.Invoice, expected entity.InvoiceStatus) (bool, error)
	// MarkReminderSent sella reminder_sent_at y last_reminder_at si aún no había recordatorio.
	MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkApproved registra la aprobación del cliente si aún no estaba aprobada y el
	// estado no es terminal.
	MarkApproved(ctx context.Context, id string, at time.Time, approvedBy string) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetLineItems(ctx context.Context, invoiceID string) ([]entity.LineItem, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
}

// InvoiceNumberAllocator servicio de numeración: atómico y monótono por contractor.
// El prefijo es el año del instante de asignación, no el de la fecha de emisión:
// una factura con fecha atrasada nunca recibe un número menor que uno ya asignado.
type InvoiceNumberAllocator interface {
	Next(ctx context.Context, contractorID string, allocatedAt time.Time) (string, error)
}

package entity

import "time"

// Acciones registradas en el log de auditoría.
const (
	AuditInvoiceCreated   = "invoice.created"
	AuditInvoiceUpdated   = "invoice.updated"
	AuditInvoiceSent      = "invoice.sent"
	AuditInvoiceViewed    = "invoice.viewed"
	AuditInvoicePaid      = "invoice.paid"
	AuditInvoiceOverdue   = "invoice.overdue"
	AuditInvoiceCancelled = "invoice.cancelled"
	AuditInvoiceApproved  = "invoice.approved"
	AuditInvoiceReminded  = "invoice.reminder_sent"
	AuditRecurringRun     = "recurring.generated"
)

// Actores que no son un usuario del contractor.
const (
	ActorSystem = "system"
	ActorPortal = "portal"
)

// AuditEntry registro inmutable de una acción sobre una entidad.
type AuditEntry struct {
	ID           string
	ContractorID string
	EntityType   string // invoice, recurring_invoice
	EntityID     string
	Action       string
	Actor        string // user id, "system" o "portal:<email>"
	Details      map[string]any
	CreatedAt    time.Time
}

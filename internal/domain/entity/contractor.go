package entity

import (
	"encoding/json"
	"time"
)

// Contractor freelancer (ZZP'er) dueño de clientes, plantillas y facturas. Es el tenant.
type Contractor struct {
	ID          string
	Name        string
	Email       string
	KvKNumber   string
	VATNumber   string
	IBAN        string
	Address     string
	PostalCode  string
	City        string
	Preferences NotificationPreferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NotificationPreferences preferencias tipadas de notificación. Una clave ausente en el
// JSON almacenado conserva su valor por defecto (todas activas).
type NotificationPreferences struct {
	InvoiceSent       bool `json:"invoice_sent"`
	PaymentReminder   bool `json:"payment_reminder"`
	InvoiceOverdue    bool `json:"invoice_overdue"`
	InvoicePaid       bool `json:"invoice_paid"`
	TimeEntryApproved bool `json:"time_entry_approved"`
	TimeEntryRejected bool `json:"time_entry_rejected"`
	TeamInvitation    bool `json:"team_invitation"`
}

// DefaultNotificationPreferences todas las notificaciones activadas.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		InvoiceSent:       true,
		PaymentReminder:   true,
		InvoiceOverdue:    true,
		InvoicePaid:       true,
		TimeEntryApproved: true,
		TimeEntryRejected: true,
		TeamInvitation:    true,
	}
}

// DecodeNotificationPreferences lee el blob JSON aplicando los valores por defecto.
// Un blob vacío o nulo devuelve los valores por defecto.
func DecodeNotificationPreferences(raw []byte) (NotificationPreferences, error) {
	prefs := DefaultNotificationPreferences()
	if len(raw) == 0 || string(raw) == "null" {
		return prefs, nil
	}
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return DefaultNotificationPreferences(), err
	}
	return prefs, nil
}

// Enabled indica si el tipo de notificación está activado.
func (p NotificationPreferences) Enabled(t NotificationType) bool {
	switch t {
	case NotificationInvoiceSent:
		return p.InvoiceSent
	case NotificationPaymentReminder:
		return p.PaymentReminder
	case NotificationInvoiceOverdue:
		return p.InvoiceOverdue
	case NotificationInvoicePaid:
		return p.InvoicePaid
	case NotificationTimeEntryApproved:
		return p.TimeEntryApproved
	case NotificationTimeEntryRejected:
		return p.TimeEntryRejected
	case NotificationTeamInvitation:
		return p.TeamInvitation
	}
	return false
}

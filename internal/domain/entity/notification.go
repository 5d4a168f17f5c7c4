package entity

// NotificationType tipos reconocidos por el Notification Dispatcher.
type NotificationType string

const (
	NotificationInvoiceSent       NotificationType = "invoice_sent"
	NotificationPaymentReminder   NotificationType = "payment_reminder"
	NotificationInvoiceOverdue    NotificationType = "invoice_overdue"
	NotificationInvoicePaid       NotificationType = "invoice_paid"
	NotificationTimeEntryApproved NotificationType = "time_entry_approved"
	NotificationTimeEntryRejected NotificationType = "time_entry_rejected"
	NotificationTeamInvitation    NotificationType = "team_invitation"
)

// Notification payload tipado que se entrega al dispatcher.
type Notification struct {
	Type           NotificationType `json:"type"`
	RecipientEmail string           `json:"recipient_email"`
	RecipientName  string           `json:"recipient_name"`
	Data           map[string]any   `json:"data"`
}

// DispatchResult resultado del envío. El dispatcher nunca propaga pánicos ni errores:
// todo fallo se expresa como Success=false.
type DispatchResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

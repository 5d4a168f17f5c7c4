package dto

// SendNotificationRequest body de POST /api/notifications/send (llamadas internas con secret).
type SendNotificationRequest struct {
	Type           string         `json:"type" validate:"required,oneof=invoice_sent payment_reminder invoice_overdue invoice_paid time_entry_approved time_entry_rejected team_invitation"`
	RecipientEmail string         `json:"recipient_email" validate:"required,email"`
	RecipientName  string         `json:"recipient_name,omitempty" validate:"max=200"`
	Data           map[string]any `json:"data"`
}

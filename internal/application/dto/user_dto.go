package dto

import "time"

// RegisterRequest alta de un contractor y de su usuario owner.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=10,max=72"`
	Name        string `json:"name" validate:"required,min=1,max=200"`
	CompanyName string `json:"company_name" validate:"required,min=1,max=200"`
	KvKNumber   string `json:"kvk_number,omitempty" validate:"omitempty,numeric,len=8"`
	VATNumber   string `json:"vat_number,omitempty"`
	IBAN        string `json:"iban,omitempty" validate:"omitempty,alphanum,min=15,max=34"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID           string    `json:"id"`
	ContractorID string    `json:"contractor_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginRequest credenciales de acceso al dashboard.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT y usuario autenticado.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NotificationPreferencesDTO preferencias de notificación del contractor.
// En PUT los campos nil conservan su valor actual.
type NotificationPreferencesDTO struct {
	InvoiceSent       *bool `json:"invoice_sent,omitempty"`
	PaymentReminder   *bool `json:"payment_reminder,omitempty"`
	InvoiceOverdue    *bool `json:"invoice_overdue,omitempty"`
	InvoicePaid       *bool `json:"invoice_paid,omitempty"`
	TimeEntryApproved *bool `json:"time_entry_approved,omitempty"`
	TimeEntryRejected *bool `json:"time_entry_rejected,omitempty"`
	TeamInvitation    *bool `json:"team_invitation,omitempty"`
}

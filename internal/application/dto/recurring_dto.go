package dto

import "github.com/shopspring/decimal"

// CreateTemplateRequest body para POST /api/templates.
type CreateTemplateRequest struct {
	Name  string            `json:"name" validate:"required,max=200"`
	Items []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// TemplateResponse plantilla con sus líneas.
type TemplateResponse struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Items []LineItemResponse `json:"items"`
}

// CreateRecurringRequest body para POST /api/recurring-invoices.
type CreateRecurringRequest struct {
	ClientID         string           `json:"client_id" validate:"required"`
	TemplateID       string           `json:"template_id,omitempty"`
	Frequency        string           `json:"frequency" validate:"required,oneof=WEEKLY MONTHLY QUARTERLY YEARLY weekly monthly quarterly yearly"`
	StartDate        string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate          string           `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PaymentTermsDays int              `json:"payment_terms_days" validate:"min=0,max=365"`
	VATRatePercent   *decimal.Decimal `json:"vat_rate_percent,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// UpdateRecurringRequest body para PATCH /api/recurring-invoices/:id. Los campos nil no cambian.
// ClearEndDate elimina la fecha de fin (un schedule sin fin).
type UpdateRecurringRequest struct {
	Frequency        *string `json:"frequency,omitempty" validate:"omitempty,oneof=WEEKLY MONTHLY QUARTERLY YEARLY weekly monthly quarterly yearly"`
	StartDate        *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate          *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClearEndDate     bool    `json:"clear_end_date,omitempty"`
	PaymentTermsDays *int    `json:"payment_terms_days,omitempty" validate:"omitempty,min=0,max=365"`
	Notes            *string `json:"notes,omitempty"`
}

// RecurringResponse schedule recurrente en respuestas.
type RecurringResponse struct {
	ID               string          `json:"id"`
	ClientID         string          `json:"client_id"`
	TemplateID       string          `json:"template_id,omitempty"`
	Frequency        string          `json:"frequency"`
	StartDate        string          `json:"start_date"`
	EndDate          string          `json:"end_date,omitempty"`
	NextInvoiceDate  string          `json:"next_invoice_date"`
	IsActive         bool            `json:"is_active"`
	LastGeneratedAt  string          `json:"last_generated_at,omitempty"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	VATRatePercent   decimal.Decimal `json:"vat_rate_percent"`
	Notes            string          `json:"notes,omitempty"`
}

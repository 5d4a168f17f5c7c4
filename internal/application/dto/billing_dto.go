package dto

import "github.com/shopspring/decimal"

// CreateClientRequest body para POST /api/clients.
type CreateClientRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty" validate:"omitempty,email"`
	BillingEmail string `json:"billing_email,omitempty" validate:"omitempty,email"`
	KvKNumber    string `json:"kvk_number,omitempty" validate:"omitempty,numeric,len=8"`
	VATNumber    string `json:"vat_number,omitempty"`
	Address      string `json:"address,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// ClientResponse cliente en respuestas.
type ClientResponse struct {
	ID           string `json:"id"`
	ContractorID string `json:"contractor_id"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	BillingEmail string `json:"billing_email,omitempty"`
	KvKNumber    string `json:"kvk_number,omitempty"`
	VATNumber    string `json:"vat_number,omitempty"`
	Address      string `json:"address,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country"`
}

// LineItemRequest línea de factura o de plantilla. Importes en céntimos.
type LineItemRequest struct {
	Description    string          `json:"description" validate:"required,max=500"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents" validate:"min=0"`
}

// CreateInvoiceRequest body para POST /api/invoices. La factura nace en DRAFT.
// IssueDate/DueDate en formato YYYY-MM-DD; si DueDate va vacío se usa IssueDate + PaymentTermsDays.
type CreateInvoiceRequest struct {
	ClientID         string            `json:"client_id" validate:"required"`
	IssueDate        string            `json:"issue_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate          string            `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PaymentTermsDays int               `json:"payment_terms_days,omitempty" validate:"min=0,max=365"`
	VATRatePercent   *decimal.Decimal  `json:"vat_rate_percent,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	Items            []LineItemRequest `json:"items" validate:"dive"`
}

// UpdateInvoiceRequest body para PUT /api/invoices/:id (solo DRAFT).
// Items sustituye por completo las líneas existentes cuando no es nil.
type UpdateInvoiceRequest struct {
	DueDate        string            `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	VATRatePercent *decimal.Decimal  `json:"vat_rate_percent,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	Items          []LineItemRequest `json:"items,omitempty" validate:"omitempty,dive"`
}

// InvoiceListQuery filtros de GET /api/invoices.
type InvoiceListQuery struct {
	Status   string `query:"status"`
	ClientID string `query:"client_id"`
	PageRequest
}

// InvoiceResponse factura con sus líneas.
type InvoiceResponse struct {
	ID                 string             `json:"id"`
	ContractorID       string             `json:"contractor_id"`
	ClientID           string             `json:"client_id"`
	ClientName         string             `json:"client_name,omitempty"`
	RecurringInvoiceID string             `json:"recurring_invoice_id,omitempty"`
	InvoiceNumber      string             `json:"invoice_number"`
	Status             string             `json:"status"`
	IssueDate          string             `json:"issue_date"`
	DueDate            string             `json:"due_date"`
	SubtotalCents      int64              `json:"subtotal_cents"`
	VATRatePercent     decimal.Decimal    `json:"vat_rate_percent"`
	VATAmountCents     int64              `json:"vat_amount_cents"`
	TotalCents         int64              `json:"total_cents"`
	TotalFormatted     string             `json:"total_formatted"`
	Currency           string             `json:"currency"`
	Notes              string             `json:"notes,omitempty"`
	SentAt             string             `json:"sent_at,omitempty"`
	ViewedAt           string             `json:"viewed_at,omitempty"`
	PaidAt             string             `json:"paid_at,omitempty"`
	ReminderSentAt     string             `json:"reminder_sent_at,omitempty"`
	ClientApprovedAt   string             `json:"client_approved_at,omitempty"`
	ClientApprovedBy   string             `json:"client_approved_by,omitempty"`
	LineItems          []LineItemResponse `json:"line_items"`
}

// LineItemResponse línea en la respuesta.
type LineItemResponse struct {
	ID             string          `json:"id"`
	Position       int             `json:"position"`
	Description    string          `json:"description"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPriceCents int64           `json:"unit_price_cents"`
	TotalCents     int64           `json:"total_cents"`
}

// AuditEntryResponse entrada del historial de una factura.
type AuditEntryResponse struct {
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt string         `json:"created_at"`
}

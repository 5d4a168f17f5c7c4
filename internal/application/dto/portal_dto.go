package dto

// Acciones aceptadas por POST /api/portal.
const (
	PortalActionGetInvoices    = "get_invoices"
	PortalActionViewInvoice    = "view_invoice"
	PortalActionApproveInvoice = "approve_invoice"
)

// PortalRequest petición del portal de clientes; el token es la única credencial.
type PortalRequest struct {
	Token      string `json:"token" validate:"required"`
	Action     string `json:"action" validate:"required,oneof=get_invoices view_invoice approve_invoice"`
	InvoiceID  string `json:"invoice_id,omitempty" validate:"required_unless=Action get_invoices"`
	ApprovedBy string `json:"approved_by,omitempty" validate:"required_if=Action approve_invoice,max=200"`
}

// PortalInvoice vista reducida de una factura para el cliente.
type PortalInvoice struct {
	ID               string             `json:"id"`
	InvoiceNumber    string             `json:"invoice_number"`
	Status           string             `json:"status"`
	IssueDate        string             `json:"issue_date"`
	DueDate          string             `json:"due_date"`
	SubtotalCents    int64              `json:"subtotal_cents"`
	VATAmountCents   int64              `json:"vat_amount_cents"`
	TotalCents       int64              `json:"total_cents"`
	Currency         string             `json:"currency"`
	ContractorName   string             `json:"contractor_name,omitempty"`
	ClientApprovedAt string             `json:"client_approved_at,omitempty"`
	ClientApprovedBy string             `json:"client_approved_by,omitempty"`
	LineItems        []LineItemResponse `json:"line_items,omitempty"`
}

// PortalResponse respuesta de POST /api/portal.
type PortalResponse struct {
	ClientName string          `json:"client_name,omitempty"`
	Invoices   []PortalInvoice `json:"invoices,omitempty"`
	Invoice    *PortalInvoice  `json:"invoice,omitempty"`
}

// CreateAccessTokenRequest body para POST /api/clients/:id/access-tokens.
type CreateAccessTokenRequest struct {
	Email         string `json:"email" validate:"required,email"`
	ExpiresInDays int    `json:"expires_in_days,omitempty" validate:"min=0,max=3650"`
}

// AccessTokenResponse token de portal; Token solo se devuelve al crearlo.
type AccessTokenResponse struct {
	ID         string `json:"id"`
	ClientID   string `json:"client_id"`
	Email      string `json:"email"`
	Token      string `json:"token,omitempty"`
	PortalURL  string `json:"portal_url,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
	LastUsedAt string `json:"last_used_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}

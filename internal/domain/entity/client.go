package entity

import "time"

// Client cliente del contractor; recibe y aprueba facturas vía portal.
type Client struct {
	ID           string
	ContractorID string
	Name         string
	ContactName  string
	ContactEmail string
	BillingEmail string
	KvKNumber    string // Kamer van Koophandel
	VATNumber    string // BTW-id
	Address      string
	PostalCode   string
	City         string
	Country      string // ISO 3166-1 alpha-2, por defecto NL
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecipientEmail email de facturación con fallback al de contacto ("" si no hay ninguno).
func (c *Client) RecipientEmail() string {
	if c.BillingEmail != "" {
		return c.BillingEmail
	}
	return c.ContactEmail
}

// RecipientName nombre a usar en el saludo del email.
func (c *Client) RecipientName() string {
	if c.ContactName != "" {
		return c.ContactName
	}
	return c.Name
}

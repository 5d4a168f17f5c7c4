package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceTemplate plantilla reutilizable de líneas. Sus líneas se copian por valor
// en cada factura generada: editar la plantilla no altera facturas ya emitidas.
type InvoiceTemplate struct {
	ID           string
	ContractorID string
	Name         string
	Items        []TemplateItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TemplateItem blueprint de una línea.
type TemplateItem struct {
	ID             string
	TemplateID     string
	Position       int
	Description    string
	Quantity       decimal.Decimal
	UnitPriceCents int64
}

// ToLineItems copia las líneas de la plantilla como LineItem nuevos.
func (t *InvoiceTemplate) ToLineItems() []LineItem {
	out := make([]LineItem, 0, len(t.Items))
	for _, it := range t.Items {
		out = append(out, NewLineItem(it.Description, it.Quantity, it.UnitPriceCents))
	}
	return out
}

package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/money"
)

// InvoiceStatus estado del ciclo de vida de una factura.
// Es una enumeración cerrada: un valor fuera de la lista es un error de construcción.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusViewed    InvoiceStatus = "VIEWED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// AllInvoiceStatuses en el orden en que se muestran en el dashboard.
var AllInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusViewed,
	InvoiceStatusOverdue,
	InvoiceStatusPaid,
	InvoiceStatusCancelled,
}

// ParseInvoiceStatus convierte el valor almacenado en un InvoiceStatus válido.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	st := InvoiceStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: estado de factura desconocido %q", domain.ErrInvalidInput, s)
	}
	return st, nil
}

// IsValid indica si el estado pertenece a la enumeración.
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsTerminal PAID y CANCELLED no admiten más transiciones.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// Invoice representa una factura emitida por un contractor (ZZP'er) a un cliente.
// Los importes van en céntimos; totalCents = subtotalCents + vatAmountCents.
type Invoice struct {
	ID                 string
	ContractorID       string
	ClientID           string
	RecurringInvoiceID *string // nil = factura manual
	InvoiceNumber      string
	Status             InvoiceStatus
	IssueDate          time.Time
	DueDate            time.Time
	SubtotalCents      int64
	VATRatePercent     decimal.Decimal // 21, 9 o 0
	VATAmountCents     int64
	TotalCents         int64
	Currency           string
	Notes              string

	// Marcas de tiempo: se fijan una sola vez y nunca retroceden.
	SentAt           *time.Time
	ViewedAt         *time.Time
	PaidAt           *time.Time
	ReminderSentAt   *time.Time
	LastReminderAt   *time.Time
	ClientApprovedAt *time.Time
	ClientApprovedBy string

	LineItems []LineItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineItem una fila facturable. totalCents = round(quantity * unitPriceCents).
type LineItem struct {
	ID             string
	InvoiceID      string
	Position       int
	Description    string
	Quantity       decimal.Decimal
	UnitPriceCents int64
	TotalCents     int64
}

// NewLineItem construye la línea aplicando la regla de redondeo al céntimo.
func NewLineItem(description string, quantity decimal.Decimal, unitPriceCents int64) LineItem {
	return LineItem{
		Description:    description,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		TotalCents:     money.LineTotalCents(quantity, unitPriceCents),
	}
}

// RecalculateTotals recalcula subtotal, IVA (BTW) y total a partir de las líneas.
func (inv *Invoice) RecalculateTotals() {
	var subtotal int64
	for i := range inv.LineItems {
		li := &inv.LineItems[i]
		li.TotalCents = money.LineTotalCents(li.Quantity, li.UnitPriceCents)
		li.Position = i + 1
		subtotal += li.TotalCents
	}
	inv.SubtotalCents = subtotal
	inv.VATAmountCents = money.VATCents(subtotal, inv.VATRatePercent)
	inv.TotalCents = inv.SubtotalCents + inv.VATAmountCents
}

// IsApproved indica si el cliente ya aprobó la factura en el portal.
func (inv *Invoice) IsApproved() bool { return inv.ClientApprovedAt != nil }

// DaysUntilDue días de calendario entre today y la fecha de vencimiento (negativo si venció).
func (inv *Invoice) DaysUntilDue(today time.Time) int {
	return int(DateOf(inv.DueDate).Sub(DateOf(today)).Hours() / 24)
}

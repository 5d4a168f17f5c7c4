package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
)

// Frequency cadencia de una factura recurrente.
type Frequency string

const (
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// ParseFrequency valida la cadencia recibida por API o leída de la base de datos.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return f, nil
	}
	return "", fmt.Errorf("%w: frecuencia desconocida %q", domain.ErrInvalidInput, s)
}

// RecurringInvoice instrucción permanente para materializar facturas según una cadencia.
//
// Invariantes:
//   - NextInvoiceDate es la primera ocurrencia aún no materializada y nunca es anterior a StartDate.
//   - Si EndDate != nil y NextInvoiceDate > EndDate, IsActive debe ser false.
type RecurringInvoice struct {
	ID               string
	ContractorID     string
	ClientID         string
	TemplateID       *string // plantilla de líneas (opcional)
	Frequency        Frequency
	StartDate        time.Time
	EndDate          *time.Time
	NextInvoiceDate  time.Time
	IsActive         bool
	LastGeneratedAt  *time.Time
	PaymentTermsDays int
	VATRatePercent   decimal.Decimal
	Currency         string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsDue indica si el barrido debe generar una factura para today.
func (r *RecurringInvoice) IsDue(today time.Time) bool {
	return r.IsActive && !DateOf(r.NextInvoiceDate).After(DateOf(today))
}

// PastEnd indica si la fecha dada queda después de EndDate.
func (r *RecurringInvoice) PastEnd(d time.Time) bool {
	return r.EndDate != nil && DateOf(d).After(DateOf(*r.EndDate))
}

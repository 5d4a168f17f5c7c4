// Package recurrence calcula la cadencia de las facturas recurrentes.
package recurrence

import (
	"fmt"
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// Next suma exactamente un periodo a d. Los meses conservan el día del mes y se
// recortan al último día si el mes destino es más corto (31 ene → 29 feb en bisiesto).
func Next(d time.Time, f entity.Frequency) (time.Time, error) {
	d = entity.DateOf(d)
	switch f {
	case entity.FrequencyWeekly:
		return d.AddDate(0, 0, 7), nil
	case entity.FrequencyMonthly:
		return addMonthsClamped(d, 1), nil
	case entity.FrequencyQuarterly:
		return addMonthsClamped(d, 3), nil
	case entity.FrequencyYearly:
		return addMonthsClamped(d, 12), nil
	}
	return time.Time{}, fmt.Errorf("%w: frecuencia %q", domain.ErrInvalidInput, f)
}

// addMonthsClamped a diferencia de time.AddDate no desborda al mes siguiente.
func addMonthsClamped(d time.Time, months int) time.Time {
	y, m, day := d.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(target); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// Advance aplica el efecto de una generación exitosa sobre el schedule:
// lastGeneratedAt = now, nextInvoiceDate += un periodo (desde el valor actual, no desde now)
// y desactiva el schedule si la nueva fecha supera endDate.
func Advance(s *entity.RecurringInvoice, now time.Time) error {
	next, err := Next(s.NextInvoiceDate, s.Frequency)
	if err != nil {
		return err
	}
	generated := now
	s.LastGeneratedAt = &generated
	s.NextInvoiceDate = next
	if s.PastEnd(next) {
		s.IsActive = false
	}
	s.UpdatedAt = now
	return nil
}

// FirstOnOrAfter primera ocurrencia de la cadencia anclada en start que no es anterior a from.
// Se usa al crear o reanudar un schedule cuya fecha de inicio ya pasó.
func FirstOnOrAfter(start, from time.Time, f entity.Frequency) (time.Time, error) {
	d := entity.DateOf(start)
	from = entity.DateOf(from)
	for d.Before(from) {
		next, err := Next(d, f)
		if err != nil {
			return time.Time{}, err
		}
		d = next
	}
	return d, nil
}

// DueDate fecha de vencimiento de una factura emitida en issue con plazo termsDays.
func DueDate(issue time.Time, termsDays int) time.Time {
	return entity.AddDays(issue, termsDays)
}

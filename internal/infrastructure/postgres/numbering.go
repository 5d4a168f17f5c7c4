package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var _ repository.InvoiceNumberAllocator = (*InvoiceNumberAllocator)(nil)

// InvoiceNumberAllocator numeración YYYY-NNNN por (contractor, año) sobre invoice_sequences.
// El upsert bloquea la fila de la secuencia hasta el commit: dos transacciones concurrentes
// nunca reciben el mismo número y un rollback no deja huecos.
type InvoiceNumberAllocator struct {
	q Querier
}

// NewInvoiceNumberAllocator debe recibir la tx de RunBilling.
func NewInvoiceNumberAllocator(q Querier) *InvoiceNumberAllocator {
	return &InvoiceNumberAllocator{q: q}
}

// Next reserva el siguiente número del año de allocatedAt.
func (a *InvoiceNumberAllocator) Next(ctx context.Context, contractorID string, allocatedAt time.Time) (string, error) {
	year := allocatedAt.Year()
	query := `
		INSERT INTO invoice_sequences (contractor_id, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (contractor_id, year)
		DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value`
	var n int
	if err := a.q.QueryRow(ctx, query, contractorID, year).Scan(&n); err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("%d-%04d", year, n), nil
}

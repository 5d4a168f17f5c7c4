package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de solo lectura para el dashboard del contractor.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el adaptador de analítica.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// StatusTotals número de facturas e importe total agrupados por estado.
func (r *AnalyticsRepo) StatusTotals(ctx context.Context, contractorID string) ([]repository.StatusTotal, error) {
	const query = `
	SELECT status, COUNT(*), COALESCE(SUM(total_cents), 0)
	FROM invoices
	WHERE contractor_id = $1
	GROUP BY status
	ORDER BY status`

	rows, err := r.q.Query(ctx, query, contractorID)
	if err != nil {
		return nil, fmt.Errorf("analytics.StatusTotals: %w", err)
	}
	defer rows.Close()

	var out []repository.StatusTotal
	for rows.Next() {
		var row repository.StatusTotal
		var status string
		if err := rows.Scan(&status, &row.Count, &row.TotalCents); err != nil {
			return nil, fmt.Errorf("analytics.StatusTotals scan: %w", err)
		}
		row.Status = entity.InvoiceStatus(status)
		out = append(out, row)
	}
	return out, rows.Err()
}

// PaidBetween suma de facturas PAID con paid_at en [from, to).
func (r *AnalyticsRepo) PaidBetween(ctx context.Context, contractorID string, from, to time.Time) (int64, error) {
	const query = `
	SELECT COALESCE(SUM(total_cents), 0)
	FROM invoices
	WHERE contractor_id = $1
	  AND status = 'PAID'
	  AND paid_at >= $2 AND paid_at < $3`

	var total int64
	if err := r.q.QueryRow(ctx, query, contractorID, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("analytics.PaidBetween: %w", err)
	}
	return total, nil
}

// MonthlyRevenue cobros agrupados por mes de paid_at desde from. Los meses sin cobros no aparecen.
func (r *AnalyticsRepo) MonthlyRevenue(ctx context.Context, contractorID string, from time.Time) ([]repository.MonthRevenue, error) {
	const query = `
	SELECT date_trunc('month', paid_at AT TIME ZONE 'UTC')::date AS month,
	       SUM(total_cents)
	FROM invoices
	WHERE contractor_id = $1
	  AND status = 'PAID'
	  AND paid_at >= $2
	GROUP BY month
	ORDER BY month`

	rows, err := r.q.Query(ctx, query, contractorID, from)
	if err != nil {
		return nil, fmt.Errorf("analytics.MonthlyRevenue: %w", err)
	}
	defer rows.Close()

	var out []repository.MonthRevenue
	for rows.Next() {
		var row repository.MonthRevenue
		if err := rows.Scan(&row.Month, &row.TotalCents); err != nil {
			return nil, fmt.Errorf("analytics.MonthlyRevenue scan: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

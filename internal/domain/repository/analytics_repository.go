package repository

import (
	"context"
	"time"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
)

// StatusTotal número de facturas e importe total por estado.
type StatusTotal struct {
	Status     entity.InvoiceStatus
	Count      int
	TotalCents int64
}

// MonthRevenue ingresos cobrados (facturas PAID por fecha de pago) en un mes.
type MonthRevenue struct {
	Month      time.Time // día 1 del mes
	TotalCents int64
}

// AnalyticsRepository consultas de solo lectura para el dashboard.
type AnalyticsRepository interface {
	StatusTotals(ctx context.Context, contractorID string) ([]StatusTotal, error)
	PaidBetween(ctx context.Context, contractorID string, from, to time.Time) (int64, error)
	MonthlyRevenue(ctx context.Context, contractorID string, from time.Time) ([]MonthRevenue, error)
}

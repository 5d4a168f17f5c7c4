package dto

// DashboardDTO respuesta de GET /api/dashboard.
// Todos los importes van en céntimos de euro.
type DashboardDTO struct {
	OutstandingCents int64  `json:"outstanding_cents"` // SENT + VIEWED + OVERDUE
	OverdueCents     int64  `json:"overdue_cents"`
	PaidThisMonth    int64  `json:"paid_this_month_cents"`
	OutstandingLabel string `json:"outstanding_label"` // "€ 1.234,50"

	StatusCounts   []StatusCountDTO  `json:"status_counts"`
	MonthlyRevenue []MonthRevenueDTO `json:"monthly_revenue"` // últimos 12 meses, del más antiguo al actual
}

// StatusCountDTO número e importe de facturas en un estado.
type StatusCountDTO struct {
	Status     string `json:"status"`
	Count      int    `json:"count"`
	TotalCents int64  `json:"total_cents"`
}

// MonthRevenueDTO ingresos cobrados en un mes ("2026-03").
type MonthRevenueDTO struct {
	Month      string `json:"month"`
	TotalCents int64  `json:"total_cents"`
}

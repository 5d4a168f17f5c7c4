// Package analytics contiene los casos de uso del dashboard financiero del contractor.
package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/money"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/repository"
)

const revenueMonths = 12 // meses en la serie de ingresos del dashboard

// DashboardUseCase genera el resumen financiero del contractor.
//
// Fuente de datos: AnalyticsRepository (consultas read-only).
// No accede directamente a la tabla de facturas; delega todo en el repositorio.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo, now: time.Now}
}

// WithClock sustituye el reloj (tests).
func (uc *DashboardUseCase) WithClock(now func() time.Time) *DashboardUseCase {
	uc.now = now
	return uc
}

// GetSummary construye el DashboardDTO para el contractor indicado.
//
// Tres consultas en paralelo:
//  1. StatusTotals          → pendiente, vencido y recuento por estado
//  2. PaidBetween(mes)      → cobrado en el mes en curso
//  3. MonthlyRevenue(12 m)  → serie mensual, rellenando con 0 los meses sin cobros
func (uc *DashboardUseCase) GetSummary(ctx context.Context, contractorID string) (*dto.DashboardDTO, error) {
	now := uc.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)
	seriesStart := monthStart.AddDate(0, -(revenueMonths - 1), 0)

	var (
		totals  []repository.StatusTotal
		paid    int64
		revenue []repository.MonthRevenue
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = uc.analyticsRepo.StatusTotals(gctx, contractorID)
		if err != nil {
			return fmt.Errorf("dashboard: totales por estado: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		paid, err = uc.analyticsRepo.PaidBetween(gctx, contractorID, monthStart, nextMonth)
		if err != nil {
			return fmt.Errorf("dashboard: cobrado este mes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		revenue, err = uc.analyticsRepo.MonthlyRevenue(gctx, contractorID, seriesStart)
		if err != nil {
			return fmt.Errorf("dashboard: ingresos mensuales: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &dto.DashboardDTO{
		PaidThisMonth:  paid,
		StatusCounts:   make([]dto.StatusCountDTO, 0, len(totals)),
		MonthlyRevenue: make([]dto.MonthRevenueDTO, 0, revenueMonths),
	}
	for _, st := range totals {
		out.StatusCounts = append(out.StatusCounts, dto.StatusCountDTO{
			Status:     string(st.Status),
			Count:      st.Count,
			TotalCents: st.TotalCents,
		})
		switch st.Status {
		case entity.InvoiceStatusSent, entity.InvoiceStatusViewed:
			out.OutstandingCents += st.TotalCents
		case entity.InvoiceStatusOverdue:
			out.OutstandingCents += st.TotalCents
			out.OverdueCents += st.TotalCents
		}
	}
	out.OutstandingLabel = money.FormatEUR(out.OutstandingCents)

	byMonth := make(map[string]int64, len(revenue))
	for _, r := range revenue {
		byMonth[r.Month.Format("2006-01")] = r.TotalCents
	}
	for i := 0; i < revenueMonths; i++ {
		key := seriesStart.AddDate(0, i, 0).Format("2006-01")
		out.MonthlyRevenue = append(out.MonthlyRevenue, dto.MonthRevenueDTO{Month: key, TotalCents: byMonth[key]})
	}
	return out, nil
}

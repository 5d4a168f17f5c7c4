package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
)

func (f *fixture) recurringUseCase(now time.Time) *billing.RecurringUseCase {
	return billing.NewRecurringUseCase(f.store.Recurring(), f.store.Templates(), f.store.Clients()).
		WithClock(func() time.Time { return now })
}

func ptr[T any](v T) *T { return &v }

func TestRecurringUseCase_CreateConInicioFuturo(t *testing.T) {
	f := newFixture(t)
	uc := f.recurringUseCase(at("2024-03-10", 9))

	resp, err := uc.Create(context.Background(), f.contractor.ID, dto.CreateRecurringRequest{
		ClientID:  f.client.ID,
		Frequency: "monthly",
		StartDate: "2024-04-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "MONTHLY", resp.Frequency)
	assert.Equal(t, "2024-04-01", resp.NextInvoiceDate)
	assert.True(t, resp.IsActive)
	assert.Equal(t, billing.DefaultPaymentTermsDays, resp.PaymentTermsDays)
	assert.True(t, decimal.NewFromInt(21).Equal(resp.VATRatePercent))
}

func TestRecurringUseCase_CreateConInicioPasadoNoFacturaAtrasos(t *testing.T) {
	f := newFixture(t)
	uc := f.recurringUseCase(at("2024-03-10", 9))

	resp, err := uc.Create(context.Background(), f.contractor.ID, dto.CreateRecurringRequest{
		ClientID:  f.client.ID,
		Frequency: "WEEKLY",
		StartDate: "2024-02-05",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", resp.NextInvoiceDate, "primer lunes de la cadencia no anterior a hoy")
	assert.Equal(t, "2024-02-05", resp.StartDate)
}

func TestRecurringUseCase_CreateYaTerminadoNaceInactivo(t *testing.T) {
	f := newFixture(t)
	uc := f.recurringUseCase(at("2024-06-15", 9))

	resp, err := uc.Create(context.Background(), f.contractor.ID, dto.CreateRecurringRequest{
		ClientID:  f.client.ID,
		Frequency: "QUARTERLY",
		StartDate: "2024-01-01",
		EndDate:   "2024-05-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", resp.NextInvoiceDate)
	assert.False(t, resp.IsActive)
}

func TestRecurringUseCase_CreateValidaEntrada(t *testing.T) {
	f := newFixture(t)
	uc := f.recurringUseCase(at("2024-03-10", 9))
	ctx := context.Background()
	other := f.addContractor(t, "Bakker Design")
	foreignTpl := f.addTemplate(t, other.ID)

	cases := map[string]dto.CreateRecurringRequest{
		"frecuencia desconocida": {ClientID: f.client.ID, Frequency: "DAILY", StartDate: "2024-04-01"},
		"fin antes del inicio":   {ClientID: f.client.ID, Frequency: "MONTHLY", StartDate: "2024-04-01", EndDate: "2024-03-01"},
		"tipo de BTW inválido":   {ClientID: f.client.ID, Frequency: "MONTHLY", StartDate: "2024-04-01", VATRatePercent: ptr(decimal.NewFromInt(6))},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(ctx, f.contractor.ID, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := uc.Create(ctx, f.contractor.ID, dto.CreateRecurringRequest{
		ClientID: f.client.ID, TemplateID: foreignTpl.ID, Frequency: "MONTHLY", StartDate: "2024-04-01",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "una plantilla ajena no se puede enlazar")
}

func TestRecurringUseCase_PausaYReanudaSaltandoOcurrenciasPerdidas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.recurringUseCase(at("2024-01-01", 9)).Create(ctx, f.contractor.ID, dto.CreateRecurringRequest{
		ClientID: f.client.ID, Frequency: "MONTHLY", StartDate: "2024-01-15",
	})
	require.NoError(t, err)

	paused, err := f.recurringUseCase(at("2024-01-10", 9)).Pause(ctx, f.contractor.ID, created.ID)
	require.NoError(t, err)
	assert.False(t, paused.IsActive)

	// Con el schedule pausado el barrido no genera nada.
	report, err := f.generationSweep().Run(ctx, at("2024-02-20", 9))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Generated)

	resumed, err := f.recurringUseCase(at("2024-04-02", 9)).Resume(ctx, f.contractor.ID, created.ID)
	require.NoError(t, err)
	assert.True(t, resumed.IsActive)
	assert.Equal(t, "2024-04-15", resumed.NextInvoiceDate, "enero, febrero y marzo no se facturan")
}

func TestRecurringUseCase_ReanudarTrasLaFechaDeFinEsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.recurringUseCase(at("2024-01-01", 9)).Create(ctx, f.contractor.ID, dto.CreateRecurringRequest{
		ClientID: f.client.ID, Frequency: "MONTHLY", StartDate: "2024-01-15", EndDate: "2024-03-31",
	})
	require.NoError(t, err)
	_, err = f.recurringUseCase(at("2024-01-02", 9)).Pause(ctx, f.contractor.ID, created.ID)
	require.NoError(t, err)

	_, err = f.recurringUseCase(at("2024-05-01", 9)).Resume(ctx, f.contractor.ID, created.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRecurringUseCase_UpdateCambiaCadenciaYReancla(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.recurringUseCase(at("2024-01-01", 9)).Create(ctx, f.contractor.ID, dto.CreateRecurringRequest{
		ClientID: f.client.ID, Frequency: "MONTHLY", StartDate: "2024-01-01",
	})
	require.NoError(t, err)

	updated, err := f.recurringUseCase(at("2024-02-10", 9)).Update(ctx, f.contractor.ID, created.ID, dto.UpdateRecurringRequest{
		Frequency: ptr("QUARTERLY"),
		Notes:     ptr("Kwartaalfactuur"),
	})
	require.NoError(t, err)
	assert.Equal(t, "QUARTERLY", updated.Frequency)
	assert.Equal(t, "2024-04-01", updated.NextInvoiceDate)
	assert.Equal(t, "Kwartaalfactuur", updated.Notes)
	assert.True(t, updated.IsActive)
}

func TestRecurringUseCase_UpdateConFinAnteriorDesactiva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.recurringUseCase(at("2024-01-01", 9)).Create(ctx, f.contractor.ID, dto.CreateRecurringRequest{
		ClientID: f.client.ID, Frequency: "MONTHLY", StartDate: "2024-03-01",
	})
	require.NoError(t, err)

	updated, err := f.recurringUseCase(at("2024-01-05", 9)).Update(ctx, f.contractor.ID, created.ID, dto.UpdateRecurringRequest{
		StartDate: ptr("2024-02-01"),
		EndDate:   ptr("2024-02-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", updated.NextInvoiceDate)
	assert.True(t, updated.IsActive, "la fecha de fin es inclusiva")

	cleared, err := f.recurringUseCase(at("2024-01-05", 9)).Update(ctx, f.contractor.ID, created.ID, dto.UpdateRecurringRequest{
		ClearEndDate: true,
	})
	require.NoError(t, err)
	assert.Empty(t, cleared.EndDate)
}

func TestRecurringUseCase_UpdatePlazoCeroTomaElPlazoPorDefecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.recurringUseCase(at("2024-01-01", 9)).Create(ctx, f.contractor.ID, dto.CreateRecurringRequest{
		ClientID: f.client.ID, Frequency: "MONTHLY", StartDate: "2024-01-01", PaymentTermsDays: 14,
	})
	require.NoError(t, err)
	assert.Equal(t, 14, created.PaymentTermsDays)

	updated, err := f.recurringUseCase(at("2024-01-05", 9)).Update(ctx, f.contractor.ID, created.ID, dto.UpdateRecurringRequest{
		PaymentTermsDays: ptr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, billing.DefaultPaymentTermsDays, updated.PaymentTermsDays)
}

func TestRecurringUseCase_ScheduleAjenoEsNotFound(t *testing.T) {
	f := newFixture(t)
	sch := f.addSchedule(t, "MONTHLY", date("2024-05-01"), nil, nil)
	other := f.addContractor(t, "Bakker Design")
	uc := f.recurringUseCase(at("2024-04-01", 9))

	_, err := uc.Get(context.Background(), other.ID, sch.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Pause(context.Background(), other.ID, sch.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, f.schedule(t, sch.ID).IsActive)
}

func TestRecurringUseCase_PlantillasPorContractor(t *testing.T) {
	f := newFixture(t)
	uc := f.recurringUseCase(at("2024-04-01", 9))
	ctx := context.Background()

	tpl, err := uc.CreateTemplate(ctx, f.contractor.ID, dto.CreateTemplateRequest{
		Name: "Hosting",
		Items: []dto.LineItemRequest{
			{Description: "VPS", Quantity: decimal.NewFromInt(1), UnitPriceCents: 2999},
			{Description: "Backups", Quantity: decimal.RequireFromString("0.5"), UnitPriceCents: 1001},
		},
	})
	require.NoError(t, err)
	require.Len(t, tpl.Items, 2)
	assert.Equal(t, int64(501), tpl.Items[1].TotalCents)

	_, err = uc.CreateTemplate(ctx, f.contractor.ID, dto.CreateTemplateRequest{Name: "Leeg"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.addTemplate(t, f.addContractor(t, "Bakker Design").ID)
	list, err := uc.ListTemplates(ctx, f.contractor.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Hosting", list[0].Name)
}

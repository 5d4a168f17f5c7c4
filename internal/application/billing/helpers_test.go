package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/testutil/memstore"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture compartida
// ──────────────────────────────────────────────────────────────────────────────

const testPublicURL = "https://app.zzp.test"

type fixture struct {
	store      *memstore.Store
	notifier   *memstore.Notifier
	contractor *entity.Contractor
	client     *entity.Client
	cfg        billing.SweepConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(),
		notifier: &memstore.Notifier{},
		cfg: billing.SweepConfig{
			ReminderWindowDays: 3,
			ItemTimeout:        2 * time.Second,
			PublicURL:          testPublicURL,
		},
	}
	f.contractor = f.addContractor(t, "De Vries Consultancy")
	f.client = f.addClient(t, f.contractor.ID, "Acme B.V.", "finance@acme.nl", "jan@acme.nl")
	return f
}

func (f *fixture) addContractor(t *testing.T, name string) *entity.Contractor {
	t.Helper()
	c := &entity.Contractor{
		ID:          uuid.New().String(),
		Name:        name,
		Email:       "info@devries.nl",
		KvKNumber:   "12345678",
		VATNumber:   "NL123456782B01",
		IBAN:        "NL91ABNA0417164300",
		Preferences: entity.DefaultNotificationPreferences(),
	}
	require.NoError(t, f.store.Contractors().Create(context.Background(), c))
	return c
}

func (f *fixture) addClient(t *testing.T, contractorID, name, billingEmail, contactEmail string) *entity.Client {
	t.Helper()
	c := &entity.Client{
		ID:           uuid.New().String(),
		ContractorID: contractorID,
		Name:         name,
		ContactName:  "Jan Jansen",
		ContactEmail: contactEmail,
		BillingEmail: billingEmail,
		Country:      "NL",
	}
	require.NoError(t, f.store.Clients().Create(context.Background(), c))
	return c
}

func (f *fixture) setPreferences(t *testing.T, mutate func(p *entity.NotificationPreferences)) {
	t.Helper()
	prefs := f.contractor.Preferences
	mutate(&prefs)
	require.NoError(t, f.store.Contractors().UpdatePreferences(context.Background(), f.contractor.ID, prefs))
}

// addInvoice guarda una factura con una línea de 8 h × € 95 al 21 %.
func (f *fixture) addInvoice(t *testing.T, number string, status entity.InvoiceStatus, due time.Time) *entity.Invoice {
	t.Helper()
	inv := &entity.Invoice{
		ID:             uuid.New().String(),
		ContractorID:   f.contractor.ID,
		ClientID:       f.client.ID,
		InvoiceNumber:  number,
		Status:         status,
		IssueDate:      entity.AddDays(due, -14),
		DueDate:        entity.DateOf(due),
		VATRatePercent: decimal.NewFromInt(21),
		Currency:       "EUR",
		LineItems:      []entity.LineItem{entity.NewLineItem("Consultancy", decimal.NewFromInt(8), 9500)},
	}
	inv.RecalculateTotals()
	if status != entity.InvoiceStatusDraft {
		sent := inv.IssueDate
		inv.SentAt = &sent
	}
	ctx := context.Background()
	require.NoError(t, f.store.Invoices().Create(ctx, inv))
	for i := range inv.LineItems {
		inv.LineItems[i].InvoiceID = inv.ID
		require.NoError(t, f.store.Invoices().CreateLineItem(ctx, &inv.LineItems[i]))
	}
	return inv
}

func (f *fixture) addTemplate(t *testing.T, contractorID string) *entity.InvoiceTemplate {
	t.Helper()
	tpl := &entity.InvoiceTemplate{
		ID:           uuid.New().String(),
		ContractorID: contractorID,
		Name:         "Maandelijkse retainer",
		Items: []entity.TemplateItem{
			{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitPriceCents: 150000},
			{Description: "Support uren", Quantity: decimal.RequireFromString("2.5"), UnitPriceCents: 8500},
		},
	}
	require.NoError(t, f.store.Templates().Create(context.Background(), tpl))
	return tpl
}

func (f *fixture) addSchedule(t *testing.T, freq entity.Frequency, next time.Time, end *time.Time, templateID *string) *entity.RecurringInvoice {
	t.Helper()
	sch := &entity.RecurringInvoice{
		ID:               uuid.New().String(),
		ContractorID:     f.contractor.ID,
		ClientID:         f.client.ID,
		TemplateID:       templateID,
		Frequency:        freq,
		StartDate:        next,
		EndDate:          end,
		NextInvoiceDate:  next,
		IsActive:         true,
		PaymentTermsDays: 14,
		VATRatePercent:   decimal.NewFromInt(21),
		Currency:         "EUR",
		Notes:            "Betaling binnen 14 dagen",
	}
	require.NoError(t, f.store.Recurring().Create(context.Background(), sch))
	return sch
}

func (f *fixture) generationSweep() *billing.GenerationSweep {
	return billing.NewGenerationSweep(f.store, f.store.Recurring(), f.cfg, zerolog.Nop())
}

func (f *fixture) overdueSweep() *billing.OverdueSweep {
	return billing.NewOverdueSweep(
		f.store, f.store.Invoices(), f.store.Contractors(), f.store.Clients(), f.store.Audit(),
		f.notifier, f.cfg, zerolog.Nop(),
	)
}

func (f *fixture) invoice(t *testing.T, id string) *entity.Invoice {
	t.Helper()
	inv, err := f.store.Invoices().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, inv)
	inv.LineItems, err = f.store.Invoices().GetLineItems(context.Background(), id)
	require.NoError(t, err)
	return inv
}

func (f *fixture) schedule(t *testing.T, id string) *entity.RecurringInvoice {
	t.Helper()
	sch, err := f.store.Recurring().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sch)
	return sch
}

func date(s string) time.Time {
	d, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func at(s string, hour int) time.Time {
	return date(s).Add(time.Duration(hour) * time.Hour)
}

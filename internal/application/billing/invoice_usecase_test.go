package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/application/dto"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/testutil/memstore"
)

type fakeDocument struct{ calls int }

func (f *fakeDocument) Generate(inv *entity.Invoice, _ *entity.Contractor, _ *entity.Client) ([]byte, error) {
	f.calls++
	return []byte("%PDF-" + inv.InvoiceNumber), nil
}

func (f *fakeDocument) Build(inv *entity.Invoice, _ *entity.Contractor, _ *entity.Client) ([]byte, error) {
	f.calls++
	return []byte("<Invoice>" + inv.InvoiceNumber + "</Invoice>"), nil
}

var fixedNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func (f *fixture) invoiceUseCase() *billing.InvoiceUseCase {
	return f.invoiceUseCaseAt(fixedNow)
}

func (f *fixture) invoiceUseCaseAt(now time.Time) *billing.InvoiceUseCase {
	doc := &fakeDocument{}
	return billing.NewInvoiceUseCase(
		f.store, f.store.Invoices(), f.store.Clients(), f.store.Contractors(), f.store.Audit(),
		f.notifier, doc, doc, f.cfg, zerolog.Nop(),
	).WithClock(func() time.Time { return now })
}

func consultancyItems() []dto.LineItemRequest {
	return []dto.LineItemRequest{
		{Description: "Consultancy juni", Quantity: decimal.NewFromInt(8), UnitPriceCents: 9500},
		{Description: "Reiskosten", Quantity: decimal.RequireFromString("1.333"), UnitPriceCents: 7500},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta y edición
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceUseCase_CreateGeneraDraftNumeradaConTotales(t *testing.T) {
	f := newFixture(t)
	uc := f.invoiceUseCase()

	resp, err := uc.Create(context.Background(), f.contractor.ID, "user-1", dto.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Items:    consultancyItems(),
	})
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", resp.Status)
	assert.Equal(t, "2024-0001", resp.InvoiceNumber)
	assert.Equal(t, "2024-06-03", resp.IssueDate)
	assert.Equal(t, "2024-07-03", resp.DueDate, "plazo por defecto de 30 días")
	assert.Equal(t, int64(76000+9998), resp.SubtotalCents)
	assert.Equal(t, int64(18060), resp.VATAmountCents) // 85998 × 21 % = 18059.58
	assert.Equal(t, resp.SubtotalCents+resp.VATAmountCents, resp.TotalCents)
	assert.Equal(t, "Acme B.V.", resp.ClientName)
	require.Len(t, resp.LineItems, 2)
	assert.Equal(t, 1, resp.LineItems[0].Position)
	assert.Equal(t, []string{entity.AuditInvoiceCreated}, f.store.AuditActions(resp.ID))
}

func TestInvoiceUseCase_FechaDeEmisionAtrasadaNoRetrocedeLaNumeracion(t *testing.T) {
	f := newFixture(t)
	uc := f.invoiceUseCaseAt(time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := uc.Create(ctx, f.contractor.ID, "user-1", dto.CreateInvoiceRequest{
		ClientID: f.client.ID, IssueDate: "2025-01-02", Items: consultancyItems(),
	})
	require.NoError(t, err)
	backdated, err := uc.Create(ctx, f.contractor.ID, "user-1", dto.CreateInvoiceRequest{
		ClientID: f.client.ID, IssueDate: "2024-12-31", Items: consultancyItems(),
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-0001", first.InvoiceNumber)
	assert.Equal(t, "2025-0002", backdated.InvoiceNumber)
	assert.Equal(t, "2024-12-31", backdated.IssueDate)
	assert.Greater(t, backdated.InvoiceNumber, first.InvoiceNumber)
}

func TestInvoiceUseCase_CantidadCeroSeAceptaYNegativaNo(t *testing.T) {
	f := newFixture(t)
	uc := f.invoiceUseCase()
	ctx := context.Background()

	resp, err := uc.Create(ctx, f.contractor.ID, "user-1", dto.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Items: []dto.LineItemRequest{
			{Description: "Consultancy juni", Quantity: decimal.NewFromInt(8), UnitPriceCents: 9500},
			{Description: "Kennismaking (kosteloos)", Quantity: decimal.Zero, UnitPriceCents: 9500},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.LineItems, 2)
	assert.Equal(t, int64(0), resp.LineItems[1].TotalCents)
	assert.Equal(t, int64(76000), resp.SubtotalCents)

	_, err = uc.Create(ctx, f.contractor.ID, "user-1", dto.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Items:    []dto.LineItemRequest{{Description: "Creditering", Quantity: decimal.NewFromInt(-1), UnitPriceCents: 9500}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInvoiceUseCase_CreateRechazaTipoDeBTWInvalido(t *testing.T) {
	f := newFixture(t)
	rate := decimal.NewFromInt(19)

	_, err := f.invoiceUseCase().Create(context.Background(), f.contractor.ID, "user-1", dto.CreateInvoiceRequest{
		ClientID:       f.client.ID,
		VATRatePercent: &rate,
		Items:          consultancyItems(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.store.AllInvoices())
}

func TestInvoiceUseCase_CreateConClienteAjenoEsNotFound(t *testing.T) {
	f := newFixture(t)
	other := f.addContractor(t, "Bakker Design")
	foreign := f.addClient(t, other.ID, "Studio X", "x@studio.nl", "")

	_, err := f.invoiceUseCase().Create(context.Background(), f.contractor.ID, "user-1", dto.CreateInvoiceRequest{
		ClientID: foreign.ID,
	})
	assert.ErrorIs(t, err, domain.ErrNotFoundOrUnauthorized)
}

func TestInvoiceUseCase_UpdateReemplazaLineasEnDraft(t *testing.T) {
	f := newFixture(t)
	uc := f.invoiceUseCase()
	created, err := uc.Create(context.Background(), f.contractor.ID, "user-1", dto.CreateInvoiceRequest{
		ClientID: f.client.ID, Items: consultancyItems(),
	})
	require.NoError(t, err)
	low := decimal.NewFromInt(9)

	updated, err := uc.Update(context.Background(), f.contractor.ID, "user-1", created.ID, dto.UpdateInvoiceRequest{
		VATRatePercent: &low,
		Items:          []dto.LineItemRequest{{Description: "Boeken", Quantity: decimal.NewFromInt(2), UnitPriceCents: 2495}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4990), updated.SubtotalCents)
	assert.Equal(t, int64(449), updated.VATAmountCents) // 449.1
	assert.Equal(t, int64(5439), updated.TotalCents)
	require.Len(t, updated.LineItems, 1)

	stored := f.invoice(t, created.ID)
	assert.Equal(t, updated.TotalCents, stored.TotalCents)
	require.Len(t, stored.LineItems, 1)
}

func TestInvoiceUseCase_UpdateFueraDeDraftEsInvoiceLocked(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "2024-0100", entity.InvoiceStatusSent, date("2024-06-20"))
	notes := "nieuwe notitie"

	_, err := f.invoiceUseCase().Update(context.Background(), f.contractor.ID, "user-1", inv.ID, dto.UpdateInvoiceRequest{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrInvoiceLocked)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceUseCase_SendPasaASentYNotifica(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "2024-0101", entity.InvoiceStatusDraft, date("2024-06-20"))

	resp, err := f.invoiceUseCase().Send(context.Background(), f.contractor.ID, "user-1", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "SENT", resp.Status)
	assert.NotEmpty(t, resp.SentAt)

	sent := f.notifier.SentOfType(entity.NotificationInvoiceSent)
	require.Len(t, sent, 1)
	for _, key := range []string{"invoiceNumber", "totalCents", "dueDate", "contractorName", "invoiceUrl"} {
		assert.Contains(t, sent[0].Data, key)
	}
	assert.Equal(t, "De Vries Consultancy", sent[0].Data["contractorName"])
	assert.Equal(t, []string{entity.AuditInvoiceSent}, f.store.AuditActions(inv.ID))
}

func TestInvoiceUseCase_SendSinLineasEsInvalido(t *testing.T) {
	f := newFixture(t)
	resp, err := f.invoiceUseCase().Create(context.Background(), f.contractor.ID, "user-1", dto.CreateInvoiceRequest{ClientID: f.client.ID})
	require.NoError(t, err)

	_, err = f.invoiceUseCase().Send(context.Background(), f.contractor.ID, "user-1", resp.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, entity.InvoiceStatusDraft, f.invoice(t, resp.ID).Status)
}

func TestInvoiceUseCase_ReenviarEsTransicionInvalida(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "2024-0102", entity.InvoiceStatusSent, date("2024-06-20"))

	_, err := f.invoiceUseCase().Send(context.Background(), f.contractor.ID, "user-1", inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	var te *domain.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "SENT", te.From)
}

func TestInvoiceUseCase_SendConFalloDeEmailSigueSent(t *testing.T) {
	f := newFixture(t)
	f.notifier.SetFail(true)
	inv := f.addInvoice(t, "2024-0103", entity.InvoiceStatusDraft, date("2024-06-20"))

	resp, err := f.invoiceUseCase().Send(context.Background(), f.contractor.ID, "user-1", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "SENT", resp.Status)
}

func TestInvoiceUseCase_MarkPaidDesdeOverdueNotificaPaidAt(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "2024-0104", entity.InvoiceStatusOverdue, date("2024-05-20"))

	resp, err := f.invoiceUseCase().MarkPaid(context.Background(), f.contractor.ID, "user-1", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", resp.Status)

	paid := f.notifier.SentOfType(entity.NotificationInvoicePaid)
	require.Len(t, paid, 1)
	assert.Equal(t, "2024-06-03", paid[0].Data["paidAt"])
}

func TestInvoiceUseCase_CanceladaBloqueaTransicionesPosteriores(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "2024-0105", entity.InvoiceStatusSent, date("2024-06-20"))
	uc := f.invoiceUseCase()
	ctx := context.Background()

	_, err := uc.Cancel(ctx, f.contractor.ID, "user-1", inv.ID)
	require.NoError(t, err)

	_, err = uc.Send(ctx, f.contractor.ID, "user-1", inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = uc.MarkPaid(ctx, f.contractor.ID, "user-1", inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = uc.Cancel(ctx, f.contractor.ID, "user-1", inv.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, entity.InvoiceStatusCancelled, f.invoice(t, inv.ID).Status)
}

func TestInvoiceUseCase_CarreraConOtroActorEsConflict(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "2024-0106", entity.InvoiceStatusSent, date("2024-06-20"))

	// Justo antes de persistir, otra transacción confirma el pago de la factura.
	fired := false
	var paidErr error
	f.store.SetHook(memstore.OpInvoiceLifecycle, func(ctx context.Context, id string) error {
		if fired {
			return nil
		}
		fired = true
		f.store.Concurrent(func() {
			paid := f.invoice(t, id)
			paid.Status = entity.InvoiceStatusPaid
			_, paidErr = f.store.Invoices().UpdateLifecycle(ctx, paid, entity.InvoiceStatusSent)
		})
		return nil
	})

	_, err := f.invoiceUseCase().Cancel(context.Background(), f.contractor.ID, "user-1", inv.ID)
	require.NoError(t, paidErr)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, entity.InvoiceStatusPaid, f.invoice(t, inv.ID).Status)
	assert.Empty(t, f.store.AuditActions(inv.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Lectura y documentos
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceUseCase_FacturaDeOtroContractorEsNotFound(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "2024-0107", entity.InvoiceStatusSent, date("2024-06-20"))
	other := f.addContractor(t, "Bakker Design")

	_, err := f.invoiceUseCase().Get(context.Background(), other.ID, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.invoiceUseCase().MarkPaid(context.Background(), other.ID, "user-2", inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceUseCase_ListFiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	f.addInvoice(t, "2024-0108", entity.InvoiceStatusSent, date("2024-06-20"))
	f.addInvoice(t, "2024-0109", entity.InvoiceStatusPaid, date("2024-06-20"))
	f.addInvoice(t, "2024-0110", entity.InvoiceStatusSent, date("2024-06-21"))

	list, err := f.invoiceUseCase().List(context.Background(), f.contractor.ID, dto.InvoiceListQuery{Status: "sent"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.invoiceUseCase().List(context.Background(), f.contractor.ID, dto.InvoiceListQuery{Status: "betaald"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInvoiceUseCase_DocumentosPDFyUBL(t *testing.T) {
	f := newFixture(t)
	draft := f.addInvoice(t, "2024-0111", entity.InvoiceStatusDraft, date("2024-06-20"))
	sent := f.addInvoice(t, "2024-0112", entity.InvoiceStatusSent, date("2024-06-20"))
	uc := f.invoiceUseCase()

	pdf, name, err := uc.DownloadPDF(context.Background(), f.contractor.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "factuur-2024-0111.pdf", name)
	assert.Equal(t, "%PDF-2024-0111", string(pdf))

	_, _, err = uc.ExportUBL(context.Background(), f.contractor.ID, draft.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	xml, name, err := uc.ExportUBL(context.Background(), f.contractor.ID, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, "factuur-2024-0112.xml", name)
	assert.Contains(t, string(xml), "2024-0112")
}

func TestInvoiceUseCase_HistoryDevuelveAuditoria(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvoice(t, "2024-0113", entity.InvoiceStatusDraft, date("2024-06-20"))
	uc := f.invoiceUseCase()
	_, err := uc.Send(context.Background(), f.contractor.ID, "user-1", inv.ID)
	require.NoError(t, err)
	_, err = uc.MarkPaid(context.Background(), f.contractor.ID, "user-1", inv.ID)
	require.NoError(t, err)

	history, err := uc.History(context.Background(), f.contractor.ID, inv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.AuditInvoiceSent, history[0].Action)
	assert.Equal(t, entity.AuditInvoicePaid, history[1].Action)
	assert.Equal(t, "user-1", history[1].Actor)
	assert.Equal(t, "SENT", history[1].Details["from"])
}

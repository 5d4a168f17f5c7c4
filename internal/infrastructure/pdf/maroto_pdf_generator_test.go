package pdf_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/pdf"
)

func sampleInvoice() (*entity.Invoice, *entity.Contractor, *entity.Client) {
	inv := &entity.Invoice{
		ID:             "inv-1",
		InvoiceNumber:  "2024-0042",
		Status:         entity.InvoiceStatusSent,
		IssueDate:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
		VATRatePercent: decimal.NewFromInt(21),
		Currency:       "EUR",
		LineItems: []entity.LineItem{
			entity.NewLineItem("Consultancy juni", decimal.NewFromInt(8), 9500),
			entity.NewLineItem("Reiskosten", decimal.RequireFromString("1.5"), 2000),
		},
	}
	inv.RecalculateTotals()
	contractor := &entity.Contractor{
		Name: "De Vries Development", KvKNumber: "12345678", VATNumber: "NL001234567B01",
		IBAN: "NL91 ABNA 0417 1643 00", City: "Utrecht",
	}
	client := &entity.Client{Name: "Acme BV", ContactName: "Piet Jansen", City: "Amsterdam"}
	return inv, contractor, client
}

func TestGenerate_ProducePDF(t *testing.T) {
	inv, contractor, client := sampleInvoice()

	out, err := pdf.NewMarotoPDFGenerator().Generate(inv, contractor, client)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"))
}

func TestGenerate_SinIBANNiLineas(t *testing.T) {
	inv, contractor, client := sampleInvoice()
	contractor.IBAN = ""
	inv.LineItems = nil

	out, err := pdf.NewMarotoPDFGenerator().Generate(inv, contractor, client)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestEPCPayload_TransferenciaSEPA(t *testing.T) {
	inv, contractor, _ := sampleInvoice()

	lines := strings.Split(pdf.EPCPayload(inv, contractor), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "BCD", lines[0])
	assert.Equal(t, "NL91ABNA0417164300", lines[6])
	assert.Equal(t, "EUR955.90", lines[7], "(8×95 + 1,5×20) × 1,21")
	assert.Equal(t, "Factuur 2024-0042", lines[10])
}

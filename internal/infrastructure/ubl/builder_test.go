package ubl_test

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/infrastructure/ubl"
)

func buildDoc(t *testing.T, rate int64) *etree.Document {
	t.Helper()
	inv := &entity.Invoice{
		InvoiceNumber:  "2024-0007",
		IssueDate:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC),
		VATRatePercent: decimal.NewFromInt(rate),
		Currency:       "EUR",
		LineItems: []entity.LineItem{
			entity.NewLineItem("Consultancy", decimal.RequireFromString("8"), 9500),
			entity.NewLineItem("Workshop", decimal.RequireFromString("1.333"), 7500),
		},
	}
	inv.RecalculateTotals()
	contractor := &entity.Contractor{Name: "De Vries Development", KvKNumber: "12345678",
		VATNumber: "NL001234567B01", IBAN: "NL91 ABNA 0417 1643 00", City: "Utrecht"}
	client := &entity.Client{Name: "Acme BV", BillingEmail: "ap@acme.nl", Country: "NL"}

	out, err := ubl.NewBuilder().Build(inv, contractor, client)
	require.NoError(t, err)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	return doc
}

func text(t *testing.T, doc *etree.Document, path string) string {
	t.Helper()
	el := doc.FindElement(path)
	require.NotNil(t, el, path)
	return el.Text()
}

func TestBuild_CabeceraYTotales(t *testing.T) {
	doc := buildDoc(t, 21)

	assert.Equal(t, "2024-0007", text(t, doc, "/Invoice/cbc:ID"))
	assert.Equal(t, "2024-07-03", text(t, doc, "/Invoice/cbc:DueDate"))
	assert.Contains(t, text(t, doc, "/Invoice/cbc:CustomizationID"), "nlcius")
	assert.Equal(t, "859.98", text(t, doc, "/Invoice/cac:LegalMonetaryTotal/cbc:TaxExclusiveAmount"))
	assert.Equal(t, "180.60", text(t, doc, "/Invoice/cac:TaxTotal/cbc:TaxAmount"))
	assert.Equal(t, "1040.58", text(t, doc, "/Invoice/cac:LegalMonetaryTotal/cbc:PayableAmount"))
	assert.Equal(t, "EUR", doc.FindElement("/Invoice/cac:LegalMonetaryTotal/cbc:PayableAmount").SelectAttrValue("currencyID", ""))
	assert.Equal(t, "NL91ABNA0417164300", text(t, doc, "/Invoice/cac:PaymentMeans/cac:PayeeFinancialAccount/cbc:ID"))
}

func TestBuild_LineasYCategoria(t *testing.T) {
	doc := buildDoc(t, 21)

	lines := doc.FindElements("/Invoice/cac:InvoiceLine")
	require.Len(t, lines, 2)
	assert.Equal(t, "1.333", lines[1].FindElement("cbc:InvoicedQuantity").Text())
	assert.Equal(t, "99.98", lines[1].FindElement("cbc:LineExtensionAmount").Text())
	assert.Equal(t, "S", lines[0].FindElement("cac:Item/cac:ClassifiedTaxCategory/cbc:ID").Text())

	zero := buildDoc(t, 0)
	assert.Equal(t, "Z", text(t, zero, "/Invoice/cac:TaxTotal/cac:TaxSubtotal/cac:TaxCategory/cbc:ID"))
}

func TestBuild_FaltanPartes(t *testing.T) {
	_, err := ubl.NewBuilder().Build(&entity.Invoice{}, nil, &entity.Client{})
	require.Error(t, err)
}

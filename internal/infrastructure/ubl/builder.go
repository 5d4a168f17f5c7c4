// Package ubl exporta facturas a UBL 2.1 según SI-UBL 2.0 (NLCIUS), el formato
// de e-factura aceptado por la administración holandesa y Peppol.
package ubl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/money"
)

var _ billing.UBLBuilder = (*Builder)(nil)

// Namespaces UBL 2.1.
const (
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	customizationID = "urn:cen.eu:en16931:2017#compliant#urn:fdc:nen.nl:nlcius:v1.0"
	profileID       = "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"

	invoiceTypeCommercial = "380"
	paymentMeansSEPA      = "58"
	schemeKvK             = "0106"
	unitCodeOne           = "C62"
)

// Builder construye el documento con etree.
type Builder struct{}

// NewBuilder crea el builder.
func NewBuilder() *Builder { return &Builder{} }

// Build genera el XML UBL de la factura. inv.LineItems debe venir cargado.
func (b *Builder) Build(inv *entity.Invoice, contractor *entity.Contractor, client *entity.Client) ([]byte, error) {
	if inv == nil || contractor == nil || client == nil {
		return nil, fmt.Errorf("ubl: faltan factura, contractor o cliente")
	}
	currency := inv.Currency
	if currency == "" {
		currency = "EUR"
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NsInvoice)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)

	cbc(root, "CustomizationID", customizationID)
	cbc(root, "ProfileID", profileID)
	cbc(root, "ID", inv.InvoiceNumber)
	cbc(root, "IssueDate", inv.IssueDate.Format(entity.DateFormat))
	cbc(root, "DueDate", inv.DueDate.Format(entity.DateFormat))
	cbc(root, "InvoiceTypeCode", invoiceTypeCommercial)
	if inv.Notes != "" {
		cbc(root, "Note", inv.Notes)
	}
	cbc(root, "DocumentCurrencyCode", currency)
	cbc(root, "BuyerReference", inv.InvoiceNumber)

	supplier := root.CreateElement("cac:AccountingSupplierParty")
	writeParty(supplier, partyData{
		Name: contractor.Name, Street: contractor.Address, City: contractor.City,
		PostalCode: contractor.PostalCode, Country: "NL",
		VATNumber: contractor.VATNumber, KvKNumber: contractor.KvKNumber, Email: contractor.Email,
	})
	customer := root.CreateElement("cac:AccountingCustomerParty")
	writeParty(customer, partyData{
		Name: client.Name, Street: client.Address, City: client.City,
		PostalCode: client.PostalCode, Country: nonEmpty(client.Country, "NL"),
		VATNumber: client.VATNumber, KvKNumber: client.KvKNumber, Email: client.RecipientEmail(),
	})

	if contractor.IBAN != "" {
		pm := root.CreateElement("cac:PaymentMeans")
		cbc(pm, "PaymentMeansCode", paymentMeansSEPA)
		cbc(pm, "PaymentID", inv.InvoiceNumber)
		acc := pm.CreateElement("cac:PayeeFinancialAccount")
		cbc(acc, "ID", strings.ReplaceAll(contractor.IBAN, " ", ""))
		cbc(acc, "Name", contractor.Name)
	}

	category := taxCategory(inv.VATRatePercent)
	taxTotal := root.CreateElement("cac:TaxTotal")
	amount(taxTotal, "TaxAmount", inv.VATAmountCents, currency)
	sub := taxTotal.CreateElement("cac:TaxSubtotal")
	amount(sub, "TaxableAmount", inv.SubtotalCents, currency)
	amount(sub, "TaxAmount", inv.VATAmountCents, currency)
	writeTaxCategory(sub.CreateElement("cac:TaxCategory"), category, inv.VATRatePercent)

	totals := root.CreateElement("cac:LegalMonetaryTotal")
	amount(totals, "LineExtensionAmount", inv.SubtotalCents, currency)
	amount(totals, "TaxExclusiveAmount", inv.SubtotalCents, currency)
	amount(totals, "TaxInclusiveAmount", inv.TotalCents, currency)
	amount(totals, "PayableAmount", inv.TotalCents, currency)

	for i, li := range inv.LineItems {
		line := root.CreateElement("cac:InvoiceLine")
		cbc(line, "ID", strconv.Itoa(i+1))
		qty := cbc(line, "InvoicedQuantity", li.Quantity.String())
		qty.CreateAttr("unitCode", unitCodeOne)
		amount(line, "LineExtensionAmount", li.TotalCents, currency)
		item := line.CreateElement("cac:Item")
		cbc(item, "Name", li.Description)
		writeTaxCategory(item.CreateElement("cac:ClassifiedTaxCategory"), category, inv.VATRatePercent)
		price := line.CreateElement("cac:Price")
		amount(price, "PriceAmount", li.UnitPriceCents, currency)
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("ubl: serializar: %w", err)
	}
	return out, nil
}

type partyData struct {
	Name, Street, City, PostalCode, Country string
	VATNumber, KvKNumber, Email             string
}

func writeParty(parent *etree.Element, p partyData) {
	party := parent.CreateElement("cac:Party")
	if p.KvKNumber != "" {
		id := party.CreateElement("cac:PartyIdentification")
		cbc(id, "ID", p.KvKNumber).CreateAttr("schemeID", schemeKvK)
	}
	cbc(party.CreateElement("cac:PartyName"), "Name", p.Name)

	addr := party.CreateElement("cac:PostalAddress")
	if p.Street != "" {
		cbc(addr, "StreetName", p.Street)
	}
	if p.City != "" {
		cbc(addr, "CityName", p.City)
	}
	if p.PostalCode != "" {
		cbc(addr, "PostalZone", p.PostalCode)
	}
	cbc(addr.CreateElement("cac:Country"), "IdentificationCode", p.Country)

	if p.VATNumber != "" {
		ts := party.CreateElement("cac:PartyTaxScheme")
		cbc(ts, "CompanyID", p.VATNumber)
		cbc(ts.CreateElement("cac:TaxScheme"), "ID", "VAT")
	}
	legal := party.CreateElement("cac:PartyLegalEntity")
	cbc(legal, "RegistrationName", p.Name)
	if p.KvKNumber != "" {
		cbc(legal, "CompanyID", p.KvKNumber).CreateAttr("schemeID", schemeKvK)
	}
	if p.Email != "" {
		cbc(party.CreateElement("cac:Contact"), "ElectronicMail", p.Email)
	}
}

// taxCategory código UNCL5305: S estándar/reducido, Z tipo cero.
func taxCategory(rate decimal.Decimal) string {
	if rate.IsZero() {
		return "Z"
	}
	return "S"
}

func writeTaxCategory(el *etree.Element, category string, rate decimal.Decimal) {
	cbc(el, "ID", category)
	cbc(el, "Percent", rate.String())
	cbc(el.CreateElement("cac:TaxScheme"), "ID", "VAT")
}

func cbc(parent *etree.Element, name, value string) *etree.Element {
	el := parent.CreateElement("cbc:" + name)
	el.SetText(value)
	return el
}

func amount(parent *etree.Element, name string, cents int64, currency string) {
	cbc(parent, name, money.ToDecimal(cents).StringFixed(2)).CreateAttr("currencyID", currency)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

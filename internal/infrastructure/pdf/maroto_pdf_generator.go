// Package pdf genera la factura en PDF (layout holandés) con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Contractor + KvK/BTW  │  FACTUUR + nº + fechas      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VAN: dirección del contractor │  AAN: datos del cliente     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Aantal | Omschrijving | Prijs | Bedrag               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotaal / BTW x% / Totaal                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PAGO: IBAN + referencia + QR EPC (SEPA)                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/billing"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/entity"
	"github.com/jhoicas/zzp-facturatie-api/internal/domain/money"
)

var _ billing.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const displayDate = "02-01-2006"

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// Generate genera el PDF de la factura (con sus LineItems ya cargados) y devuelve sus bytes.
func (g *MarotoPDFGenerator) Generate(inv *entity.Invoice, contractor *entity.Contractor, client *entity.Client) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factuur "+inv.InvoiceNumber, true).
		WithAuthor(contractor.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(inv, contractor))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(contractor, client))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableLineRows(inv.LineItems)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(paymentRows(inv, contractor)...)
	if inv.Notes != "" {
		m.AddRows(row.New(12).Add(col.New(12).Add(
			text.New(inv.Notes, props.Text{Size: 8, Top: 2, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: contractor + KvK/BTW (izq) y FACTUUR + número + fechas (der).
func headerRow(inv *entity.Invoice, contractor *entity.Contractor) core.Row {
	return row.New(22).Add(
		col.New(7).Add(
			text.New(contractor.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("KvK: %s   |   BTW-id: %s",
				nonEmpty(contractor.KvKNumber, "-"), nonEmpty(contractor.VATNumber, "-"),
			), props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("FACTUUR", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(inv.InvoiceNumber, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
			text.New("Factuurdatum: "+inv.IssueDate.Format(displayDate), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
			text.New("Vervaldatum: "+inv.DueDate.Format(displayDate), props.Text{
				Size: 8, Align: align.Right, Top: 17, Color: colorGray,
			}),
		),
	)
}

// partiesRow: remitente y destinatario lado a lado.
func partiesRow(contractor *entity.Contractor, client *entity.Client) core.Row {
	party := func(title, name string, lines ...string) core.Col {
		c := col.New(6).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		)
		top := 11.0
		for _, l := range lines {
			if strings.TrimSpace(l) == "" {
				continue
			}
			c.Add(text.New(l, props.Text{Size: 8, Top: top, Color: colorGray}))
			top += 4
		}
		return c
	}
	clientTax := ""
	if client.VATNumber != "" {
		clientTax = "BTW-id: " + client.VATNumber
	}
	return row.New(28).Add(
		party("VAN", contractor.Name,
			contractor.Address,
			strings.TrimSpace(contractor.PostalCode+" "+contractor.City),
			contractor.Email,
		),
		party("AAN", client.Name,
			client.ContactName,
			client.Address,
			strings.TrimSpace(client.PostalCode+" "+client.City),
			clientTax,
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Aantal", 2, align.Center),
		h("Omschrijving", 6, align.Left),
		h("Prijs", 2, align.Right),
		h("Bedrag", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableLineRows: una fila por línea de la factura.
func tableLineRows(items []entity.LineItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, li := range items {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(formatQuantity(li),
				props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(6).Add(text.New(li.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatAmount(li.UnitPriceCents),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatAmount(li.TotalCents),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRow: subtotal, BTW y total alineados a la derecha.
func totalsRow(inv *entity.Invoice) core.Row {
	label := func(s string, top float64, bold bool) core.Component {
		p := props.Text{Size: 9, Align: align.Right, Right: 2, Top: top}
		if bold {
			p.Style = fontstyle.Bold
			p.Color = colorPrimary
		}
		return text.New(s, p)
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotaal:", 1, false),
			label(fmt.Sprintf("BTW %s%%:", inv.VATRatePercent.String()), 6, false),
			label("Totaal:", 12, true),
		),
		col.New(3).Add(
			label(formatAmount(inv.SubtotalCents), 1, false),
			label(formatAmount(inv.VATAmountCents), 6, false),
			label(formatAmount(inv.TotalCents), 12, true),
		),
	)
}

// paymentRows: instrucciones de pago y QR EPC cuando el contractor tiene IBAN.
func paymentRows(inv *entity.Invoice, contractor *entity.Contractor) []core.Row {
	instructions := fmt.Sprintf(
		"Gelieve %s uiterlijk %s over te maken onder vermelding van factuurnummer %s.",
		formatAmount(inv.TotalCents), inv.DueDate.Format(displayDate), inv.InvoiceNumber,
	)
	if contractor.IBAN == "" {
		return []core.Row{row.New(10).Add(col.New(12).Add(
			text.New(instructions, props.Text{Size: 8, Top: 2}),
		))}
	}
	return []core.Row{row.New(40).Add(
		col.New(3).Add(code.NewQr(EPCPayload(inv, contractor), props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("BETAALGEGEVENS", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2, Left: 3}),
			text.New("IBAN: "+contractor.IBAN+"   t.n.v. "+contractor.Name, props.Text{Size: 8, Top: 8, Left: 3}),
			text.New(instructions, props.Text{Size: 8, Top: 14, Left: 3, Color: colorGray}),
			text.New("Scan de QR-code met uw bankapp om direct te betalen.", props.Text{Size: 7, Top: 24, Left: 3, Color: colorGray}),
		),
	)}
}

// EPCPayload contenido del QR de transferencia SEPA (EPC069-12, versión 002).
func EPCPayload(inv *entity.Invoice, contractor *entity.Contractor) string {
	name := contractor.Name
	if len(name) > 70 {
		name = name[:70]
	}
	amount := money.ToDecimal(inv.TotalCents).StringFixed(2)
	return strings.Join([]string{
		"BCD", "002", "1", "SCT", "",
		name,
		strings.ReplaceAll(contractor.IBAN, " ", ""),
		"EUR" + amount,
		"", "",
		"Factuur " + inv.InvoiceNumber,
	}, "\n")
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatAmount "EUR 1.234,50": la fuente base del PDF no incluye el glifo del euro.
func formatAmount(cents int64) string {
	return "EUR " + strings.TrimPrefix(money.FormatEUR(cents), "€ ")
}

// formatQuantity cantidad con coma decimal: 1.5 → "1,5".
func formatQuantity(li entity.LineItem) string {
	return strings.ReplaceAll(li.Quantity.String(), ".", ",")
}

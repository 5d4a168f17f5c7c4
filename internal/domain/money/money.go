// Package money contiene la aritmética de importes en céntimos (EUR) y el BTW (IVA holandés).
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var hundred = decimal.NewFromInt(100)

// Tipos de BTW vigentes en Países Bajos.
var (
	VATHigh   = decimal.NewFromInt(21)
	VATLow    = decimal.NewFromInt(9)
	VATExempt = decimal.Zero
)

// IsValidVATRate solo se aceptan los tipos 21, 9 y 0 (exento / verlegd).
func IsValidVATRate(rate decimal.Decimal) bool {
	return rate.Equal(VATHigh) || rate.Equal(VATLow) || rate.Equal(VATExempt)
}

// LineTotalCents quantity × unitPriceCents redondeado al céntimo más cercano
// (mitades se alejan de cero).
func LineTotalCents(quantity decimal.Decimal, unitPriceCents int64) int64 {
	return quantity.Mul(decimal.NewFromInt(unitPriceCents)).Round(0).IntPart()
}

// VATCents calcula el BTW sobre el subtotal: round(subtotal × rate / 100).
func VATCents(subtotalCents int64, ratePercent decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotalCents).Mul(ratePercent).Div(hundred).Round(0).IntPart()
}

// ToDecimal convierte céntimos en euros con dos decimales.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FromDecimal convierte euros (p.ej. "12.345") en céntimos redondeados.
func FromDecimal(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

var nlPrinter = message.NewPrinter(language.Dutch)

// FormatEUR formatea céntimos al estilo holandés: "€ 1.234,50".
func FormatEUR(cents int64) string {
	f, _ := ToDecimal(cents).Float64()
	return nlPrinter.Sprintf("€ %v", number.Decimal(f, number.Scale(2)))
}

// Package nlid valida identificadores fiscales y bancarios neerlandeses que aparecen en
// una factura: IBAN (ISO 13616, módulo 97) y número de IVA (btw-id).
package nlid

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// longitudes de IBAN por país para los países que más aparecen en facturas ZZP.
var ibanLengths = map[string]int{
	"NL": 18, "BE": 16, "DE": 22, "FR": 27, "LU": 20, "GB": 22, "ES": 24, "IT": 27,
}

// Compact quita espacios, puntos y guiones y pasa a mayúsculas.
// "nl91 abna 0417 1643 00" → "NL91ABNA0417164300".
func Compact(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// ValidateIBAN valida longitud por país (cuando se conoce) y el check módulo 97.
func ValidateIBAN(raw string) error {
	iban := Compact(raw)
	if len(iban) < 15 || len(iban) > 34 {
		return fmt.Errorf("nlid: IBAN con longitud %d fuera de rango", len(iban))
	}
	if want, ok := ibanLengths[iban[:2]]; ok && len(iban) != want {
		return fmt.Errorf("nlid: IBAN %s debe tener %d caracteres, tiene %d", iban[:2], want, len(iban))
	}
	if mod97(iban[4:]+iban[:4]) != 1 {
		return fmt.Errorf("nlid: dígitos de control del IBAN inválidos")
	}
	return nil
}

// ValidateVATNumber valida un btw-id neerlandés "NL" + 9 dígitos + "B" + 2 dígitos.
//
// Se aceptan los dos esquemas vigentes:
//   - omzetbelastingnummer clásico: los 9 dígitos cumplen la elfproef.
//   - btw-id de eenmanszaak (desde 2020): "NL...B.." completo cumple módulo 97.
//
// Los números de otros países no se validan aquí.
func ValidateVATNumber(raw string) error {
	vat := Compact(raw)
	if !strings.HasPrefix(vat, "NL") {
		return nil
	}
	if len(vat) != 14 || vat[11] != 'B' || !allDigits(vat[2:11]) || !allDigits(vat[12:]) {
		return fmt.Errorf("nlid: btw-id %q no tiene formato NL999999999B99", vat)
	}
	if elevenProof(vat[2:11]) || mod97(vat) == 1 {
		return nil
	}
	return fmt.Errorf("nlid: dígito de control del btw-id inválido")
}

// ValidateKvK el número de la Cámara de Comercio son 8 dígitos (sin dígito de control público).
func ValidateKvK(raw string) error {
	kvk := strings.TrimSpace(raw)
	if len(kvk) != 8 || !allDigits(kvk) {
		return fmt.Errorf("nlid: KvK-nummer debe tener 8 dígitos")
	}
	return nil
}

// elevenProof pesos 9..2 para los 8 primeros dígitos y -1 para el último.
func elevenProof(digits string) bool {
	sum := 0
	for i := 0; i < 8; i++ {
		sum += int(digits[i]-'0') * (9 - i)
	}
	sum -= int(digits[8] - '0')
	return sum%11 == 0
}

// mod97 convierte letras a números (A=10 … Z=35) y calcula el resto módulo 97.
func mod97(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			fmt.Fprintf(&b, "%d", r-'A'+10)
			continue
		}
		b.WriteRune(r)
	}
	n, ok := new(big.Int).SetString(b.String(), 10)
	if !ok {
		return -1
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64()
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

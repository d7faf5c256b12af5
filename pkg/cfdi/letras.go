// Conversión de importes a letra para la representación impresa del CFDI
// ("MIL CIENTO SESENTA PESOS 00/100 M.N."). Determinista, cubre el rango
// 0 a 999,999,999.99 exigido por la factura de ingreso.

package cfdi

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var unidades = [...]string{
	"", "UNO", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE", "OCHO", "NUEVE",
	"DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE", "QUINCE", "DIECISÉIS",
	"DIECISIETE", "DIECIOCHO", "DIECINUEVE", "VEINTE", "VEINTIUNO", "VEINTIDÓS",
	"VEINTITRÉS", "VEINTICUATRO", "VEINTICINCO", "VEINTISÉIS", "VEINTISIETE",
	"VEINTIOCHO", "VEINTINUEVE",
}

var decenas = [...]string{
	"", "", "", "TREINTA", "CUARENTA", "CINCUENTA", "SESENTA", "SETENTA",
	"OCHENTA", "NOVENTA",
}

var centenas = [...]string{
	"", "CIENTO", "DOSCIENTOS", "TRESCIENTOS", "CUATROCIENTOS", "QUINIENTOS",
	"SEISCIENTOS", "SETECIENTOS", "OCHOCIENTOS", "NOVECIENTOS",
}

// ImporteConLetra convierte un importe MXN a su representación con letra,
// con los centavos en formato NN/100 M.N.
// Retorna error fuera del rango 0 – 999,999,999.99.
func ImporteConLetra(d decimal.Decimal) (string, error) {
	if d.IsNegative() {
		return "", fmt.Errorf("cfdi: importe con letra no admite negativos: %s", d)
	}
	redondeado := d.Round(2)
	entero := redondeado.IntPart()
	if entero > 999_999_999 {
		return "", fmt.Errorf("cfdi: importe %s excede 999,999,999.99", d)
	}
	centavos := redondeado.Sub(decimal.NewFromInt(entero)).Mul(decimal.NewFromInt(100)).IntPart()

	moneda := "PESOS"
	switch {
	case entero == 1:
		moneda = "PESO"
	case entero > 0 && entero%1_000_000 == 0:
		moneda = "DE PESOS"
	}
	return fmt.Sprintf("%s %s %02d/100 M.N.", apocope(enteroALetra(entero)), moneda, centavos), nil
}

// enteroALetra convierte 0–999,999,999 a palabras en español.
func enteroALetra(n int64) string {
	if n == 0 {
		return "CERO"
	}
	var partes []string

	millones := n / 1_000_000
	resto := n % 1_000_000
	if millones == 1 {
		partes = append(partes, "UN MILLÓN")
	} else if millones > 1 {
		partes = append(partes, apocope(cientosALetra(millones))+" MILLONES")
	}

	miles := resto / 1_000
	resto = resto % 1_000
	if miles == 1 {
		partes = append(partes, "MIL")
	} else if miles > 1 {
		partes = append(partes, apocope(cientosALetra(miles))+" MIL")
	}

	if resto > 0 {
		partes = append(partes, cientosALetra(resto))
	}
	return strings.Join(partes, " ")
}

// cientosALetra convierte 1–999 a palabras.
func cientosALetra(n int64) string {
	if n == 100 {
		return "CIEN"
	}
	var partes []string
	if c := n / 100; c > 0 {
		partes = append(partes, centenas[c])
	}
	resto := n % 100
	switch {
	case resto == 0:
	case resto < 30:
		partes = append(partes, unidades[resto])
	default:
		d := resto / 10
		u := resto % 10
		if u == 0 {
			partes = append(partes, decenas[d])
		} else {
			partes = append(partes, decenas[d]+" Y "+unidades[u])
		}
	}
	return strings.Join(partes, " ")
}

// apocope aplica la forma apocopada antes de MIL/MILLONES
// (VEINTIUNO MIL → VEINTIÚN MIL, CIENTO UNO MIL → CIENTO UN MIL).
func apocope(s string) string {
	s = strings.ReplaceAll(s, "VEINTIUNO", "VEINTIÚN")
	if strings.HasSuffix(s, "UNO") {
		s = strings.TrimSuffix(s, "UNO") + "UN"
	}
	return s
}

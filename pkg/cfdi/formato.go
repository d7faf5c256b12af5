// Formateo de valores numéricos para la cadena original y el XML del CFDI.
// La precisión de cada campo está fijada por el Anexo 20: un formato distinto
// produce una cadena válida sintácticamente pero con sello incorrecto, así que
// todo el sistema formatea a través de estas funciones.

package cfdi

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatoImporte formatea montos monetarios: punto decimal, 2 decimales fijos,
// sin separador de miles (ej: 1160.00).
func FormatoImporte(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// FormatoTasa formatea tasas de impuesto con 6 decimales fijos (ej: 0.160000).
func FormatoTasa(d decimal.Decimal) string {
	return d.Round(6).StringFixed(6)
}

// FormatoCantidad formatea cantidades: hasta 6 decimales, recortando ceros a la
// derecha (quirk del estándar: 2.000000 se expresa como "2", 1.50 como "1.5").
func FormatoCantidad(d decimal.Decimal) string {
	s := d.Round(6).StringFixed(6)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

// FormatoFecha es el layout de fecha del CFDI (ISO 8601 sin zona horaria).
const FormatoFecha = "2006-01-02T15:04:05"

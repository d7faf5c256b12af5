package cfdi

import (
	"fmt"
	"regexp"
	"strings"
)

// Patrón sintáctico del RFC (Anexo 20): 3-4 letras, fecha AAMMDD, homoclave de 3.
// Persona moral: 12 caracteres; persona física: 13.
var rfcPattern = regexp.MustCompile(`^([A-ZÑ&]{3,4})(\d{2})(\d{2})(\d{2})([A-Z\d]{2})([A\d])$`)

// NormalizarRFC quita espacios y pasa a mayúsculas. No valida.
func NormalizarRFC(rfc string) string {
	return strings.ToUpper(strings.TrimSpace(rfc))
}

// ValidarRFC valida la sintaxis del RFC (longitud, patrón y fecha plausible).
// Acepta los RFC genéricos XAXX010101000 y XEXX010101000.
func ValidarRFC(rfc string) error {
	r := NormalizarRFC(rfc)
	if r == RFCGenerico || r == RFCExtranjero {
		return nil
	}
	if len(r) != 12 && len(r) != 13 {
		return fmt.Errorf("cfdi: RFC debe tener 12 o 13 caracteres, tiene %d", len(r))
	}
	m := rfcPattern.FindStringSubmatch(r)
	if m == nil {
		return fmt.Errorf("cfdi: RFC %q no cumple el patrón del Anexo 20", r)
	}
	mes := m[3]
	dia := m[4]
	if mes < "01" || mes > "12" {
		return fmt.Errorf("cfdi: RFC %q tiene mes inválido %q", r, mes)
	}
	if dia < "01" || dia > "31" {
		return fmt.Errorf("cfdi: RFC %q tiene día inválido %q", r, dia)
	}
	return nil
}

// EsRFCGenerico indica si el RFC corresponde a público en general
// (ruta de factura global con InformacionGlobal).
func EsRFCGenerico(rfc string) bool {
	return NormalizarRFC(rfc) == RFCGenerico
}

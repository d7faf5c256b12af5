package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio de la facturación electrónica. La distinción entre
// fatales (datos/configuración) y transitorios (red/PAC caído) es la que
// decide si el operador corrige datos o simplemente reintenta.
var (
	// ErrCredencialNoDisponible: faltan los archivos del CSD (cert o llave).
	ErrCredencialNoDisponible = errors.New("credencial CSD no disponible")
	// ErrCredencialInvalida: la contraseña no abre la llave o la llave no corresponde al certificado.
	ErrCredencialInvalida = errors.New("credencial CSD inválida")
	// ErrFalloSellado: llave malformada o cadena vacía. Defecto de datos, no se reintenta.
	ErrFalloSellado = errors.New("fallo al sellar el comprobante")
	// ErrTimbradoRechazado: el PAC rechazó el comprobante. Ver RechazoPACError.
	ErrTimbradoRechazado = errors.New("comprobante rechazado por el PAC")
	// ErrPACNoDisponible: red, timeout o 5xx del PAC. Transitorio, reintentable.
	ErrPACNoDisponible = errors.New("PAC no disponible")
	// ErrTimbradoEnCurso: ya hay un intento de timbrado en vuelo para el mismo folio.
	ErrTimbradoEnCurso = errors.New("timbrado en curso para el mismo folio")
	// ErrTransicionInvalida: operación no permitida en el estado actual de la factura.
	ErrTransicionInvalida = errors.New("transición de estado inválida")
	// ErrFalloRender: el PDF no se pudo generar. No afecta la validez fiscal.
	ErrFalloRender = errors.New("fallo al generar la representación impresa")

	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
)

// RechazoPACError envuelve ErrTimbradoRechazado con los mensajes de validación
// del PAC tal cual llegaron. Nunca se resumen ni se reescriben: el negocio
// depende de ver el campo exacto rechazado.
type RechazoPACError struct {
	Codigo   string   // código de error del PAC (si lo reporta)
	Mensajes []string // mensajes verbatim del PAC
}

func (e *RechazoPACError) Error() string {
	if len(e.Mensajes) == 0 {
		return fmt.Sprintf("comprobante rechazado por el PAC (código %s)", e.Codigo)
	}
	return "comprobante rechazado por el PAC: " + strings.Join(e.Mensajes, "; ")
}

// Is permite errors.Is(err, ErrTimbradoRechazado).
func (e *RechazoPACError) Is(target error) bool {
	return target == ErrTimbradoRechazado
}

// DetalleVerbatim devuelve los mensajes del PAC en una sola cadena, sin alterar.
func (e *RechazoPACError) DetalleVerbatim() string {
	return strings.Join(e.Mensajes, "; ")
}

// Package cfdi contiene validaciones de dominio para el comprobante fiscal
// (CFDI 4.0, Anexo 20). Un borrador que no pasa estas reglas nunca llega al
// canonicalizador: los defectos de montos se corrigen localmente, no en el PAC.
package cfdi

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

// ErrBorradorInvalido agrupa errores de validación del borrador.
var ErrBorradorInvalido = errors.New("borrador de factura inválido para timbrar")

// toleranciaRedondeo es la tolerancia de 1 centavo para sumas de importes.
var toleranciaRedondeo = decimal.New(1, -2)

// ValidarBorrador valida el borrador completo: catálogos, RFC del receptor y
// consistencia aritmética (importe = round(cantidad*valorUnitario, 2),
// suma de importes = subtotal, total = subtotal - descuento + impuestos,
// importe de traslado = round(base*tasa, 2)), todo con tolerancia de 0.01.
func ValidarBorrador(b *entity.BorradorFactura) error {
	if b == nil {
		return fmt.Errorf("%w: borrador nulo", ErrBorradorInvalido)
	}
	var errs []error

	if b.Folio == "" {
		errs = append(errs, fmt.Errorf("folio es obligatorio"))
	}
	if b.Moneda != pkgcfdi.MonedaMXN {
		errs = append(errs, fmt.Errorf("moneda %q no soportada: solo %s", b.Moneda, pkgcfdi.MonedaMXN))
	}
	if !pkgcfdi.ValidFormasPago[b.FormaPago] {
		errs = append(errs, fmt.Errorf("forma de pago %q fuera de catálogo", b.FormaPago))
	}
	if !pkgcfdi.ValidMetodosPago[b.MetodoPago] {
		errs = append(errs, fmt.Errorf("método de pago %q fuera de catálogo", b.MetodoPago))
	}
	if err := pkgcfdi.ValidarRFC(b.Receptor.RFC); err != nil {
		errs = append(errs, fmt.Errorf("receptor: %w", err))
	}

	// Factura global: receptor genérico exige InformacionGlobal; un receptor
	// nominado no la admite.
	if pkgcfdi.EsRFCGenerico(b.Receptor.RFC) {
		if b.Global == nil {
			errs = append(errs, fmt.Errorf("receptor genérico requiere InformacionGlobal (periodicidad, meses, año)"))
		}
	} else if b.Global != nil {
		errs = append(errs, fmt.Errorf("InformacionGlobal solo aplica al receptor genérico %s", pkgcfdi.RFCGenerico))
	}

	if len(b.Conceptos) == 0 {
		errs = append(errs, fmt.Errorf("la factura debe tener al menos un concepto"))
	}

	sumaImportes := decimal.Zero
	sumaDescuentos := decimal.Zero
	for i, c := range b.Conceptos {
		if !c.Cantidad.IsPositive() {
			errs = append(errs, fmt.Errorf("concepto %d: cantidad debe ser positiva", i+1))
			continue
		}
		esperado := c.Cantidad.Mul(c.ValorUnitario).Round(2)
		if c.Importe.Sub(esperado).Abs().GreaterThan(toleranciaRedondeo) {
			errs = append(errs, fmt.Errorf(
				"concepto %d: importe %s no coincide con cantidad×valorUnitario (%s)",
				i+1, c.Importe, esperado))
		}
		for j, t := range c.Traslados {
			if t.TipoFactor == pkgcfdi.TipoFactorExento {
				continue
			}
			impEsperado := t.Base.Mul(t.TasaOCuota).Round(2)
			if t.Importe.Sub(impEsperado).Abs().GreaterThan(toleranciaRedondeo) {
				errs = append(errs, fmt.Errorf(
					"concepto %d traslado %d: importe %s no coincide con base×tasa (%s)",
					i+1, j+1, t.Importe, impEsperado))
			}
		}
		sumaImportes = sumaImportes.Add(c.Importe)
		sumaDescuentos = sumaDescuentos.Add(c.Descuento)
	}

	if b.SubTotal.Sub(sumaImportes).Abs().GreaterThan(toleranciaRedondeo) {
		errs = append(errs, fmt.Errorf(
			"subtotal %s no coincide con la suma de importes de conceptos (%s)",
			b.SubTotal, sumaImportes.Round(2)))
	}
	totalEsperado := b.SubTotal.Sub(b.Descuento).Add(b.TotalImpuestosTrasladados()).Round(2)
	if b.Total.Sub(totalEsperado).Abs().GreaterThan(toleranciaRedondeo) {
		errs = append(errs, fmt.Errorf(
			"total %s no coincide con subtotal - descuento + impuestos (%s)",
			b.Total, totalEsperado))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrBorradorInvalido}, errs...)...)
	}
	return nil
}

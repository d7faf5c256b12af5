// Derivación de la cadena original del comprobante (Anexo 20).
//
// El orden de emisión está fijado por la especificación y se declara aquí como
// listas explícitas de pares (nombre, extractor) por tipo de nodo, de modo que
// el orden sea testeable por sí mismo y un refactor no pueda reordenarlo en
// silencio. Un extractor que devuelve cadena vacía marca el campo como ausente
// y no emite separador. Función pura: mismo documento, misma cadena, siempre.
//
// Nota: esta cadena cubre el comprobante de ingreso tipo "I" en MXN; no maneja
// TipoCambio ni NoCertificado, conforme al contrato de campos vigente.

package cfdi

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

type campoDocumento struct {
	Nombre  string
	Extraer func(*Documento) string
}

type campoConcepto struct {
	Nombre  string
	Extraer func(entity.Concepto) string
}

type campoTraslado struct {
	Nombre  string
	Extraer func(entity.Traslado) string
}

// camposComprobante: campos de nivel documento, en el orden mandatado.
var camposComprobante = []campoDocumento{
	{"Version", func(d *Documento) string { return d.Version }},
	{"Exportacion", func(d *Documento) string { return d.Exportacion }},
	{"Fecha", func(d *Documento) string { return d.Fecha.Format(pkgcfdi.FormatoFecha) }},
	{"Folio", func(d *Documento) string { return d.Folio }},
	{"Serie", func(d *Documento) string { return d.Serie }},
	{"FormaPago", func(d *Documento) string { return d.FormaPago }},
	{"CondicionesDePago", func(d *Documento) string { return d.CondicionesDePago }},
	{"SubTotal", func(d *Documento) string { return pkgcfdi.FormatoImporte(d.SubTotal) }},
	{"Descuento", func(d *Documento) string { return importeOpcional(d.Descuento) }},
	{"Moneda", func(d *Documento) string { return d.Moneda }},
	{"Total", func(d *Documento) string { return pkgcfdi.FormatoImporte(d.Total) }},
	{"TipoDeComprobante", func(d *Documento) string { return d.TipoDeComprobante }},
	{"MetodoPago", func(d *Documento) string { return d.MetodoPago }},
	{"LugarExpedicion", func(d *Documento) string { return d.LugarExpedicion }},
	{"Confirmacion", func(d *Documento) string { return d.Confirmacion }},
}

// camposGlobal: InformacionGlobal, solo presente en la factura global.
var camposGlobal = []campoDocumento{
	{"Periodicidad", func(d *Documento) string { return d.Global.Periodicidad }},
	{"Meses", func(d *Documento) string { return d.Global.Meses }},
	{"Año", func(d *Documento) string { return strconv.Itoa(d.Global.Anio) }},
}

var camposEmisor = []campoDocumento{
	{"Rfc", func(d *Documento) string { return d.Emisor.RFC }},
	{"Nombre", func(d *Documento) string { return d.Emisor.Nombre }},
	{"RegimenFiscal", func(d *Documento) string { return d.Emisor.RegimenFiscal }},
}

var camposReceptor = []campoDocumento{
	{"Rfc", func(d *Documento) string { return d.Receptor.RFC }},
	{"Nombre", func(d *Documento) string {
		if d.OmiteNombreReceptor {
			return ""
		}
		return d.Receptor.Nombre
	}},
	{"DomicilioFiscalReceptor", func(d *Documento) string { return d.Receptor.CodigoPostal }},
	{"ResidenciaFiscal", func(d *Documento) string { return d.Receptor.ResidenciaFiscal }},
	{"NumRegIdTrib", func(d *Documento) string { return d.Receptor.NumRegIdTrib }},
	{"RegimenFiscalReceptor", func(d *Documento) string { return d.Receptor.RegimenFiscal }},
	{"UsoCFDI", func(d *Documento) string { return d.Receptor.UsoCFDI }},
}

var camposConcepto = []campoConcepto{
	{"ClaveProdServ", func(c entity.Concepto) string { return c.ClaveProdServ }},
	{"NoIdentificacion", func(c entity.Concepto) string { return c.NoIdentificacion }},
	{"Cantidad", func(c entity.Concepto) string { return pkgcfdi.FormatoCantidad(c.Cantidad) }},
	{"ClaveUnidad", func(c entity.Concepto) string { return c.ClaveUnidad }},
	{"Unidad", func(c entity.Concepto) string { return c.Unidad }},
	{"Descripcion", func(c entity.Concepto) string { return c.Descripcion }},
	{"ValorUnitario", func(c entity.Concepto) string { return pkgcfdi.FormatoImporte(c.ValorUnitario) }},
	{"Importe", func(c entity.Concepto) string { return pkgcfdi.FormatoImporte(c.Importe) }},
	{"Descuento", func(c entity.Concepto) string { return importeOpcional(c.Descuento) }},
	{"ObjetoImp", func(c entity.Concepto) string { return c.ObjetoImp }},
}

var camposTraslado = []campoTraslado{
	{"Base", func(t entity.Traslado) string { return pkgcfdi.FormatoImporte(t.Base) }},
	{"Impuesto", func(t entity.Traslado) string { return t.Impuesto }},
	{"TipoFactor", func(t entity.Traslado) string { return t.TipoFactor }},
	{"TasaOCuota", func(t entity.Traslado) string { return pkgcfdi.FormatoTasa(t.TasaOCuota) }},
	{"Importe", func(t entity.Traslado) string { return pkgcfdi.FormatoImporte(t.Importe) }},
}

// CadenaOriginal deriva la cadena original del documento: cada campo presente
// seguido de un pipe, la cadena completa envuelta en ||...||.
func CadenaOriginal(d *Documento) string {
	var campos []string
	agregar := func(v string) {
		if v != "" {
			campos = append(campos, v)
		}
	}

	for _, c := range camposComprobante {
		agregar(c.Extraer(d))
	}
	if d.Global != nil {
		for _, c := range camposGlobal {
			agregar(c.Extraer(d))
		}
	}
	for _, c := range camposEmisor {
		agregar(c.Extraer(d))
	}
	for _, c := range camposReceptor {
		agregar(c.Extraer(d))
	}
	for _, concepto := range d.Conceptos {
		for _, c := range camposConcepto {
			agregar(c.Extraer(concepto))
		}
		for _, t := range concepto.Traslados {
			for _, c := range camposTraslado {
				agregar(c.Extraer(t))
			}
		}
	}
	for _, t := range d.TrasladosResumen {
		for _, c := range camposTraslado {
			agregar(c.Extraer(t))
		}
	}
	if len(d.TrasladosResumen) > 0 {
		agregar(pkgcfdi.FormatoImporte(d.TotalImpuestosTrasladados))
	}

	return "||" + strings.Join(campos, "|") + "||"
}

// importeOpcional formatea un importe que solo se emite cuando es positivo
// (Descuento es opcional en el estándar).
func importeOpcional(d decimal.Decimal) string {
	if !d.IsPositive() {
		return ""
	}
	return pkgcfdi.FormatoImporte(d)
}

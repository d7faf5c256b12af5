// Package cfdi construye el árbol canónico del comprobante (CFDI 4.0) y
// deriva de él la cadena original y el XML literal. El árbol se construye una
// sola vez por factura y no se muta después: la cadena re-derivada de un
// documento almacenado debe reproducir byte a byte la original.
package cfdi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

// Documento es el árbol ordenado atributo/hijo del comprobante
// (Comprobante → InformacionGlobal? → Emisor, Receptor, Conceptos, Impuestos).
// Lo consumen la derivación de cadena original y el serializador XML.
type Documento struct {
	Version           string
	Exportacion       string
	Fecha             time.Time
	Folio             string
	Serie             string
	FormaPago         string
	CondicionesDePago string
	SubTotal          decimal.Decimal
	Descuento         decimal.Decimal
	Moneda            string
	Total             decimal.Decimal
	TipoDeComprobante string
	MetodoPago        string
	LugarExpedicion   string
	Confirmacion      string

	Global   *entity.InformacionGlobal
	Emisor   entity.Emisor
	Receptor entity.Receptor
	// OmiteNombreReceptor marca la variante global: el nombre del receptor
	// genérico no participa en la cadena ni en el XML.
	OmiteNombreReceptor bool

	Conceptos []entity.Concepto

	// Resumen de impuestos del comprobante: traslados agrupados por
	// (impuesto, tipo factor, tasa) más el total trasladado.
	TrasladosResumen          []entity.Traslado
	TotalImpuestosTrasladados decimal.Decimal
}

// BuildDocumento construye el documento canónico para un receptor nominado.
// El borrador debe venir validado (domain/cfdi.ValidarBorrador); aquí solo se
// rechaza la variante equivocada.
func BuildDocumento(emisor entity.Emisor, b *entity.BorradorFactura) (*Documento, error) {
	if b == nil {
		return nil, fmt.Errorf("cfdi: borrador nulo")
	}
	if pkgcfdi.EsRFCGenerico(b.Receptor.RFC) {
		return nil, fmt.Errorf("cfdi: receptor genérico %s requiere BuildDocumentoGlobal", pkgcfdi.RFCGenerico)
	}
	return buildDocumento(emisor, b, false)
}

// BuildDocumentoGlobal construye la variante de factura global a público en
// general: exige receptor genérico e InformacionGlobal y omite el nombre del
// receptor de la cadena.
func BuildDocumentoGlobal(emisor entity.Emisor, b *entity.BorradorFactura) (*Documento, error) {
	if b == nil {
		return nil, fmt.Errorf("cfdi: borrador nulo")
	}
	if !pkgcfdi.EsRFCGenerico(b.Receptor.RFC) {
		return nil, fmt.Errorf("cfdi: BuildDocumentoGlobal requiere receptor %s", pkgcfdi.RFCGenerico)
	}
	if b.Global == nil {
		return nil, fmt.Errorf("cfdi: factura global sin InformacionGlobal")
	}
	return buildDocumento(emisor, b, true)
}

func buildDocumento(emisor entity.Emisor, b *entity.BorradorFactura, global bool) (*Documento, error) {
	if len(b.Conceptos) == 0 {
		return nil, fmt.Errorf("cfdi: comprobante sin conceptos")
	}
	moneda := b.Moneda
	if moneda == "" {
		moneda = pkgcfdi.MonedaMXN
	}
	doc := &Documento{
		Version:           pkgcfdi.Version,
		Exportacion:       pkgcfdi.ExportacionNoAplica,
		Fecha:             b.Fecha,
		Folio:             b.Folio,
		Serie:             b.Serie,
		FormaPago:         b.FormaPago,
		CondicionesDePago: b.CondicionesDePago,
		SubTotal:          b.SubTotal,
		Descuento:         b.Descuento,
		Moneda:            moneda,
		Total:             b.Total,
		TipoDeComprobante: pkgcfdi.TipoComprobanteI,
		MetodoPago:        b.MetodoPago,
		LugarExpedicion:   emisor.CodigoPostal,

		Emisor:              emisor,
		Receptor:            b.Receptor,
		OmiteNombreReceptor: global,
		Conceptos:           b.Conceptos,
	}
	if global {
		g := *b.Global
		doc.Global = &g
	}
	doc.TrasladosResumen = agruparTraslados(b.Conceptos)
	doc.TotalImpuestosTrasladados = b.TotalImpuestosTrasladados()
	return doc, nil
}

// agruparTraslados agrupa los traslados de todas las líneas por
// (impuesto, tipo factor, tasa), sumando base e importe. El orden es el de
// primera aparición, que es también el orden del resumen en la cadena.
func agruparTraslados(conceptos []entity.Concepto) []entity.Traslado {
	type llave struct {
		impuesto, tipoFactor, tasa string
	}
	indice := make(map[llave]int)
	var resumen []entity.Traslado
	for _, c := range conceptos {
		for _, t := range c.Traslados {
			if t.TipoFactor == pkgcfdi.TipoFactorExento {
				continue
			}
			k := llave{t.Impuesto, t.TipoFactor, pkgcfdi.FormatoTasa(t.TasaOCuota)}
			if i, ok := indice[k]; ok {
				resumen[i].Base = resumen[i].Base.Add(t.Base)
				resumen[i].Importe = resumen[i].Importe.Add(t.Importe)
				continue
			}
			indice[k] = len(resumen)
			resumen = append(resumen, entity.Traslado{
				Base:       t.Base,
				Impuesto:   t.Impuesto,
				TipoFactor: t.TipoFactor,
				TasaOCuota: t.TasaOCuota,
				Importe:    t.Importe,
			})
		}
	}
	return resumen
}

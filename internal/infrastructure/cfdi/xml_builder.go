package cfdi

import (
	"fmt"

	"github.com/beevik/etree"

	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

const (
	nsCFDI     = "http://www.sat.gob.mx/cfd/4"
	nsXSI      = "http://www.w3.org/2001/XMLSchema-instance"
	schemaCFDI = "http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
	nsTFD      = "http://www.sat.gob.mx/TimbreFiscalDigital"
)

// Sello son los atributos criptográficos que se añaden al comprobante una vez
// firmada la cadena original.
type Sello struct {
	SelloBase64       string
	CertificadoBase64 string
	NoCertificado     string
}

// SerializarXML emite el XML literal del documento. Si sello no es nil, el
// comprobante sale con Sello, NoCertificado y Certificado; en modo hosted el
// PAC firma y esos atributos se omiten.
func SerializarXML(d *Documento, sello *Sello) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cfdi: documento nulo")
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	comp := doc.CreateElement("cfdi:Comprobante")
	comp.CreateAttr("xmlns:cfdi", nsCFDI)
	comp.CreateAttr("xmlns:xsi", nsXSI)
	comp.CreateAttr("xsi:schemaLocation", schemaCFDI)
	comp.CreateAttr("Version", d.Version)
	if d.Serie != "" {
		comp.CreateAttr("Serie", d.Serie)
	}
	if d.Folio != "" {
		comp.CreateAttr("Folio", d.Folio)
	}
	comp.CreateAttr("Fecha", d.Fecha.Format(pkgcfdi.FormatoFecha))
	if sello != nil {
		comp.CreateAttr("Sello", sello.SelloBase64)
		comp.CreateAttr("NoCertificado", sello.NoCertificado)
		comp.CreateAttr("Certificado", sello.CertificadoBase64)
	}
	if d.FormaPago != "" {
		comp.CreateAttr("FormaPago", d.FormaPago)
	}
	if d.CondicionesDePago != "" {
		comp.CreateAttr("CondicionesDePago", d.CondicionesDePago)
	}
	comp.CreateAttr("SubTotal", pkgcfdi.FormatoImporte(d.SubTotal))
	if d.Descuento.IsPositive() {
		comp.CreateAttr("Descuento", pkgcfdi.FormatoImporte(d.Descuento))
	}
	comp.CreateAttr("Moneda", d.Moneda)
	comp.CreateAttr("Total", pkgcfdi.FormatoImporte(d.Total))
	comp.CreateAttr("TipoDeComprobante", d.TipoDeComprobante)
	comp.CreateAttr("Exportacion", d.Exportacion)
	if d.MetodoPago != "" {
		comp.CreateAttr("MetodoPago", d.MetodoPago)
	}
	comp.CreateAttr("LugarExpedicion", d.LugarExpedicion)
	if d.Confirmacion != "" {
		comp.CreateAttr("Confirmacion", d.Confirmacion)
	}

	if d.Global != nil {
		global := comp.CreateElement("cfdi:InformacionGlobal")
		global.CreateAttr("Periodicidad", d.Global.Periodicidad)
		global.CreateAttr("Meses", d.Global.Meses)
		global.CreateAttr("Año", fmt.Sprintf("%d", d.Global.Anio))
	}

	emisor := comp.CreateElement("cfdi:Emisor")
	emisor.CreateAttr("Rfc", d.Emisor.RFC)
	emisor.CreateAttr("Nombre", d.Emisor.Nombre)
	emisor.CreateAttr("RegimenFiscal", d.Emisor.RegimenFiscal)

	receptor := comp.CreateElement("cfdi:Receptor")
	receptor.CreateAttr("Rfc", d.Receptor.RFC)
	if !d.OmiteNombreReceptor {
		receptor.CreateAttr("Nombre", d.Receptor.Nombre)
	}
	receptor.CreateAttr("DomicilioFiscalReceptor", d.Receptor.CodigoPostal)
	if d.Receptor.ResidenciaFiscal != "" {
		receptor.CreateAttr("ResidenciaFiscal", d.Receptor.ResidenciaFiscal)
	}
	if d.Receptor.NumRegIdTrib != "" {
		receptor.CreateAttr("NumRegIdTrib", d.Receptor.NumRegIdTrib)
	}
	receptor.CreateAttr("RegimenFiscalReceptor", d.Receptor.RegimenFiscal)
	receptor.CreateAttr("UsoCFDI", d.Receptor.UsoCFDI)

	conceptos := comp.CreateElement("cfdi:Conceptos")
	for _, c := range d.Conceptos {
		concepto := conceptos.CreateElement("cfdi:Concepto")
		concepto.CreateAttr("ClaveProdServ", c.ClaveProdServ)
		if c.NoIdentificacion != "" {
			concepto.CreateAttr("NoIdentificacion", c.NoIdentificacion)
		}
		concepto.CreateAttr("Cantidad", pkgcfdi.FormatoCantidad(c.Cantidad))
		concepto.CreateAttr("ClaveUnidad", c.ClaveUnidad)
		if c.Unidad != "" {
			concepto.CreateAttr("Unidad", c.Unidad)
		}
		concepto.CreateAttr("Descripcion", c.Descripcion)
		concepto.CreateAttr("ValorUnitario", pkgcfdi.FormatoImporte(c.ValorUnitario))
		concepto.CreateAttr("Importe", pkgcfdi.FormatoImporte(c.Importe))
		if c.Descuento.IsPositive() {
			concepto.CreateAttr("Descuento", pkgcfdi.FormatoImporte(c.Descuento))
		}
		concepto.CreateAttr("ObjetoImp", c.ObjetoImp)

		if c.ObjetoImp == pkgcfdi.ObjetoImpSi && len(c.Traslados) > 0 {
			impuestos := concepto.CreateElement("cfdi:Impuestos")
			traslados := impuestos.CreateElement("cfdi:Traslados")
			for _, t := range c.Traslados {
				traslado := traslados.CreateElement("cfdi:Traslado")
				traslado.CreateAttr("Base", pkgcfdi.FormatoImporte(t.Base))
				traslado.CreateAttr("Impuesto", t.Impuesto)
				traslado.CreateAttr("TipoFactor", t.TipoFactor)
				if t.TipoFactor != pkgcfdi.TipoFactorExento {
					traslado.CreateAttr("TasaOCuota", pkgcfdi.FormatoTasa(t.TasaOCuota))
					traslado.CreateAttr("Importe", pkgcfdi.FormatoImporte(t.Importe))
				}
			}
		}
	}

	if len(d.TrasladosResumen) > 0 {
		impuestos := comp.CreateElement("cfdi:Impuestos")
		impuestos.CreateAttr("TotalImpuestosTrasladados", pkgcfdi.FormatoImporte(d.TotalImpuestosTrasladados))
		traslados := impuestos.CreateElement("cfdi:Traslados")
		for _, t := range d.TrasladosResumen {
			traslado := traslados.CreateElement("cfdi:Traslado")
			traslado.CreateAttr("Base", pkgcfdi.FormatoImporte(t.Base))
			traslado.CreateAttr("Impuesto", t.Impuesto)
			traslado.CreateAttr("TipoFactor", t.TipoFactor)
			traslado.CreateAttr("TasaOCuota", pkgcfdi.FormatoTasa(t.TasaOCuota))
			traslado.CreateAttr("Importe", pkgcfdi.FormatoImporte(t.Importe))
		}
	}

	xml, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("cfdi: serializando comprobante: %w", err)
	}
	return xml, nil
}

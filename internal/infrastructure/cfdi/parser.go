package cfdi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

// ParsearComprobante reconstruye el documento canónico desde un XML emitido
// por SerializarXML (timbrado o no). Se usa para regenerar la representación
// impresa de facturas almacenadas y para verificar que la cadena re-derivada
// coincide con la original.
func ParsearComprobante(xml []byte) (*Documento, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xml); err != nil {
		return nil, fmt.Errorf("cfdi: XML ilegible: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Comprobante" {
		return nil, fmt.Errorf("cfdi: el XML no es un Comprobante")
	}

	fecha, err := time.Parse(pkgcfdi.FormatoFecha, root.SelectAttrValue("Fecha", ""))
	if err != nil {
		return nil, fmt.Errorf("cfdi: Fecha del comprobante inválida: %w", err)
	}

	d := &Documento{
		Version:           root.SelectAttrValue("Version", ""),
		Exportacion:       root.SelectAttrValue("Exportacion", ""),
		Fecha:             fecha,
		Folio:             root.SelectAttrValue("Folio", ""),
		Serie:             root.SelectAttrValue("Serie", ""),
		FormaPago:         root.SelectAttrValue("FormaPago", ""),
		CondicionesDePago: root.SelectAttrValue("CondicionesDePago", ""),
		Moneda:            root.SelectAttrValue("Moneda", ""),
		TipoDeComprobante: root.SelectAttrValue("TipoDeComprobante", ""),
		MetodoPago:        root.SelectAttrValue("MetodoPago", ""),
		LugarExpedicion:   root.SelectAttrValue("LugarExpedicion", ""),
		Confirmacion:      root.SelectAttrValue("Confirmacion", ""),
	}
	if d.SubTotal, err = montoAttr(root, "SubTotal", true); err != nil {
		return nil, err
	}
	if d.Descuento, err = montoAttr(root, "Descuento", false); err != nil {
		return nil, err
	}
	if d.Total, err = montoAttr(root, "Total", true); err != nil {
		return nil, err
	}

	for _, hijo := range root.ChildElements() {
		switch hijo.Tag {
		case "InformacionGlobal":
			anio, _ := strconv.Atoi(hijo.SelectAttrValue("Año", "0"))
			d.Global = &entity.InformacionGlobal{
				Periodicidad: hijo.SelectAttrValue("Periodicidad", ""),
				Meses:        hijo.SelectAttrValue("Meses", ""),
				Anio:         anio,
			}
		case "Emisor":
			d.Emisor = entity.Emisor{
				RFC:           hijo.SelectAttrValue("Rfc", ""),
				Nombre:        hijo.SelectAttrValue("Nombre", ""),
				RegimenFiscal: hijo.SelectAttrValue("RegimenFiscal", ""),
				CodigoPostal:  d.LugarExpedicion,
			}
		case "Receptor":
			d.Receptor = entity.Receptor{
				RFC:              hijo.SelectAttrValue("Rfc", ""),
				Nombre:           hijo.SelectAttrValue("Nombre", ""),
				CodigoPostal:     hijo.SelectAttrValue("DomicilioFiscalReceptor", ""),
				ResidenciaFiscal: hijo.SelectAttrValue("ResidenciaFiscal", ""),
				NumRegIdTrib:     hijo.SelectAttrValue("NumRegIdTrib", ""),
				RegimenFiscal:    hijo.SelectAttrValue("RegimenFiscalReceptor", ""),
				UsoCFDI:          hijo.SelectAttrValue("UsoCFDI", ""),
			}
			d.OmiteNombreReceptor = hijo.SelectAttr("Nombre") == nil
		case "Conceptos":
			for _, nodo := range hijo.ChildElements() {
				concepto, err := parsearConcepto(nodo)
				if err != nil {
					return nil, err
				}
				d.Conceptos = append(d.Conceptos, concepto)
			}
		case "Impuestos":
			if d.TotalImpuestosTrasladados, err = montoAttr(hijo, "TotalImpuestosTrasladados", false); err != nil {
				return nil, err
			}
			if traslados := hijo.SelectElement("Traslados"); traslados != nil {
				for _, nodo := range traslados.ChildElements() {
					t, err := parsearTraslado(nodo)
					if err != nil {
						return nil, err
					}
					d.TrasladosResumen = append(d.TrasladosResumen, t)
				}
			}
		}
	}
	return d, nil
}

func parsearConcepto(nodo *etree.Element) (entity.Concepto, error) {
	var c entity.Concepto
	var err error
	c.ClaveProdServ = nodo.SelectAttrValue("ClaveProdServ", "")
	c.NoIdentificacion = nodo.SelectAttrValue("NoIdentificacion", "")
	c.ClaveUnidad = nodo.SelectAttrValue("ClaveUnidad", "")
	c.Unidad = nodo.SelectAttrValue("Unidad", "")
	c.Descripcion = nodo.SelectAttrValue("Descripcion", "")
	c.ObjetoImp = nodo.SelectAttrValue("ObjetoImp", "")
	if c.Cantidad, err = montoAttr(nodo, "Cantidad", true); err != nil {
		return c, err
	}
	if c.ValorUnitario, err = montoAttr(nodo, "ValorUnitario", true); err != nil {
		return c, err
	}
	if c.Importe, err = montoAttr(nodo, "Importe", true); err != nil {
		return c, err
	}
	if c.Descuento, err = montoAttr(nodo, "Descuento", false); err != nil {
		return c, err
	}
	if impuestos := nodo.SelectElement("Impuestos"); impuestos != nil {
		if traslados := impuestos.SelectElement("Traslados"); traslados != nil {
			for _, tn := range traslados.ChildElements() {
				t, err := parsearTraslado(tn)
				if err != nil {
					return c, err
				}
				c.Traslados = append(c.Traslados, t)
			}
		}
	}
	return c, nil
}

func parsearTraslado(nodo *etree.Element) (entity.Traslado, error) {
	var t entity.Traslado
	var err error
	t.Impuesto = nodo.SelectAttrValue("Impuesto", "")
	t.TipoFactor = nodo.SelectAttrValue("TipoFactor", "")
	if t.Base, err = montoAttr(nodo, "Base", true); err != nil {
		return t, err
	}
	if t.TipoFactor == pkgcfdi.TipoFactorExento {
		return t, nil
	}
	if t.TasaOCuota, err = montoAttr(nodo, "TasaOCuota", true); err != nil {
		return t, err
	}
	t.Importe, err = montoAttr(nodo, "Importe", true)
	return t, err
}

func montoAttr(nodo *etree.Element, attr string, obligatorio bool) (decimal.Decimal, error) {
	raw := nodo.SelectAttrValue(attr, "")
	if raw == "" {
		if obligatorio {
			return decimal.Zero, fmt.Errorf("cfdi: falta el atributo %s en %s", attr, nodo.Tag)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cfdi: %s=%q no es un monto válido: %w", attr, raw, err)
	}
	return d, nil
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Emisor datos fiscales del emisor tal como van en el nodo Emisor del CFDI.
type Emisor struct {
	RFC           string
	Nombre        string
	RegimenFiscal string // c_RegimenFiscal
	CodigoPostal  string // LugarExpedicion
}

// Receptor datos del receptor (nodo Receptor del CFDI 4.0).
type Receptor struct {
	RFC              string
	Nombre           string
	CodigoPostal     string // DomicilioFiscalReceptor
	ResidenciaFiscal string // solo extranjeros
	NumRegIdTrib     string // solo extranjeros
	RegimenFiscal    string // c_RegimenFiscal del receptor
	UsoCFDI          string // c_UsoCFDI
}

// Traslado impuesto trasladado de una línea (o del resumen del comprobante).
type Traslado struct {
	Base       decimal.Decimal
	Impuesto   string // c_Impuesto (002 = IVA)
	TipoFactor string // Tasa | Cuota | Exento
	TasaOCuota decimal.Decimal
	Importe    decimal.Decimal
}

// Concepto línea de la factura (bien o servicio).
type Concepto struct {
	ClaveProdServ    string // c_ClaveProdServ
	NoIdentificacion string // SKU o número de serie del equipo rentado
	Cantidad         decimal.Decimal
	ClaveUnidad      string // c_ClaveUnidad
	Unidad           string // etiqueta legible (Pieza, Mes)
	Descripcion      string
	ValorUnitario    decimal.Decimal
	Importe          decimal.Decimal
	Descuento        decimal.Decimal // cero si no aplica
	ObjetoImp        string          // c_ObjetoImp
	Traslados        []Traslado
}

// InformacionGlobal datos de la factura global a público en general
// (receptor RFC genérico XAXX010101000).
type InformacionGlobal struct {
	Periodicidad string // c_Periodicidad
	Meses        string // c_Meses (ej. "05")
	Anio         int
}

// BorradorFactura es la entrada del pipeline de timbrado (InvoiceDraft):
// receptor, conceptos y condiciones de pago ya validados contra catálogos.
type BorradorFactura struct {
	Serie             string
	Folio             string
	Fecha             time.Time
	FormaPago         string // c_FormaPago
	CondicionesDePago string // texto libre, opcional
	MetodoPago        string // PUE | PPD
	Moneda            string // fijo MXN
	SubTotal          decimal.Decimal
	Descuento         decimal.Decimal // cero si no aplica
	Total             decimal.Decimal
	Receptor          Receptor
	Conceptos         []Concepto
	Global            *InformacionGlobal // nil salvo factura global
}

// TotalImpuestosTrasladados suma el importe de todos los traslados del borrador.
func (b *BorradorFactura) TotalImpuestosTrasladados() decimal.Decimal {
	total := decimal.Zero
	for _, c := range b.Conceptos {
		for _, t := range c.Traslados {
			total = total.Add(t.Importe)
		}
	}
	return total
}

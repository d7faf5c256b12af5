// Package dto define los contratos JSON de la API de facturación.
package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

// ErrorResponse respuesta de error estándar de la API. Details lleva los
// mensajes verbatim del PAC cuando el error es un rechazo de timbrado.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// TrasladoRequest impuesto trasladado de una línea.
type TrasladoRequest struct {
	Base       decimal.Decimal `json:"base"`
	Impuesto   string          `json:"impuesto"`
	TipoFactor string          `json:"tipoFactor"`
	TasaOCuota decimal.Decimal `json:"tasaOCuota"`
	Importe    decimal.Decimal `json:"importe"`
}

// ConceptoRequest línea de la factura.
type ConceptoRequest struct {
	ClaveProdServ    string            `json:"claveProdServ"`
	NoIdentificacion string            `json:"noIdentificacion,omitempty"`
	Cantidad         decimal.Decimal   `json:"cantidad"`
	ClaveUnidad      string            `json:"claveUnidad"`
	Unidad           string            `json:"unidad,omitempty"`
	Descripcion      string            `json:"descripcion"`
	ValorUnitario    decimal.Decimal   `json:"valorUnitario"`
	Importe          decimal.Decimal   `json:"importe"`
	Descuento        decimal.Decimal   `json:"descuento,omitempty"`
	ObjetoImp        string            `json:"objetoImp"`
	Traslados        []TrasladoRequest `json:"traslados,omitempty"`
}

// ReceptorRequest datos del receptor.
type ReceptorRequest struct {
	RFC              string `json:"rfc"`
	Nombre           string `json:"nombre"`
	CodigoPostal     string `json:"codigoPostal"`
	ResidenciaFiscal string `json:"residenciaFiscal,omitempty"`
	NumRegIdTrib     string `json:"numRegIdTrib,omitempty"`
	RegimenFiscal    string `json:"regimenFiscal"`
	UsoCFDI          string `json:"usoCFDI"`
}

// InformacionGlobalRequest datos de la factura global a público en general.
type InformacionGlobalRequest struct {
	Periodicidad string `json:"periodicidad"`
	Meses        string `json:"meses"`
	Anio         int    `json:"anio"`
}

// TimbrarFacturaRequest es el borrador completo a timbrar.
// La fecha va en formato local del SAT: 2006-01-02T15:04:05.
type TimbrarFacturaRequest struct {
	Serie             string                    `json:"serie,omitempty"`
	Folio             string                    `json:"folio"`
	Fecha             string                    `json:"fecha"`
	FormaPago         string                    `json:"formaPago"`
	CondicionesDePago string                    `json:"condicionesDePago,omitempty"`
	MetodoPago        string                    `json:"metodoPago"`
	Moneda            string                    `json:"moneda"`
	SubTotal          decimal.Decimal           `json:"subTotal"`
	Descuento         decimal.Decimal           `json:"descuento,omitempty"`
	Total             decimal.Decimal           `json:"total"`
	Receptor          ReceptorRequest           `json:"receptor"`
	Conceptos         []ConceptoRequest         `json:"conceptos"`
	Global            *InformacionGlobalRequest `json:"informacionGlobal,omitempty"`
}

// ToBorrador convierte la petición al borrador de dominio.
func (r *TimbrarFacturaRequest) ToBorrador() (*entity.BorradorFactura, error) {
	fecha, err := time.Parse(pkgcfdi.FormatoFecha, r.Fecha)
	if err != nil {
		return nil, fmt.Errorf("fecha %q inválida (se espera %s): %w", r.Fecha, pkgcfdi.FormatoFecha, err)
	}
	b := &entity.BorradorFactura{
		Serie:             r.Serie,
		Folio:             r.Folio,
		Fecha:             fecha,
		FormaPago:         r.FormaPago,
		CondicionesDePago: r.CondicionesDePago,
		MetodoPago:        r.MetodoPago,
		Moneda:            r.Moneda,
		SubTotal:          r.SubTotal,
		Descuento:         r.Descuento,
		Total:             r.Total,
		Receptor: entity.Receptor{
			RFC:              pkgcfdi.NormalizarRFC(r.Receptor.RFC),
			Nombre:           r.Receptor.Nombre,
			CodigoPostal:     r.Receptor.CodigoPostal,
			ResidenciaFiscal: r.Receptor.ResidenciaFiscal,
			NumRegIdTrib:     r.Receptor.NumRegIdTrib,
			RegimenFiscal:    r.Receptor.RegimenFiscal,
			UsoCFDI:          r.Receptor.UsoCFDI,
		},
	}
	for _, c := range r.Conceptos {
		concepto := entity.Concepto{
			ClaveProdServ:    c.ClaveProdServ,
			NoIdentificacion: c.NoIdentificacion,
			Cantidad:         c.Cantidad,
			ClaveUnidad:      c.ClaveUnidad,
			Unidad:           c.Unidad,
			Descripcion:      c.Descripcion,
			ValorUnitario:    c.ValorUnitario,
			Importe:          c.Importe,
			Descuento:        c.Descuento,
			ObjetoImp:        c.ObjetoImp,
		}
		for _, t := range c.Traslados {
			concepto.Traslados = append(concepto.Traslados, entity.Traslado{
				Base:       t.Base,
				Impuesto:   t.Impuesto,
				TipoFactor: t.TipoFactor,
				TasaOCuota: t.TasaOCuota,
				Importe:    t.Importe,
			})
		}
		b.Conceptos = append(b.Conceptos, concepto)
	}
	if r.Global != nil {
		b.Global = &entity.InformacionGlobal{
			Periodicidad: r.Global.Periodicidad,
			Meses:        r.Global.Meses,
			Anio:         r.Global.Anio,
		}
	}
	return b, nil
}

// CancelarFacturaRequest petición de cancelación ante el SAT.
type CancelarFacturaRequest struct {
	Motivo           string `json:"motivo"`
	FolioSustitucion string `json:"folioSustitucion,omitempty"`
}

// FacturaResponse representación JSON de la factura persistida. El XML y el
// PDF se sirven en endpoints propios, no inline.
type FacturaResponse struct {
	ID               string          `json:"id"`
	EmisorRFC        string          `json:"emisorRfc"`
	ReceptorRFC      string          `json:"receptorRfc"`
	ReceptorNombre   string          `json:"receptorNombre,omitempty"`
	Serie            string          `json:"serie,omitempty"`
	Folio            string          `json:"folio"`
	FechaEmision     time.Time       `json:"fechaEmision"`
	FechaTimbrado    *time.Time      `json:"fechaTimbrado,omitempty"`
	UUID             string          `json:"uuid,omitempty"`
	NoCertificado    string          `json:"noCertificado,omitempty"`
	NoCertificadoSAT string          `json:"noCertificadoSat,omitempty"`
	SubTotal         decimal.Decimal `json:"subTotal"`
	Descuento        decimal.Decimal `json:"descuento"`
	TotalImpuestos   decimal.Decimal `json:"totalImpuestos"`
	Total            decimal.Decimal `json:"total"`
	Estado           string          `json:"estado"`
	ErroresPAC       string          `json:"erroresPac,omitempty"`
}

// FacturaFromEntity mapea la entidad a su respuesta pública.
func FacturaFromEntity(f *entity.Factura) FacturaResponse {
	return FacturaResponse{
		ID:               f.ID,
		EmisorRFC:        f.EmisorRFC,
		ReceptorRFC:      f.ReceptorRFC,
		ReceptorNombre:   f.ReceptorNombre,
		Serie:            f.Serie,
		Folio:            f.Folio,
		FechaEmision:     f.FechaEmision,
		FechaTimbrado:    f.FechaTimbrado,
		UUID:             f.UUID,
		NoCertificado:    f.NoCertificado,
		NoCertificadoSAT: f.NoCertificadoSAT,
		SubTotal:         f.SubTotal,
		Descuento:        f.Descuento,
		TotalImpuestos:   f.TotalImpuestos,
		Total:            f.Total,
		Estado:           f.Estado,
		ErroresPAC:       f.ErroresPAC,
	}
}

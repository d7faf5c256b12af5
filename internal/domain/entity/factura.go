package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ciclo de vida de la factura. CANCELLED solo es alcanzable desde STAMPED;
// REJECTED es terminal y nunca tiene UUID asignado.
const (
	EstadoBorrador  = "DRAFT"     // Guardada, sin intento de timbrado resuelto
	EstadoTimbrada  = "STAMPED"   // Timbrada por el PAC: tiene UUID y sello SAT
	EstadoRechazada = "REJECTED"  // Rechazada por el PAC; requiere borrador corregido con folio nuevo
	EstadoCancelada = "CANCELLED" // Cancelada ante el SAT
)

// Factura es el registro persistido del comprobante (StampedInvoice).
// Tras pasar a STAMPED el registro es inmutable salvo la transición a
// CANCELLED y el adjunto del PDF; se retiene indefinidamente para auditoría.
type Factura struct {
	ID               string
	EmisorRFC        string
	ReceptorRFC      string
	ReceptorNombre   string
	Serie            string
	Folio            string
	FechaEmision     time.Time
	FechaTimbrado    *time.Time
	UUID             string // UUID fiscal asignado por el PAC (vacío en DRAFT/REJECTED)
	NoCertificado    string // Serial del CSD del emisor
	NoCertificadoSAT string // Serial del certificado SAT que contrafirmó
	SelloCFD         string // Sello del emisor (Base64)
	SelloSAT         string // Sello del SAT (Base64)
	CadenaOriginal   string
	SubTotal         decimal.Decimal
	Descuento        decimal.Decimal
	TotalImpuestos   decimal.Decimal
	Total            decimal.Decimal
	XML              []byte // CFDI timbrado completo (opaco para el resto del sistema)
	PDF              []byte // Representación impresa (puede generarse después del timbrado)
	Estado           string
	ErroresPAC       string // Mensajes de rechazo verbatim del PAC
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PuedeTimbrar indica si la factura admite un intento de timbrado.
func (f *Factura) PuedeTimbrar() bool {
	return f.Estado == EstadoBorrador
}

// PuedeCancelar indica si la factura admite cancelación ante el SAT.
func (f *Factura) PuedeCancelar() bool {
	return f.Estado == EstadoTimbrada
}

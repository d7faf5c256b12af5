// Package cfdi contiene catálogos y reglas alineados al Anexo 20 de CFDI 4.0
// (SAT, México) para comprobantes de ingreso tipo "I".
package cfdi

// =============================================================================
// Datos fijos del comprobante (Anexo 20 - 1. Comprobante)
// =============================================================================

const (
	Version             = "4.0" // Versión del estándar CFDI
	TipoComprobanteI    = "I"   // Ingreso (factura de venta/arrendamiento)
	MonedaMXN           = "MXN" // Única moneda soportada
	ExportacionNoAplica = "01"  // No aplica exportación
)

// RFCGenerico es el RFC de público en general: activa la ruta de
// factura global (InformacionGlobal) en lugar de receptor nominado.
const RFCGenerico = "XAXX010101000"

// RFCExtranjero es el RFC genérico para residentes en el extranjero.
const RFCExtranjero = "XEXX010101000"

// =============================================================================
// Catálogo c_FormaPago (códigos de uso frecuente)
// =============================================================================

const (
	FormaPagoEfectivo         = "01" // Efectivo
	FormaPagoChequeNominativo = "02" // Cheque nominativo
	FormaPagoTransferencia    = "03" // Transferencia electrónica de fondos
	FormaPagoTarjetaCredito   = "04" // Tarjeta de crédito
	FormaPagoTarjetaDebito    = "28" // Tarjeta de débito
	FormaPagoPorDefinir       = "99" // Por definir (PPD)
)

// =============================================================================
// Catálogo c_MetodoPago
// =============================================================================

const (
	MetodoPagoPUE = "PUE" // Pago en una sola exhibición
	MetodoPagoPPD = "PPD" // Pago en parcialidades o diferido
)

// =============================================================================
// Catálogo c_UsoCFDI (códigos de uso frecuente)
// =============================================================================

const (
	UsoGastosGenerales       = "G03" // Gastos en general
	UsoAdquisicionMercancias = "G01" // Adquisición de mercancías
	UsoSinEfectosFiscales    = "S01" // Sin efectos fiscales (obligatorio en global)
)

// =============================================================================
// Catálogo c_RegimenFiscal (códigos de uso frecuente)
// =============================================================================

const (
	RegimenGeneralLeyPM          = "601" // General de Ley Personas Morales
	RegimenPersonasFisicas       = "612" // Personas Físicas con Actividades Empresariales
	RegimenSinObligaciones       = "616" // Sin obligaciones fiscales (receptor genérico)
	RegimenSimplificadoConfianza = "626" // Régimen Simplificado de Confianza
)

// =============================================================================
// Catálogo c_ObjetoImp
// =============================================================================

const (
	ObjetoImpNo = "01" // No objeto de impuesto
	ObjetoImpSi = "02" // Sí objeto de impuesto
)

// =============================================================================
// Catálogo c_Impuesto y c_TipoFactor
// =============================================================================

const (
	ImpuestoIVA  = "002" // IVA
	ImpuestoISR  = "001" // ISR
	ImpuestoIEPS = "003" // IEPS

	TipoFactorTasa   = "Tasa"
	TipoFactorCuota  = "Cuota"
	TipoFactorExento = "Exento"
)

// TasaIVA16 es la tasa estándar de IVA trasladado (16%), formato de 6 decimales.
const TasaIVA16 = "0.160000"

// =============================================================================
// Catálogo c_ClaveUnidad (códigos de uso frecuente)
// =============================================================================

const (
	UnidadPieza     = "H87" // Pieza
	UnidadServicio  = "E48" // Unidad de servicio
	UnidadActividad = "ACT" // Actividad
	UnidadMes       = "MON" // Mes (renta)
	UnidadDia       = "DAY" // Día
	UnidadKilogramo = "KGM" // Kilogramo
)

// =============================================================================
// Catálogo c_Periodicidad (factura global)
// =============================================================================

const (
	PeriodicidadDiaria    = "01"
	PeriodicidadSemanal   = "02"
	PeriodicidadQuincenal = "03"
	PeriodicidadMensual   = "04"
)

// =============================================================================
// Motivos de cancelación (catálogo SAT vigente desde 2022)
// =============================================================================

const (
	MotivoCancelConErrorConRelacion = "01" // Comprobante emitido con errores con relación
	MotivoCancelConError            = "02" // Comprobante emitido con errores sin relación
	MotivoCancelNoSeLlevoACabo      = "03" // No se llevó a cabo la operación
	MotivoCancelOperacionNominativa = "04" // Operación nominativa relacionada en factura global
)

// ValidMotivosCancelacion códigos de motivo de cancelación aceptados por el SAT.
var ValidMotivosCancelacion = map[string]bool{
	MotivoCancelConErrorConRelacion: true,
	MotivoCancelConError:            true,
	MotivoCancelNoSeLlevoACabo:      true,
	MotivoCancelOperacionNominativa: true,
}

// ValidFormasPago códigos de forma de pago aceptados.
var ValidFormasPago = map[string]bool{
	FormaPagoEfectivo: true, FormaPagoChequeNominativo: true,
	FormaPagoTransferencia: true, FormaPagoTarjetaCredito: true,
	FormaPagoTarjetaDebito: true, FormaPagoPorDefinir: true,
}

// ValidMetodosPago códigos de método de pago aceptados.
var ValidMetodosPago = map[string]bool{
	MetodoPagoPUE: true,
	MetodoPagoPPD: true,
}

package cfdi_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	infracfdi "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestCadenaOriginal_VectorExacto es el canario de la facturación: si alguien
// reordena los campos, cambia un formato numérico o toca la envoltura ||...||,
// este vector deja de coincidir y el sello saldría inválido en producción.
//
// Escenario: renta mensual de un andamio, 1 × $1,000.00 + IVA 16% = $1,160.00,
// emisor AAA010101AAA, receptor nominado.
// ──────────────────────────────────────────────────────────────────────────────

const cadenaEsperada = "||4.0|01|2024-05-15T12:00:00|123|A|03|1000.00|MXN|1160.00|I|PUE|64000|" +
	"AAA010101AAA|ANDAMIOS Y EQUIPOS SA DE CV|601|" +
	"CACX7605101P8|XOCHILT CASAS CHAVEZ|36257|612|G03|" +
	"80131501|1|MON|Mes|Renta mensual de andamio estructural|1000.00|1000.00|02|" +
	"1000.00|002|Tasa|0.160000|160.00|" +
	"1000.00|002|Tasa|0.160000|160.00|160.00||"

func emisorPrueba() entity.Emisor {
	return entity.Emisor{
		RFC:           "AAA010101AAA",
		Nombre:        "ANDAMIOS Y EQUIPOS SA DE CV",
		RegimenFiscal: pkgcfdi.RegimenGeneralLeyPM,
		CodigoPostal:  "64000",
	}
}

func borradorPrueba() *entity.BorradorFactura {
	return &entity.BorradorFactura{
		Serie:      "A",
		Folio:      "123",
		Fecha:      time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC),
		FormaPago:  pkgcfdi.FormaPagoTransferencia,
		MetodoPago: pkgcfdi.MetodoPagoPUE,
		Moneda:     pkgcfdi.MonedaMXN,
		SubTotal:   decimal.RequireFromString("1000.00"),
		Total:      decimal.RequireFromString("1160.00"),
		Receptor: entity.Receptor{
			RFC:           "CACX7605101P8",
			Nombre:        "XOCHILT CASAS CHAVEZ",
			CodigoPostal:  "36257",
			RegimenFiscal: pkgcfdi.RegimenPersonasFisicas,
			UsoCFDI:       pkgcfdi.UsoGastosGenerales,
		},
		Conceptos: []entity.Concepto{{
			ClaveProdServ: "80131501",
			Cantidad:      decimal.NewFromInt(1),
			ClaveUnidad:   pkgcfdi.UnidadMes,
			Unidad:        "Mes",
			Descripcion:   "Renta mensual de andamio estructural",
			ValorUnitario: decimal.RequireFromString("1000.00"),
			Importe:       decimal.RequireFromString("1000.00"),
			ObjetoImp:     pkgcfdi.ObjetoImpSi,
			Traslados: []entity.Traslado{{
				Base:       decimal.RequireFromString("1000.00"),
				Impuesto:   pkgcfdi.ImpuestoIVA,
				TipoFactor: pkgcfdi.TipoFactorTasa,
				TasaOCuota: decimal.RequireFromString("0.16"),
				Importe:    decimal.RequireFromString("160.00"),
			}},
		}},
	}
}

func borradorGlobalPrueba() *entity.BorradorFactura {
	b := borradorPrueba()
	b.Receptor = entity.Receptor{
		RFC:           pkgcfdi.RFCGenerico,
		Nombre:        "PUBLICO EN GENERAL",
		CodigoPostal:  "64000",
		RegimenFiscal: pkgcfdi.RegimenSinObligaciones,
		UsoCFDI:       pkgcfdi.UsoSinEfectosFiscales,
	}
	b.Global = &entity.InformacionGlobal{
		Periodicidad: pkgcfdi.PeriodicidadMensual,
		Meses:        "05",
		Anio:         2024,
	}
	return b
}

func TestCadenaOriginal_VectorExacto(t *testing.T) {
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), borradorPrueba())
	require.NoError(t, err)

	assert.Equal(t, cadenaEsperada, infracfdi.CadenaOriginal(doc),
		"la cadena original debe coincidir byte a byte con el vector de referencia")
}

func TestCadenaOriginal_Determinista(t *testing.T) {
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), borradorPrueba())
	require.NoError(t, err)

	assert.Equal(t, infracfdi.CadenaOriginal(doc), infracfdi.CadenaOriginal(doc),
		"el mismo documento siempre produce la misma cadena")
}

// La variante global inserta InformacionGlobal tras los campos del comprobante
// y omite el nombre del receptor genérico.
func TestCadenaOriginal_FacturaGlobal(t *testing.T) {
	doc, err := infracfdi.BuildDocumentoGlobal(emisorPrueba(), borradorGlobalPrueba())
	require.NoError(t, err)

	cadena := infracfdi.CadenaOriginal(doc)
	assert.Contains(t, cadena, "|PUE|64000|04|05|2024|AAA010101AAA|",
		"Periodicidad, Meses y Año van después de los campos del comprobante")
	assert.NotContains(t, cadena, "PUBLICO EN GENERAL",
		"el nombre del receptor genérico no participa en la cadena")
	assert.Contains(t, cadena, "|XAXX010101000|64000|616|S01|",
		"del receptor genérico van RFC, CP, régimen y uso, sin nombre")
}

// El descuento solo aparece cuando es positivo; al aparecer, se formatea con
// dos decimales como cualquier importe.
func TestCadenaOriginal_DescuentoOpcional(t *testing.T) {
	b := borradorPrueba()
	b.Descuento = decimal.RequireFromString("100.00")
	b.Total = decimal.RequireFromString("1060.00")
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), b)
	require.NoError(t, err)

	assert.Contains(t, infracfdi.CadenaOriginal(doc), "|1000.00|100.00|MXN|1060.00|")
}

// TestCadenaOriginal_RederivacionDesdeXML: serializar el documento y volverlo a
// parsear debe producir exactamente la misma cadena (propiedad de auditoría:
// la cadena re-derivada del XML almacenado reproduce la original).
func TestCadenaOriginal_RederivacionDesdeXML(t *testing.T) {
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), borradorPrueba())
	require.NoError(t, err)

	xml, err := infracfdi.SerializarXML(doc, nil)
	require.NoError(t, err)

	releido, err := infracfdi.ParsearComprobante(xml)
	require.NoError(t, err)

	assert.Equal(t, infracfdi.CadenaOriginal(doc), infracfdi.CadenaOriginal(releido))
}

func TestCadenaOriginal_RederivacionGlobalDesdeXML(t *testing.T) {
	doc, err := infracfdi.BuildDocumentoGlobal(emisorPrueba(), borradorGlobalPrueba())
	require.NoError(t, err)

	xml, err := infracfdi.SerializarXML(doc, nil)
	require.NoError(t, err)

	releido, err := infracfdi.ParsearComprobante(xml)
	require.NoError(t, err)

	assert.Equal(t, infracfdi.CadenaOriginal(doc), infracfdi.CadenaOriginal(releido))
}

// ── constructores ─────────────────────────────────────────────────────────────

func TestBuildDocumento_RechazaReceptorGenerico(t *testing.T) {
	b := borradorGlobalPrueba()
	_, err := infracfdi.BuildDocumento(emisorPrueba(), b)
	assert.Error(t, err, "el receptor genérico exige la variante global")
}

func TestBuildDocumentoGlobal_RechazaReceptorNominado(t *testing.T) {
	_, err := infracfdi.BuildDocumentoGlobal(emisorPrueba(), borradorPrueba())
	assert.Error(t, err)
}

func TestBuildDocumentoGlobal_ExigeInformacionGlobal(t *testing.T) {
	b := borradorGlobalPrueba()
	b.Global = nil
	_, err := infracfdi.BuildDocumentoGlobal(emisorPrueba(), b)
	assert.Error(t, err)
}

// Dos líneas con la misma tasa se agrupan en un solo traslado del resumen.
func TestBuildDocumento_AgrupaTrasladosPorTasa(t *testing.T) {
	b := borradorPrueba()
	b.Conceptos = append(b.Conceptos, entity.Concepto{
		ClaveProdServ: "80131501",
		Cantidad:      decimal.NewFromInt(2),
		ClaveUnidad:   pkgcfdi.UnidadMes,
		Unidad:        "Mes",
		Descripcion:   "Renta mensual de torre de carga",
		ValorUnitario: decimal.RequireFromString("250.00"),
		Importe:       decimal.RequireFromString("500.00"),
		ObjetoImp:     pkgcfdi.ObjetoImpSi,
		Traslados: []entity.Traslado{{
			Base:       decimal.RequireFromString("500.00"),
			Impuesto:   pkgcfdi.ImpuestoIVA,
			TipoFactor: pkgcfdi.TipoFactorTasa,
			TasaOCuota: decimal.RequireFromString("0.16"),
			Importe:    decimal.RequireFromString("80.00"),
		}},
	})
	b.SubTotal = decimal.RequireFromString("1500.00")
	b.Total = decimal.RequireFromString("1740.00")

	doc, err := infracfdi.BuildDocumento(emisorPrueba(), b)
	require.NoError(t, err)

	require.Len(t, doc.TrasladosResumen, 1)
	assert.Equal(t, "1500.00", pkgcfdi.FormatoImporte(doc.TrasladosResumen[0].Base))
	assert.Equal(t, "240.00", pkgcfdi.FormatoImporte(doc.TrasladosResumen[0].Importe))
	assert.Equal(t, "240.00", pkgcfdi.FormatoImporte(doc.TotalImpuestosTrasladados))
}

package cfdi_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infracfdi "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi"
)

func timbrePrueba() *infracfdi.Timbre {
	return &infracfdi.Timbre{
		UUID:             "AD662D33-6934-459C-A128-BDF0393F0F44",
		FechaTimbrado:    time.Date(2024, 5, 15, 12, 0, 5, 0, time.UTC),
		SelloCFD:         "c2VsbG8tZGVsLWVtaXNvcg==",
		SelloSAT:         "c2VsbG8tZGVsLXNhdA==",
		NoCertificadoSAT: "30001000000400002495",
	}
}

// TestFusionarTimbre_RoundTrip: inyectar el complemento y volverlo a extraer
// debe devolver los mismos datos del timbre.
func TestFusionarTimbre_RoundTrip(t *testing.T) {
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), borradorPrueba())
	require.NoError(t, err)
	xml, err := infracfdi.SerializarXML(doc, nil)
	require.NoError(t, err)

	timbrado, err := infracfdi.FusionarTimbre(xml, timbrePrueba())
	require.NoError(t, err)

	leido, err := infracfdi.ParsearTimbre(timbrado)
	require.NoError(t, err)
	assert.Equal(t, timbrePrueba().UUID, leido.UUID)
	assert.Equal(t, timbrePrueba().SelloSAT, leido.SelloSAT)
	assert.Equal(t, timbrePrueba().NoCertificadoSAT, leido.NoCertificadoSAT)
	assert.True(t, timbrePrueba().FechaTimbrado.Equal(leido.FechaTimbrado))
}

// Un comprobante ya timbrado no admite un segundo complemento.
func TestFusionarTimbre_RechazaDobleTimbre(t *testing.T) {
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), borradorPrueba())
	require.NoError(t, err)
	xml, err := infracfdi.SerializarXML(doc, nil)
	require.NoError(t, err)

	timbrado, err := infracfdi.FusionarTimbre(xml, timbrePrueba())
	require.NoError(t, err)

	_, err = infracfdi.FusionarTimbre(timbrado, timbrePrueba())
	assert.Error(t, err)
}

func TestParsearTimbre_SinComplemento(t *testing.T) {
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), borradorPrueba())
	require.NoError(t, err)
	xml, err := infracfdi.SerializarXML(doc, nil)
	require.NoError(t, err)

	_, err = infracfdi.ParsearTimbre(xml)
	assert.Error(t, err, "un XML sin TimbreFiscalDigital no se puede parsear como timbrado")
}

func TestParsearTimbre_XMLIlegible(t *testing.T) {
	_, err := infracfdi.ParsearTimbre([]byte("esto no es xml"))
	assert.Error(t, err)
}

// ── atributos del XML sellado ─────────────────────────────────────────────────

func TestSerializarXML_ConSello(t *testing.T) {
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), borradorPrueba())
	require.NoError(t, err)

	sello := &infracfdi.Sello{
		SelloBase64:       "ZmlybWE=",
		CertificadoBase64: "Y2VydA==",
		NoCertificado:     "30001000000400002334",
	}
	xml, err := infracfdi.SerializarXML(doc, sello)
	require.NoError(t, err)

	s := string(xml)
	assert.Contains(t, s, `Sello="ZmlybWE="`)
	assert.Contains(t, s, `NoCertificado="30001000000400002334"`)
	assert.Contains(t, s, `Certificado="Y2VydA=="`)
	assert.Contains(t, s, `xmlns:cfdi="http://www.sat.gob.mx/cfd/4"`)
}

func TestSerializarXML_SinSelloOmiteAtributos(t *testing.T) {
	doc, err := infracfdi.BuildDocumento(emisorPrueba(), borradorPrueba())
	require.NoError(t, err)

	xml, err := infracfdi.SerializarXML(doc, nil)
	require.NoError(t, err)

	s := string(xml)
	assert.NotContains(t, s, "Sello=")
	assert.NotContains(t, s, "Certificado=")
}

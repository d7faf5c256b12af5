package csd_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	"github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi/csd"
)

const cadenaPrueba = "||4.0|01|2024-05-15T12:00:00|123|A|03|1000.00|MXN|1160.00|I|PUE|64000||"

func credencialPrueba(t *testing.T) *csd.Credencial {
	t.Helper()
	llave, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return &csd.Credencial{
		RFC:            "AAA010101AAA",
		LlavePrivada:   llave,
		CertificadoDER: []byte("cert-de-prueba"),
		NoCertificado:  "30001000000400002334",
	}
}

func TestSellar_VerificaRoundTrip(t *testing.T) {
	cred := credencialPrueba(t)

	sello, err := csd.Sellar(cadenaPrueba, cred)
	require.NoError(t, err)
	assert.Equal(t, cred.NoCertificado, sello.NoCertificado)
	assert.NotEmpty(t, sello.SelloBase64)

	assert.NoError(t, csd.VerificarSello(cadenaPrueba, sello.SelloBase64, &cred.LlavePrivada.PublicKey))
}

// Cambiar un solo byte de la cadena invalida el sello: la firma cubre los
// bytes UTF-8 exactos.
func TestVerificarSello_CadenaAlterada(t *testing.T) {
	cred := credencialPrueba(t)

	sello, err := csd.Sellar(cadenaPrueba, cred)
	require.NoError(t, err)

	alterada := cadenaPrueba[:len(cadenaPrueba)-3] + "X||"
	assert.Error(t, csd.VerificarSello(alterada, sello.SelloBase64, &cred.LlavePrivada.PublicKey))
}

func TestSellar_Determinista(t *testing.T) {
	cred := credencialPrueba(t)

	s1, err := csd.Sellar(cadenaPrueba, cred)
	require.NoError(t, err)
	s2, err := csd.Sellar(cadenaPrueba, cred)
	require.NoError(t, err)

	// RSA PKCS#1 v1.5 es determinista: misma cadena, misma llave, mismo sello.
	assert.Equal(t, s1.SelloBase64, s2.SelloBase64)
}

func TestSellar_CadenaVacia(t *testing.T) {
	_, err := csd.Sellar("", credencialPrueba(t))
	assert.ErrorIs(t, err, domain.ErrFalloSellado)
}

func TestSellar_SinLlave(t *testing.T) {
	_, err := csd.Sellar(cadenaPrueba, &csd.Credencial{})
	assert.ErrorIs(t, err, domain.ErrFalloSellado)
}

func TestVerificarSello_Base64Invalido(t *testing.T) {
	cred := credencialPrueba(t)
	assert.Error(t, csd.VerificarSello(cadenaPrueba, "no-es-base64!!!", &cred.LlavePrivada.PublicKey))
}

package cifrado_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loboISC/arrendamiento-sub002/pkg/cifrado"
)

func TestCifrarDescifrar_RoundTrip(t *testing.T) {
	blob, err := cifrado.Cifrar("secreto-maestro", "contraseña-del-csd")
	require.NoError(t, err)

	claro, err := cifrado.Descifrar("secreto-maestro", blob)
	require.NoError(t, err)
	assert.Equal(t, "contraseña-del-csd", claro)
}

// TestCifrar_NonceAleatorio: dos cifrados del mismo valor nunca producen el
// mismo blob (sal y nonce aleatorios por valor).
func TestCifrar_NonceAleatorio(t *testing.T) {
	b1, err := cifrado.Cifrar("secreto", "mismo-valor")
	require.NoError(t, err)
	b2, err := cifrado.Cifrar("secreto", "mismo-valor")
	require.NoError(t, err)
	assert.NotEqual(t, b1, b2)
}

func TestDescifrar_SecretoIncorrecto(t *testing.T) {
	blob, err := cifrado.Cifrar("secreto-correcto", "valor")
	require.NoError(t, err)

	_, err = cifrado.Descifrar("secreto-equivocado", blob)
	assert.Error(t, err, "GCM debe rechazar la llave derivada de otro secreto")
}

func TestDescifrar_BlobAlterado(t *testing.T) {
	blob, err := cifrado.Cifrar("secreto", "valor")
	require.NoError(t, err)

	alterado := []byte(blob)
	alterado[len(alterado)-5] ^= 1
	_, err = cifrado.Descifrar("secreto", string(alterado))
	assert.Error(t, err, "un blob alterado no debe descifrar")
}

func TestCifrado_SecretoVacio(t *testing.T) {
	_, err := cifrado.Cifrar("", "valor")
	assert.Error(t, err)
	_, err = cifrado.Descifrar("", "blob")
	assert.Error(t, err)
}

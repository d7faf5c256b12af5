// Package cifrado protege secretos en reposo (la contraseña de la llave CSD).
// Usa AES-256-GCM con nonce aleatorio por valor y llave derivada del secreto
// maestro de la instalación vía PBKDF2-SHA256 con sal aleatoria por valor.
// El valor almacenado es base64(sal || nonce || ciphertext).
package cifrado

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 16
	keyLen     = 32 // AES-256
	iterations = 100_000
)

// Cifrar cifra un valor en claro con el secreto maestro y devuelve el
// blob base64 listo para persistir en configuración.
func Cifrar(secreto, valor string) (string, error) {
	if secreto == "" {
		return "", fmt.Errorf("cifrado: secreto maestro vacío")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cifrado: generar sal: %w", err)
	}
	aead, err := newAEAD(secreto, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cifrado: generar nonce: %w", err)
	}
	ct := aead.Seal(nil, nonce, []byte(valor), nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(ct))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ct...)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Descifrar recupera el valor en claro a partir del blob base64.
// Falla si el secreto maestro no corresponde o el blob fue alterado
// (GCM autentica el ciphertext).
func Descifrar(secreto, codificado string) (string, error) {
	if secreto == "" {
		return "", fmt.Errorf("cifrado: secreto maestro vacío")
	}
	blob, err := base64.StdEncoding.DecodeString(codificado)
	if err != nil {
		return "", fmt.Errorf("cifrado: valor no es base64: %w", err)
	}
	if len(blob) < saltLen {
		return "", fmt.Errorf("cifrado: blob demasiado corto")
	}
	salt := blob[:saltLen]
	aead, err := newAEAD(secreto, salt)
	if err != nil {
		return "", err
	}
	rest := blob[saltLen:]
	if len(rest) < aead.NonceSize() {
		return "", fmt.Errorf("cifrado: blob demasiado corto")
	}
	nonce, ct := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("cifrado: descifrar: %w", err)
	}
	return string(plain), nil
}

func newAEAD(secreto string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(secreto), salt, iterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cifrado: crear cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cifrado: crear GCM: %w", err)
	}
	return aead, nil
}

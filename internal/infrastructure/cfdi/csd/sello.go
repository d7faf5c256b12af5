package csd

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	infracfdi "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi"
)

// Sellar firma la cadena original con la llave del CSD: SHA-256 sobre los
// bytes UTF-8 de la cadena, firma RSA PKCS#1 v1.5, resultado en base64.
func Sellar(cadenaOriginal string, cred *Credencial) (*infracfdi.Sello, error) {
	if cred == nil || cred.LlavePrivada == nil {
		return nil, fmt.Errorf("%w: credencial sin llave privada", domain.ErrFalloSellado)
	}
	if cadenaOriginal == "" {
		return nil, fmt.Errorf("%w: cadena original vacía", domain.ErrFalloSellado)
	}
	resumen := sha256.Sum256([]byte(cadenaOriginal))
	firma, err := rsa.SignPKCS1v15(rand.Reader, cred.LlavePrivada, crypto.SHA256, resumen[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFalloSellado, err)
	}
	return &infracfdi.Sello{
		SelloBase64:       base64.StdEncoding.EncodeToString(firma),
		CertificadoBase64: cred.CertificadoBase64(),
		NoCertificado:     cred.NoCertificado,
	}, nil
}

// VerificarSello comprueba que un sello en base64 corresponde a la cadena
// original bajo la llave pública dada.
func VerificarSello(cadenaOriginal, selloBase64 string, pub *rsa.PublicKey) error {
	firma, err := base64.StdEncoding.DecodeString(selloBase64)
	if err != nil {
		return fmt.Errorf("sello no es base64 válido: %w", err)
	}
	resumen := sha256.Sum256([]byte(cadenaOriginal))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, resumen[:], firma); err != nil {
		return fmt.Errorf("el sello no corresponde a la cadena original: %w", err)
	}
	return nil
}

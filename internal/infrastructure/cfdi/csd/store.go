// Package csd carga el Certificado de Sello Digital del emisor y firma
// cadenas originales con él. La contraseña de la llave vive cifrada en la
// configuración y solo se descifra en memoria al cargar la credencial; nunca
// se escribe a disco ni a la bitácora.
package csd

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	"github.com/loboISC/arrendamiento-sub002/pkg/cifrado"
	"github.com/loboISC/arrendamiento-sub002/pkg/config"
)

// Credencial es un CSD listo para firmar: llave privada en memoria,
// certificado DER y número de certificado de 20 dígitos.
type Credencial struct {
	RFC            string
	LlavePrivada   *rsa.PrivateKey
	CertificadoDER []byte
	NoCertificado  string
}

// CertificadoBase64 devuelve el certificado DER en base64, como lo exige el
// atributo Certificado del comprobante.
func (c *Credencial) CertificadoBase64() string {
	return base64.StdEncoding.EncodeToString(c.CertificadoDER)
}

// CargarCredencial lee el par certificado/llave del emisor. La contraseña se
// descifra con el secreto maestro y se descarta al salir.
func CargarCredencial(cfg config.EmisorConfig, secretoMaestro string) (*Credencial, error) {
	password, err := cifrado.Descifrar(secretoMaestro, cfg.KeyPasswordEnc)
	if err != nil {
		return nil, fmt.Errorf("%w: no se pudo descifrar la contraseña de la llave: %v",
			domain.ErrCredencialInvalida, err)
	}

	if strings.HasSuffix(cfg.KeyPath, ".p12") || strings.HasSuffix(cfg.KeyPath, ".pfx") {
		return cargarPKCS12(cfg, password)
	}

	certDER, err := leerCertificado(cfg.CertPath)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("%w: certificado ilegible: %v", domain.ErrCredencialInvalida, err)
	}

	llave, err := leerLlavePrivada(cfg.KeyPath, password)
	if err != nil {
		return nil, err
	}
	return armarCredencial(cfg.RFC, cert, certDER, llave)
}

func cargarPKCS12(cfg config.EmisorConfig, password string) (*Credencial, error) {
	data, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: leyendo %s: %v", domain.ErrCredencialNoDisponible, cfg.KeyPath, err)
	}
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: archivo PKCS#12: %v", domain.ErrCredencialInvalida, err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: la llave del CSD no es RSA", domain.ErrCredencialInvalida)
	}
	return armarCredencial(cfg.RFC, cert, cert.Raw, rsaKey)
}

func armarCredencial(rfc string, cert *x509.Certificate, certDER []byte, llave *rsa.PrivateKey) (*Credencial, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok || !pub.Equal(&llave.PublicKey) {
		return nil, fmt.Errorf("%w: la llave privada no corresponde al certificado", domain.ErrCredencialInvalida)
	}
	noCert, err := numeroCertificado(cert)
	if err != nil {
		return nil, err
	}
	return &Credencial{
		RFC:            rfc,
		LlavePrivada:   llave,
		CertificadoDER: certDER,
		NoCertificado:  noCert,
	}, nil
}

func leerCertificado(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: leyendo %s: %v", domain.ErrCredencialNoDisponible, path, err)
	}
	if block, _ := pem.Decode(data); block != nil {
		return block.Bytes, nil
	}
	// .cer del SAT viene en DER crudo
	return data, nil
}

func leerLlavePrivada(path, password string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: leyendo %s: %v", domain.ErrCredencialNoDisponible, path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: la llave no es PEM ni PKCS#12", domain.ErrCredencialInvalida)
	}
	der := block.Bytes
	if x509.IsEncryptedPEMBlock(block) {
		der, err = x509.DecryptPEMBlock(block, []byte(password))
		if err != nil {
			return nil, fmt.Errorf("%w: contraseña de llave incorrecta", domain.ErrCredencialInvalida)
		}
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: llave privada ilegible: %v", domain.ErrCredencialInvalida, err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: la llave del CSD no es RSA", domain.ErrCredencialInvalida)
	}
	return rsaKey, nil
}

// numeroCertificado extrae el NoCertificado de 20 dígitos: el SAT codifica el
// número como ASCII dentro del serial del certificado.
func numeroCertificado(cert *x509.Certificate) (string, error) {
	raw := cert.SerialNumber.Bytes()
	digitos := bytes.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digitos) != 20 {
		return "", fmt.Errorf("%w: serial de certificado inesperado (%d dígitos)",
			domain.ErrCredencialInvalida, len(digitos))
	}
	return string(digitos), nil
}

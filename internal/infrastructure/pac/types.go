package pac

import "time"

// SolicitudTimbrado es la petición de timbrado. En modo sellado XMLBase64
// lleva el comprobante ya firmado por el emisor; en modo hosted va sin sello y
// el PAC firma con el CSD que resguarda.
type SolicitudTimbrado struct {
	XMLBase64 string `json:"xmlBase64"`
	EmisorRFC string `json:"emisorRfc"`
	Serie     string `json:"serie,omitempty"`
	Folio     string `json:"folio"`
}

// RespuestaTimbrado es la respuesta exitosa del PAC.
type RespuestaTimbrado struct {
	Complemento struct {
		TimbreFiscalDigital struct {
			UUID             string `json:"uuid"`
			FechaTimbrado    string `json:"fechaTimbrado"`
			SelloCFD         string `json:"selloCFD"`
			SelloSAT         string `json:"selloSAT"`
			NoCertificadoSAT string `json:"noCertificadoSAT"`
		} `json:"timbreFiscalDigital"`
	} `json:"complemento"`
	XMLBase64 string `json:"xmlBase64"`
	PDFBase64 string `json:"pdfBase64,omitempty"`
}

// ResultadoTimbrado es el timbre ya decodificado que consume la aplicación.
type ResultadoTimbrado struct {
	UUID             string
	FechaTimbrado    time.Time
	SelloCFD         string
	SelloSAT         string
	NoCertificadoSAT string
	// XML timbrado completo devuelto por el PAC.
	XML []byte
	// PDF opcional; solo algunos PAC lo generan.
	PDF []byte
}

// SolicitudCancelacion pide la cancelación de un comprobante timbrado.
type SolicitudCancelacion struct {
	EmisorRFC        string `json:"rfc"`
	UUID             string `json:"uuid"`
	Motivo           string `json:"motivo"`
	FolioSustitucion string `json:"folioSustitucion,omitempty"`
}

// respuestaError es el cuerpo que el PAC devuelve en rechazos (4xx).
type respuestaError struct {
	Codigo   string   `json:"codigo"`
	Mensaje  string   `json:"mensaje"`
	Mensajes []string `json:"mensajes"`
}

package cfdi

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

// Timbre es el TimbreFiscalDigital que el SAT (vía PAC) agrega al comprobante.
type Timbre struct {
	UUID             string
	FechaTimbrado    time.Time
	SelloCFD         string
	SelloSAT         string
	NoCertificadoSAT string
}

// ParsearTimbre extrae el TimbreFiscalDigital de un XML timbrado. Falla si el
// complemento no existe o le faltan atributos obligatorios.
func ParsearTimbre(xmlTimbrado []byte) (*Timbre, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlTimbrado); err != nil {
		return nil, fmt.Errorf("cfdi: XML timbrado ilegible: %w", err)
	}
	tfd := buscarTimbre(doc.Root())
	if tfd == nil {
		return nil, fmt.Errorf("cfdi: el XML no contiene TimbreFiscalDigital")
	}

	t := &Timbre{
		UUID:             tfd.SelectAttrValue("UUID", ""),
		SelloCFD:         tfd.SelectAttrValue("SelloCFD", ""),
		SelloSAT:         tfd.SelectAttrValue("SelloSAT", ""),
		NoCertificadoSAT: tfd.SelectAttrValue("NoCertificadoSAT", ""),
	}
	if t.UUID == "" || t.SelloSAT == "" || t.NoCertificadoSAT == "" {
		return nil, fmt.Errorf("cfdi: TimbreFiscalDigital incompleto (UUID=%q)", t.UUID)
	}
	fecha := tfd.SelectAttrValue("FechaTimbrado", "")
	parsed, err := time.Parse(pkgcfdi.FormatoFecha, fecha)
	if err != nil {
		return nil, fmt.Errorf("cfdi: FechaTimbrado %q inválida: %w", fecha, err)
	}
	t.FechaTimbrado = parsed
	return t, nil
}

// FusionarTimbre inserta el complemento TimbreFiscalDigital en el XML sellado
// localmente. Se usa en modo sellado cuando el PAC devuelve solo los datos del
// timbre y no el XML completo.
func FusionarTimbre(xmlSellado []byte, t *Timbre) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("cfdi: timbre nulo")
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlSellado); err != nil {
		return nil, fmt.Errorf("cfdi: XML sellado ilegible: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("cfdi: XML sellado sin raíz")
	}
	if buscarTimbre(root) != nil {
		return nil, fmt.Errorf("cfdi: el comprobante ya tiene TimbreFiscalDigital")
	}

	complemento := root.CreateElement("cfdi:Complemento")
	tfd := complemento.CreateElement("tfd:TimbreFiscalDigital")
	tfd.CreateAttr("xmlns:tfd", nsTFD)
	tfd.CreateAttr("xsi:schemaLocation", nsTFD+" http://www.sat.gob.mx/sitio_internet/cfd/TimbreFiscalDigital/TimbreFiscalDigitalv11.xsd")
	tfd.CreateAttr("Version", "1.1")
	tfd.CreateAttr("UUID", t.UUID)
	tfd.CreateAttr("FechaTimbrado", t.FechaTimbrado.Format(pkgcfdi.FormatoFecha))
	if t.SelloCFD != "" {
		tfd.CreateAttr("SelloCFD", t.SelloCFD)
	}
	tfd.CreateAttr("SelloSAT", t.SelloSAT)
	tfd.CreateAttr("NoCertificadoSAT", t.NoCertificadoSAT)

	return doc.WriteToBytes()
}

// buscarTimbre localiza el nodo TimbreFiscalDigital sin depender del prefijo
// de namespace que haya usado el PAC.
func buscarTimbre(root *etree.Element) *etree.Element {
	if root == nil {
		return nil
	}
	for _, comp := range root.ChildElements() {
		if comp.Tag != "Complemento" {
			continue
		}
		for _, hijo := range comp.ChildElements() {
			if hijo.Tag == "TimbreFiscalDigital" {
				return hijo
			}
		}
	}
	return nil
}

// Package pdf genera la representación impresa del CFDI timbrado.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón Social + RFC  │  Serie-Folio + Fecha         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: régimen fiscal / lugar de expedición               │
//	│  RECEPTOR: nombre + RFC + uso CFDI                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Clave | Descripción | P.Unit | Importe       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA / TOTAL + importe con letra        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER SAT: UUID + QR + sellos + cadena original           │
//	└─────────────────────────────────────────────────────────────┘
//
// La representación impresa no tiene valor fiscal por sí misma: un fallo aquí
// nunca invalida el timbrado.
package pdf

import (
	"context"
	"fmt"
	"net/url"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/loboISC/arrendamiento-sub002/internal/domain"
	"github.com/loboISC/arrendamiento-sub002/internal/domain/entity"
	infracfdi "github.com/loboISC/arrendamiento-sub002/internal/infrastructure/cfdi"
	pkgcfdi "github.com/loboISC/arrendamiento-sub002/pkg/cfdi"
)

const urlVerificacionSAT = "https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx"

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// impresora agrupa dígitos al estilo es-MX ($1,160.00) solo para despliegue;
// los montos del XML y la cadena nunca pasan por aquí.
var impresora = message.NewPrinter(language.MustParse("es-MX"))

// MarotoGenerator genera la representación impresa con Maroto v2.
type MarotoGenerator struct{}

func NewMarotoGenerator() *MarotoGenerator { return &MarotoGenerator{} }

// GenerarPDF produce el PDF de una factura timbrada. El documento canónico
// aporta los conceptos; la factura aporta el timbre y los sellos.
func (g *MarotoGenerator) GenerarPDF(_ context.Context, f *entity.Factura, d *infracfdi.Documento) ([]byte, error) {
	if f == nil || d == nil {
		return nil, fmt.Errorf("%w: factura o documento nulo", domain.ErrFalloRender)
	}

	cfg := marotocfg.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("CFDI "+f.Serie+f.Folio, true).
		WithAuthor(d.Emisor.Nombre, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(f, d))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emisorRow(d))
	m.AddRows(receptorRow(d))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range conceptoRows(d.Conceptos) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalesRow(f))
	if letra, err := pkgcfdi.ImporteConLetra(f.Total); err == nil {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New(letra, props.Text{Size: 8, Style: fontstyle.Italic, Color: colorGray, Top: 1}),
		)))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range satFooterRows(f) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFalloRender, err)
	}
	return doc.GetBytes(), nil
}

// URLVerificacion arma la liga de verificación del portal del SAT: UUID,
// RFC emisor, RFC receptor, total y últimos 8 caracteres del sello.
func URLVerificacion(f *entity.Factura) string {
	sello := f.SelloCFD
	if len(sello) > 8 {
		sello = sello[len(sello)-8:]
	}
	q := url.Values{}
	q.Set("id", f.UUID)
	q.Set("re", f.EmisorRFC)
	q.Set("rr", f.ReceptorRFC)
	q.Set("tt", pkgcfdi.FormatoImporte(f.Total))
	q.Set("fe", sello)
	return urlVerificacionSAT + "?" + q.Encode()
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(f *entity.Factura, d *infracfdi.Documento) core.Row {
	folio := f.Serie + "-" + f.Folio
	if f.Serie == "" {
		folio = f.Folio
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(d.Emisor.Nombre, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RFC: "+d.Emisor.RFC, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("FACTURA (CFDI 4.0)", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(folio, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+f.FechaEmision.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func emisorRow(d *infracfdi.Documento) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Régimen fiscal: %s   |   Lugar de expedición: %s",
				d.Emisor.RegimenFiscal, d.LugarExpedicion,
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func receptorRow(d *infracfdi.Documento) core.Row {
	nombre := d.Receptor.Nombre
	if d.OmiteNombreReceptor {
		nombre = "PÚBLICO EN GENERAL"
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nombre, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("RFC: %s   |   CP: %s   |   Uso CFDI: %s",
				d.Receptor.RFC, d.Receptor.CodigoPostal, d.Receptor.UsoCFDI,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Clave", 2, align.Center),
		h("Descripción", 5, align.Left),
		h("P. Unitario", 2, align.Right),
		h("Importe", 2, align.Right),
	)
}

func conceptoRows(conceptos []entity.Concepto) []core.Row {
	result := make([]core.Row, 0, len(conceptos))
	for _, c := range conceptos {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				pkgcfdi.FormatoCantidad(c.Cantidad),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				c.ClaveProdServ,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				c.Descripcion,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				dinero(c.ValorUnitario),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				dinero(c.Importe),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

func totalesRow(f *entity.Factura) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grand := func(s string, esValor bool) core.Component {
		t := props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2}
		if esValor {
			t.Right = 1
		}
		return text.New(s, t)
	}

	return row.New(26).Add(
		col.New(3),
		col.New(3).Add(
			label("Subtotal:"),
			label("IVA trasladado:"),
			grand("TOTAL:", false),
		),
		col.New(3).Add(
			value(dinero(f.SubTotal)),
			value(dinero(f.TotalImpuestos)),
			grand(dinero(f.Total), true),
		),
		col.New(3),
	)
}

// satFooterRows: UUID, sellos truncados, QR de verificación y cadena original.
func satFooterRows(f *entity.Factura) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("TIMBRE FISCAL DIGITAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if f.UUID != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Folio fiscal (UUID): "+f.UUID, props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
		)))
		fecha := ""
		if f.FechaTimbrado != nil {
			fecha = f.FechaTimbrado.Format(pkgcfdi.FormatoFecha)
		}
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("Fecha de timbrado: %s   |   No. certificado SAT: %s",
				fecha, f.NoCertificadoSAT), props.Text{Size: 7, Top: 1, Color: colorGray}),
		)))

		rows = append(rows, row.New(40).Add(
			col.New(4).Add(code.NewQr(URLVerificacion(f), props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(
				text.New("Sello digital del CFDI:", props.Text{Style: fontstyle.Bold, Size: 6.5, Top: 2, Left: 3}),
				text.New(truncar(f.SelloCFD, 90), props.Text{Size: 6, Color: colorGray, Top: 6, Left: 3}),
				text.New("Sello del SAT:", props.Text{Style: fontstyle.Bold, Size: 6.5, Top: 14, Left: 3}),
				text.New(truncar(f.SelloSAT, 90), props.Text{Size: 6, Color: colorGray, Top: 18, Left: 3}),
				text.New("Verifique este comprobante en el portal del SAT\nescaneando el código QR.", props.Text{
					Size: 7, Top: 28, Left: 3, Color: colorGray,
				}),
			),
		))
	}

	if f.CadenaOriginal != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Cadena original del complemento de certificación:", props.Text{
				Style: fontstyle.Bold, Size: 6.5, Top: 1,
			}),
		)))
		for _, chunk := range partir(f.CadenaOriginal, 110) {
			rows = append(rows, row.New(3.5).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 6, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New("Este documento es una representación impresa de un CFDI. "+
			"Conserve el XML como comprobante fiscal.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2}),
	)))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

// dinero formatea un monto para despliegue con separador de miles.
func dinero(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return impresora.Sprintf("$%.2f", f)
}

func truncar(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// partir divide s en trozos de max n caracteres.
func partir(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

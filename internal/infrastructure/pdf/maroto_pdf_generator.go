// Package pdf genera la representación gráfica de una factura emitida por el
// gateway de facturación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + identificación │  Factura + Fecha         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Nombre + identificación + campos extra           │
//	│  PROCESO: uuid + estado + solicitante                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Unidad | Descripción | P.Unit | Importe      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Bruto / Impuestos / TOTAL                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: clave del documento + QR                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopper-invoicing/internal/application/ports"
	"github.com/jhoicas/shopper-invoicing/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

var _ ports.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(
	ctx context.Context,
	doc ports.InvoiceDocument,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	company := doc.Company
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+doc.Request.Invoice.UUID.String(), true).
		WithAuthor(company.FullName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(doc.Request.Invoice.PartnerFiscalData))
	m.AddRows(processRow(doc.Request.Process))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(doc.Request.Invoice.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(doc.Request.Invoice))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(doc)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor + identificación (izq) y factura + fecha (der).
func headerRow(doc ports.InvoiceDocument) core.Row {
	id := doc.Company.PrimaryIdentification()
	inv := doc.Request.Invoice

	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(doc.Company.FullName, "—"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(identificationLabel(id), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(inv.UUID.String(), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+inv.CreatedAt.UTC().Format("02/01/2006 15:04 MST"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// receptorRow: datos del receptor y sus campos extra en el orden recibido.
func receptorRow(partner entity.PartnerFiscalData) core.Row {
	extras := make([]string, 0, len(partner.ExtraFields))
	for _, f := range partner.ExtraFields {
		extras = append(extras, f.Name+": "+f.Value)
	}
	return row.New(18).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(partner.FullName, "—"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(identificationLabel(partner.PrimaryIdentification()), props.Text{
				Size: 8, Top: 11, Color: colorGray,
			}),
			text.New(nonEmpty(strings.Join(extras, "   |   "), "—"), props.Text{
				Size: 8, Top: 15, Color: colorGray,
			}),
		),
	)
}

func processRow(p entity.InvoicingProcess) core.Row {
	return row.New(8).Add(
		col.New(12).Add(
			text.New(fmt.Sprintf("Proceso: %s   |   Estado: %s   |   Solicitante: %s",
				p.UUID, p.ProcessStatus, nonEmpty(p.Requester, "—"),
			), props.Text{Size: 7, Top: 2, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Cant.", 1, align.Center),
		h("Unidad", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Importe", 3, align.Right),
	)
}

// tableDetailRows: una fila por línea de la factura.
func tableDetailRows(lines []entity.InvoiceLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				l.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(1).Add(text.New(
				l.Unit,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				l.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				"$"+FormatMoney(l.AmountE5),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				"$"+FormatMoney(l.TotalAmountE5),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(inv entity.Invoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	taxes := inv.TotalTaxesE5()

	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:"),
			text.New("Impuestos:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 6}),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 12, Color: colorPrimary}),
		),
		col.New(3).Add(
			value("$"+FormatMoney(inv.NetAmountE5()), 0),
			value("$"+FormatMoney(taxes), 6),
			text.New("$"+FormatMoney(inv.GrossAmountE5), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Right: 1, Top: 12,
			}),
		),
	)
}

// footerRows: clave del documento partida + QR.
func footerRows(doc ports.InvoiceDocument) []core.Row {
	rows := []core.Row{}
	if doc.DocumentKey != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Clave del documento:", props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1,
			}),
		)))
		for _, chunk := range splitEvery(doc.DocumentKey, 80) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
		rows = append(rows, row.New(3))
		rows = append(rows, row.New(40).Add(
			col.New(4).Add(code.NewQr(qrData(doc), props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Representación impresa de una factura electrónica.", props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3, Color: colorPrimary,
				}),
			),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func qrData(doc ports.InvoiceDocument) string {
	return fmt.Sprintf("id=%s&re=%s&rr=%s&tt=%s&key=%s",
		doc.Request.Invoice.UUID,
		doc.Company.PrimaryIdentification().Value,
		doc.Request.Invoice.PartnerFiscalData.PrimaryIdentification().Value,
		doc.Request.Invoice.GrossAmountE5.String(),
		doc.DocumentKey,
	)
}

func identificationLabel(f entity.KeyValueField) string {
	if f.Name == "" && f.Value == "" {
		return "—"
	}
	return strings.ToUpper(f.Name) + ": " + f.Value
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// FormatMoney representa un monto e5 con dos decimales y comas de miles.
// Ej: 11600000000 → "116,000.00", -150000 → "-1.50"
func FormatMoney(a entity.AmountE5) string {
	s := decimal.New(a.Int64(), -5).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "." + frac
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
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

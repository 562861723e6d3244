// Package pdf genera los documentos imprimibles del ledger con Maroto v2:
// hojas de etiquetas con código de barras y manifiestos de traslado.
//
// Layout del manifiesto (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: MANIFIESTO DE TRASLADO  │  N° Traslado + Estado     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORIGEN / DESTINO, Enviado / Recibido                       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Lote | Enviado | Recibido | Dif.    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES + firmas                                            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

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

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa inventory.LabelRenderer e inventory.ManifestRenderer usando Maroto v2.
type MarotoPDFGenerator struct {
	author string
}

var (
	_ inventory.LabelRenderer    = (*MarotoPDFGenerator)(nil)
	_ inventory.ManifestRenderer = (*MarotoPDFGenerator)(nil)
)

// NewMarotoPDFGenerator construye el generador. author queda en los metadatos del PDF.
func NewMarotoPDFGenerator(author string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{author: author}
}

func (g *MarotoPDFGenerator) newDocument(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(nonEmpty(g.author, "inventario-ledger"), true).
		Build()
	return maroto.New(cfg)
}

// RenderLabels genera una hoja de etiquetas: dos por fila, cada una con su código de barras Code128.
func (g *MarotoPDFGenerator) RenderLabels(ctx context.Context, labels []inventory.Label) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: sin etiquetas", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := g.newDocument("Etiquetas de góndola")
	for i := 0; i < len(labels); i += 2 {
		cols := []core.Col{labelCol(labels[i])}
		if i+1 < len(labels) {
			cols = append(cols, labelCol(labels[i+1]))
		} else {
			cols = append(cols, col.New(6))
		}
		m.AddRows(row.New(42).Add(cols...))
		m.AddRows(line.NewRow(2, props.Line{Color: colorGray, Thickness: 0.2}))
	}
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar etiquetas: %w", err)
	}
	return doc.GetBytes(), nil
}

// labelCol: nombre + SKU, código de barras y pie con ubicación, lote y vencimiento.
func labelCol(l inventory.Label) core.Col {
	footer := "Ubic: " + nonEmpty(l.LocationCode, "—")
	if l.BatchCode != "" {
		footer += "   Lote: " + l.BatchCode
	}
	if l.ExpiryDate != nil {
		footer += "   Vence: " + l.ExpiryDate.Format("02/01/2006")
	}
	return col.New(6).Add(
		text.New(nonEmpty(l.ProductName, l.SKU), props.Text{
			Style: fontstyle.Bold, Size: 9, Top: 1, Left: 2,
		}),
		text.New(l.SKU+"  ·  "+l.StoreCode, props.Text{
			Size: 7, Top: 6, Left: 2, Color: colorGray,
		}),
		code.NewBar(l.Barcode, props.Barcode{
			Top: 11, Percent: 80, Proportion: props.Proportion{Width: 20, Height: 4}, Center: true,
		}),
		text.New(l.Barcode, props.Text{
			Size: 7, Top: 33, Align: align.Center,
		}),
		text.New(footer, props.Text{
			Size: 6.5, Top: 37, Left: 2, Color: colorGray,
		}),
	)
}

// RenderManifest genera el manifiesto que acompaña la mercancía de un traslado.
func (g *MarotoPDFGenerator) RenderManifest(ctx context.Context, mf inventory.Manifest) ([]byte, error) {
	if mf.Number == "" {
		return nil, fmt.Errorf("%w: manifiesto sin número", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := g.newDocument("Manifiesto " + mf.Number)

	m.AddRows(manifestHeaderRow(mf))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(routeRow(mf))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(manifestTableHeaderRow())
	for _, r := range manifestDetailRows(mf.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(manifestTotalsRow(mf.Lines))
	m.AddRows(row.New(12))
	m.AddRows(signaturesRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar manifiesto: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func manifestHeaderRow(mf inventory.Manifest) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("MANIFIESTO DE TRASLADO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
		),
		col.New(5).Add(
			text.New(mf.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Estado: "+string(mf.Status), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func routeRow(mf inventory.Manifest) core.Row {
	return row.New(14).Add(
		col.New(6).Add(
			text.New("ORIGEN / DESTINO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(mf.FromStore+"  ->  "+mf.ToStore, props.Text{
				Size: 9, Top: 7,
			}),
		),
		col.New(6).Add(
			text.New("Enviado: "+formatDate(mf.SentAt), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New("Recibido: "+formatDate(mf.ReceivedAt), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
		),
	)
}

func manifestTableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Lote", 2, align.Left),
		h("Enviado", 1, align.Right),
		h("Recibido", 2, align.Right),
		h("Dif.", 1, align.Right),
	)
}

// manifestDetailRows: una fila por ítem; las diferencias se resaltan en rojo.
func manifestDetailRows(lines []inventory.ManifestLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		diff := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if l.MismatchQuantity != 0 {
			diff.Color = colorAlert
			diff.Style = fontstyle.Bold
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(l.SKU, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(l.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(nonEmpty(l.BatchCode, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(formatQty(l.QuantitySent), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatQty(l.QuantityReceived), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatQty(l.MismatchQuantity), diff)),
		))
	}
	return result
}

func manifestTotalsRow(lines []inventory.ManifestLine) core.Row {
	var sent, received, mismatch int64
	for _, l := range lines {
		sent += l.QuantitySent
		received += l.QuantityReceived
		mismatch += l.MismatchQuantity
	}
	bold := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Top: 1})
	}
	return row.New(8).Add(
		col.New(8).Add(bold("TOTALES:")),
		col.New(1).Add(bold(formatQty(sent))),
		col.New(2).Add(bold(formatQty(received))),
		col.New(1).Add(bold(formatQty(mismatch))),
	)
}

func signaturesRow() core.Row {
	sig := func(label string) core.Col {
		return col.New(6).Add(
			text.New("______________________________", props.Text{Size: 8, Align: align.Center}),
			text.New(label, props.Text{Size: 8, Align: align.Center, Top: 5, Color: colorGray}),
		)
	}
	return row.New(12).Add(sig("Despacha"), sig("Recibe"))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("02/01/2006 15:04")
}

// formatQty inserta puntos de miles. Ej: 25000 → "25.000", -1200 → "-1.200"
func formatQty(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}

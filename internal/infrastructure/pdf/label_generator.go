// Package pdf imprime las etiquetas de unidades con Maroto v2.
//
// Una página por unidad, del tamaño de la etiqueta:
//
//	┌──────────────────────────────┐
//	│  CLIENTE            Carga N  │
//	│  SKU · Producto              │
//	│  Remisión                    │
//	│  ║║│║║│║│║║│║║│║║│║│║║│║║    │
//	│  CL1CG7...                   │
//	│  Unidad i de n               │
//	└──────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/logistica-api/internal/application/loads"
	"github.com/jhoicas/logistica-api/internal/domain/entity"
)

var _ loads.LabelRenderer = (*LabelGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

const (
	margin = 3.0
	// altura de referencia del contenido en mm; se escala a la etiqueta real.
	contentHeight = 61.0
)

// LabelGenerator implementa loads.LabelRenderer.
type LabelGenerator struct {
	widthMM, heightMM float64
}

// NewLabelGenerator etiquetas de widthMM x heightMM.
func NewLabelGenerator(widthMM, heightMM float64) *LabelGenerator {
	return &LabelGenerator{widthMM: widthMM, heightMM: heightMM}
}

// RenderLabels un PDF con una página por unidad, en el orden recibido.
func (g *LabelGenerator) RenderLabels(ctx context.Context, load *entity.Load, client *entity.Client, units []*entity.Unit) ([]byte, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("pdf: carga %d sin unidades", load.ID)
	}
	cfg := config.NewBuilder().
		WithDimensions(g.widthMM, g.heightMM).
		WithLeftMargin(margin).WithRightMargin(margin).
		WithTopMargin(margin).WithBottomMargin(margin).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(fmt.Sprintf("Etiquetas carga %d", load.ID), true).
		WithAuthor(client.Name, true).
		Build()

	m := maroto.New(cfg)
	scale := g.scale()
	for i, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.AddPages(page.New().Add(labelRows(load, client, u, i+1, len(units), scale)...))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar etiquetas: %w", err)
	}
	return doc.GetBytes(), nil
}

// scale reduce las filas si la etiqueta es más baja que el contenido de referencia.
func (g *LabelGenerator) scale() float64 {
	usable := g.heightMM - 2*margin
	if usable >= contentHeight {
		return 1
	}
	return usable / contentHeight
}

func labelRows(load *entity.Load, client *entity.Client, u *entity.Unit, n, total int, s float64) []core.Row {
	return []core.Row{
		row.New(8*s).Add(
			col.New(8).Add(text.New(client.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Color: colorPrimary,
			})),
			col.New(4).Add(text.New(fmt.Sprintf("Carga %d", load.ID), props.Text{
				Size: 8, Align: align.Right, Color: colorGray,
			})),
		),
		text.NewRow(6*s, u.ProductSKU+" · "+u.ProductName, props.Text{Size: 8}),
		text.NewRow(6*s, "Remisión: "+load.Remision, props.Text{Size: 7, Color: colorGray}),
		code.NewBarRow(30*s, u.Barcode, props.Barcode{Percent: 95, Center: true}),
		text.NewRow(6*s, u.Barcode, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Center, Top: 1,
		}),
		text.NewRow(5*s, fmt.Sprintf("Unidad %d de %d", n, total), props.Text{
			Size: 7, Align: align.Right, Color: colorGray,
		}),
	}
}

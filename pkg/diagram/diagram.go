// Package diagram renders one-line diagram geometry to an image file.
// It consumes placed NodeGeometry and draws nothing it has to compute
// itself; layout decisions all live in pkg/layout.
package diagram

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/panelwise/panelwright/pkg/layout"
	"github.com/panelwise/panelwright/pkg/model"
)

// Symbol half-sizes in diagram units, matching the layout constants.
const (
	symbolHalfWidth  = 35.0
	symbolHalfHeight = 25.0
)

// Export draws the one-line diagram to filename. The format follows the
// extension (.png, .svg, .pdf); anything else falls back to PNG.
func Export(geos []layout.NodeGeometry, title, filename string) error {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	// Y grows downward in layout coordinates; invert the plot axis so the
	// service entrance renders at the top.
	minY, maxY := bounds(geos)
	p.Y.Min = maxY + 60
	p.Y.Max = minY - 60

	busColor := color.RGBA{R: 70, G: 70, B: 70, A: 255}

	for _, g := range geos {
		if g.NodeID == layout.MeterNodeID {
			if err := addMeter(p, g); err != nil {
				return err
			}
			continue
		}
		if err := addSymbol(p, g); err != nil {
			return err
		}
		if g.BusBar == nil {
			continue
		}
		if g.BusBar.Bus != nil {
			if err := addSegment(p, *g.BusBar.Bus, vg.Points(2.5), busColor); err != nil {
				return err
			}
		}
		for _, d := range g.BusBar.Drops {
			if err := addSegment(p, d, vg.Points(1.5), busColor); err != nil {
				return err
			}
		}
	}

	if err := addLabels(p, geos); err != nil {
		return err
	}

	width := 10 * vg.Inch
	height := 7 * vg.Inch

	// Create directory if needed
	dir := filepath.Dir(filename)
	if dir != "" && dir != "." {
		os.MkdirAll(dir, 0o755)
	}

	switch filepath.Ext(filename) {
	case ".png", ".svg", ".pdf":
		return p.Save(width, height, filename)
	default:
		return p.Save(width, height, filename+".png")
	}
}

// addSymbol draws the rectangle outline for one node, colored by kind.
func addSymbol(p *plot.Plot, g layout.NodeGeometry) error {
	outline := plotter.XYs{
		{X: g.X - symbolHalfWidth, Y: g.Y - symbolHalfHeight},
		{X: g.X + symbolHalfWidth, Y: g.Y - symbolHalfHeight},
		{X: g.X + symbolHalfWidth, Y: g.Y + symbolHalfHeight},
		{X: g.X - symbolHalfWidth, Y: g.Y + symbolHalfHeight},
		{X: g.X - symbolHalfWidth, Y: g.Y - symbolHalfHeight},
	}
	line, err := plotter.NewLine(outline)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = symbolColor(g.Kind)
	p.Add(line)
	return nil
}

// addMeter draws the meter as a circle glyph on the service drop.
func addMeter(p *plot.Plot, g layout.NodeGeometry) error {
	meter, err := plotter.NewScatter(plotter.XYs{{X: g.X, Y: g.Y}})
	if err != nil {
		return err
	}
	meter.GlyphStyle.Color = color.Black
	meter.GlyphStyle.Radius = vg.Points(10)
	meter.GlyphStyle.Shape = draw.RingGlyph{}
	p.Add(meter)
	return nil
}

func addSegment(p *plot.Plot, s layout.Segment, width vg.Length, c color.Color) error {
	line, err := plotter.NewLine(plotter.XYs{
		{X: s.X1, Y: s.Y1},
		{X: s.X2, Y: s.Y2},
	})
	if err != nil {
		return err
	}
	line.LineStyle.Width = width
	line.LineStyle.Color = c
	p.Add(line)
	return nil
}

func addLabels(p *plot.Plot, geos []layout.NodeGeometry) error {
	var xys []plotter.XY
	var texts []string
	for _, g := range geos {
		if g.NodeID == layout.MeterNodeID {
			continue
		}
		xys = append(xys, plotter.XY{X: g.X, Y: g.Y})
		texts = append(texts, g.Name)
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return fmt.Errorf("diagram labels: %w", err)
	}
	p.Add(labels)
	return nil
}

func symbolColor(kind model.SourceKind) color.Color {
	switch kind {
	case model.SourceService:
		return color.RGBA{R: 0, G: 0, B: 139, A: 255}
	case model.SourceTransformer:
		return color.RGBA{R: 178, G: 34, B: 34, A: 255}
	default:
		return color.Black
	}
}

func bounds(geos []layout.NodeGeometry) (minY, maxY float64) {
	for i, g := range geos {
		if i == 0 || g.Y < minY {
			minY = g.Y
		}
		if i == 0 || g.Y > maxY {
			maxY = g.Y
		}
	}
	return minY, maxY
}

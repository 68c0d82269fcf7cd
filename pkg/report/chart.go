package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// BarChart renders ranked importances as a vertical bar chart. The image
// format follows the file extension (png, svg, pdf, jpg, ...).
type BarChart struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

// NewBarChart returns a chart sized for a few dozen features.
func NewBarChart() *BarChart {
	return &BarChart{
		Title:  "Feature importance",
		Width:  10 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

// Render draws ranked to path. Scores are shown as percentages.
func (c *BarChart) Render(ranked []Importance, path string) error {
	if len(ranked) == 0 {
		return fmt.Errorf("%w: %s: nothing to chart", ErrRender, path)
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.Y.Label.Text = "Importance (%)"
	p.Y.Min = 0

	values := make(plotter.Values, len(ranked))
	names := make([]string, len(ranked))
	for i, imp := range ranked {
		values[i] = imp.Score * 100
		names[i] = imp.Name
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRender, path, err)
	}
	bars.Color = color.RGBA{R: 50, G: 90, B: 200, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrRender, path, err)
		}
	}
	if err := p.Save(c.Width, c.Height, path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRender, path, err)
	}
	return nil
}

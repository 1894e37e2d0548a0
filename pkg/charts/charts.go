// Package charts renders the report figures with gonum/plot. Every
// function is a pure mapping from data to a PNG file; nothing here touches
// the dataset.
package charts

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Scale pins an axis so comparable panels share identical ranges and tick
// marks. Shared scaling across comparable plots is a correctness property
// of the report, not styling.
type Scale struct {
	Min, Max float64
	Ticks    []float64
}

func (s *Scale) apply(a *plot.Axis) {
	if s == nil {
		return
	}
	a.Min, a.Max = s.Min, s.Max
	if len(s.Ticks) > 0 {
		ticks := make([]plot.Tick, len(s.Ticks))
		for i, v := range s.Ticks {
			ticks[i] = plot.Tick{Value: v, Label: fmt.Sprintf("%g", v)}
		}
		a.Tick.Marker = plot.ConstantTicks(ticks)
	}
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// Histogram renders values into fixed-width bins.
func Histogram(values []float64, bins int, title, xlabel, path string, x *Scale) error {
	p := newPlot(title, xlabel, "count")
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return fmt.Errorf("histogram %q: %w", title, err)
	}
	p.Add(h)
	x.apply(&p.X)
	return save(p, 6, 4, path)
}

// BoxPlot renders a single boxplot of values.
func BoxPlot(values []float64, title, ylabel, path string, y *Scale) error {
	p := newPlot(title, "", ylabel)
	b, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(values))
	if err != nil {
		return fmt.Errorf("boxplot %q: %w", title, err)
	}
	p.Add(b)
	p.NominalX("")
	y.apply(&p.Y)
	return save(p, 3, 4, path)
}

// GroupedBox renders one boxplot per level, in level order, on a shared
// vertical scale.
func GroupedBox(groups [][]float64, levels []string, title, ylabel, path string, y *Scale) error {
	if len(groups) != len(levels) {
		return fmt.Errorf("grouped box %q: %d groups for %d levels", title, len(groups), len(levels))
	}
	p := newPlot(title, "", ylabel)
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(25), float64(i), plotter.Values(g))
		if err != nil {
			return fmt.Errorf("grouped box %q, level %q: %w", title, levels[i], err)
		}
		p.Add(b)
	}
	p.NominalX(levels...)
	y.apply(&p.Y)
	return save(p, 6, 4, path)
}

// BarChart renders categorical frequencies in level order.
func BarChart(counts []float64, levels []string, title, ylabel, path string) error {
	p := newPlot(title, "", ylabel)
	bars, err := plotter.NewBarChart(plotter.Values(counts), vg.Points(25))
	if err != nil {
		return fmt.Errorf("bar chart %q: %w", title, err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(levels...)
	return save(p, 6, 4, path)
}

// ScatterTrend renders y against x with the least-squares line
// alpha + beta*x laid over the points.
func ScatterTrend(x, y []float64, alpha, beta float64, title, xlabel, ylabel, path string) error {
	if len(x) != len(y) {
		return fmt.Errorf("scatter %q: %d x values for %d y values", title, len(x), len(y))
	}
	p := newPlot(title, xlabel, ylabel)
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X, pts[i].Y = x[i], y[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter %q: %w", title, err)
	}
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)

	trend := plotter.NewFunction(func(v float64) float64 { return alpha + beta*v })
	trend.Width = vg.Points(1.5)
	p.Add(trend)
	return save(p, 6, 4, path)
}

// QQPlot renders observed against theoretical quantiles with the identity
// reference line.
func QQPlot(theoretical, observed []float64, title, path string) error {
	if len(theoretical) != len(observed) {
		return fmt.Errorf("qq plot %q: %d theoretical for %d observed", title, len(theoretical), len(observed))
	}
	p := newPlot(title, "theoretical quantiles", "sample quantiles")
	pts := make(plotter.XYs, len(theoretical))
	for i := range theoretical {
		pts[i].X, pts[i].Y = theoretical[i], observed[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("qq plot %q: %w", title, err)
	}
	s.GlyphStyle.Radius = vg.Points(2)
	p.Add(s)

	ident := plotter.NewFunction(func(v float64) float64 { return v })
	ident.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(ident)
	return save(p, 5, 5, path)
}

// Facet is one panel of a faceted grid: a set of boxplot groups under a
// panel title.
type Facet struct {
	Title  string
	Groups [][]float64
	Levels []string
}

// FacetedBox renders the facets as a rows x cols grid of grouped boxplots
// sharing the vertical scale, written as a single PNG.
func FacetedBox(facets []Facet, rows, cols int, ylabel, path string, y *Scale) error {
	if rows*cols < len(facets) {
		return fmt.Errorf("faceted box: %d facets do not fit a %dx%d grid", len(facets), rows, cols)
	}
	plots := make([][]*plot.Plot, rows)
	idx := 0
	for r := 0; r < rows; r++ {
		plots[r] = make([]*plot.Plot, cols)
		for c := 0; c < cols; c++ {
			if idx >= len(facets) {
				continue
			}
			f := facets[idx]
			idx++
			p := newPlot(f.Title, "", ylabel)
			for i, g := range f.Groups {
				if len(g) == 0 {
					continue
				}
				b, err := plotter.NewBoxPlot(vg.Points(18), float64(i), plotter.Values(g))
				if err != nil {
					return fmt.Errorf("faceted box, panel %q level %q: %w", f.Title, f.Levels[i], err)
				}
				p.Add(b)
			}
			p.NominalX(f.Levels...)
			y.apply(&p.Y)
			plots[r][c] = p
		}
	}

	img := vgimg.New(vg.Points(280*float64(cols)), vg.Points(220*float64(rows)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Millimeter, PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if plots[r][c] != nil {
				plots[r][c].Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("faceted box: %w", err)
	}
	defer f.Close()
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("faceted box: %w", err)
	}
	return nil
}

func save(p *plot.Plot, w, h float64, path string) error {
	if err := p.Save(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

package render

import (
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/exodash/exodash/internal/aggregate"
	"github.com/exodash/exodash/internal/classify"
)

// PNG export dimensions.
const (
	PNGWidth   = 800
	PNGHeight  = 600
	PiePNGSize = 600
)

// pointStyle renders points only, without connecting lines.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    col,
	}
}

// WritePiePNG draws the category pie as PNG. Slice labels carry the share
// of the charted planets.
func WritePiePNG(w io.Writer, s aggregate.Summary) error {
	if len(s.Chart) == 0 {
		return ErrEmptyChart
	}

	values := make([]chart.Value, 0, len(s.Chart))
	for _, e := range s.Chart {
		values = append(values, chart.Value{
			Value: float64(e.Count),
			Label: e.Label + " " + e.ShareLabel(),
			Style: chart.Style{FillColor: drawing.ColorFromHex(colorFor(e.Category)[1:])},
		})
	}

	pie := chart.PieChart{
		Title:  PieTitle(s.Method),
		Width:  PiePNGSize,
		Height: PiePNGSize,
		Values: values,
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return renderError(err, "pie", "png")
	}
	return nil
}

// WriteScatterPNG draws the orbit/radius scatter as PNG.
func WriteScatterPNG(w io.Writer, category classify.Category, points []aggregate.Point) error {
	if len(points) == 0 {
		return ErrEmptyChart
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.OrbitSemiMajorAxis
		ys[i] = p.Radius
	}
	if len(points) == 1 {
		// go-chart needs two values per series; the duplicate draws on top.
		xs = append(xs, xs[0])
		ys = append(ys, ys[0])
	}

	graph := chart.Chart{
		Title:      ScatterTitle(category),
		Width:      PNGWidth,
		Height:     PNGHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Orbit semi-major axis (au)",
			Range: paddedRange(xs),
		},
		YAxis: chart.YAxis{
			Name:  "Radius (Earth radii)",
			Range: paddedRange(ys),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    category.Label(),
				XValues: xs,
				YValues: ys,
				Style:   pointStyle(drawing.ColorFromHex(colorFor(category)[1:])),
			},
		},
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return renderError(err, "scatter", "png")
	}
	return nil
}

// paddedRange spans values with a margin. A single value or identical
// values still get a non-zero range.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	lo -= pad
	if lo < 0 && !anyNegative(values) {
		lo = 0
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + pad}
}

func anyNegative(values []float64) bool {
	for _, v := range values {
		if v < 0 {
			return true
		}
	}
	return false
}

// Package render draws the dashboard charts. Interactive charts use
// go-echarts; PNG exports use go-chart.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/exodash/exodash/internal/aggregate"
	"github.com/exodash/exodash/internal/classify"
	"github.com/exodash/exodash/internal/errors"
)

// ErrEmptyChart is returned when there is nothing to draw.
var ErrEmptyChart = errors.NewStd("no data to chart")

// categoryColors are shared by the HTML and PNG charts.
var categoryColors = map[classify.Category]string{
	classify.GasGiant:    "#e07b39",
	classify.IceGiant:    "#4a90d9",
	classify.SuperEarth:  "#5cb85c",
	classify.Terrestrial: "#a0522d",
}

func colorFor(c classify.Category) string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return "#999999"
}

func boolPtr(b bool) *bool { return &b }

// PieTitle is the chart title for a method.
func PieTitle(method string) string {
	return fmt.Sprintf("Planet categories (%s)", method)
}

// NewPie builds the category pie for s. Unclassified planets are not shown.
func NewPie(s aggregate.Summary) (*charts.Pie, error) {
	if len(s.Chart) == 0 {
		return nil, ErrEmptyChart
	}

	data := make([]opts.PieData, 0, len(s.Chart))
	for _, e := range s.Chart {
		data = append(data, opts.PieData{
			Name:      e.Label,
			Value:     e.Count,
			ItemStyle: &opts.ItemStyle{Color: colorFor(e.Category)},
		})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "420px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    PieTitle(s.Method),
			Subtitle: fmt.Sprintf("%d planets charted, %d total", s.ChartTotal(), s.Total),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Formatter: "{b}: {c} ({d}%)"}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true), Bottom: "0"}),
	)
	pie.AddSeries("Planets", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      boolPtr(true),
				Formatter: "{b}: {d}%",
			}),
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"0%", "65%"},
			}),
		)
	return pie, nil
}

// NewScatter builds the orbit/radius scatter for one category.
func NewScatter(category classify.Category, points []aggregate.Point) (*charts.Scatter, error) {
	if len(points) == 0 {
		return nil, ErrEmptyChart
	}

	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.ScatterData{
			Name:       p.Name,
			Value:      []float64{p.OrbitSemiMajorAxis, p.Radius},
			SymbolSize: 6,
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "480px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    ScatterTitle(category),
			Subtitle: fmt.Sprintf("%d planets", len(points)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Formatter: "{b}"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Orbit semi-major axis (au)",
			Type: "value",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Radius (Earth radii)",
			Type: "value",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	scatter.AddSeries(category.Label(), data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorFor(category)}),
	)
	return scatter, nil
}

// ScatterTitle is the chart title for a category.
func ScatterTitle(category classify.Category) string {
	return category.Label() + ": orbit vs radius"
}

// WritePieHTML writes a standalone HTML page with the pie chart.
func WritePieHTML(w io.Writer, s aggregate.Summary) error {
	pie, err := NewPie(s)
	if err != nil {
		return err
	}
	if err := pie.Render(w); err != nil {
		return renderError(err, "pie", "html")
	}
	return nil
}

// WriteScatterHTML writes a standalone HTML page with the scatter chart.
func WriteScatterHTML(w io.Writer, category classify.Category, points []aggregate.Point) error {
	scatter, err := NewScatter(category, points)
	if err != nil {
		return err
	}
	if err := scatter.Render(w); err != nil {
		return renderError(err, "scatter", "html")
	}
	return nil
}

// PieSnippet renders the pie as an element and script pair for embedding
// in the dashboard page.
func PieSnippet(s aggregate.Summary) (template.HTML, error) {
	pie, err := NewPie(s)
	if err != nil {
		return "", err
	}

	snippet := pie.RenderSnippet()
	tmpl := template.Must(template.New("snippet").Parse(`{{.Element}} {{.Script}}`))

	data := struct {
		Element template.HTML
		Script  template.HTML
	}{
		Element: template.HTML(snippet.Element), //nolint:gosec // generated by go-echarts
		Script:  template.HTML(snippet.Script),  //nolint:gosec // generated by go-echarts
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", renderError(err, "pie", "snippet")
	}
	return template.HTML(buf.String()), nil //nolint:gosec // assembled from trusted snippet parts
}

func renderError(err error, chart, format string) error {
	return errors.New(err).
		Category(errors.CategoryRender).
		Context("chart", chart).
		Context("format", format).
		Build()
}

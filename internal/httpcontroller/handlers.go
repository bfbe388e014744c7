package httpcontroller

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/exodash/exodash/internal/aggregate"
	"github.com/exodash/exodash/internal/archive"
	"github.com/exodash/exodash/internal/classify"
	"github.com/exodash/exodash/internal/dataset"
	"github.com/exodash/exodash/internal/errors"
	"github.com/exodash/exodash/internal/fileutil"
	"github.com/exodash/exodash/internal/observability/metrics"
	"github.com/exodash/exodash/internal/render"
)

const defaultTitle = "Exoplanet dashboard"

// PageData is the dashboard view model.
type PageData struct {
	Title   string
	Method  string
	Methods []string
	Summary aggregate.Summary
	Metrics []aggregate.Entry // summary order, zero counts before unclassified
	Rules   []string
	Chart   template.HTML
	Image   string // URL of the method image, empty when none exists
	Source  string
	ModTime time.Time
	Records int

	Category classify.Category   // scatter view selection
	Plotted  []classify.Category // categories the scatter view accepts
	Planet   string
	Column   string
	Columns  []string
	Lookup   *planetLookup // nil when no planet was asked for
}

// planetLookup is the result of the page's lookup form.
type planetLookup struct {
	Name    string
	Found   bool
	Fields  []dataset.FieldValue
	Message string
}

// overviewColumns are shown when the lookup form names no column.
var overviewColumns = []string{
	dataset.ColName,
	dataset.ColHostName,
	dataset.ColMethod,
	dataset.ColCategory,
	dataset.ColRadius,
	dataset.ColMassEarth,
	dataset.ColOrbitSMA,
	dataset.ColEqTemp,
}

// lookupResponse is the body of a planet lookup. Planet is omitted on a miss.
type lookupResponse struct {
	Name   string          `json:"name"`
	Found  bool            `json:"found"`
	Planet *dataset.Record `json:"planet,omitempty"`
}

type scatterResponse struct {
	Category classify.Category `json:"category"`
	Label    string            `json:"label"`
	Points   []aggregate.Point `json:"points"`
}

type refreshResponse struct {
	Message string         `json:"message"`
	Result  archive.Result `json:"result"`
}

type statusResponse struct {
	Source    string         `json:"source"`
	ModTime   time.Time      `json:"mod_time"`
	LoadedAt  time.Time      `json:"loaded_at"`
	Records   int            `json:"records"`
	Skipped   int            `json:"skipped_rows"`
	Methods   int            `json:"methods"`
	LastFetch archive.Result `json:"last_fetch"`
}

// methodParam returns the method query parameter, "All" when absent.
func methodParam(c echo.Context) string {
	if m := strings.TrimSpace(c.QueryParam("method")); m != "" {
		return m
	}
	return dataset.AllMethods
}

// categoryParam parses the category query parameter.
func categoryParam(c echo.Context) (classify.Category, error) {
	raw := strings.TrimSpace(c.QueryParam("category"))
	cat, ok := classify.Parse(raw)
	if !ok {
		return "", errors.Newf("unknown category %q", raw).
			Category(errors.CategoryValidation).
			Context("category", raw).
			Build()
	}
	return cat, nil
}

// planetParam returns the unescaped planet name from the path.
func planetParam(c echo.Context) string {
	name := c.Param("name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

// fileToken turns a method or category into a file name component.
func fileToken(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, s)
}

func attachment(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
}

// renderChart renders into a buffer and records render metrics. Empty
// charts are not counted.
func (s *Server) renderChart(chart, format string, draw func(*bytes.Buffer) error) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	start := time.Now()
	err := draw(&buf)
	if errors.Is(err, render.ErrEmptyChart) {
		return nil, err
	}
	s.httpMetrics().RecordChartRender(chart, format, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &buf, nil
}

func (s *Server) chartError(c echo.Context, err error) error {
	if errors.Is(err, render.ErrEmptyChart) {
		return s.HandleError(c, err, "No planets to plot", http.StatusNotFound)
	}
	return s.HandleError(c, err, "Failed to render chart", http.StatusInternalServerError)
}

// methodImage returns the URL of images/<method>.png if the file exists.
func (s *Server) methodImage(method string) string {
	dir := s.Settings.WebServer.ImagesDir
	if dir == "" || strings.ContainsAny(method, `/\`) {
		return ""
	}
	file := method + ".png"
	if !fileutil.Exists(filepath.Join(dir, file)) {
		return ""
	}
	return "/images/" + url.PathEscape(file)
}

// dashboardHandler renders the dashboard page for the selected method.
func (s *Server) dashboardHandler(c echo.Context) error {
	method := methodParam(c)
	summary, snap, err := s.Dashboard.Summary(c.Request().Context(), method)
	if err != nil {
		return s.HandleError(c, err, "Failed to load dashboard", statusForError(err))
	}

	start := time.Now()
	snippet, err := render.PieSnippet(summary)
	switch {
	case errors.Is(err, render.ErrEmptyChart):
		snippet = ""
	case err != nil:
		s.httpMetrics().RecordChartRender("pie", "html", time.Since(start), err)
		return s.chartError(c, err)
	default:
		s.httpMetrics().RecordChartRender("pie", "html", time.Since(start), nil)
	}

	title := s.Settings.Main.Name
	if title == "" {
		title = defaultTitle
	}

	data := PageData{
		Title:   title,
		Method:  method,
		Methods: snap.Methods(),
		Summary: summary,
		Metrics: pageMetrics(summary),
		Rules:   classify.Rules(),
		Chart:   snippet,
		Image:   s.methodImage(method),
		Source:  filepath.Base(snap.Source()),
		ModTime: snap.ModTime(),
		Records: snap.Len(),

		Category: pageCategory(c.QueryParam("category"), summary),
		Plotted:  plottedCategories(),
		Planet:   strings.TrimSpace(c.QueryParam("planet")),
		Column:   strings.TrimSpace(c.QueryParam("column")),
		Columns:  lookupColumns(snap),
	}
	data.Lookup = lookupPlanet(snap, data.Planet, data.Column)
	return c.Render(http.StatusOK, "dashboard", data)
}

// pageMetrics lists the summary entries in their aggregate order. Categories
// without planets follow in category order, and unclassified stays last.
func pageMetrics(summary aggregate.Summary) []aggregate.Entry {
	entries := make([]aggregate.Entry, 0, len(classify.Categories))
	unclassified := aggregate.Entry{Category: classify.Unclassified, Label: classify.Unclassified.Label()}
	for _, e := range summary.Entries {
		if e.Category == classify.Unclassified {
			unclassified = e
			continue
		}
		entries = append(entries, e)
	}
	for _, cat := range classify.Categories {
		if cat == classify.Unclassified || summary.Count(cat) > 0 {
			continue
		}
		entries = append(entries, aggregate.Entry{Category: cat, Label: cat.Label()})
	}
	return append(entries, unclassified)
}

// pageCategory picks the scatter category: the requested one when it can be
// plotted, else the largest category in the chart.
func pageCategory(raw string, summary aggregate.Summary) classify.Category {
	if cat, ok := classify.Parse(strings.TrimSpace(raw)); ok && cat != classify.Unclassified {
		return cat
	}
	if len(summary.Chart) > 0 {
		return summary.Chart[0].Category
	}
	return classify.GasGiant
}

func plottedCategories() []classify.Category {
	cats := make([]classify.Category, 0, len(classify.Categories)-1)
	for _, cat := range classify.Categories {
		if cat != classify.Unclassified {
			cats = append(cats, cat)
		}
	}
	return cats
}

// lookupColumns lists the typed columns followed by the remaining table
// header columns.
func lookupColumns(snap *dataset.Snapshot) []string {
	cols := dataset.KnownFields()
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		seen[col] = true
	}
	for _, col := range snap.Header() {
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	return cols
}

// lookupPlanet resolves the page's lookup form. A miss or an unknown column
// becomes a message on the page rather than an error status.
func lookupPlanet(snap *dataset.Snapshot, name, column string) *planetLookup {
	if name == "" {
		return nil
	}
	rec, ok := snap.Lookup(name)
	if !ok {
		return &planetLookup{Name: name, Message: fmt.Sprintf("No planet named %q in the archive table.", name)}
	}

	result := &planetLookup{Name: rec.Name, Found: true}
	columns := overviewColumns
	if column != "" {
		columns = []string{column}
	}
	for _, col := range columns {
		field, err := snap.Field(rec, col)
		if err != nil {
			result.Message = fmt.Sprintf("Unknown column %q.", col)
			continue
		}
		result.Fields = append(result.Fields, field)
	}
	return result
}

func (s *Server) methodsHandler(c echo.Context) error {
	snap, err := s.Dashboard.Snapshot(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to load snapshot", statusForError(err))
	}
	return c.JSON(http.StatusOK, map[string][]string{"methods": snap.Methods()})
}

func (s *Server) summaryHandler(c echo.Context) error {
	summary, _, err := s.Dashboard.Summary(c.Request().Context(), methodParam(c))
	if err != nil {
		return s.HandleError(c, err, "Failed to summarize planets", statusForError(err))
	}
	return c.JSON(http.StatusOK, summary)
}

// planetHandler looks a planet up by name, case-insensitively. A miss is a
// 404 carrying the queried name.
func (s *Server) planetHandler(c echo.Context) error {
	snap, err := s.Dashboard.Snapshot(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to load snapshot", statusForError(err))
	}

	name := planetParam(c)
	rec, ok := snap.Lookup(name)
	if !ok {
		return c.JSON(http.StatusNotFound, lookupResponse{Name: name})
	}
	return c.JSON(http.StatusOK, lookupResponse{Name: name, Found: true, Planet: &rec})
}

func (s *Server) planetFieldHandler(c echo.Context) error {
	snap, err := s.Dashboard.Snapshot(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to load snapshot", statusForError(err))
	}

	name := planetParam(c)
	rec, ok := snap.Lookup(name)
	if !ok {
		return s.HandleError(c, nil, "Planet not found: "+name, http.StatusNotFound)
	}
	field, err := snap.Field(rec, c.Param("column"))
	if err != nil {
		return s.HandleError(c, err, "Unknown column", statusForError(err))
	}
	return c.JSON(http.StatusOK, field)
}

// scatterPoints loads the points for the category query parameter.
func (s *Server) scatterPoints(ctx context.Context, c echo.Context) (classify.Category, []aggregate.Point, error) {
	cat, err := categoryParam(c)
	if err != nil {
		return "", nil, err
	}
	snap, err := s.Dashboard.Snapshot(ctx)
	if err != nil {
		return "", nil, err
	}
	points, err := aggregate.Scatter(snap.Records(), cat)
	if err != nil {
		return "", nil, err
	}
	return cat, points, nil
}

func (s *Server) scatterHandler(c echo.Context) error {
	cat, points, err := s.scatterPoints(c.Request().Context(), c)
	if err != nil {
		return s.HandleError(c, err, "Failed to build scatter data", statusForError(err))
	}
	return c.JSON(http.StatusOK, scatterResponse{Category: cat, Label: cat.Label(), Points: points})
}

func (s *Server) scatterChartHandler(c echo.Context) error {
	cat, points, err := s.scatterPoints(c.Request().Context(), c)
	if err != nil {
		return s.HandleError(c, err, "Failed to build scatter data", statusForError(err))
	}
	buf, err := s.renderChart("scatter", "html", func(b *bytes.Buffer) error {
		return render.WriteScatterHTML(b, cat, points)
	})
	if err != nil {
		return s.chartError(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) exportCSVHandler(c echo.Context) error {
	snap, err := s.Dashboard.Snapshot(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to load snapshot", statusForError(err))
	}

	method := methodParam(c)
	if !snap.HasMethod(method) {
		return s.HandleError(c, nil, "Unknown detection method: "+method, http.StatusNotFound)
	}

	var buf bytes.Buffer
	if err := snap.WriteSubset(&buf, method); err != nil {
		return s.HandleError(c, err, "Failed to export CSV", http.StatusInternalServerError)
	}
	attachment(c, "exoplanets_"+fileToken(method)+".csv")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) piePNGHandler(c echo.Context) error {
	method := methodParam(c)
	summary, _, err := s.Dashboard.Summary(c.Request().Context(), method)
	if err != nil {
		return s.HandleError(c, err, "Failed to summarize planets", statusForError(err))
	}
	buf, err := s.renderChart("pie", "png", func(b *bytes.Buffer) error {
		return render.WritePiePNG(b, summary)
	})
	if err != nil {
		return s.chartError(c, err)
	}
	attachment(c, "categories_"+fileToken(method)+".png")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) scatterPNGHandler(c echo.Context) error {
	cat, points, err := s.scatterPoints(c.Request().Context(), c)
	if err != nil {
		return s.HandleError(c, err, "Failed to build scatter data", statusForError(err))
	}
	buf, err := s.renderChart("scatter", "png", func(b *bytes.Buffer) error {
		return render.WriteScatterPNG(b, cat, points)
	})
	if err != nil {
		return s.chartError(c, err)
	}
	attachment(c, "scatter_"+string(cat)+".png")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// refreshHandler downloads the archive table now. A failed download that
// leaves the previous snapshot in place still answers 200 with the status
// message.
func (s *Server) refreshHandler(c echo.Context) error {
	if !s.refreshLimiter.Allow() {
		s.httpMetrics().RecordRefresh(metrics.RefreshLimited)
		return s.HandleError(c, nil, "Refresh rate limit exceeded", http.StatusTooManyRequests)
	}

	// A dropped client must not abort a refresh other callers share.
	ctx := context.WithoutCancel(c.Request().Context())
	res, err := s.Dashboard.Refresh(ctx)
	if err != nil {
		s.httpMetrics().RecordRefresh(metrics.StatusError)
		return s.HandleError(c, err, "Refresh failed", statusForError(err))
	}

	result := metrics.StatusSuccess
	if !res.Downloaded {
		result = metrics.StatusError
	}
	s.httpMetrics().RecordRefresh(result)
	return c.JSON(http.StatusOK, refreshResponse{Message: res.Message(), Result: res})
}

func (s *Server) statusHandler(c echo.Context) error {
	snap, err := s.Dashboard.Snapshot(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Failed to load snapshot", statusForError(err))
	}
	return c.JSON(http.StatusOK, statusResponse{
		Source:    snap.Source(),
		ModTime:   snap.ModTime(),
		LoadedAt:  snap.LoadedAt(),
		Records:   snap.Len(),
		Skipped:   snap.Skipped(),
		Methods:   len(snap.Methods()) - 1, // without "All"
		LastFetch: s.Dashboard.LastFetch(),
	})
}

func (s *Server) healthHandler(c echo.Context) error {
	if _, err := s.Dashboard.Snapshot(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

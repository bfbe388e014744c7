package httpcontroller

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/exodash/exodash/internal/errors"
)

//go:embed views/*.html
var ViewsFs embed.FS

// TemplateRenderer is the Echo renderer for the embedded views.
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a template with the given data.
func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func newTemplateRenderer() (*TemplateRenderer, error) {
	// URLs in the views rely on html/template's contextual escaping.
	funcMap := template.FuncMap{
		"fieldValue": fieldValue,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(ViewsFs, "views/*.html")
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "parse_templates").
			Build()
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

// fieldValue formats a looked-up column value for display.
func fieldValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "unknown"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		if x == "" {
			return "unknown"
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}

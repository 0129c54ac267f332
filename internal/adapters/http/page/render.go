package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"num": formatNumber,
}).ParseFS(templateFS, "templates/*.html.tmpl"))

// formatNumber prints one decimal place, e.g. 149 -> "149.0".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Render writes the full HTML page for v.
func Render(w io.Writer, v View) error {
	return execute(w, "page.html.tmpl", v)
}

// RenderError writes the page shown when the smoothies cannot be loaded.
func RenderError(w io.Writer, requestID string) error {
	return execute(w, "error.html.tmpl", struct{ RequestID string }{requestID})
}

// execute renders into a buffer first so a template error never leaves half a page.
func execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

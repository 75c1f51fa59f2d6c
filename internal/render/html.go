package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/skapsec/internal/analysis"
)

//go:embed templates/*.html
var templateFS embed.FS

// Fragment names defined by the embedded templates.
const (
	FragmentLoader  = "loader"
	FragmentResult  = "result"
	FragmentCompare = "compare-result"
)

// HTML renders views as HTML fragments and converts markdown for pages.
type HTML struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

// NewHTML parses the embedded fragment templates.
func NewHTML() (*HTML, error) {
	h := &HTML{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
	}

	tmpl, err := template.New("fragments").Funcs(template.FuncMap{
		"preview": h.Preview,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing fragment templates: %w", err)
	}
	h.tmpl = tmpl
	return h, nil
}

// Templates returns a copy of the fragment set that callers may extend
// with their own page templates.
func (h *HTML) Templates() (*template.Template, error) {
	return h.tmpl.Clone()
}

// Fragment executes one named fragment with v.
func (h *HTML) Fragment(w io.Writer, name string, v View) error {
	return h.tmpl.ExecuteTemplate(w, name, v)
}

// FragmentString is Fragment into a string.
func (h *HTML) FragmentString(name string, v View) (string, error) {
	var buf bytes.Buffer
	if err := h.Fragment(&buf, name, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Markdown converts markdown source to HTML.
func (h *HTML) Markdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := h.md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Preview renders a response body as a highlighted JSON code block. Bodies
// that cannot be indented are shown as plain text.
func (h *HTML) Preview(raw []byte) template.HTML {
	pretty, err := analysis.Outcome{Raw: raw}.Pretty()
	if err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(string(raw)) + "</pre>")
	}
	src := append([]byte("```json\n"), pretty...)
	src = append(src, "\n```\n"...)
	out, err := h.Markdown(src)
	if err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(string(pretty)) + "</pre>")
	}
	return out
}

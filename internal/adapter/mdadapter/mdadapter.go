package mdadapter

import (
	"bytes"
	"fmt"
	"html/template"

	_ "embed"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	metaTitle = "title"
)

//go:embed templates/directives.html
var defaultDirectives string

// Document is a converted Markdown source.
type Document struct {
	Title string
	Meta  map[string]any
	HTML  []byte
}

type mdAdapter struct {
	tmpl *template.Template
}

func NewMDAdapter() (*mdAdapter, error) {
	tmpl, err := template.New("").Parse(defaultDirectives)
	if err != nil {
		return nil, fmt.Errorf("cannot parse directive templates: %w", err)
	}

	return &mdAdapter{tmpl: tmpl}, nil
}

// Convert renders src to HTML. Table directives are resolved with r. The
// frontmatter is removed from the output and returned in Meta.
func (a *mdAdapter) Convert(src []byte, r TableResolver) (*Document, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
			NewTablesExtension(r, a.tmpl),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	pc := parser.NewContext()

	var buf bytes.Buffer
	if err := md.Convert(src, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("cannot convert markdown: %w", err)
	}

	doc := &Document{
		Meta: make(map[string]any),
		HTML: buf.Bytes(),
	}

	if fm := frontmatter.Get(pc); fm != nil {
		if err := fm.Decode(&doc.Meta); err != nil {
			return nil, fmt.Errorf("cannot decode frontmatter: %w", err)
		}
	}

	if title, ok := doc.Meta[metaTitle].(string); ok {
		doc.Title = title
	}

	return doc, nil
}

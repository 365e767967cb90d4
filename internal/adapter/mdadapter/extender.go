package mdadapter

import (
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/jgivc/datasetgen/internal/entity"
)

type TableResolver interface {
	GetTable(date string) (*entity.TableRef, error)
	GetTables() []entity.TableRef
}

type TablesExtension struct {
	r    TableResolver
	tmpl *template.Template
}

func NewTablesExtension(r TableResolver, tmpl *template.Template) goldmark.Extender {
	return &TablesExtension{r: r, tmpl: tmpl}
}

// Extend registers the directive parser ahead of the link parser, which
// also triggers on '['.
func (e *TablesExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(NewTableDirectiveParser(), 199),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewTableDirectiveRenderer(e.r, e.tmpl), 199),
		),
	)
}

package mdadapter

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

const (
	tmplNameTable  = "TABLE"
	tmplNameTables = "TABLES"
)

type TableDirectiveRenderer struct {
	r    TableResolver
	tmpl *template.Template
}

func NewTableDirectiveRenderer(r TableResolver, tmpl *template.Template) renderer.NodeRenderer {
	return &TableDirectiveRenderer{r: r, tmpl: tmpl}
}

func (r *TableDirectiveRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTableDirective, r.renderTableDirective)
}

type tableContext struct {
	Name        string
	Path        string
	Date        string
	Requests    int
	Description string
}

func (r *TableDirectiveRenderer) renderTableDirective(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	directive, ok := n.(*TableDirective)
	if !ok {
		return ast.WalkStop, fmt.Errorf("unexpected node %T, expected *TableDirective", n)
	}

	if directive.AllTables {
		data, err := r.renderTemplate(tmplNameTables, r.r.GetTables())
		if err != nil {
			return ast.WalkStop, err
		}

		w.Write(data)

		return ast.WalkContinue, nil
	}

	table, err := r.r.GetTable(directive.Date)
	if err != nil {
		return ast.WalkStop, fmt.Errorf("cannot get table %s: %w", directive.Date, err)
	}

	tc := tableContext{
		Name:        table.Name,
		Path:        table.Path,
		Date:        table.Date,
		Requests:    table.Requests,
		Description: table.Name,
	}
	if directive.Description != "" {
		tc.Description = directive.Description
	}

	data, err := r.renderTemplate(tmplNameTable, tc)
	if err != nil {
		return ast.WalkStop, err
	}

	w.Write(data)

	return ast.WalkContinue, nil
}

func (r *TableDirectiveRenderer) renderTemplate(tmplName string, data any) ([]byte, error) {
	tmpl := r.tmpl.Lookup(tmplName)
	if tmpl == nil {
		return nil, fmt.Errorf("template with name %s must be defined", tmplName)
	}

	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.Bytes(), nil
}

package mdadapter

import (
	"github.com/yuin/goldmark/ast"
)

var KindTableDirective = ast.NewNodeKind("TableDirective")

// TableDirective is a wiki style reference to a persisted day table.
type TableDirective struct {
	ast.BaseInline
	Date        string
	Description string
	AllTables   bool
}

func (n *TableDirective) Kind() ast.NodeKind {
	return KindTableDirective
}

func (n *TableDirective) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Date":        n.Date,
		"Description": n.Description,
	}, nil)
}

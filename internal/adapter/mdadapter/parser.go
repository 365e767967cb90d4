package mdadapter

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	startSeq  = []byte{'[', '['}
	endSeq    = []byte{']', ']'}
	descSeq   = []byte{'|'}
	allTables = []byte("TABLES")
)

/*
 * Wiki link
 * [[2020-01-01]]
 * [[2020-01-01|First day]]
 * [[TABLES]] - all tables
 */
type TableDirectiveParser struct{}

func NewTableDirectiveParser() parser.InlineParser {
	return &TableDirectiveParser{}
}

func (s *TableDirectiveParser) Trigger() []byte {
	return startSeq[:1]
}

func (s *TableDirectiveParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	b, _ := block.PeekLine()
	if !bytes.HasPrefix(b, startSeq) {
		return nil
	}

	end := bytes.Index(b, endSeq)
	if end < len(startSeq) {
		return nil
	}

	line := bytes.TrimSpace(b[len(startSeq):end])
	if len(line) == 0 {
		return nil
	}

	block.Advance(end + len(endSeq))

	if bytes.Equal(line, allTables) {
		return &TableDirective{
			AllTables: true,
		}
	}

	if date, desc, found := bytes.Cut(line, descSeq); found {
		return &TableDirective{
			Date:        string(bytes.TrimSpace(date)),
			Description: string(bytes.TrimSpace(desc)),
		}
	}

	return &TableDirective{
		Date: string(line),
	}
}

// Package fixture builds parsing.Parser-shaped output by hand, for tests
// that need an (*ast.Node, *ast.Comments) pair without wiring a real
// SRC parser. It is test-only scaffolding, not a parser: callers still
// build trees with pkg/ast's own constructors; this package only adds the
// bookkeeping (buffer name, line numbers) a real parser would fill in.
package fixture

import (
	"strings"

	"github.com/ruby2js/ruby2go/pkg/ast"
)

// Buffer wraps a named source string and hands out Loc values stamped
// with that buffer's name, mimicking a parser's source_buffer metadata.
type Buffer struct {
	Name   string
	Source string
}

// NewBuffer returns a Buffer over source, identified by name for pragma
// and diagnostic lookups.
func NewBuffer(name, source string) *Buffer {
	return &Buffer{Name: name, Source: source}
}

// Loc returns a flat Loc at the given 1-based line, with endPos computed
// from the line's length.
func (b *Buffer) Loc(line int) ast.Loc {
	lines := strings.Split(b.Source, "\n")

	endPos := 0
	if line-1 >= 0 && line-1 < len(lines) {
		endPos = len(lines[line-1])
	}

	return ast.Loc{
		Line:       line,
		EndPos:     endPos,
		BufferName: b.Name,
		Source:     b.Source,
	}
}

// Parenthesized returns loc with Parenthesized set, for fixtures that need
// ast.IsMethod to report true.
func Parenthesized(loc ast.Loc) ast.Loc {
	loc.Parenthesized = true

	return loc
}

// Lines splits source on newlines, for feeding filterpipe.NewPragmas
// without a real parser's comment stream.
func Lines(source string) []string {
	return strings.Split(source, "\n")
}

// Comments builds an ast.Comments table attaching each line of text to its
// corresponding node, for tests asserting comment-preservation behavior.
func Comments(pairs ...CommentPair) *ast.Comments {
	table := ast.NewComments()

	for _, p := range pairs {
		table.Attach(p.Node, p.Lines...)
	}

	return table
}

// CommentPair associates comment text with the node it attaches to, for
// Comments.
type CommentPair struct {
	Node  *ast.Node
	Lines []string
}

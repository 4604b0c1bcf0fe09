// Package parsing defines the external collaborator interface the
// compiler core depends on but never implements: a SRC parser that turns
// source text into an AST plus a raw comment stream. Production callers
// wire in a real parser; pkg/parsing/fixture provides a test-only stand-in
// for building trees directly, without one.
package parsing

import "github.com/ruby2js/ruby2go/pkg/ast"

// Parser is the interface the driver (pkg/compiler) requires. A parser
// implementation knows nothing about rewrite rules or emission; it only
// turns text into a tree plus the comment table already associated with
// that tree's nodes. Comments come back pre-attached (via ast.Comments,
// keyed by structural fingerprint) rather than as a flat stream, since
// only the parser knows which node each comment belongs to.
type Parser interface {
	Parse(source, filename string) (root *ast.Node, comments *ast.Comments, err error)
}

// Func adapts a plain function to Parser, the way http.HandlerFunc adapts
// a function to http.Handler.
type Func func(source, filename string) (*ast.Node, *ast.Comments, error)

// Parse calls f.
func (f Func) Parse(source, filename string) (*ast.Node, *ast.Comments, error) {
	return f(source, filename)
}

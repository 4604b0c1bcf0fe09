// Package compilererr defines the structured error taxonomy (§7) shared
// between the rewrite rules that raise it and the driver that catches and
// surfaces it. It is kept as its own leaf package — rather than living in
// pkg/compiler — so that pkg/rewrite/* filters can raise a CompileError
// without importing the driver that in turn imports them.
package compilererr

import (
	"errors"
	"fmt"

	"github.com/ruby2js/ruby2go/pkg/ast"
)

// Kind names one of the four error taxonomies rewriters and the driver
// itself may raise. Every CompileError carries one.
type Kind string

// Error kinds, named directly after the taxonomy.
const (
	// Unsupported marks a node kind or method shape the core cannot
	// translate at the selected ES level.
	Unsupported Kind = "unsupported_construct"
	// Malformed marks a child count/type violating a rule's contract —
	// an upstream bug in whatever built the tree.
	Malformed Kind = "malformed_ast"
	// Security marks an attempted evaluation the core refuses to perform
	// silently (an xstr node with no binding option supplied).
	Security Kind = "security_error"
	// Configuration marks an unsatisfiable filter ordering constraint or
	// an invalid option value.
	Configuration Kind = "configuration_error"
)

// CompileError is the structured error type Convert returns. It carries
// the offending node (for location reporting) alongside a Kind so callers
// can distinguish "your source uses a construct we can't lower at this
// ES level" from "something handed the core a broken tree."
type CompileError struct {
	Kind    Kind
	Message string
	Node    *ast.Node
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Node != nil && e.Node.Loc != nil {
		return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Node.Loc.Line)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds a CompileError of the given kind.
func New(kind Kind, node *ast.Node, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...), Node: node}
}

// Raise panics with a freshly built CompileError. Rewrite-rule handlers
// have no error return (traverse.HandlerFunc returns only *ast.Node), so
// an unsupported construct aborts the walk via panic; the driver recovers
// it back into a plain error at the Convert boundary.
func Raise(kind Kind, node *ast.Node, format string, args ...any) {
	panic(New(kind, node, format, args...))
}

// As unwraps err into a *CompileError, the way errors.As would, for
// callers that want to branch on Kind without an extra import.
func As(err error) (*CompileError, bool) {
	var ce *CompileError

	if errors.As(err, &ce) {
		return ce, true
	}

	return nil, false
}

// Package traverse implements the recursive visitor kernel that drives
// every filter over the AST: dispatch by node kind, a stack of active
// filters, and the per-translation-unit prepend list used to hoist
// declarations to the top of the emitted program.
package traverse

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/stats"
)

// HandlerFunc rewrites a single node, given the Walker so it can recurse
// via ProcessChildren/Process/ProcessAll.
type HandlerFunc func(w *Walker, n *ast.Node) *ast.Node

// Filter is one named pass in the pipeline: a partial dispatch table keyed
// by node kind. A Filter with no handler for a given kind is transparent to
// that kind — the Walker falls through to the next filter in the stack.
type Filter interface {
	Name() string
	Handlers() map[ast.Tag]HandlerFunc
}

// Walker owns the active filter stack (index 0 is consulted first for every
// node) and the prepend list for the current translation unit. It is not
// safe for concurrent use; each Convert call constructs its own Walker.
type Walker struct {
	filters  []Filter
	prepend  []*ast.Node
	comments *ast.Comments
	inFlight []*ast.Node // re-entrancy guard stack, see Process.

	// Stats, when non-nil, records one hit per filter name each time that
	// filter's handler actually rewrites a node (as opposed to declining
	// by returning nil). Left nil by NewWalker; set it directly before the
	// first Process call to collect rewrite-rule usage for a run.
	Stats *stats.Counter
}

// NewWalker builds a Walker that runs filters in the given order. Document
// order and left-to-right child processing follow from how ProcessChildren
// walks ast.Node.Children; filter order is a property of this list.
func NewWalker(comments *ast.Comments, filters ...Filter) *Walker {
	return &Walker{filters: filters, comments: comments}
}

// Comments returns the comment table shared across this translation unit.
func (w *Walker) Comments() *ast.Comments {
	return w.comments
}

// Prepend appends a node to the hoisted-declaration list (imports,
// polyfills, ARGV setup). The driver flushes this list into the program
// prologue after every filter has run.
func (w *Walker) Prepend(n *ast.Node) {
	w.prepend = append(w.prepend, n)
}

// PrependList returns the nodes collected via Prepend, in the order they
// were added.
func (w *Walker) PrependList() []*ast.Node {
	return w.prepend
}

// Process dispatches n to every filter with a handler for n.Kind, in
// pipeline order, stopping at the first one that actually rewrites it. A
// handler declines by returning nil — meaning "this particular node isn't
// the shape I own" — and Process offers n to the next filter registered
// for the same kind. Several filters may legitimately share a kind this
// way (operators, dispatch, methods, and modules all own a slice of
// TagSend); once every candidate has declined, Process recurses into n's
// children with the same filter stack instead. Replacement is eager: the
// node a handler returns is what later Process calls on sibling/ancestor
// nodes see, never the original.
//
// Re-entrant processing is guarded: calling Process on a node structurally
// Equal to one already being processed (anywhere on the current call stack)
// returns that node unchanged instead of looping forever — the guard named
// in spec.md §9 for cyclic rewrites. A handler that wants to bypass further
// rewriting entirely for a node it just built should return it via Emit
// instead of calling Process on it.
func (w *Walker) Process(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}

	for _, inFlight := range w.inFlight {
		if ast.Equal(inFlight, n) {
			return n
		}
	}

	w.inFlight = append(w.inFlight, n)
	defer func() { w.inFlight = w.inFlight[:len(w.inFlight)-1] }()

	for _, f := range w.filters {
		handler, ok := f.Handlers()[n.Kind]
		if !ok {
			continue
		}

		if result := handler(w, n); result != nil {
			w.Stats.Record(f.Name())

			return result
		}
	}

	return w.ProcessChildren(n)
}

// Emit returns n without offering it to any filter — the escape hatch for
// rules that synthesize a node already in final TGT-ready form and must not
// risk it being mistaken for more source to rewrite.
func (w *Walker) Emit(n *ast.Node) *ast.Node {
	return n
}

// ProcessChildren recurses into n's children, replacing each *ast.Node
// child with the result of Process, and leaves primitive children alone.
// The node is rebuilt via ast.Updated so identity is never reused, and any
// comments attached to n transfer to the rebuilt node.
func (w *Walker) ProcessChildren(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}

	children := make([]ast.Value, len(n.Children))

	for i, c := range n.Children {
		if child, ok := c.(*ast.Node); ok && child != nil {
			children[i] = w.Process(child)
		} else {
			children[i] = c
		}
	}

	result := ast.Updated(n, n.Kind, children)
	w.comments.Transfer(n, result)

	return result
}

// ProcessAll maps Process over every node in ns, in order.
func (w *Walker) ProcessAll(ns []*ast.Node) []*ast.Node {
	out := make([]*ast.Node, len(ns))

	for i, n := range ns {
		out[i] = w.Process(n)
	}

	return out
}

// Package methods implements the method-name-driven standard-library
// mapping rules: SRC collection, string, hash, numeric, and type-test
// methods rewritten to their idiomatic TGT form.
package methods

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

func init() {
	filterpipe.Register("methods", func() traverse.Filter { return New() })
}

// rule rewrites a send node (receiver + method name + args, already
// resolved out of n's children) given the active Options. It returns nil
// when the rule does not apply to this arity/shape, letting dispatch fall
// through to the next registered rule for the same name.
type rule func(o filterpipe.Options, receiver *ast.Node, args []*ast.Node) *ast.Node

// key is a (method name, arity) pair. Most SRC methods have a single
// overload the translator cares about; a handful (`[]`, `sort_by`) need
// arity-sensitive dispatch, hence keying by arity rather than name alone.
type key struct {
	name  string
	arity int
}

// Filter is the C4.4.1 method/stdlib mapping pass.
type Filter struct {
	opts    filterpipe.Options
	byKey   map[key]rule
	byName  map[string]rule // arity-insensitive fallback
}

// New builds a Filter with the full built-in method catalogue registered.
func New() *Filter {
	f := &Filter{byKey: map[key]rule{}, byName: map[string]rule{}}
	registerCollectionRules(f)
	registerStringRules(f)
	registerHashRules(f)
	registerNumericRules(f)
	registerTypeTestRules(f)

	return f
}

// Name implements traverse.Filter.
func (f *Filter) Name() string { return "methods" }

// SetOptions implements filterpipe.OptionedFilter.
func (f *Filter) SetOptions(o filterpipe.Options) { f.opts = o }

// on registers rule for every arity of name.
func (f *Filter) on(name string, r rule) {
	f.byName[name] = r
}

// onArity registers rule for name only at the given arity.
func (f *Filter) onArity(name string, arity int, r rule) {
	f.byKey[key{name: name, arity: arity}] = r
}

// Handlers implements traverse.Filter.
func (f *Filter) Handlers() map[ast.Tag]traverse.HandlerFunc {
	return map[ast.Tag]traverse.HandlerFunc{
		ast.TagSend: f.handleSend,
	}
}

// handleSend is the shared entry point for every method-call rewrite,
// declining (nil) whatever it doesn't own so the next TagSend-owning
// filter in the pipeline gets a turn. Send node shape: (receiver
// *ast.Node-or-nil, method string, args...).
func (f *Filter) handleSend(w *traverse.Walker, n *ast.Node) *ast.Node {
	if len(n.Children) < 2 {
		return nil
	}

	method, ok := n.Children[1].(string)
	if !ok {
		return nil
	}

	receiverRaw := n.Child(0)

	var receiver *ast.Node
	if receiverRaw != nil {
		receiver = w.Process(receiverRaw)
	}

	argNodes := n.Children[2:]
	args := make([]*ast.Node, 0, len(argNodes))

	for _, a := range argNodes {
		if node, ok := a.(*ast.Node); ok {
			args = append(args, w.Process(node))
		}
	}

	parenUsed := ast.IsMethod(n)
	if !f.opts.IsIncluded(method, parenUsed) {
		return nil
	}

	if r, ok := f.byKey[key{name: method, arity: len(args)}]; ok {
		if result := r(f.opts, receiver, args); result != nil {
			return w.Emit(result)
		}
	}

	if r, ok := f.byName[method]; ok {
		if result := r(f.opts, receiver, args); result != nil {
			return w.Emit(result)
		}
	}

	return nil
}

func member(obj *ast.Node, prop string) *ast.Node {
	return ast.New(ast.TagMember, obj, prop, false)
}

func call(callee *ast.Node, args ...*ast.Node) *ast.Node {
	children := make([]ast.Value, 0, len(args)+1)
	children = append(children, callee)

	for _, a := range args {
		children = append(children, a)
	}

	return &ast.Node{Kind: ast.TagCallExpr, Children: children}
}

func methodCall(receiver *ast.Node, name string, args ...*ast.Node) *ast.Node {
	return call(member(receiver, name), args...)
}

func binop(op string, l, r *ast.Node) *ast.Node {
	return ast.New(ast.TagBinOp, op, l, r)
}

// Package dispatch implements the §4.4.4 local-vs-instance dispatch rule:
// resolving a bare call against the namespace scope stack to decide
// whether it becomes a plain identifier, a `this.foo(...)` call, or a
// bound function reference.
package dispatch

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/namespace"
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

func init() {
	filterpipe.Register("dispatch", func() traverse.Filter { return New() })
}

// Filter is the C4.4.4 dispatch pass. It shares binding state across a
// translation unit via its own scope stack, fed by TagClass/TagModule
// entries so bindings defined by the classes/modules filters (which run
// earlier) are visible when dispatch resolves bare calls inside method
// bodies.
type Filter struct {
	scope *namespace.Stack
}

// New builds a dispatch Filter with its own scope stack.
func New() *Filter { return &Filter{scope: namespace.NewStack()} }

// Name implements traverse.Filter.
func (f *Filter) Name() string { return "dispatch" }

// SetOptions implements filterpipe.OptionedFilter; dispatch has no tunable
// options of its own but must satisfy the interface to receive Options
// propagation uniformly with its siblings.
func (f *Filter) SetOptions(filterpipe.Options) {}

// Handlers implements traverse.Filter.
func (f *Filter) Handlers() map[ast.Tag]traverse.HandlerFunc {
	return map[ast.Tag]traverse.HandlerFunc{
		ast.TagClassModule: f.handleClassModuleScope,
		ast.TagSend:        f.handleBareSend,
	}
}

// handleClassModuleScope tracks entry/exit of a lowered class or module so
// `self`-bound names registered by an earlier pass remain resolvable while
// dispatch walks the body. Shape: (name, bindingNames..., body).
func (f *Filter) handleClassModuleScope(w *traverse.Walker, n *ast.Node) *ast.Node {
	name, _ := n.Children[0].(string)

	f.scope.Enter(name)
	defer f.scope.Leave()

	if bindingNames, ok := n.Children[1].([]string); ok {
		f.scope.DefineProps(bindingNames, namespace.KindSelf)
	}

	return w.ProcessChildren(n)
}

// kernelFunctions maps SRC's receiver-less global functions to their TGT
// console equivalent. Unlike method rewrites these never need a
// parens-disambiguation gate: a bare `puts x` has no competing
// property-access reading the way `x.keys` does.
var kernelFunctions = map[string]string{
	"puts":  "log",
	"p":     "log",
	"print": "log",
}

// handleBareSend resolves a no-receiver send against the scope stack,
// declining (nil) whatever it doesn't own so the next TagSend-owning
// filter in the pipeline gets a turn.
func (f *Filter) handleBareSend(w *traverse.Walker, n *ast.Node) *ast.Node {
	if n.Child(0) != nil {
		return nil
	}

	method, _ := n.Children[1].(string)
	if method == "" {
		return nil
	}

	if consoleMethod, ok := kernelFunctions[method]; ok {
		args := make([]ast.Value, 0, len(n.Children)-2)
		for _, c := range n.Children[2:] {
			if node, ok := c.(*ast.Node); ok {
				args = append(args, w.Process(node))
			}
		}

		callee := ast.New(ast.TagMember, ast.New(ast.TagIdent, "console"), consoleMethod, false)

		return w.Emit(&ast.Node{Kind: ast.TagCallExpr, Children: append([]ast.Value{callee}, args...)})
	}

	binding, ok := f.scope.Find(method)
	if !ok {
		return nil
	}

	args := make([]*ast.Node, 0, len(n.Children)-2)
	for _, c := range n.Children[2:] {
		if node, ok := c.(*ast.Node); ok {
			args = append(args, w.Process(node))
		}
	}

	switch binding.Kind {
	case namespace.KindSelf:
		return w.Emit(thisCall(method, args))
	case namespace.KindAutobind:
		if len(args) == 0 && !ast.IsMethod(n) {
			return w.Emit(ast.New(ast.TagCallExpr,
				ast.New(ast.TagMember, thisMember(method), "bind", false), ast.New(ast.TagIdent, "this")))
		}

		return w.Emit(thisCall(method, args))
	default:
		return nil
	}
}

func thisMember(name string) *ast.Node {
	return ast.New(ast.TagMember, ast.New(ast.TagIdent, "this"), name, false)
}

func thisCall(name string, args []*ast.Node) *ast.Node {
	children := make([]ast.Value, 0, len(args)+1)
	children = append(children, thisMember(name))

	for _, a := range args {
		children = append(children, a)
	}

	return &ast.Node{Kind: ast.TagCallExpr, Children: children}
}

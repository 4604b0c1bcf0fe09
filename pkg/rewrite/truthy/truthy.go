// Package truthy implements the §4.4.8 `truthy: ruby` option: wrapping
// boolean-context expressions with runtime helpers that replicate SRC
// truthiness (only nil/false are falsy; 0 and "" are truthy) instead of
// TGT's own truthiness rules.
package truthy

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

func init() {
	filterpipe.Register("truthy", func() traverse.Filter { return New() })
}

// Polyfill IDs this filter may require; the polyfill gate looks these up
// by name, so they're exported rather than duplicated there.
const (
	HelperTruthy    = "$T"
	HelperLogicalOr = "$ror"
	HelperRand      = "$rand"
)

// Filter is the C4.4.8 truthiness pass. It is a no-op unless
// Options.Truthy == "ruby".
type Filter struct {
	opts     filterpipe.Options
	required map[string]bool
}

// New builds a truthy Filter.
func New() *Filter { return &Filter{required: map[string]bool{}} }

// Name implements traverse.Filter.
func (f *Filter) Name() string { return "truthy" }

// SetOptions implements filterpipe.OptionedFilter.
func (f *Filter) SetOptions(o filterpipe.Options) { f.opts = o }

// Required reports which runtime helpers this translation unit ended up
// needing, for the polyfill gate to inject exactly once.
func (f *Filter) Required() []string {
	names := make([]string, 0, len(f.required))
	for name := range f.required {
		names = append(names, name)
	}

	return names
}

// Handlers implements traverse.Filter.
func (f *Filter) Handlers() map[ast.Tag]traverse.HandlerFunc {
	if f.opts.Truthy != "ruby" {
		return map[ast.Tag]traverse.HandlerFunc{}
	}

	return map[ast.Tag]traverse.HandlerFunc{
		ast.TagIf:        f.wrapConditionHandler(0),
		ast.TagWhile:     f.wrapConditionHandler(0),
		ast.TagUntil:     f.wrapConditionHandler(0),
		ast.TagTernary:   f.wrapConditionHandler(0),
		ast.TagLogicalOp: f.handleLogicalOp,
		ast.TagSend:      f.handleBareRand,
	}
}

// handleLogicalOp rewrites `a || b` to a $ror(a, b) call. Ruby's `||` only
// treats nil/false as falsy, so a native TGT `||` would wrongly prefer `b`
// whenever `a` is a TGT-falsy-but-Ruby-truthy value like 0 or "". `&&` has
// the same mismatch in principle, but only `||` is in scope here, so `&&`
// passes through unchanged as an unambiguous boolean per isUnambiguousBoolean.
// "??" already has nil-only semantics in both languages and is left alone.
func (f *Filter) handleLogicalOp(w *traverse.Walker, n *ast.Node) *ast.Node {
	op, _ := n.Children[0].(string)
	if op != "||" {
		return nil
	}

	left := w.Process(n.Child(1))
	right := w.Process(n.Child(2))

	f.required[HelperLogicalOr] = true

	return w.Emit(ast.New(ast.TagCallExpr, ast.New(ast.TagIdent, HelperLogicalOr), left, right))
}

// handleBareRand recognizes SRC's receiver-less Kernel#rand(n) call and
// rewrites it to $rand(n). Truthy runs last in DefaultFilterNames, so any
// other send shape reaching here was already declined by every earlier
// filter and is left untouched.
func (f *Filter) handleBareRand(w *traverse.Walker, n *ast.Node) *ast.Node {
	if n.Child(0) != nil || len(n.Children) != 3 {
		return nil
	}

	method, _ := n.Children[1].(string)
	if method != "rand" {
		return nil
	}

	arg, ok := n.Children[2].(*ast.Node)
	if !ok {
		return nil
	}

	f.required[HelperRand] = true

	return w.Emit(ast.New(ast.TagCallExpr, ast.New(ast.TagIdent, HelperRand), w.Process(arg)))
}

// wrapConditionHandler wraps the conditionIndex'th child — the boolean-
// context test — in a $T call, unless that test is already a comparison
// or logical expression whose own TGT semantics are unambiguous (an `&&`
// needs no wrapper per the elision rule in §4.4.8). Children are processed
// first, so a `||` test has already become a $ror(...) call by the time
// the check runs and is wrapped like any other call.
func (f *Filter) wrapConditionHandler(conditionIndex int) traverse.HandlerFunc {
	return func(w *traverse.Walker, n *ast.Node) *ast.Node {
		processed := w.ProcessChildren(n)

		cond, ok := processed.Children[conditionIndex].(*ast.Node)
		if !ok || isUnambiguousBoolean(cond) {
			return processed
		}

		f.required[HelperTruthy] = true

		children := append([]ast.Value(nil), processed.Children...)
		children[conditionIndex] = ast.New(ast.TagCallExpr, ast.New(ast.TagIdent, HelperTruthy), cond)

		return ast.Updated(processed, processed.Kind, children)
	}
}

func isUnambiguousBoolean(n *ast.Node) bool {
	switch n.Kind {
	case ast.TagBinOp, ast.TagLogicalOp, ast.TagUnaryOp, ast.TagTrue, ast.TagFalse, ast.TagInstanceOf, ast.TagInQ:
		return true
	default:
		return false
	}
}

// Package operators implements the §4.4.7 binary/unary operator and
// precedence translation rules: exponentiation, spaceship, equality, and
// the INVERT_OP table for negated comparisons.
package operators

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

func init() {
	filterpipe.Register("operators", func() traverse.Filter { return New() })
}

// invertOpTable is INVERT_OP: pushing `!` inside a comparison by flipping
// its operator, applied when a unary-not directly wraps a comparison send.
var invertOpTable = map[string]string{
	"<":  ">=",
	">":  "<=",
	"<=": ">",
	">=": "<",
	"==": "!=",
	"!=": "==",
}

// Filter is the C4.4.7 operator-translation pass.
type Filter struct {
	opts filterpipe.Options
}

// New builds an operators Filter.
func New() *Filter { return &Filter{} }

// Name implements traverse.Filter.
func (f *Filter) Name() string { return "operators" }

// SetOptions implements filterpipe.OptionedFilter.
func (f *Filter) SetOptions(o filterpipe.Options) { f.opts = o }

// Handlers implements traverse.Filter.
func (f *Filter) Handlers() map[ast.Tag]traverse.HandlerFunc {
	return map[ast.Tag]traverse.HandlerFunc{
		ast.TagSend:     f.handleOperatorSend,
		ast.TagOrAssign: f.handleOrAssign,
		ast.TagBinOp:    f.handleBinOp,
	}
}

// handleBinOp recognizes `"str" * n`, SRC's string-repetition operator,
// which the parser represents as an ordinary `*` binop since it reuses the
// arithmetic operator token. JS has no `*` overload for strings, so this
// only fires when the left operand is a literal string — there's no type
// system here to tell a numeric multiply from a repeat otherwise, and
// misfiring on a numeric `*` would be worse than leaving the rare
// non-literal case alone. `+` needs no equivalent rule: string
// concatenation already uses the same operator in both languages.
func (f *Filter) handleBinOp(w *traverse.Walker, n *ast.Node) *ast.Node {
	op, _ := n.Children[0].(string)
	if op != "*" {
		return nil
	}

	left := n.Child(1)
	if left == nil || left.Kind != ast.TagString {
		return nil
	}

	str := w.Process(left)
	count := w.Process(n.Child(2))

	return w.Emit(ast.New(ast.TagCallExpr, ast.New(ast.TagMember, str, "repeat", false), count))
}

// handleOperatorSend recognizes operator-shaped sends (**, <=>) that the
// parser represents as method calls, and unary-not nodes wrapping a
// comparison. Anything else falls through to the next filter (methods),
// since operators always runs before methods in DefaultFilterNames.
func (f *Filter) handleOperatorSend(w *traverse.Walker, n *ast.Node) *ast.Node {
	method, _ := n.Children[1].(string)

	switch method {
	case "**":
		return f.rewritePow(w, n)
	case "<=>":
		return f.rewriteSpaceship(w, n)
	case "!":
		return f.rewriteInvert(w, n)
	default:
		return nil
	}
}

func (f *Filter) rewritePow(w *traverse.Walker, n *ast.Node) *ast.Node {
	left := w.Process(n.Child(0))
	right := w.Process(n.Child(2))

	if f.opts.ES2015() {
		return w.Emit(ast.New(ast.TagBinOp, "**", left, right))
	}

	return w.Emit(ast.New(ast.TagCallExpr,
		ast.New(ast.TagMember, ast.New(ast.TagIdent, "Math"), "pow", false), left, right))
}

func (f *Filter) rewriteSpaceship(w *traverse.Walker, n *ast.Node) *ast.Node {
	left := w.Process(n.Child(0))
	right := w.Process(n.Child(2))

	lt := ast.New(ast.TagBinOp, "<", left, right)
	gt := ast.New(ast.TagBinOp, ">", left, right)

	inner := ast.New(ast.TagTernary, gt, ast.New(ast.TagInt, int64(1)), ast.New(ast.TagInt, int64(0)))

	return w.Emit(ast.New(ast.TagTernary, lt, ast.New(ast.TagUnaryOp, "-", ast.New(ast.TagInt, int64(1))), inner))
}

// rewriteInvert applies INVERT_OP when a unary `!` directly wraps a
// comparison send, collapsing `!(x < y)` shapes into `x >= y`.
func (f *Filter) rewriteInvert(w *traverse.Walker, n *ast.Node) *ast.Node {
	operand := n.Child(0)
	if operand == nil || operand.Kind != ast.TagSend {
		return nil
	}

	innerMethod, _ := operand.Children[1].(string)

	inverted, ok := invertOpTable[innerMethod]
	if !ok {
		return nil
	}

	left := w.Process(operand.Child(0))
	right := w.Process(operand.Child(2))

	return w.Emit(ast.New(ast.TagBinOp, inverted, left, right))
}

// handleOrAssign lowers `name ||= value`. At ES2021+ it becomes the
// matching logical-assignment operator (`||=` or `??=`, chosen by
// resolveDisjunction); below that it desugars to `name = name || value`
// (or the `??` variant) since neither assignment operator exists yet.
func (f *Filter) handleOrAssign(w *traverse.Walker, n *ast.Node) *ast.Node {
	name, _ := n.Children[0].(string)
	value := w.Process(n.Child(1))

	op := f.resolveDisjunction(n)
	target := ast.New(ast.TagIdent, name)

	if f.opts.ES2021() {
		return w.Emit(ast.New(ast.TagAssign, string(op)+"=", target, value))
	}

	current := ast.New(ast.TagIdent, name)

	return w.Emit(ast.New(ast.TagAssign, "=", target, ast.New(ast.TagLogicalOp, string(op), current, value)))
}

// resolveDisjunction picks "||" or "??" for n: a `# Pragma: or ??`/`or ||`
// comment on n's source line overrides the filter's default (Options.Or),
// matching every other pragma-consulting rule's precedence order.
func (f *Filter) resolveDisjunction(n *ast.Node) filterpipe.DisjunctionOp {
	if f.opts.Pragmas != nil && n.Loc != nil {
		if pragma, ok := f.opts.Pragmas.Has(n.Loc.BufferName, n.Loc.Line, filterpipe.PragmaOr); ok {
			if pragma.Argument == string(filterpipe.DisjunctionNullish) {
				return filterpipe.DisjunctionNullish
			}

			return filterpipe.DisjunctionLogicalOr
		}
	}

	if f.opts.Or == filterpipe.DisjunctionNullish {
		return filterpipe.DisjunctionNullish
	}

	return filterpipe.DisjunctionLogicalOr
}

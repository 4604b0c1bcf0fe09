// Package exceptions implements the §4.4.6 begin/rescue/else/ensure/retry
// lowering to try/catch/finally.
package exceptions

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

func init() {
	filterpipe.Register("exceptions", func() traverse.Filter { return New() })
}

// Filter is the C4.4.6 exception-lowering pass. KwBegin node shape:
// (body, rescues..., elseClause-or-nil, ensureClause-or-nil), where each
// rescue is (exceptionClasses []*ast.Node, varName string, body).
type Filter struct {
	opts filterpipe.Options
}

// New builds an exceptions Filter.
func New() *Filter { return &Filter{} }

// Name implements traverse.Filter.
func (f *Filter) Name() string { return "exceptions" }

// SetOptions implements filterpipe.OptionedFilter.
func (f *Filter) SetOptions(o filterpipe.Options) { f.opts = o }

// Handlers implements traverse.Filter.
func (f *Filter) Handlers() map[ast.Tag]traverse.HandlerFunc {
	return map[ast.Tag]traverse.HandlerFunc{
		ast.TagKwBegin: f.handleKwBegin,
		ast.TagRetry:   f.handleRetry,
	}
}

// handleRetry rewrites a bare `retry` to `next`, the substitution
// wrapRetryLoop's while(true) wrapping depends on: inside that loop body
// the emitter's loop-context tracking renders it as `continue`, sending
// control back to the top of the retry loop exactly like SRC's retry does.
func (f *Filter) handleRetry(w *traverse.Walker, n *ast.Node) *ast.Node {
	return w.Emit(ast.New(ast.TagNext))
}

// Rescue is the parsed shape of one rescue clause.
type Rescue struct {
	Classes []*ast.Node
	VarName string
	Body    *ast.Node
}

func (f *Filter) handleKwBegin(w *traverse.Walker, n *ast.Node) *ast.Node {
	tryBody := w.Process(n.Child(0))

	rescues := rescueClauses(n)
	elseClause := elseClauseOf(n)
	ensureClause := ensureClauseOf(n)
	hasRetry := ast.Contains(n, ast.TagRetry)

	if elseClause == nil {
		catchBody := f.buildCatch(w, rescues)
		tryStmt := ast.New(ast.TagTryStmt, asBlockStmt(tryBody), "e", catchBody, wrapFinally(w, ensureClause))

		if !hasRetry {
			return w.Emit(tryStmt)
		}

		return w.Emit(wrapRetryLoop(tryStmt))
	}

	return w.Emit(f.buildWithElse(w, tryBody, rescues, elseClause, ensureClause, hasRetry))
}

// elseOkFlag names the synthetic boolean set once the try block (including
// the else clause appended to it) has run to completion. buildWithElse
// declares it in a block scope of its own, so sibling begin/rescue/else
// statements never collide over the name.
const elseOkFlag = "$ok"

// buildWithElse compiles a begin/rescue/else/ensure whose else clause must
// run only when the try body raised nothing, yet whose own exceptions must
// not be handed to the rescue dispatch. The else body is appended inside
// the try block right after elseOkFlag is set true, and the catch
// re-throws unconditionally when elseOkFlag is already true — so an
// exception from the else clause always propagates, while one from the
// original body (elseOkFlag still false) reaches the rescue chain exactly
// as before.
func (f *Filter) buildWithElse(
	w *traverse.Walker, tryBody *ast.Node, rescues []Rescue, elseClause, ensureClause *ast.Node, hasRetry bool,
) *ast.Node {
	elseBody := w.Process(elseClause)

	setOk := ast.New(ast.TagExprStmt, ast.New(ast.TagAssign, "=", ast.New(ast.TagIdent, elseOkFlag), ast.New(ast.TagTrue)))

	tryStmts := append(asBlockStmt(tryBody).ChildNodes(), setOk)
	tryStmts = append(tryStmts, asBlockStmt(elseBody).ChildNodes()...)
	tryBlock := ast.New(ast.TagBlockStmt, toValues(tryStmts)...)

	rescueDispatch := f.buildCatch(w, rescues)
	guardedCatch := ast.New(ast.TagIf,
		ast.New(ast.TagIdent, elseOkFlag),
		asBlockStmt(ast.New(ast.TagThrowStmt, ast.New(ast.TagIdent, "e"))),
		rescueDispatch,
	)

	tryStmt := ast.New(ast.TagTryStmt, tryBlock, "e", asBlockStmt(guardedCatch), wrapFinally(w, ensureClause))

	inner := tryStmt
	if hasRetry {
		inner = wrapRetryLoop(tryStmt)
	}

	flagDecl := ast.New(ast.TagVarDecl, "let", elseOkFlag, ast.New(ast.TagFalse))

	return ast.New(ast.TagBlockStmt, flagDecl, inner)
}

func toValues(nodes []*ast.Node) []ast.Value {
	out := make([]ast.Value, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}

	return out
}

func rescueClauses(n *ast.Node) []Rescue {
	var out []Rescue

	for _, c := range n.ChildNodes() {
		if c.Kind != ast.TagRescue {
			continue
		}

		classesNode, _ := c.Children[0].(*ast.Node)
		varName, _ := c.Children[1].(string)
		body, _ := c.Children[2].(*ast.Node)

		var classes []*ast.Node
		if classesNode != nil {
			classes = classesNode.ChildNodes()
		}

		out = append(out, Rescue{Classes: classes, VarName: varName, Body: body})
	}

	return out
}

func elseClauseOf(n *ast.Node) *ast.Node {
	children := n.ChildNodes()

	// children[0] is the try body itself; skip it so a multi-statement body
	// (also shaped as TagBegin) is never mistaken for the else clause.
	for _, c := range children[min(1, len(children)):] {
		if c.Kind == ast.TagBegin {
			return c
		}
	}

	return nil
}

func ensureClauseOf(n *ast.Node) *ast.Node {
	for _, c := range n.ChildNodes() {
		if c.Kind == ast.TagEnsure {
			return c.Child(0)
		}
	}

	return nil
}

// buildCatch compiles the rescue list into a single `catch (e)` dispatch
// via a chain of `if (e instanceof T)`, falling through to a re-throw when
// no rescue clause matched.
func (f *Filter) buildCatch(w *traverse.Walker, rescues []Rescue) *ast.Node {
	if len(rescues) == 0 {
		return asBlockStmt(ast.New(ast.TagThrowStmt, ast.New(ast.TagIdent, "e")))
	}

	var chain *ast.Node = ast.New(ast.TagThrowStmt, ast.New(ast.TagIdent, "e"))

	for i := len(rescues) - 1; i >= 0; i-- {
		r := rescues[i]
		body := w.Process(r.Body)

		test := exceptionTest(r.Classes)
		chain = ast.New(ast.TagIf, test, asBlockStmt(body), asBlockStmt(chain))
	}

	return asBlockStmt(chain)
}

func exceptionTest(classes []*ast.Node) *ast.Node {
	if len(classes) == 0 {
		return ast.New(ast.TagTrue)
	}

	var test *ast.Node

	for _, c := range classes {
		name, _ := c.Children[0].(string)

		var check *ast.Node
		if name == "String" {
			check = ast.New(ast.TagBinOp, "===", ast.New(ast.TagUnaryOp, "typeof", ast.New(ast.TagIdent, "e")), ast.New(ast.TagString, "string"))
		} else {
			check = ast.New(ast.TagInstanceOf, ast.New(ast.TagIdent, "e"), ast.New(ast.TagIdent, name))
		}

		if test == nil {
			test = check
		} else {
			test = ast.New(ast.TagLogicalOp, "||", test, check)
		}
	}

	return test
}

func wrapFinally(w *traverse.Walker, ensureClause *ast.Node) *ast.Node {
	if ensureClause == nil {
		return nil
	}

	return asBlockStmt(w.Process(ensureClause))
}

// wrapRetryLoop wraps the whole try/catch in `while (true)` with a
// trailing `break` so the success path falls through exactly once, per
// spec.md §4.4.6's retry design. The retry node itself is expected to have
// been rewritten by an earlier walk into `continue`; modeling that
// substitution here keeps the loop-wrapping concern isolated to this rule.
func wrapRetryLoop(tryStmt *ast.Node) *ast.Node {
	body := ast.New(ast.TagBlockStmt, tryStmt, ast.New(ast.TagBreak))

	return ast.New(ast.TagWhile, ast.New(ast.TagTrue), body)
}

func asBlockStmt(n *ast.Node) *ast.Node {
	if n == nil {
		return ast.New(ast.TagBlockStmt)
	}

	if n.Kind == ast.TagBlockStmt || n.Kind == ast.TagBegin {
		return ast.New(ast.TagBlockStmt, n.Children...)
	}

	return ast.New(ast.TagBlockStmt, n)
}

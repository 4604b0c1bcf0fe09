// Package blocks implements the §4.4.2 block-rewriting rules: range/times
// iteration lowered to counted for-loops, loop/upto/downto/step, hash
// destructuring iteration, and the implicit `it` block parameter.
package blocks

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

func init() {
	filterpipe.Register("blocks", func() traverse.Filter { return New() })
}

// Filter is the C4.4.2 block pass. Block node shape: (call, args, body)
// where call is the receiver send this block is attached to.
type Filter struct {
	opts filterpipe.Options
	// hashLocals is a flow-insensitive record of which local names were
	// last assigned a hash literal, consulted by handleBlock so
	// `h.each { ... }` picks the Object.entries lowering the same way a
	// literal `{...}.each { ... }` does. Real type inference is out of
	// reach for a single-pass rewrite, so this is intentionally coarse: a
	// later reassignment to a non-hash value would stop being tracked
	// correctly, and a `# Pragma: entries` comment exists as the escape
	// hatch for whatever this heuristic gets wrong.
	hashLocals map[string]bool
}

// New builds a blocks Filter.
func New() *Filter { return &Filter{hashLocals: map[string]bool{}} }

// Name implements traverse.Filter.
func (f *Filter) Name() string { return "blocks" }

// SetOptions implements filterpipe.OptionedFilter.
func (f *Filter) SetOptions(o filterpipe.Options) { f.opts = o }

// Handlers implements traverse.Filter.
func (f *Filter) Handlers() map[ast.Tag]traverse.HandlerFunc {
	return map[ast.Tag]traverse.HandlerFunc{
		ast.TagBlock:       f.handleBlock,
		ast.TagLocalAssign: f.trackLocalAssign,
	}
}

// trackLocalAssign records hash-literal assignments for isHash's benefit,
// then declines (nil) so the emitter's scope writer still owns rendering
// the assignment itself.
func (f *Filter) trackLocalAssign(w *traverse.Walker, n *ast.Node) *ast.Node {
	name, _ := n.Children[0].(string)
	f.hashLocals[name] = n.Child(1) != nil && n.Child(1).Kind == ast.TagHash

	return nil
}

func (f *Filter) isHash(n *ast.Node) bool {
	if n == nil {
		return false
	}

	if n.Kind == ast.TagHash {
		return true
	}

	if n.Kind == ast.TagLocalRead {
		if name, ok := n.Children[0].(string); ok {
			return f.hashLocals[name]
		}
	}

	return false
}

func (f *Filter) handleBlock(w *traverse.Walker, n *ast.Node) *ast.Node {
	call := n.Child(0)
	if call == nil || call.Kind != ast.TagSend {
		return w.ProcessChildren(n)
	}

	method, _ := call.Children[1].(string)
	receiver := call.Child(0)

	switch {
	case method == "each" && receiver != nil && isRange(receiver):
		return w.Emit(f.rangeEach(w, receiver, n))
	case method == "step" && receiver != nil && isRange(receiver):
		return w.Emit(f.steppedRange(w, receiver, call.Child(2), n))
	case method == "times":
		return w.Emit(f.timesLoop(w, receiver, n))
	case method == "loop":
		return w.Emit(f.infiniteLoop(w, n))
	case method == "upto":
		return w.Emit(f.countedLoop(w, receiver, call.Child(2), ast.New(ast.TagInt, int64(1)), n))
	case method == "downto":
		return w.Emit(f.countedLoop(w, receiver, call.Child(2), ast.New(ast.TagInt, int64(-1)), n))
	case method == "each" && receiver != nil && f.isHash(receiver):
		return w.Emit(f.hashEach(w, receiver, n))
	case method == "each" && receiver != nil:
		return w.Emit(f.arrayEach(w, receiver, n))
	default:
		return w.Process(reattachBlock(call, n))
	}
}

// reattachBlock folds a block this filter doesn't lower itself (map,
// select, sort_by, reduce, and friends) back into its call as a trailing
// argument, so the rebuilt TagSend can flow through the method-name-driven
// rules further down the pipeline. The block's (args, body) pair is kept
// under its own TagBlock node rather than flattened into the call, since
// that's the shape the method rules' blockToArrow/sortByComparator helpers
// expect a block argument to arrive in. The rebuilt node is marked
// Parenthesized even though the source call had no parens: a block
// argument makes the call unambiguously a call (unlike a bare `x.keys`),
// the same disambiguation explicit parens give methods.handleSend's
// Include gate, so it should be eligible for rewriting the same way.
func reattachBlock(call *ast.Node, block *ast.Node) *ast.Node {
	blockArg := ast.New(ast.TagBlock, block.Child(1), block.Child(2))

	children := make([]ast.Value, 0, len(call.Children)+1)
	children = append(children, call.Children...)
	children = append(children, blockArg)

	return &ast.Node{Kind: ast.TagSend, Children: children, Loc: &ast.Loc{Parenthesized: true}}
}

func isRange(n *ast.Node) bool {
	return n.Kind == ast.TagRangeInclusive || n.Kind == ast.TagRangeExclusive
}

// paramName resolves the name bound to the i'th block parameter: the
// declared `|name|` if one exists, otherwise (for the first parameter
// only) "it" if body bare-references the implicit block parameter newest
// SRC dialects allow in place of a declared `|it|`, otherwise fallback.
func paramName(args, body *ast.Node, i int, fallback string) string {
	if args != nil {
		params := args.ChildNodes()
		if i >= len(params) {
			return fallback
		}

		if name, ok := params[i].Children[0].(string); ok {
			return name
		}

		return fallback
	}

	if i == 0 && referencesImplicitIt(body) {
		return "it"
	}

	return fallback
}

// referencesImplicitIt reports whether n bare-references "it" the way a
// block with no declared parameters does under SRC's implicit-parameter
// dialect: either a resolved local read or an as-yet-undispatched bare
// call, since at this point in the pipeline dispatch hasn't run yet.
func referencesImplicitIt(n *ast.Node) bool {
	found := false

	ast.VisitPreOrder(n, func(cur *ast.Node) {
		if found {
			return
		}

		switch cur.Kind {
		case ast.TagLocalRead:
			if name, ok := cur.Children[0].(string); ok && name == "it" {
				found = true
			}
		case ast.TagSend:
			if cur.Child(0) == nil && len(cur.Children) == 2 {
				if name, ok := cur.Children[1].(string); ok && name == "it" {
					found = true
				}
			}
		}
	})

	return found
}

// bindImplicitIt returns the block body ready to process: unchanged unless
// the block declared no parameters and paramName resolved varName to the
// invented "it" binding, in which case every bare reference to it is
// rewritten to a resolved local read first.
func bindImplicitIt(varName string, args, body *ast.Node) *ast.Node {
	if args == nil && varName == "it" {
		return substituteImplicitIt(body)
	}

	return body
}

// substituteImplicitIt rewrites every bare, no-arg `it` call in n (the
// only shape the parser can have produced for an undeclared identifier)
// into a resolved local read, so it renders as the plain identifier "it"
// once the block's invented parameter binds that name.
func substituteImplicitIt(n *ast.Node) *ast.Node {
	if n == nil {
		return nil
	}

	if n.Kind == ast.TagSend && n.Child(0) == nil && len(n.Children) == 2 {
		if name, ok := n.Children[1].(string); ok && name == "it" {
			return ast.New(ast.TagLocalRead, "it")
		}
	}

	children := make([]ast.Value, len(n.Children))

	for i, c := range n.Children {
		if node, ok := c.(*ast.Node); ok && node != nil {
			children[i] = substituteImplicitIt(node)
		} else {
			children[i] = c
		}
	}

	return ast.Updated(n, n.Kind, children)
}

// rangeEach lowers `(a..b).each { |i| body }` to a counted for-loop, `<=`
// for an inclusive range and `<` for an exclusive one.
func (f *Filter) rangeEach(w *traverse.Walker, rng *ast.Node, block *ast.Node) *ast.Node {
	varName := paramName(block.Child(1), block.Child(2), 0, "i")
	lower := w.Process(rng.Child(0))
	upper := w.Process(rng.Child(1))
	body := w.Process(bindImplicitIt(varName, block.Child(1), block.Child(2)))

	cmp := "<"
	if rng.Kind == ast.TagRangeInclusive {
		cmp = "<="
	}

	init := ast.New(ast.TagVarDecl, "let", varName, lower)
	test := ast.New(ast.TagBinOp, cmp, ast.New(ast.TagIdent, varName), upper)
	update := ast.New(ast.TagUnaryOp, "++", ast.New(ast.TagIdent, varName))

	return ast.New(ast.TagForClassic, init, test, update, asBlockStmt(body))
}

// steppedRange lowers `(a..b).step(n) { |v| body }` to a counted for-loop
// whose comparison and update honor n's sign: ascending with `+=` and `<`/
// `<=` for a positive step, descending with `+=` (still; a negative
// literal step already carries its own sign) and `>`/`>=` for a negative
// one.
func (f *Filter) steppedRange(w *traverse.Walker, rng, stepArg, block *ast.Node) *ast.Node {
	varName := paramName(block.Child(1), block.Child(2), 0, "v")
	lower := w.Process(rng.Child(0))
	upper := w.Process(rng.Child(1))
	step := w.Process(stepArg)
	body := w.Process(bindImplicitIt(varName, block.Child(1), block.Child(2)))

	descending := false
	if s, ok := stepArg.Children[0].(int64); ok && s < 0 {
		descending = true
	}

	cmp := "<"
	if descending {
		cmp = ">"
	}

	if rng.Kind == ast.TagRangeInclusive {
		cmp += "="
	}

	init := ast.New(ast.TagVarDecl, "let", varName, lower)
	test := ast.New(ast.TagBinOp, cmp, ast.New(ast.TagIdent, varName), upper)
	update := ast.New(ast.TagAssign, "+=", ast.New(ast.TagIdent, varName), step)

	return ast.New(ast.TagForClassic, init, test, update, asBlockStmt(body))
}

// timesLoop lowers `n.times { |i| body }` to `for (let i = 0; i < n; i++)`.
func (f *Filter) timesLoop(w *traverse.Walker, n *ast.Node, block *ast.Node) *ast.Node {
	varName := paramName(block.Child(1), block.Child(2), 0, "i")
	limit := w.Process(n)
	body := w.Process(bindImplicitIt(varName, block.Child(1), block.Child(2)))

	init := ast.New(ast.TagVarDecl, "let", varName, ast.New(ast.TagInt, int64(0)))
	test := ast.New(ast.TagBinOp, "<", ast.New(ast.TagIdent, varName), limit)
	update := ast.New(ast.TagUnaryOp, "++", ast.New(ast.TagIdent, varName))

	return ast.New(ast.TagForClassic, init, test, update, asBlockStmt(body))
}

// infiniteLoop lowers `loop { body }` to `while (true) { body }`.
func (f *Filter) infiniteLoop(w *traverse.Walker, block *ast.Node) *ast.Node {
	body := w.Process(block.Child(2))

	return ast.New(ast.TagWhile, ast.New(ast.TagTrue), asBlockStmt(body))
}

// countedLoop lowers `a.upto(b) { |i| body }` / `a.downto(b) { |i| body }`
// to a counted for-loop with the given step's sign.
func (f *Filter) countedLoop(w *traverse.Walker, from, to *ast.Node, step *ast.Node, block *ast.Node) *ast.Node {
	varName := paramName(block.Child(1), block.Child(2), 0, "i")
	lower := w.Process(from)
	upper := w.Process(to)
	body := w.Process(bindImplicitIt(varName, block.Child(1), block.Child(2)))

	cmp := "<="
	updateOp := "++"

	if s, ok := step.Children[0].(int64); ok && s < 0 {
		cmp = ">="
		updateOp = "--"
	}

	init := ast.New(ast.TagVarDecl, "let", varName, lower)
	test := ast.New(ast.TagBinOp, cmp, ast.New(ast.TagIdent, varName), upper)
	update := ast.New(ast.TagUnaryOp, updateOp, ast.New(ast.TagIdent, varName))

	return ast.New(ast.TagForClassic, init, test, update, asBlockStmt(body))
}

// hashEach lowers `h.each { |k, v| body }` to
// `Object.entries(h).forEach(([k, v]) => body)`.
func (f *Filter) hashEach(w *traverse.Walker, hash *ast.Node, block *ast.Node) *ast.Node {
	// A hash-each block destructures two names from one value, so the
	// single-parameter implicit-it convention does not apply here.
	keyName := paramName(block.Child(1), nil, 0, "k")
	valName := paramName(block.Child(1), nil, 1, "v")
	processedHash := w.Process(hash)
	body := w.Process(block.Child(2))

	entries := ast.New(ast.TagCallExpr,
		ast.New(ast.TagMember, ast.New(ast.TagIdent, "Object"), "entries", false), processedHash)

	arrow := ast.New(ast.TagArrow, []string{"[" + keyName + ", " + valName + "]"}, asBlockStmt(body), false)

	return ast.New(ast.TagCallExpr, ast.New(ast.TagMember, entries, "forEach", false), arrow)
}

// arrayEach lowers `arr.each { |x| body }` to `for (let x of arr) { body }`,
// the general collection-iteration case falling under no other block rule.
func (f *Filter) arrayEach(w *traverse.Walker, receiver, block *ast.Node) *ast.Node {
	varName := paramName(block.Child(1), block.Child(2), 0, "x")
	iterable := w.Process(receiver)
	body := w.Process(bindImplicitIt(varName, block.Child(1), block.Child(2)))

	return ast.New(ast.TagForOf, varName, iterable, asBlockStmt(body))
}

func asBlockStmt(body *ast.Node) *ast.Node {
	if body == nil {
		return ast.New(ast.TagBlockStmt)
	}

	if body.Kind == ast.TagBlockStmt || body.Kind == ast.TagBegin {
		return ast.New(ast.TagBlockStmt, body.Children...)
	}

	return ast.New(ast.TagBlockStmt, body)
}

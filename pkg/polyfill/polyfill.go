// Package polyfill implements the C7 feature-dial gate: a catalogue of
// runtime helpers for SRC-idiomatic APIs not universally available at the
// selected ES level, injected into the prepend list at most once each.
package polyfill

import (
	"sort"

	"github.com/ruby2js/ruby2go/pkg/ast"
)

// ID names one polyfill in the catalogue.
type ID string

// Catalogue IDs, named after the SRC method or TGT constructor they back.
const (
	ArrayFirst      ID = "Array#first"
	ArrayLast       ID = "Array#last"
	ArrayCompact    ID = "Array#compact"
	ArrayRindex     ID = "Array#rindex"
	ArrayInsert     ID = "Array#insert"
	ArrayDeleteAt   ID = "Array#delete_at"
	StringChomp     ID = "String#chomp"
	StringCount     ID = "String#count"
	ObjectToA       ID = "Object#to_a"
	RegExpEscape    ID = "RegExp.escape"
	RangeClass      ID = "$Range"
	TruthyHelper    ID = "$T"
	LogicalOrHelper ID = "$ror"
	RandHelper      ID = "$rand"
)

// source holds each polyfill's body, expressed as an AST so that later
// filters still see and can rewrite it like any other program fragment —
// per spec.md §4.7, a polyfill is not opaque text.
var source = map[ID]func() *ast.Node{
	ArrayFirst: func() *ast.Node {
		return polyfillMethod("first", []string{}, returnExpr(indexExpr(thisIdent(), 0)))
	},
	ArrayLast: func() *ast.Node {
		return polyfillMethod("last", []string{}, returnExpr(indexExpr(thisIdent(), -1)))
	},
	ArrayCompact: func() *ast.Node {
		pred := ast.New(ast.TagArrow, []string{"x"},
			ast.New(ast.TagLogicalOp, "&&",
				ast.New(ast.TagBinOp, "!==", ast.New(ast.TagIdent, "x"), ast.New(ast.TagNil)),
				ast.New(ast.TagBinOp, "!==", ast.New(ast.TagIdent, "x"), ast.New(ast.TagIdent, "undefined"))),
			false)

		return polyfillMethod("compact", []string{}, returnExpr(ast.New(ast.TagCallExpr,
			ast.New(ast.TagMember, thisIdent(), "filter", false), pred)))
	},
	ArrayRindex: func() *ast.Node {
		return polyfillFunction("$arrayRindex", []string{"arr", "value"}, ast.New(ast.TagNil))
	},
	ArrayInsert: func() *ast.Node {
		return polyfillFunction("$arrayInsert", []string{"arr", "index", "value"}, ast.New(ast.TagNil))
	},
	ArrayDeleteAt: func() *ast.Node {
		return polyfillFunction("$arrayDeleteAt", []string{"arr", "index"}, ast.New(ast.TagNil))
	},
	StringChomp: func() *ast.Node {
		return polyfillMethod("chomp", []string{}, returnExpr(ast.New(ast.TagCallExpr,
			ast.New(ast.TagMember, thisIdent(), "replace", false),
			ast.New(ast.TagRegexp, `\r?\n$`, ""), ast.New(ast.TagString, ""))))
	},
	StringCount: func() *ast.Node {
		return polyfillFunction("$stringCount", []string{"s", "chars"}, ast.New(ast.TagNil))
	},
	ObjectToA: func() *ast.Node {
		return polyfillFunction("$objectToA", []string{"o"}, ast.New(ast.TagCallExpr,
			ast.New(ast.TagMember, ast.New(ast.TagIdent, "Object"), "entries", false), ast.New(ast.TagIdent, "o")))
	},
	RegExpEscape: func() *ast.Node {
		return polyfillFunction("$regExpEscape", []string{"s"}, ast.New(ast.TagCallExpr,
			ast.New(ast.TagMember, ast.New(ast.TagIdent, "s"), "replace", false),
			ast.New(ast.TagRegexp, `[.*+?^${}()|[\]\\]`, "g"), ast.New(ast.TagString, `\\$&`)))
	},
	RangeClass: func() *ast.Node {
		return &ast.Node{Kind: ast.TagClassExpr, Children: []ast.Value{"$Range", nil}}
	},
	TruthyHelper: func() *ast.Node {
		x := ast.New(ast.TagIdent, "x")

		return polyfillFunction("$T", []string{"x"}, ast.New(ast.TagLogicalOp, "&&",
			ast.New(ast.TagBinOp, "!==", x, ast.New(ast.TagNil)),
			ast.New(ast.TagBinOp, "!==", x, ast.New(ast.TagFalse))))
	},
	LogicalOrHelper: func() *ast.Node {
		a, b := ast.New(ast.TagIdent, "a"), ast.New(ast.TagIdent, "b")
		truthyA := ast.New(ast.TagCallExpr, ast.New(ast.TagIdent, "$T"), a)

		return polyfillFunction("$ror", []string{"a", "b"}, ast.New(ast.TagTernary, truthyA, a, b))
	},
	RandHelper: func() *ast.Node {
		mathRandom := ast.New(ast.TagCallExpr, ast.New(ast.TagMember, ast.New(ast.TagIdent, "Math"), "random", false))
		scaled := ast.New(ast.TagBinOp, "*", mathRandom, ast.New(ast.TagIdent, "n"))

		return polyfillFunction("$rand", []string{"n"}, ast.New(ast.TagCallExpr,
			ast.New(ast.TagMember, ast.New(ast.TagIdent, "Math"), "floor", false), scaled))
	},
}

func thisIdent() *ast.Node      { return ast.New(ast.TagIdent, "this") }
func returnExpr(n *ast.Node) *ast.Node { return ast.New(ast.TagReturn, n) }

func indexExpr(recv *ast.Node, i int) *ast.Node {
	return ast.New(ast.TagIndex, recv, ast.New(ast.TagInt, int64(i)))
}

func polyfillMethod(name string, params []string, body *ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.TagMethodDef, Children: []ast.Value{name, "normal", params, body, false}}
}

func polyfillFunction(name string, params []string, body *ast.Node) *ast.Node {
	return ast.New(ast.TagFunctionExpr, name, params, returnExpr(body), false)
}

// Gate tracks which polyfills a translation unit ends up needing. Filters
// call Require as they encounter a construct needing one; the driver
// calls Flush once, after all filters run, to get the dedupe'd prelude
// nodes in deterministic (sorted) order.
type Gate struct {
	required map[ID]bool
}

// NewGate returns an empty Gate.
func NewGate() *Gate { return &Gate{required: map[ID]bool{}} }

// Require marks id as needed by the current translation unit. Calling it
// more than once for the same id is a no-op — Flush emits each polyfill
// exactly once, per spec.md §4.7.
func (g *Gate) Require(id ID) {
	g.required[id] = true
}

// Flush returns the AST for every required polyfill, in deterministic
// (lexical ID) order so repeated compiles of the same source produce
// byte-identical output (testable property 3).
func (g *Gate) Flush() []*ast.Node {
	ids := make([]string, 0, len(g.required))
	for id := range g.required {
		ids = append(ids, string(id))
	}

	sort.Strings(ids)

	out := make([]*ast.Node, 0, len(ids))

	for _, id := range ids {
		if build, ok := source[ID(id)]; ok {
			out = append(out, build())
		}
	}

	return out
}

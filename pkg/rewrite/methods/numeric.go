package methods

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
)

// registerNumericRules wires the §4.4.1 numeric category: abs/round/ceil/
// floor to Math.*, zero?/positive?/negative? to comparisons, and rand.
func registerNumericRules(f *Filter) {
	mathFn := map[string]string{"abs": "abs", "round": "round", "ceil": "ceil", "floor": "floor"}

	for srcName, jsName := range mathFn {
		f.onArity(srcName, 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
			return call(member(ast.New(ast.TagIdent, "Math"), jsName), recv)
		})
	}

	f.onArity("zero?", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return binop("===", recv, ast.New(ast.TagInt, int64(0)))
	})

	f.onArity("positive?", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return binop(">", recv, ast.New(ast.TagInt, int64(0)))
	})

	f.onArity("negative?", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return binop("<", recv, ast.New(ast.TagInt, int64(0)))
	})

	f.onArity("rand", 1, func(_ filterpipe.Options, _ *ast.Node, args []*ast.Node) *ast.Node {
		random := call(member(ast.New(ast.TagIdent, "Math"), "random"))
		scaled := binop("*", random, args[0])

		return call(ast.New(ast.TagIdent, "parseInt"), scaled, ast.New(ast.TagInt, int64(10)))
	})
}

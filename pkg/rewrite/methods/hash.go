package methods

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
)

// registerHashRules wires the §4.4.1 hash-method category: merge, keys/
// values/entries, has_key?/key?/member?.
func registerHashRules(f *Filter) {
	f.onArity("merge", 1, func(_ filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return call(member(ast.New(ast.TagIdent, "Object"), "assign"), ast.New(ast.TagHash), recv, args[0])
	})

	f.onArity("keys", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return call(member(ast.New(ast.TagIdent, "Object"), "keys"), recv)
	})

	f.onArity("values", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return call(member(ast.New(ast.TagIdent, "Object"), "values"), recv)
	})

	f.onArity("entries", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return call(member(ast.New(ast.TagIdent, "Object"), "entries"), recv)
	})

	hasKey := func(_ filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return ast.New(ast.TagInQ, args[0], recv)
	}

	f.onArity("has_key?", 1, hasKey)
	f.onArity("key?", 1, hasKey)
	f.onArity("member?", 1, hasKey)
}

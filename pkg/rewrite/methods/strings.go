package methods

import (
	"strings"

	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
)

// registerStringRules wires the §4.4.1 string-method category: sub/gsub,
// start_with?/end_with?, rjust/ljust, strip family, the to_i/to_f/to_s
// conversions (parseInt/parseFloat/toString), and the to_sym no-op.
func registerStringRules(f *Filter) {
	f.onArity("sub", 2, func(_ filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return methodCall(recv, "replace", args[0], args[1])
	})

	f.onArity("gsub", 2, func(o filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		if o.ES2021() {
			return methodCall(recv, "replaceAll", args[0], args[1])
		}

		return methodCall(recv, "replace", globalizeRegexp(args[0]), args[1])
	})

	f.onArity("start_with?", 1, func(_ filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return methodCall(recv, "startsWith", args[0])
	})

	f.onArity("end_with?", 1, func(_ filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return methodCall(recv, "endsWith", args[0])
	})

	f.onArity("ord", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return call(member(recv, "codePointAt"), ast.New(ast.TagInt, int64(0)))
	})

	f.onArity("chr", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return methodCall(recv, "charAt", ast.New(ast.TagInt, int64(0)))
	})

	f.onArity("rjust", 1, func(o filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return padCall(o, recv, "padStart", args[0], nil)
	})

	f.onArity("rjust", 2, func(o filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return padCall(o, recv, "padStart", args[0], args[1])
	})

	f.onArity("ljust", 1, func(o filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return padCall(o, recv, "padEnd", args[0], nil)
	})

	f.onArity("ljust", 2, func(o filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		return padCall(o, recv, "padEnd", args[0], args[1])
	})

	f.onArity("strip", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return methodCall(recv, "trim")
	})

	f.onArity("lstrip", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return methodCall(recv, "trimStart")
	})

	f.onArity("rstrip", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return methodCall(recv, "trimEnd")
	})

	f.onArity("to_i", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return call(ast.New(ast.TagIdent, "parseInt"), recv, ast.New(ast.TagInt, int64(10)))
	})

	f.onArity("to_f", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return call(ast.New(ast.TagIdent, "parseFloat"), recv)
	})

	f.onArity("to_s", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return methodCall(recv, "toString")
	})

	// Symbols already emit as plain quoted strings (pkg/emit's TagSymbol
	// case), so converting one to a symbol is a no-op identity.
	f.onArity("to_sym", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return recv
	})

	f.onArity("chars", 0, func(_ filterpipe.Options, recv *ast.Node, _ []*ast.Node) *ast.Node {
		return methodCall(recv, "split", ast.New(ast.TagString, ""))
	})

	f.onArity("scan", 1, func(_ filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		matches := methodCall(recv, "matchAll", globalizeRegexp(args[0]))

		return call(ast.New(ast.TagMember, ast.New(ast.TagIdent, "Array"), "from", false), matches)
	})
}

// padCall emits padStart/padEnd when ES2017+, otherwise a polyfill call to
// the same-named helper the polyfill gate will have registered.
func padCall(o filterpipe.Options, recv *ast.Node, name string, width, padChar *ast.Node) *ast.Node {
	args := []*ast.Node{width}
	if padChar != nil {
		args = append(args, padChar)
	}

	if o.ES2017() {
		return methodCall(recv, name, args...)
	}

	return call(ast.New(ast.TagIdent, "$"+name), append([]*ast.Node{recv}, args...)...)
}

// globalizeRegexp wraps a regexp-literal argument so its "g" flag is set,
// the pre-ES2021 substitute for replaceAll on a string.replace call. A
// non-regexp argument (a plain string pattern, which String.replace
// already replaces only once regardless of flags) passes through
// unchanged — gsub's caller-supplied string arguments still only replace
// the first match below ES2021, matching String#sub's semantics.
func globalizeRegexp(arg *ast.Node) *ast.Node {
	if arg == nil || arg.Kind != ast.TagRegexp {
		return arg
	}

	pattern, _ := arg.Children[0].(string)

	var flags string
	if len(arg.Children) > 1 {
		flags, _ = arg.Children[1].(string)
	}

	if strings.Contains(flags, "g") {
		return arg
	}

	return ast.New(ast.TagRegexp, pattern, flags+"g")
}

package methods

import (
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
)

// registerTypeTestRules wires the §4.4.1 is_a?/kind_of?/instance_of?
// category against the built-in class table. Arguments are expected to be
// a bare constant reference (TagConstRead carrying the class name as its
// only child); user-defined classes fall through to `instanceof` for
// is_a?/kind_of? and to a `constructor ===` check for instance_of?.
func registerTypeTestRules(f *Filter) {
	isA := func(_ filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		className, ok := constName(args[0])
		if !ok {
			return nil
		}

		return typeTest(className, recv)
	}

	f.onArity("is_a?", 1, isA)
	f.onArity("kind_of?", 1, isA)

	f.onArity("instance_of?", 1, func(_ filterpipe.Options, recv *ast.Node, args []*ast.Node) *ast.Node {
		className, ok := constName(args[0])
		if !ok {
			return nil
		}

		if builtin := typeTest(className, recv); className != "user-defined" && isKnownBuiltin(className) {
			return builtin
		}

		return binop("===", member(recv, "constructor"), ast.New(ast.TagIdent, className))
	})
}

func constName(n *ast.Node) (string, bool) {
	if n == nil || n.Kind != ast.TagConstRead {
		return "", false
	}

	name, ok := n.Children[0].(string)

	return name, ok
}

// typeTest returns the §4.4.1 type-test mapping for className, or a plain
// `instanceof` check for anything not in the built-in table (the
// "user-defined" row).
func typeTest(className string, recv *ast.Node) *ast.Node {
	switch className {
	case "Array":
		return call(member(ast.New(ast.TagIdent, "Array"), "isArray"), recv)
	case "Integer":
		return ast.New(ast.TagLogicalOp, "&&",
			binop("===", ast.New(ast.TagUnaryOp, "typeof", recv), ast.New(ast.TagString, "number")),
			call(member(ast.New(ast.TagIdent, "Number"), "isInteger"), recv))
	case "Float", "Numeric":
		return binop("===", ast.New(ast.TagUnaryOp, "typeof", recv), ast.New(ast.TagString, "number"))
	case "String":
		return binop("===", ast.New(ast.TagUnaryOp, "typeof", recv), ast.New(ast.TagString, "string"))
	case "Symbol":
		return binop("===", ast.New(ast.TagUnaryOp, "typeof", recv), ast.New(ast.TagString, "symbol"))
	case "Hash":
		isObj := binop("===", ast.New(ast.TagUnaryOp, "typeof", recv), ast.New(ast.TagString, "object"))
		notNull := binop("!==", recv, ast.New(ast.TagNil))
		notArray := ast.New(ast.TagUnaryOp, "!", call(member(ast.New(ast.TagIdent, "Array"), "isArray"), recv))

		return ast.New(ast.TagLogicalOp, "&&", ast.New(ast.TagLogicalOp, "&&", isObj, notNull), notArray)
	case "NilClass":
		return ast.New(ast.TagLogicalOp, "||",
			binop("===", recv, ast.New(ast.TagNil)),
			binop("===", recv, ast.New(ast.TagIdent, "undefined")))
	case "TrueClass":
		return binop("===", recv, ast.New(ast.TagTrue))
	case "FalseClass":
		return binop("===", recv, ast.New(ast.TagFalse))
	case "Boolean":
		return binop("===", ast.New(ast.TagUnaryOp, "typeof", recv), ast.New(ast.TagString, "boolean"))
	case "Proc", "Function":
		return binop("===", ast.New(ast.TagUnaryOp, "typeof", recv), ast.New(ast.TagString, "function"))
	case "Regexp":
		return ast.New(ast.TagInstanceOf, recv, ast.New(ast.TagIdent, "RegExp"))
	case "Exception", "Error":
		return ast.New(ast.TagInstanceOf, recv, ast.New(ast.TagIdent, "Error"))
	default:
		return ast.New(ast.TagInstanceOf, recv, ast.New(ast.TagIdent, className))
	}
}

func isKnownBuiltin(className string) bool {
	switch className {
	case "Array", "Integer", "Float", "Numeric", "String", "Symbol", "Hash",
		"NilClass", "TrueClass", "FalseClass", "Boolean", "Proc", "Function",
		"Regexp", "Exception", "Error":
		return true
	default:
		return false
	}
}

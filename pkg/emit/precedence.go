package emit

import "github.com/ruby2js/ruby2go/pkg/ast"

// precedence mirrors TGT's own binary-operator precedence table, used to
// decide whether a child expression needs parentheses around it. Higher
// binds tighter.
var binaryPrecedence = map[string]int{
	"??": 1,
	"||": 2,
	"&&": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7, "!=": 7, "===": 7, "!==": 7,
	"<": 8, ">": 8, "<=": 8, ">=": 8, "instanceof": 8, "in": 8,
	"<<": 9, ">>": 9, ">>>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
	"**": 12,
}

func precedenceOf(n *ast.Node) int {
	if n == nil {
		return maxPrecedence
	}

	switch n.Kind {
	case ast.TagBinOp, ast.TagLogicalOp:
		if op, ok := n.Children[0].(string); ok {
			if p, ok := binaryPrecedence[op]; ok {
				return p
			}
		}

		return 0
	case ast.TagTernary:
		return 1
	case ast.TagUnaryOp:
		return 13
	case ast.TagAssign, ast.TagLocalAssign:
		return 0
	default:
		return maxPrecedence
	}
}

// maxPrecedence is higher than any operator's precedence, used for atoms
// (literals, identifiers, calls, members) that never need grouping.
const maxPrecedence = 100

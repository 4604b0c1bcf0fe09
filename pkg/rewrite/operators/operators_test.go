package operators_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/rewrite/operators"
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

func process(n *ast.Node, o filterpipe.Options) *ast.Node {
	f := operators.New()
	f.SetOptions(o)

	w := traverse.NewWalker(ast.NewComments(), f)

	return w.Process(n)
}

func TestPowUsesStarStarAtES2015(t *testing.T) {
	t.Parallel()

	n := ast.New(ast.TagSend, ast.New(ast.TagInt, int64(2)), "**", ast.New(ast.TagInt, int64(3)))
	result := process(n, filterpipe.Options{ESLevel: filterpipe.ES2015})

	assert.Equal(t, ast.TagBinOp, result.Kind)
	assert.Equal(t, "**", result.Children[0])
}

func TestPowFallsBackToMathPowPreES2015(t *testing.T) {
	t.Parallel()

	n := ast.New(ast.TagSend, ast.New(ast.TagInt, int64(2)), "**", ast.New(ast.TagInt, int64(3)))
	result := process(n, filterpipe.Options{})

	assert.Equal(t, ast.TagCallExpr, result.Kind)
}

func TestSpaceshipProducesNestedTernary(t *testing.T) {
	t.Parallel()

	n := ast.New(ast.TagSend, ast.New(ast.TagLocalRead, "a"), "<=>", ast.New(ast.TagLocalRead, "b"))
	result := process(n, filterpipe.Options{})

	assert.Equal(t, ast.TagTernary, result.Kind)
}

func TestInvertPushesNotIntoComparison(t *testing.T) {
	t.Parallel()

	comparison := ast.New(ast.TagSend, ast.New(ast.TagLocalRead, "x"), "<", ast.New(ast.TagLocalRead, "y"))
	n := ast.New(ast.TagSend, comparison, "!")

	result := process(n, filterpipe.Options{})

	assert.Equal(t, ast.TagBinOp, result.Kind)
	assert.Equal(t, ">=", result.Children[0])
}

func TestOrAssignUsesLogicalAssignOperatorAtES2021(t *testing.T) {
	t.Parallel()

	n := ast.New(ast.TagOrAssign, "name", ast.New(ast.TagLocalRead, "default"))
	result := process(n, filterpipe.Options{ESLevel: filterpipe.ES2021})

	assert.Equal(t, ast.TagAssign, result.Kind)
	assert.Equal(t, "||=", result.Children[0])
}

func TestOrAssignPragmaForcesNullishAtES2021(t *testing.T) {
	t.Parallel()

	n := ast.New(ast.TagOrAssign, "name", ast.New(ast.TagLocalRead, "default"))
	n = n.WithLoc(&ast.Loc{BufferName: "a.rb", Line: 1})

	pragmas := filterpipe.NewPragmas("a.rb", []string{"# Pragma: or ??"})
	result := process(n, filterpipe.Options{ESLevel: filterpipe.ES2021, Pragmas: pragmas})

	assert.Equal(t, ast.TagAssign, result.Kind)
	assert.Equal(t, "??=", result.Children[0])
}

func TestOrAssignDesugarsToLogicalOrBelowES2021(t *testing.T) {
	t.Parallel()

	n := ast.New(ast.TagOrAssign, "name", ast.New(ast.TagLocalRead, "default"))
	result := process(n, filterpipe.Options{})

	assert.Equal(t, ast.TagAssign, result.Kind)
	assert.Equal(t, "=", result.Children[0])

	value, _ := result.Children[2].(*ast.Node)
	assert.Equal(t, ast.TagLogicalOp, value.Kind)
	assert.Equal(t, "||", value.Children[0])
}

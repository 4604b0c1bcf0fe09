package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruby2js/ruby2go/pkg/ast"
)

func TestUpdatedIsIdempotentNoOp(t *testing.T) {
	t.Parallel()

	comments := ast.NewComments()
	n := ast.New(ast.TagSend, ast.New(ast.TagLocalRead, "x"), "empty?")
	comments.Attach(n, "# check emptiness")

	same := ast.Updated(n, n.Kind, n.Children)

	assert.True(t, ast.Equal(n, same))
	assert.Equal(t, comments.For(n), comments.For(same))
}

func TestUpdatedChangesKindAndChildren(t *testing.T) {
	t.Parallel()

	n := ast.New(ast.TagSend, ast.New(ast.TagLocalRead, "x"), "empty?")
	replaced := ast.Updated(n, ast.TagJSRaw, []ast.Value{"x.length === 0"})

	assert.Equal(t, ast.TagJSRaw, replaced.Kind)
	assert.False(t, ast.Equal(n, replaced))
}

func TestEqualReflexiveSymmetricTransitive(t *testing.T) {
	t.Parallel()

	a := ast.New(ast.TagArray, ast.New(ast.TagInt, int64(1)), ast.New(ast.TagInt, int64(2)))
	b := ast.New(ast.TagArray, ast.New(ast.TagInt, int64(1)), ast.New(ast.TagInt, int64(2)))
	c := ast.New(ast.TagArray, ast.New(ast.TagInt, int64(1)), ast.New(ast.TagInt, int64(2)))

	assert.True(t, ast.Equal(a, a), "reflexive")
	assert.True(t, ast.Equal(a, b), "symmetric left")
	assert.True(t, ast.Equal(b, a), "symmetric right")
	assert.True(t, ast.Equal(b, c))
	assert.True(t, ast.Equal(a, c), "transitive")
}

func TestEqualRejectsReferentialAssumption(t *testing.T) {
	t.Parallel()

	a := ast.New(ast.TagInt, int64(1))
	b := ast.New(ast.TagInt, int64(1))

	assert.NotSame(t, a, b)
	assert.True(t, ast.Equal(a, b))
}

func TestEqualDetectsDifferingKindOrArity(t *testing.T) {
	t.Parallel()

	base := ast.New(ast.TagInt, int64(1))

	assert.False(t, ast.Equal(base, ast.New(ast.TagFloat, int64(1))))
	assert.False(t, ast.Equal(base, ast.New(ast.TagInt, int64(1), int64(2))))
	assert.False(t, ast.Equal(base, nil))
}

func TestIsMethodReadsParenthesizedFlag(t *testing.T) {
	t.Parallel()

	withParens := ast.New(ast.TagSend).WithLoc(&ast.Loc{Parenthesized: true})
	withoutParens := ast.New(ast.TagSend).WithLoc(&ast.Loc{Parenthesized: false})
	noLoc := ast.New(ast.TagSend)

	assert.True(t, ast.IsMethod(withParens))
	assert.False(t, ast.IsMethod(withoutParens))
	assert.False(t, ast.IsMethod(noLoc))
}

func TestUpdatedPreservesLocation(t *testing.T) {
	t.Parallel()

	loc := &ast.Loc{Line: 4, BufferName: "a.rb"}
	n := ast.New(ast.TagLocalRead, "x").WithLoc(loc)

	updated := ast.Updated(n, ast.TagLocalRead, []ast.Value{"y"})

	assert.Same(t, loc, updated.Loc)
}

func TestChildAndChildNodes(t *testing.T) {
	t.Parallel()

	inner := ast.New(ast.TagLocalRead, "x")
	n := ast.New(ast.TagSend, inner, "empty?")

	assert.True(t, ast.Equal(inner, n.Child(0)))
	assert.Nil(t, n.Child(1))
	assert.Nil(t, n.Child(99))
	assert.Len(t, n.ChildNodes(), 1)
}

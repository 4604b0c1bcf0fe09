package emit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/emit"
)

func render(n *ast.Node) string {
	e := emit.New(emit.DefaultOptions)

	return e.Emit(nil, n)
}

func TestBinaryPrecedenceAddsParensOnlyWhenNeeded(t *testing.T) {
	t.Parallel()

	// (1 + 2) * 3 needs parens around the addition; 1 + 2 * 3 doesn't.
	mul := ast.New(ast.TagBinOp, "*",
		ast.New(ast.TagBinOp, "+", ast.New(ast.TagInt, int64(1)), ast.New(ast.TagInt, int64(2))),
		ast.New(ast.TagInt, int64(3)))

	got := render(ast.New(ast.TagExprStmt, mul))
	assert.Equal(t, "(1 + 2) * 3", got)

	add := ast.New(ast.TagBinOp, "+",
		ast.New(ast.TagInt, int64(1)),
		ast.New(ast.TagBinOp, "*", ast.New(ast.TagInt, int64(2)), ast.New(ast.TagInt, int64(3))))

	got = render(ast.New(ast.TagExprStmt, add))
	assert.Equal(t, "1 + 2 * 3", got)
}

func TestMemberAndCallExprRenderDotAndParens(t *testing.T) {
	t.Parallel()

	call := ast.New(ast.TagCallExpr,
		ast.New(ast.TagMember, ast.New(ast.TagIdent, "console"), "log", false),
		ast.New(ast.TagString, "hi"))

	got := render(ast.New(ast.TagExprStmt, call))
	assert.Equal(t, `console.log("hi")`, got)
}

func TestNextRendersContinueInsideLoopAndReturnInsideArrow(t *testing.T) {
	t.Parallel()

	loop := ast.New(ast.TagWhile, ast.New(ast.TagTrue), ast.New(ast.TagNext))
	got := render(loop)
	assert.Contains(t, got, "continue")

	arrowBody := ast.New(ast.TagBlockStmt, ast.New(ast.TagNext))
	arrow := ast.New(ast.TagArrow, []string{"x"}, arrowBody, false)

	got = render(ast.New(ast.TagExprStmt, arrow))
	assert.Contains(t, got, "return")
}

func TestIfElseChainRendersWithoutExtraBraces(t *testing.T) {
	t.Parallel()

	n := ast.New(ast.TagIf, ast.New(ast.TagTrue),
		ast.New(ast.TagBlockStmt, ast.New(ast.TagExprStmt, ast.New(ast.TagInt, int64(1)))),
		ast.New(ast.TagIf, ast.New(ast.TagFalse),
			ast.New(ast.TagBlockStmt, ast.New(ast.TagExprStmt, ast.New(ast.TagInt, int64(2)))),
			nil))

	got := render(n)
	assert.Contains(t, got, "if (true)")
	assert.Contains(t, got, "} else if (false)")
}

func TestClassWithMethodAndFieldRenders(t *testing.T) {
	t.Parallel()

	field := &ast.Node{Kind: ast.TagFieldDecl, Children: []ast.Value{"#count", true, nil}}
	ctor := &ast.Node{Kind: ast.TagMethodDef, Children: []ast.Value{
		"constructor", "constructor", []string{}, ast.New(ast.TagBlockStmt), false,
	}}

	class := &ast.Node{Kind: ast.TagClassExpr, Children: []ast.Value{"Counter", nil, field, ctor}}

	got := render(class)
	assert.Contains(t, got, "class Counter {")
	assert.Contains(t, got, "#count;")
	assert.Contains(t, got, "constructor() {")
}

func TestTemplateLiteralInterleavesStringsAndExpressions(t *testing.T) {
	t.Parallel()

	tpl := ast.New(ast.TagTemplate, "hello ", ast.New(ast.TagIdent, "name"), "!")

	got := render(ast.New(ast.TagExprStmt, tpl))
	assert.Equal(t, "`hello ${name}!`", got)
}

func TestRegexpRendersWithDelimitersAndFlags(t *testing.T) {
	t.Parallel()

	got := render(ast.New(ast.TagRegexp, "ab+c", "gi"))
	assert.Equal(t, "/ab+c/gi", got)
}

func TestRegexpWithoutFlagsRendersEmptyFlagSuffix(t *testing.T) {
	t.Parallel()

	got := render(ast.New(ast.TagRegexp, "ab+c"))
	assert.Equal(t, "/ab+c/", got)
}

func TestShortArrayRendersOnOneLine(t *testing.T) {
	t.Parallel()

	arr := ast.New(ast.TagArray, ast.New(ast.TagInt, int64(1)), ast.New(ast.TagInt, int64(2)))

	got := render(ast.New(ast.TagExprStmt, arr))
	assert.Equal(t, "[1, 2]", got)
}

func TestLongArrayExpandsToOneElementPerLine(t *testing.T) {
	t.Parallel()

	var elems []ast.Value
	for i := 0; i < 20; i++ {
		elems = append(elems, ast.New(ast.TagString, "element-number-long-enough-to-force-wrapping"))
	}

	arr := &ast.Node{Kind: ast.TagArray, Children: elems}

	got := render(ast.New(ast.TagExprStmt, arr))
	assert.True(t, strings.HasPrefix(got, "[\n"))
	assert.True(t, strings.HasSuffix(got, "\n]"))
	assert.Contains(t, got, "  \"element-number-long-enough-to-force-wrapping\",\n")
}

func TestShortHashRendersOnOneLine(t *testing.T) {
	t.Parallel()

	hash := &ast.Node{Kind: ast.TagHash, Children: []ast.Value{
		ast.New(ast.TagPair, "a", ast.New(ast.TagInt, int64(1))),
	}}

	got := render(ast.New(ast.TagExprStmt, hash))
	assert.Equal(t, `{ a: 1 }`, got)
}

func TestLongHashExpandsToOnePairPerLine(t *testing.T) {
	t.Parallel()

	hash := &ast.Node{Kind: ast.TagHash, Children: []ast.Value{
		ast.New(ast.TagPair, "firstKeyNameIsQuiteLong", ast.New(ast.TagString, "a reasonably long string value")),
		ast.New(ast.TagPair, "secondKeyNameIsAlsoLong", ast.New(ast.TagString, "another fairly long string value")),
	}}

	got := render(ast.New(ast.TagExprStmt, hash))
	assert.True(t, strings.HasPrefix(got, "{\n"))
	assert.Contains(t, got, "  firstKeyNameIsQuiteLong: \"a reasonably long string value\",\n")
	assert.True(t, strings.HasSuffix(got, "\n}"))
}

func TestEmptyArrayAndHashRenderWithoutNewlines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[]", render(ast.New(ast.TagExprStmt, &ast.Node{Kind: ast.TagArray})))
	assert.Equal(t, "{}", render(ast.New(ast.TagExprStmt, &ast.Node{Kind: ast.TagHash})))
}

func TestImportWithoutNamesRendersDefaultImport(t *testing.T) {
	t.Parallel()

	got := render(ast.New(ast.TagImport, "./shapes", "shapes"))
	assert.Equal(t, `import shapes from "./shapes"`, got)
}

func TestImportWithNamesRendersNamedImport(t *testing.T) {
	t.Parallel()

	got := render(ast.New(ast.TagImport, "./shapes", "shapes", []string{"area", "perimeter"}))
	assert.Equal(t, `import { area, perimeter } from "./shapes"`, got)
}

// Package modules implements the §4.4.3 (modules half) and §4.4.5
// lowering rules: modules without top-level state become namespace
// objects, modules with executable code become IIFEs, require/
// require_relative become import statements, and the §4.3 `autoimports`
// option hoists an import the first time a mapped bare name is read.
package modules

import (
	"path/filepath"
	"strings"

	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

func init() {
	filterpipe.Register("modules", func() traverse.Filter { return New() })
}

// Resolver follows a required file's own require chain and reports every
// name it transitively exports, so handleRequire can lower a require into
// a named import instead of an opaque default one. Implementations own
// parsing and caching; this package never parses a required file itself.
type Resolver interface {
	ResolveExports(path, fromFile string) ([]string, error)
}

// Filter is the C4.4.3/C4.4.5 module and require-handling pass.
type Filter struct {
	opts         filterpipe.Options
	resolver     Resolver
	autoImported map[string]bool
}

// New builds a modules Filter.
func New() *Filter { return &Filter{} }

// Name implements traverse.Filter.
func (f *Filter) Name() string { return "modules" }

// SetOptions implements filterpipe.OptionedFilter.
func (f *Filter) SetOptions(o filterpipe.Options) { f.opts = o }

// SetResolver installs the Resolver consulted when Options.RequireRecursive
// is set. Leaving it nil (the default) makes every require lower to a
// plain default import, same as RequireRecursive being off.
func (f *Filter) SetResolver(r Resolver) { f.resolver = r }

// Handlers implements traverse.Filter.
func (f *Filter) Handlers() map[ast.Tag]traverse.HandlerFunc {
	return map[ast.Tag]traverse.HandlerFunc{
		ast.TagModule:    f.handleModule,
		ast.TagSend:      f.handleRequire,
		ast.TagLocalRead: f.handleAutoImportRef,
		ast.TagConstRead: f.handleAutoImportRef,
	}
}

// handleAutoImportRef implements §4.3's `autoimports` option: the first
// time a bare name listed in Options.AutoImports is read anywhere in the
// translation unit, the mapped module path is appended to the prepend list
// as a default import; it is not moved ahead of entries already on the
// list. Later reads of the same name
// are left untouched since the import has already been hoisted. The node
// itself is never rewritten (nil return), only observed in passing.
func (f *Filter) handleAutoImportRef(w *traverse.Walker, n *ast.Node) *ast.Node {
	if len(f.opts.AutoImports) == 0 || len(n.Children) == 0 {
		return nil
	}

	name, ok := n.Children[0].(string)
	if !ok {
		return nil
	}

	path, ok := f.opts.AutoImports[name]
	if !ok || f.autoImported[name] {
		return nil
	}

	if f.autoImported == nil {
		f.autoImported = map[string]bool{}
	}
	f.autoImported[name] = true

	w.Prepend(ast.New(ast.TagImport, path, name))

	return nil
}

// handleModule lowers a module node (name, body) to either a namespace
// object literal (no executable top-level statements — only def/const) or
// an IIFE that runs the executable statements in order and returns the
// exported bindings, when the body has executable code beyond definitions.
func (f *Filter) handleModule(w *traverse.Walker, n *ast.Node) *ast.Node {
	name, _ := n.Children[0].(string)
	body := n.Child(1)

	stmts := statementsOf(body)

	exports := make([]ast.Value, 0, len(stmts))
	executable := false

	var iifeBody []ast.Value

	for _, stmt := range stmts {
		switch stmt.Kind {
		case ast.TagDef:
			methodName, _ := stmt.Children[0].(string)
			fn := w.Process(stmt)
			exports = append(exports, ast.New(ast.TagPair, methodName, fn))
		case ast.TagConstAssign:
			constName, _ := stmt.Children[1].(string)
			val := w.Process(stmt.Child(2))
			exports = append(exports, ast.New(ast.TagPair, constName, val))
		default:
			executable = true
			iifeBody = append(iifeBody, w.Process(stmt))
		}
	}

	namespaceObj := &ast.Node{Kind: ast.TagHash, Children: exports}

	if !executable {
		decl := ast.New(ast.TagVarDecl, "const", name, namespaceObj)

		return w.Emit(decl)
	}

	iifeBody = append(iifeBody, ast.New(ast.TagReturn, namespaceObj))

	iife := ast.New(ast.TagCallExpr,
		ast.New(ast.TagArrow, []string{}, ast.New(ast.TagBlockStmt, iifeBody...), false))

	return w.Emit(ast.New(ast.TagVarDecl, "const", name, iife))
}

func statementsOf(body *ast.Node) []*ast.Node {
	if body == nil {
		return nil
	}

	if body.Kind == ast.TagBegin {
		return body.ChildNodes()
	}

	return []*ast.Node{body}
}

// handleRequire rewrites require/require_relative sends into Prepend'd
// import declarations, declining (nil) every other send so the next
// TagSend-owning filter in the pipeline gets a turn.
func (f *Filter) handleRequire(w *traverse.Walker, n *ast.Node) *ast.Node {
	method, _ := n.Children[1].(string)

	if method != "require" && method != "require_relative" {
		return nil
	}

	if len(n.Children) < 3 {
		return nil
	}

	arg, ok := n.Children[2].(*ast.Node)
	if !ok || arg.Kind != ast.TagString {
		return nil
	}

	path, _ := arg.Children[0].(string)
	if method == "require_relative" && !strings.HasPrefix(path, ".") {
		path = "./" + path
	}

	importDecl := f.importDeclFor(path)
	w.Prepend(importDecl)

	return w.Emit(ast.New(ast.TagHide))
}

// importDeclFor builds the TagImport node for path: a plain default
// import, or, when RequireRecursive is on and a Resolver is installed and
// can name the required file's transitive exports, a named import of
// those exports instead. Any resolver failure (a missing file, a cycle,
// a source the resolver's parser can't read) degrades silently to the
// default import rather than aborting the whole conversion over an
// enrichment that was never required for correctness.
func (f *Filter) importDeclFor(path string) *ast.Node {
	defaultName := moduleBindingName(path)

	if !f.opts.RequireRecursive || f.resolver == nil {
		return ast.New(ast.TagImport, path, defaultName)
	}

	names, err := f.resolver.ResolveExports(path, f.opts.File)
	if err != nil || len(names) == 0 {
		return ast.New(ast.TagImport, path, defaultName)
	}

	return ast.New(ast.TagImport, path, defaultName, names)
}

func moduleBindingName(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

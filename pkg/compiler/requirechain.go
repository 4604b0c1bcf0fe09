package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruby2js/ruby2go/internal/cache"
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/parsing"
	"github.com/ruby2js/ruby2go/pkg/rewrite/modules"
)

// srcExtension is appended to a require path lacking one of its own,
// mirroring SRC's own require/require_relative resolution.
const srcExtension = ".rb"

// requireResolver implements modules.Resolver: it resolves a required
// file's path relative to its importer, parses it with the same Parser
// the rest of the run uses, and walks its top-level declarations and its
// own requires to collect every name the file transitively exports.
// Resolution is memoized per translation unit (the spec.md §5 "per-
// translation-unit node cache") and, when a disk cache is supplied,
// across CLI invocations too.
type requireResolver struct {
	parser     parsing.Parser
	disk       *cache.Cache
	resolved   map[string][]string
	inProgress map[string]bool
}

func newRequireResolver(parser parsing.Parser, disk *cache.Cache) *requireResolver {
	return &requireResolver{
		parser:     parser,
		disk:       disk,
		resolved:   map[string][]string{},
		inProgress: map[string]bool{},
	}
}

// ResolveExports implements modules.Resolver.
func (r *requireResolver) ResolveExports(path, fromFile string) ([]string, error) {
	resolvedPath := resolveRequirePath(path, fromFile)

	if names, ok := r.resolved[resolvedPath]; ok {
		return names, nil
	}

	if r.inProgress[resolvedPath] {
		return nil, fmt.Errorf("circular require: %s", resolvedPath)
	}

	if names, ok := r.fromDisk(resolvedPath); ok {
		r.resolved[resolvedPath] = names

		return names, nil
	}

	r.inProgress[resolvedPath] = true
	defer delete(r.inProgress, resolvedPath)

	names, err := r.resolveFromSource(resolvedPath)
	if err != nil {
		return nil, err
	}

	r.resolved[resolvedPath] = names
	r.toDisk(resolvedPath, names)

	return names, nil
}

func (r *requireResolver) resolveFromSource(resolvedPath string) ([]string, error) {
	source, err := os.ReadFile(resolvedPath) //nolint:gosec // path is derived from source-controlled require statements
	if err != nil {
		return nil, fmt.Errorf("read required file %s: %w", resolvedPath, err)
	}

	root, _, err := r.parser.Parse(string(source), resolvedPath)
	if err != nil {
		return nil, fmt.Errorf("parse required file %s: %w", resolvedPath, err)
	}

	names := topLevelExportNames(root)

	for _, nested := range requirePathsOf(root) {
		nestedNames, nestedErr := r.ResolveExports(nested, resolvedPath)
		if nestedErr == nil {
			names = append(names, nestedNames...)
		}
	}

	return dedupeNames(names), nil
}

func (r *requireResolver) fromDisk(resolvedPath string) ([]string, bool) {
	if r.disk == nil {
		return nil, false
	}

	data, ok := r.disk.Get(resolvedPath)
	if !ok {
		return nil, false
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, false
	}

	return names, true
}

func (r *requireResolver) toDisk(resolvedPath string, names []string) {
	if r.disk == nil {
		return
	}

	data, err := json.Marshal(names)
	if err != nil {
		return
	}

	_ = r.disk.Put(resolvedPath, data)
}

// resolveRequirePath turns a require argument into an absolute path,
// relative to the file that required it, adding srcExtension when the
// argument doesn't already carry one.
func resolveRequirePath(path, fromFile string) string {
	if filepath.Ext(path) == "" {
		path += srcExtension
	}

	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(filepath.Dir(fromFile), path)
}

// topLevelExportNames collects the names a file exports at its top level:
// method and constant definitions, plus module and class names, the same
// declarations modules.Filter's own handleModule treats as a namespace's
// public surface.
func topLevelExportNames(root *ast.Node) []string {
	var names []string

	for _, stmt := range topLevelStatements(root) {
		switch stmt.Kind {
		case ast.TagDef:
			if name, ok := stmt.Children[0].(string); ok {
				names = append(names, name)
			}
		case ast.TagConstAssign:
			if name, ok := stmt.Children[1].(string); ok {
				names = append(names, name)
			}
		case ast.TagModule, ast.TagClass:
			if name, ok := stmt.Children[0].(string); ok {
				names = append(names, name)
			}
		}
	}

	return names
}

// requirePathsOf collects every require/require_relative argument found
// among root's top-level statements.
func requirePathsOf(root *ast.Node) []string {
	var paths []string

	for _, stmt := range topLevelStatements(root) {
		if stmt.Kind != ast.TagSend {
			continue
		}

		method, _ := stmt.Children[1].(string)
		if method != "require" && method != "require_relative" {
			continue
		}

		if len(stmt.Children) < 3 {
			continue
		}

		arg, ok := stmt.Children[2].(*ast.Node)
		if !ok || arg.Kind != ast.TagString {
			continue
		}

		argPath, _ := arg.Children[0].(string)
		if method == "require_relative" && !strings.HasPrefix(argPath, ".") {
			argPath = "./" + argPath
		}

		paths = append(paths, argPath)
	}

	return paths
}

func topLevelStatements(root *ast.Node) []*ast.Node {
	if root == nil {
		return nil
	}

	if root.Kind == ast.TagBegin || root.Kind == ast.TagKwBegin {
		return root.ChildNodes()
	}

	return []*ast.Node{root}
}

func dedupeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}

		seen[name] = true
		out = append(out, name)
	}

	return out
}

var _ modules.Resolver = (*requireResolver)(nil)

// Package compiler implements the C8 driver: it orchestrates parsing,
// filter-pipeline construction, the rewrite walk, and emission into the
// single `Convert` entry point the rest of the system is built around.
package compiler

import (
	"fmt"
	"strings"

	"github.com/ruby2js/ruby2go/internal/cache"
	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/compilererr"
	"github.com/ruby2js/ruby2go/pkg/emit"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/parsing"
	"github.com/ruby2js/ruby2go/pkg/polyfill"
	"github.com/ruby2js/ruby2go/pkg/rewrite/modules"
	"github.com/ruby2js/ruby2go/pkg/rewrite/truthy"
	"github.com/ruby2js/ruby2go/pkg/stats"
	"github.com/ruby2js/ruby2go/pkg/traverse"

	// Blank-imported so each rewrite package's init() self-registers into
	// filterpipe's named registry; the driver only ever refers to filters
	// by name via filterpipe.Options.Filters.
	_ "github.com/ruby2js/ruby2go/pkg/rewrite/blocks"
	_ "github.com/ruby2js/ruby2go/pkg/rewrite/classes"
	_ "github.com/ruby2js/ruby2go/pkg/rewrite/dispatch"
	_ "github.com/ruby2js/ruby2go/pkg/rewrite/exceptions"
	_ "github.com/ruby2js/ruby2go/pkg/rewrite/methods"
	_ "github.com/ruby2js/ruby2go/pkg/rewrite/operators"
)

// Result is the successful return value of Convert.
type Result struct {
	Code string
	// SourceMap is left nil: source-map emission is an external-surface
	// concern (spec.md §6 marks it optional and out of the core).
	SourceMap any
	// RuleUsage counts how many times each named filter actually rewrote a
	// node during this Convert call, for internal/report's per-file table
	// and the OTel rewrite-rule-hit counters in internal/observability.
	RuleUsage map[string]int64
}

// Compiler holds the one external collaborator the core cannot supply
// itself: a parser. Everything else — filter pipeline, emitter, polyfill
// gate — is built fresh per Convert call so translation units never share
// mutable state (spec.md §5), with one opt-in exception: diskCache, when
// supplied, lets require_recursive's resolved-export lookups survive
// across Convert calls and across process invocations.
type Compiler struct {
	parser    parsing.Parser
	diskCache *cache.Cache
}

// Option configures an optional Compiler collaborator beyond the parser.
type Option func(*Compiler)

// WithDiskCache gives require_recursive resolution a disk-backed cache for
// already-resolved files' transitive exports, so a multi-file CLI run (or
// a later one on the same tree) doesn't reparse an unchanged dependency.
func WithDiskCache(c *cache.Cache) Option {
	return func(comp *Compiler) { comp.diskCache = c }
}

// New builds a Compiler backed by the given parser.
func New(parser parsing.Parser, opts ...Option) *Compiler {
	c := &Compiler{parser: parser}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Convert runs the full pipeline: parse, normalize, rewrite, emit.
func (c *Compiler) Convert(source string, opts filterpipe.Options) (Result, error) {
	root, comments, err := c.parser.Parse(source, opts.File)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", opts.File, err)
	}

	root = normalize(root)

	opts = opts.WithDefaults()
	if opts.Pragmas == nil {
		opts.Pragmas = filterpipe.NewPragmas(opts.File, strings.Split(source, "\n"))
	}

	filters := filterpipe.Build(opts)

	if opts.RequireRecursive {
		wireRequireResolver(filters, c.parser, c.diskCache)
	}

	walker := traverse.NewWalker(comments, filters...)
	walker.Stats = stats.NewCounter()

	var rewritten *ast.Node

	if err := catchCompileError(func() { rewritten = walker.Process(root) }); err != nil {
		return Result{}, err
	}

	gate := polyfill.NewGate()
	requireTruthyHelpers(filters, gate)

	prepend := append([]*ast.Node{}, walker.PrependList()...)
	prepend = append(prepend, gate.Flush()...)

	emitter := emit.New(emit.Options{PrivateFields: opts.ES2022()})
	code := emitter.Emit(prepend, rewritten)

	return Result{Code: code, RuleUsage: walker.Stats.Snapshot()}, nil
}

// normalize wraps a lone top-level expression in a `begin` node so every
// downstream pass can assume a statement-sequence shape at the root,
// per spec.md §4.8.
func normalize(root *ast.Node) *ast.Node {
	if root == nil {
		return ast.New(ast.TagBegin)
	}

	if root.Kind == ast.TagBegin || root.Kind == ast.TagKwBegin {
		return root
	}

	return ast.New(ast.TagBegin, root)
}

// wireRequireResolver gives the modules filter (if present in this run's
// pipeline) a fresh requireResolver, scoped to this single Convert call
// the way every other piece of mutable state here is, except for the
// resolver's own optional diskCache collaborator which is allowed to
// outlive it.
func wireRequireResolver(filters []traverse.Filter, parser parsing.Parser, diskCache *cache.Cache) {
	for _, f := range filters {
		if m, ok := f.(*modules.Filter); ok {
			m.SetResolver(newRequireResolver(parser, diskCache))

			return
		}
	}
}

// requireTruthyHelpers asks the truthy filter (if present in the built
// pipeline) which $T/$ror/$rand helpers it ended up needing and maps
// each into the polyfill gate, so Flush emits them alongside any other
// required polyfill in one deterministic, deduplicated prelude.
func requireTruthyHelpers(filters []traverse.Filter, gate *polyfill.Gate) {
	for _, f := range filters {
		t, ok := f.(*truthy.Filter)
		if !ok {
			continue
		}

		for _, name := range t.Required() {
			switch name {
			case truthy.HelperTruthy:
				gate.Require(polyfill.TruthyHelper)
			case truthy.HelperLogicalOr:
				gate.Require(polyfill.LogicalOrHelper)
			case truthy.HelperRand:
				gate.Require(polyfill.RandHelper)
			}
		}
	}
}

// catchCompileError runs fn, recovering a panicked *CompileError (the
// idiom rewrite rules use to abort deep in the recursive walk without
// threading an error return through every HandlerFunc) back into a
// regular error. Any other panic is re-raised: only CompileError is a
// recognized abort signal.
func catchCompileError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*compilererr.CompileError); ok {
				err = ce

				return
			}

			panic(r)
		}
	}()

	fn()

	return nil
}

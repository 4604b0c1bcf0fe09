package filterpipe

import (
	"github.com/ruby2js/ruby2go/pkg/traverse"
)

// OptionedFilter is a traverse.Filter that also receives the resolved
// Options before the first Process call, and may reorder the pipeline
// relative to its peers. Rewrite-rule packages in pkg/rewrite implement
// this instead of the bare traverse.Filter.
type OptionedFilter interface {
	traverse.Filter
	SetOptions(o Options)
}

// Reorderable is implemented by filters whose position in the pipeline
// depends on which other filters are present — the classes filter, for
// instance, must run before the dispatch filter so that `super` calls are
// still visible in their original shape when dispatch rewrites `send`.
// Reorder receives the pipeline built from registration order and returns
// the adjusted order; it must return a permutation of the same slice.
type Reorderable interface {
	Reorder(pipeline []traverse.Filter) []traverse.Filter
}

// Factory builds a fresh filter instance. Filters are stateful across a
// single Convert call (they may cache per-method lookups), so the
// registry hands out constructors rather than singletons.
type Factory func() traverse.Filter

var registry = map[string]Factory{}

// DefaultFilterNames is the order filters run in when Options.Filters is
// empty, chosen so that structural rewrites (classes, modules, exceptions)
// happen before the method/operator rewrites that depend on them, and the
// truthy filter — which wraps entire boolean contexts — runs last.
var DefaultFilterNames = []string{
	"modules",
	"classes",
	"exceptions",
	"blocks",
	"operators",
	"dispatch",
	"methods",
	"truthy",
}

// Register adds a filter constructor under name, overwriting any existing
// registration for that name. Called from each pkg/rewrite/* package's
// init so that Build only needs to know filter names, not their types.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Build constructs the filter pipeline named in o.Filters (after
// WithDefaults), in that order, then lets any Reorderable filter adjust
// its position. Unknown filter names are silently skipped: a caller
// requesting a filter that was never registered gets the rest of the
// pipeline rather than an error, matching the teacher's permissive
// plugin-discovery behavior.
func Build(o Options) []traverse.Filter {
	o = o.WithDefaults()
	pipeline := make([]traverse.Filter, 0, len(o.Filters))

	for _, name := range o.Filters {
		factory, ok := registry[name]
		if !ok {
			continue
		}

		f := factory()

		if optioned, ok := f.(OptionedFilter); ok {
			optioned.SetOptions(o)
		}

		pipeline = append(pipeline, f)
	}

	return applyReorders(pipeline)
}

// applyReorders gives every Reorderable filter, in its current pipeline
// position, a chance to move itself (or others) within the slice. Each
// Reorder call sees the result of every prior call, so later filters
// reorder relative to earlier filters' adjustments, not the original
// registration order.
func applyReorders(pipeline []traverse.Filter) []traverse.Filter {
	for _, f := range pipeline {
		reorderable, ok := f.(Reorderable)
		if !ok {
			continue
		}

		pipeline = reorderable.Reorder(pipeline)
	}

	return pipeline
}

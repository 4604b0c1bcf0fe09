// Package filterpipe implements the filter framework: registration,
// ordering, option propagation, ES-level gating, and the comment-pragma
// scanner that the rewrite rules in pkg/rewrite consult.
package filterpipe

// ESLevel is the target-language version dial. Higher values unlock more
// idiomatic TGT forms (optional chaining, nullish coalescing, Object.groupBy,
// and so on); rules consult the ES2015..ES2025 predicates below rather than
// comparing the raw integer, so a new level only needs one predicate added.
type ESLevel int

// Supported target levels, named after the calendar year the corresponding
// TGT edition shipped.
const (
	ES2015 ESLevel = 2015
	ES2017 ESLevel = 2017
	ES2019 ESLevel = 2019
	ES2020 ESLevel = 2020
	ES2021 ESLevel = 2021
	ES2022 ESLevel = 2022
	ES2023 ESLevel = 2023
	ES2024 ESLevel = 2024
	ES2025 ESLevel = 2025
)

// DefaultESLevel is used when Options.ESLevel is zero.
const DefaultESLevel = ES2022

// DisjunctionOp selects which TGT operator backs a SRC `||=`-shaped
// rewrite when no pragma overrides the choice locally.
type DisjunctionOp string

// Disjunction operator choices.
const (
	DisjunctionLogicalOr DisjunctionOp = "||"
	DisjunctionNullish   DisjunctionOp = "??"
)

// Options is the top-level configuration map described in spec.md §4.3.
type Options struct {
	// ESLevel gates which emission forms and rewrites are permitted.
	ESLevel ESLevel

	// Filters is the ordered list of filter names to run; empty falls back
	// to DefaultFilterNames.
	Filters []string

	// Include lists methods to rewrite even without parens disambiguating
	// them from a property access.
	Include []string

	// IncludeAll, when true, rewrites every known method name regardless of
	// parens — equivalent to Include naming every catalogued method.
	IncludeAll bool

	// Exclude lists methods to pass through unchanged even when otherwise
	// eligible for rewriting.
	Exclude []string

	// AutoExports is "" (off), "true", or "default".
	AutoExports string

	// AutoImports maps a bare identifier to the module path that should be
	// imported the first time that identifier is referenced.
	AutoImports map[string]string

	// RequireRecursive follows require/require_relative chains to collect
	// transitive exports before emitting import statements.
	RequireRecursive bool

	// Or selects the default disjunction operator; pragmas override it
	// per-expression.
	Or DisjunctionOp

	// Pragmas indexes the source buffer's `# Pragma: ...` comments so
	// filters can consult a per-line override (e.g. PragmaOr) without
	// re-scanning comment text themselves. Nil when the caller has no
	// comment text to scan (e.g. a synthetic AST built directly by a
	// test).
	Pragmas *Pragmas

	// NullishToS wraps stringifications with null-safe coalescing.
	NullishToS bool

	// Truthy, when "ruby", wraps boolean contexts with $T/$ror/$rand
	// helpers replicating SRC truthiness (spec.md §4.4.8).
	Truthy string

	// File is the source path, used to resolve relative imports.
	File string
}

// WithDefaults returns a copy of o with zero-valued fields replaced by
// their defaults (ESLevel, Or, Filters).
func (o Options) WithDefaults() Options {
	if o.ESLevel == 0 {
		o.ESLevel = DefaultESLevel
	}

	if o.Or == "" {
		o.Or = DisjunctionLogicalOr
	}

	if len(o.Filters) == 0 {
		o.Filters = append([]string(nil), DefaultFilterNames...)
	}

	return o
}

// ES2015 reports whether the target level supports `class`, `let`/`const`,
// arrow functions, and template literals.
func (o Options) ES2015() bool { return o.ESLevel >= ES2015 }

// ES2017 reports whether the target level supports `padStart`/`padEnd`.
func (o Options) ES2017() bool { return o.ESLevel >= ES2017 }

// ES2019 reports whether the target level supports `Array.flat`/`flatMap`.
func (o Options) ES2019() bool { return o.ESLevel >= ES2019 }

// ES2020 reports whether the target level supports optional chaining (?.),
// BigInt, and `matchAll`.
func (o Options) ES2020() bool { return o.ESLevel >= ES2020 }

// ES2021 reports whether the target level supports `replaceAll` and
// logical-assignment operators (`??=`, `||=`, `&&=`).
func (o Options) ES2021() bool { return o.ESLevel >= ES2021 }

// ES2022 reports whether the target level supports private instance
// fields (`#name`), class static blocks, and `Array#at`.
func (o Options) ES2022() bool { return o.ESLevel >= ES2022 }

// ES2023 reports whether the target level supports the non-mutating array
// methods (`toSorted`, `toReversed`, `toSpliced`, `with`).
func (o Options) ES2023() bool { return o.ESLevel >= ES2023 }

// ES2024 reports whether the target level supports `Object.groupBy`/
// `Map.groupBy`.
func (o Options) ES2024() bool { return o.ESLevel >= ES2024 }

// ES2025 reports whether the target level supports `RegExp.escape`.
func (o Options) ES2025() bool { return o.ESLevel >= ES2025 }

// IsIncluded reports whether method should be rewritten given parenUsed
// (from ast.IsMethod) and the Include/IncludeAll/Exclude configuration.
func (o Options) IsIncluded(method string, parenUsed bool) bool {
	for _, excluded := range o.Exclude {
		if excluded == method {
			return false
		}
	}

	if parenUsed || o.IncludeAll {
		return true
	}

	for _, included := range o.Include {
		if included == method {
			return true
		}
	}

	return false
}

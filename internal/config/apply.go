package config

import "github.com/ruby2js/ruby2go/pkg/filterpipe"

type positive interface{ ~int }

func applyPositive[T positive](target *T, value T) {
	if value > 0 {
		*target = value
	}
}

func applyNonEmptyString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func applyNonEmptySlice(target *[]string, value []string) {
	if len(value) > 0 {
		*target = value
	}
}

// ApplyToOptions merges the convert section of c onto opts. Only non-zero
// config values override fields already set on opts (by CLI flags, say);
// zero values mean "use filterpipe's own default" and are skipped. Boolean
// fields are OR-ed onto opts: a true in the config turns a field on, but a
// false in the config never clears a field that is already true.
func (c *Config) ApplyToOptions(opts *filterpipe.Options) {
	cv := c.Convert

	applyPositive((*int)(&opts.ESLevel), cv.ESLevel)
	applyNonEmptySlice(&opts.Filters, cv.Filters)
	applyNonEmptySlice(&opts.Include, cv.Include)
	applyNonEmptySlice(&opts.Exclude, cv.Exclude)
	applyNonEmptyString(&opts.AutoExports, cv.AutoExports)
	applyNonEmptyString((*string)(&opts.Or), string(cv.Or))
	applyNonEmptyString(&opts.Truthy, cv.Truthy)

	if len(cv.AutoImports) > 0 {
		opts.AutoImports = cv.AutoImports
	}

	opts.IncludeAll = cv.IncludeAll || opts.IncludeAll
	opts.RequireRecursive = cv.RequireRecursive || opts.RequireRecursive
	opts.NullishToS = cv.NullishToS || opts.NullishToS
}

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruby2js/ruby2go/internal/config"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
)

func TestApplyToOptions_NonZeroFields_Override(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Convert: config.ConvertConfig{
			ESLevel:          2020,
			Filters:          []string{"camel_case"},
			Include:          []string{"each"},
			Exclude:          []string{"map"},
			AutoExports:      "default",
			AutoImports:      map[string]string{"_": "lodash"},
			RequireRecursive: true,
			Or:               "??",
			NullishToS:       true,
			Truthy:           "ruby",
		},
	}

	var opts filterpipe.Options
	cfg.ApplyToOptions(&opts)

	assert.Equal(t, filterpipe.ES2020, opts.ESLevel)
	assert.Equal(t, []string{"camel_case"}, opts.Filters)
	assert.Equal(t, []string{"each"}, opts.Include)
	assert.Equal(t, []string{"map"}, opts.Exclude)
	assert.Equal(t, "default", opts.AutoExports)
	assert.Equal(t, map[string]string{"_": "lodash"}, opts.AutoImports)
	assert.True(t, opts.RequireRecursive)
	assert.Equal(t, filterpipe.DisjunctionNullish, opts.Or)
	assert.True(t, opts.NullishToS)
	assert.Equal(t, "ruby", opts.Truthy)
}

func TestApplyToOptions_ZeroValues_SkipExistingOverrides(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	opts := filterpipe.Options{
		ESLevel:     filterpipe.ES2024,
		Filters:     []string{"string_interp"},
		AutoExports: "true",
		AutoImports: map[string]string{"$": "jquery"},
		Or:          filterpipe.DisjunctionLogicalOr,
	}

	cfg.ApplyToOptions(&opts)

	assert.Equal(t, filterpipe.ES2024, opts.ESLevel, "zero config ESLevel should not clobber an existing flag value")
	assert.Equal(t, []string{"string_interp"}, opts.Filters)
	assert.Equal(t, "true", opts.AutoExports)
	assert.Equal(t, map[string]string{"$": "jquery"}, opts.AutoImports)
	assert.Equal(t, filterpipe.DisjunctionLogicalOr, opts.Or)
}

func TestApplyToOptions_BooleanFields_AlwaysAppliedWhenTrue(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Convert: config.ConvertConfig{
			IncludeAll:       true,
			RequireRecursive: true,
			NullishToS:       true,
		},
	}

	var opts filterpipe.Options
	cfg.ApplyToOptions(&opts)

	assert.True(t, opts.IncludeAll)
	assert.True(t, opts.RequireRecursive)
	assert.True(t, opts.NullishToS)
}

func TestApplyToOptions_BooleanFieldsFalse_DoesNotClearExistingTrue(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	opts := filterpipe.Options{IncludeAll: true, RequireRecursive: true, NullishToS: true}
	cfg.ApplyToOptions(&opts)

	assert.True(t, opts.IncludeAll, "config false should not override a flag-set true")
	assert.True(t, opts.RequireRecursive)
	assert.True(t, opts.NullishToS)
}

package filterpipe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruby2js/ruby2go/pkg/filterpipe"
)

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	t.Parallel()

	o := filterpipe.Options{}.WithDefaults()

	assert.Equal(t, filterpipe.DefaultESLevel, o.ESLevel)
	assert.Equal(t, filterpipe.DisjunctionLogicalOr, o.Or)
	assert.Equal(t, filterpipe.DefaultFilterNames, o.Filters)
}

func TestWithDefaultsPreservesExplicitValues(t *testing.T) {
	t.Parallel()

	o := filterpipe.Options{ESLevel: filterpipe.ES2015, Or: filterpipe.DisjunctionNullish}.WithDefaults()

	assert.Equal(t, filterpipe.ES2015, o.ESLevel)
	assert.Equal(t, filterpipe.DisjunctionNullish, o.Or)
}

func TestESLevelPredicatesAreMonotonic(t *testing.T) {
	t.Parallel()

	o := filterpipe.Options{ESLevel: filterpipe.ES2021}

	assert.True(t, o.ES2015())
	assert.True(t, o.ES2020())
	assert.True(t, o.ES2021())
	assert.False(t, o.ES2022())
	assert.False(t, o.ES2025())
}

func TestIsIncludedHonorsExcludeOverIncludeAll(t *testing.T) {
	t.Parallel()

	o := filterpipe.Options{IncludeAll: true, Exclude: []string{"tap"}}

	assert.False(t, o.IsIncluded("tap", false))
	assert.True(t, o.IsIncluded("each", false))
}

func TestIsIncludedRequiresParensOrExplicitInclude(t *testing.T) {
	t.Parallel()

	o := filterpipe.Options{Include: []string{"compact"}}

	assert.True(t, o.IsIncluded("compact", false))
	assert.False(t, o.IsIncluded("first", false))
	assert.True(t, o.IsIncluded("first", true))
}

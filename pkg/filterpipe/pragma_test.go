package filterpipe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruby2js/ruby2go/pkg/filterpipe"
)

func TestNewPragmasIndexesByLine(t *testing.T) {
	t.Parallel()

	lines := []string{
		"x = a || b",
		"# Pragma: or ??",
		"y = c || d",
	}

	pragmas := filterpipe.NewPragmas("a.rb", lines)

	pragma, ok := pragmas.Has("a.rb", 2, filterpipe.PragmaOr)
	require := assert.New(t)
	require.True(ok)
	require.Equal("??", pragma.Argument)
}

func TestPragmasAtReturnsNilWhenAbsent(t *testing.T) {
	t.Parallel()

	pragmas := filterpipe.NewPragmas("a.rb", []string{"x = 1"})

	assert.Nil(t, pragmas.At("a.rb", 1))
}

func TestUnrecognizedPragmaKindFallsBackToUnknown(t *testing.T) {
	t.Parallel()

	pragmas := filterpipe.NewPragmas("a.rb", []string{"# Pragma: frobnicate hard"})

	pragma, ok := pragmas.Has("a.rb", 1, filterpipe.PragmaUnknown)

	assert.True(t, ok)
	assert.Equal(t, "frobnicate hard", pragma.Argument)
}

func TestPragmasAreScopedByBufferName(t *testing.T) {
	t.Parallel()

	pragmas := filterpipe.NewPragmas("a.rb", []string{"# Pragma: skip"})

	_, ok := pragmas.Has("b.rb", 1, filterpipe.PragmaSkip)
	assert.False(t, ok)
}

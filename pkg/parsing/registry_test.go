package parsing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruby2js/ruby2go/pkg/ast"
	"github.com/ruby2js/ruby2go/pkg/parsing"
)

func noopParser() parsing.Parser {
	return parsing.Func(func(string, string) (*ast.Node, *ast.Comments, error) {
		return nil, nil, nil
	})
}

func TestRegisterAndLookup_RoundTrips(t *testing.T) {
	parsing.Register("test-registry-roundtrip", noopParser())

	p, ok := parsing.Lookup("test-registry-roundtrip")
	assert.True(t, ok)
	assert.NotNil(t, p)
}

func TestLookup_UnknownName_IsMiss(t *testing.T) {
	t.Parallel()

	_, ok := parsing.Lookup("nonexistent-parser-name")
	assert.False(t, ok)
}

func TestRegister_Duplicate_Panics(t *testing.T) {
	parsing.Register("test-registry-duplicate", noopParser())

	assert.Panics(t, func() {
		parsing.Register("test-registry-duplicate", noopParser())
	})
}

func TestNames_IncludesRegistered(t *testing.T) {
	parsing.Register("test-registry-names", noopParser())

	assert.Contains(t, parsing.Names(), "test-registry-names")
}

// Package schema validates a caller-supplied convert options map against a
// JSON Schema before it is decoded into filterpipe.Options. This is the one
// place CLI flags, a config file, or an MCP tool call cross into the pure
// rewrite core, so it is the one place that gets validated.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed options-schema.json
var optionsSchemaJSON []byte

var optionsSchemaLoader = gojsonschema.NewBytesLoader(optionsSchemaJSON)

// ValidationError reports one or more JSON Schema violations found in an
// options map. Error() joins every violation onto one line; Violations
// preserves them separately for callers that want to report each on its own
// line (the CLI) or as a structured list (the MCP tool result).
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid options: %s", strings.Join(e.Violations, "; "))
}

// ValidateOptions checks raw — typically a map[string]any decoded from JSON,
// YAML, or CLI flags — against the options schema. A nil error means raw is
// safe to mapstructure-decode into filterpipe.Options.
func ValidateOptions(raw any) error {
	result, err := gojsonschema.Validate(optionsSchemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", resultErr.Field(), resultErr.Description()))
	}

	return &ValidationError{Violations: violations}
}

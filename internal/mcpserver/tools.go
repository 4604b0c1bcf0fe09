package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ruby2js/ruby2go/pkg/compiler"
	"github.com/ruby2js/ruby2go/pkg/compilererr"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
)

// ToolNameConvert is the name the convert tool is registered under.
const ToolNameConvert = "ruby2go_convert"

const convertToolDescription = "Convert SRC source code to TGT source code via AST rewriting. " +
	"Accepts inline source and an optional ES target level and filter list."

// MaxSourceBytes is the maximum allowed size for inline source input (1 MB).
const MaxSourceBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	ErrEmptySource      = errors.New("source parameter is required and must not be empty")
	ErrSourceTooLarge   = errors.New("source input exceeds maximum size")
	ErrUnsupportedLevel = errors.New("unsupported eslevel")
)

// ConvertInput is the input schema for the ruby2go_convert tool.
type ConvertInput struct {
	Source           string   `json:"source"                      jsonschema:"SRC source code to convert"`
	Filename         string   `json:"filename,omitempty"          jsonschema:"synthetic filename, used for pragma/diagnostic locations"`
	ESLevel          int      `json:"eslevel,omitempty"           jsonschema:"target ES level (e.g. 2015 2022); defaults to the compiler default"`
	Filters          []string `json:"filters,omitempty"           jsonschema:"optional list of filter names to run (default: all registered filters)"`
	IncludeAll       bool     `json:"include_all,omitempty"       jsonschema:"force every optional method rewrite on"`
	RequireRecursive bool     `json:"require_recursive,omitempty" jsonschema:"follow require/require_relative chains"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// ConvertOutput is the structured result of a successful conversion.
type ConvertOutput struct {
	Code      string           `json:"code"`
	RuleUsage map[string]int64 `json:"rule_usage,omitempty"`
}

func handleConvert(
	conv *compiler.Compiler,
) func(context.Context, *mcpsdk.CallToolRequest, ConvertInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return func(_ context.Context, _ *mcpsdk.CallToolRequest, input ConvertInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
		if err := validateConvertInput(input); err != nil {
			return errorResult(err)
		}

		opts := filterpipe.Options{
			Filters:          input.Filters,
			IncludeAll:       input.IncludeAll,
			RequireRecursive: input.RequireRecursive,
			File:             syntheticFilename(input.Filename),
		}
		if input.ESLevel != 0 {
			opts.ESLevel = filterpipe.ESLevel(input.ESLevel)
		}

		result, err := conv.Convert(input.Source, opts)
		if err != nil {
			if ce, ok := compilererr.As(err); ok {
				return errorResult(fmt.Errorf("%s: %s", ce.Kind, ce.Message))
			}

			return errorResult(err)
		}

		return jsonResult(ConvertOutput{Code: result.Code, RuleUsage: result.RuleUsage})
	}
}

func validateConvertInput(input ConvertInput) error {
	if input.Source == "" {
		return ErrEmptySource
	}

	if len(input.Source) > MaxSourceBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrSourceTooLarge, len(input.Source), MaxSourceBytes)
	}

	return nil
}

func syntheticFilename(filename string) string {
	if filename == "" {
		return "input.rb"
	}

	return filename
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruby2js/ruby2go/internal/report"
)

// ErrUnknownReportFormat is returned for an unrecognized --format value.
var ErrUnknownReportFormat = errors.New("unknown report format")

const (
	reportFormatTable = "table"
	reportFormatRules = "rules"
	reportFormatHTML  = "html"
)

// NewReportCommand creates the `report` command, which re-renders a run
// persisted by `ruby2go convert --save-json` without reconverting anything.
func NewReportCommand() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "report <results.json>",
		Short: "Render a saved conversion run as a table or HTML chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runReport(cobraCmd, args[0], format, output)
		},
	}

	cmd.Flags().StringVar(&format, "format", reportFormatTable, "Output format: table, rules, or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead of stdout")

	return cmd
}

func runReport(cobraCmd *cobra.Command, resultsPath, format, outputPath string) error {
	summary, err := loadSummary(resultsPath)
	if err != nil {
		return err
	}

	out := cobraCmd.OutOrStdout()

	if outputPath != "" {
		f, createErr := os.Create(outputPath) //nolint:gosec // path comes from an operator-supplied CLI flag
		if createErr != nil {
			return createErr
		}
		defer f.Close()

		out = f
	}

	switch format {
	case reportFormatTable:
		return report.RenderTable(summary, out)
	case reportFormatRules:
		return report.RenderRuleBreakdown(summary, out)
	case reportFormatHTML:
		return report.RenderHTML(summary, out)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReportFormat, format)
	}
}

func loadSummary(path string) (report.Summary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from an operator-supplied CLI flag
	if err != nil {
		return report.Summary{}, fmt.Errorf("read results: %w", err)
	}

	var persisted []PersistedResult
	if err := json.Unmarshal(data, &persisted); err != nil {
		return report.Summary{}, fmt.Errorf("parse results: %w", err)
	}

	results := make([]report.FileResult, 0, len(persisted))

	for _, entry := range persisted {
		fileResult := report.FileResult{
			Path:          entry.Path,
			OriginalBytes: entry.OriginalBytes,
			EmittedBytes:  entry.EmittedBytes,
			Duration:      time.Duration(entry.DurationMS) * time.Millisecond,
			RuleUsage:     entry.RuleUsage,
		}

		if entry.Error != "" {
			fileResult.Err = errors.New(entry.Error)
		}

		results = append(results, fileResult)
	}

	return report.Summarize(results), nil
}

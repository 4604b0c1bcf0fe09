package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable writes a per-file table to w: path, size, duration, rule
// count, and a status column. The status cell reads "ok" in green, or the
// conversion error in red, matching the CLI's existing color convention
// for pass/fail output.
func RenderTable(summary Summary, w io.Writer) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"File", "Size", "Duration", "Rules applied", "Status"})

	for _, res := range summary.Files {
		status := color.New(color.FgGreen).Sprint("ok")
		if res.Err != nil {
			status = color.New(color.FgRed).Sprintf("error: %v", res.Err)
		}

		tbl.AppendRow(table.Row{
			res.Path,
			humanBytes(res.EmittedBytes),
			humanDuration(res.Duration),
			ruleTotal(res.RuleUsage),
			status,
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d files", len(summary.Files)),
		humanBytes(summary.TotalBytes),
		"",
		ruleTotal(summary.RuleUsage),
		fmt.Sprintf("%d errored", summary.Errored),
	})

	tbl.Render()

	return nil
}

// RenderRuleBreakdown writes a second table ranking every rule by how many
// times it fired across the run, most-used first.
func RenderRuleBreakdown(summary Summary, w io.Writer) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)

	tbl.AppendHeader(table.Row{"Rule", "Applications"})

	for _, name := range topRules(summary.RuleUsage) {
		tbl.AppendRow(table.Row{name, summary.RuleUsage[name]})
	}

	tbl.Render()

	return nil
}

func ruleTotal(usage map[string]int64) int64 {
	var total int64
	for _, count := range usage {
		total += count
	}

	return total
}

// Package report renders per-file and aggregate translation results: a
// colorized table for terminal output and, on request, an HTML bar chart
// of rewrite-rule usage across a run.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// FileResult is one converted file's outcome, ready for rendering.
type FileResult struct {
	Path          string
	OriginalBytes int
	EmittedBytes  int
	Duration      time.Duration
	RuleUsage     map[string]int64
	Err           error
}

// Summary aggregates a run's FileResults: total rule usage across every
// file, for the run-level table footer and the HTML chart.
type Summary struct {
	Files      []FileResult
	RuleUsage  map[string]int64
	Errored    int
	TotalBytes int
}

// Summarize folds results into a Summary, merging each file's RuleUsage
// into a single run-wide tally.
func Summarize(results []FileResult) Summary {
	summary := Summary{Files: results, RuleUsage: map[string]int64{}}

	for _, res := range results {
		if res.Err != nil {
			summary.Errored++
		}

		summary.TotalBytes += res.EmittedBytes

		for rule, count := range res.RuleUsage {
			summary.RuleUsage[rule] += count
		}
	}

	return summary
}

// topRules returns rule names sorted by descending usage count, ties
// broken alphabetically for deterministic output.
func topRules(usage map[string]int64) []string {
	names := make([]string, 0, len(usage))
	for name := range usage {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		if usage[names[i]] != usage[names[j]] {
			return usage[names[i]] > usage[names[j]]
		}

		return names[i] < names[j]
	})

	return names
}

// humanDuration renders d the way the table wants it: humanize.RelTime
// is built for timestamps, so for a bare duration this formats sub-second
// runs in milliseconds and slower ones with time.Duration's own String,
// rounded to the millisecond.
func humanDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	return d.Round(time.Millisecond).String()
}

// humanBytes formats n bytes using go-humanize's SI byte notation.
func humanBytes(n int) string {
	return humanize.Bytes(uint64(n)) //nolint:gosec // n is always a non-negative byte count
}

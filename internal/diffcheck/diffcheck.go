// Package diffcheck compares two pieces of emitted TGT source: golden-file
// fixtures in tests, and the CLI's --diff flag for comparing one file's
// output across two ES levels.
package diffcheck

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Result is the outcome of comparing two strings line-by-line.
type Result struct {
	Equal bool
	Diffs []diffmatchpatch.Diff
}

// Compare line-diffs want against got. Lines, not runes, are the unit of
// comparison — diffing is meant to surface moved/changed statements in
// emitted source, not individual-character edits.
func Compare(want, got string) Result {
	if want == got {
		return Result{Equal: true}
	}

	dmp := diffmatchpatch.New()

	srcRunes, dstRunes, lineArray := dmp.DiffLinesToRunes(want, got)

	diffs := dmp.DiffMainRunes(srcRunes, dstRunes, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return Result{Equal: len(diffs) == 1 && diffs[0].Type == diffmatchpatch.DiffEqual, Diffs: diffs}
}

// PrettyText renders r as a human-readable unified-style diff: unchanged
// lines as-is, insertions prefixed "+ ", deletions prefixed "- ".
func PrettyText(r Result) string {
	if r.Equal {
		return ""
	}

	var b strings.Builder

	for _, d := range r.Diffs {
		prefix := "  "

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffEqual:
			prefix = "  "
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			b.WriteString(prefix)
			b.WriteString(line)

			if !strings.HasSuffix(line, "\n") {
				b.WriteByte('\n')
			}
		}
	}

	return b.String()
}

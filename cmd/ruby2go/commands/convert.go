// Package commands implements CLI command handlers for ruby2go.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/src-d/enry/v2"

	"github.com/ruby2js/ruby2go/internal/cache"
	"github.com/ruby2js/ruby2go/internal/config"
	"github.com/ruby2js/ruby2go/internal/diffcheck"
	"github.com/ruby2js/ruby2go/internal/report"
	"github.com/ruby2js/ruby2go/internal/schema"
	"github.com/ruby2js/ruby2go/pkg/compiler"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/parsing"
)

// ErrNoParserRegistered is returned when no parser has been linked into the
// binary under the requested name.
var ErrNoParserRegistered = errors.New("no parser registered under this name; link one in with a blank import")

// srcLanguage is the enry language name this project treats as SRC.
const srcLanguage = "Ruby"

// ConvertOptions holds every --convert flag, collected for schema
// validation before being applied to filterpipe.Options.
type ConvertOptions struct {
	path             string
	output           string
	configFile       string
	parserName       string
	recursive        bool
	eslevel          int
	filters          []string
	include          []string
	exclude          []string
	includeAll       bool
	requireRecursive bool
	orOperator       string
	diffAgainst      int
	html             string
	showReport       bool
	saveJSON         string
}

// PersistedResult is the JSON-on-disk shape of a report.FileResult: errors
// don't marshal, so they're flattened to a message string, and `report`
// rebuilds a report.Summary from a slice of these.
type PersistedResult struct {
	Path          string           `json:"path"`
	OriginalBytes int              `json:"original_bytes"`
	EmittedBytes  int              `json:"emitted_bytes"`
	DurationMS    int64            `json:"duration_ms"`
	RuleUsage     map[string]int64 `json:"rule_usage,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// NewConvertCommand creates the `convert` command.
func NewConvertCommand() *cobra.Command {
	co := &ConvertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <path>",
		Short: "Convert SRC source to TGT source",
		Long: `Convert one file or, with --recursive, every SRC file under a directory,
rewriting it via AST transformation rules into TGT source.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			co.path = args[0]

			return runConvert(cobraCmd, co)
		},
	}

	cmd.Flags().StringVarP(&co.output, "output", "o", "", "Output file or directory (default: stdout for a single input file)")
	cmd.Flags().StringVar(&co.configFile, "config", "", "Configuration file path (default: .ruby2go.yaml in CWD)")
	cmd.Flags().StringVar(&co.parserName, "parser", "", "Name of a parser registered via parsing.Register")
	cmd.Flags().BoolVarP(&co.recursive, "recursive", "r", false, "Walk path as a directory, converting every SRC file found")
	cmd.Flags().IntVar(&co.eslevel, "eslevel", 0, "Target ES level (e.g. 2015, 2022); 0 uses the config/default")
	cmd.Flags().StringSliceVar(&co.filters, "filters", nil, "Filter names to run (default: all registered filters)")
	cmd.Flags().StringSliceVar(&co.include, "include", nil, "Optional method rewrites to force on")
	cmd.Flags().StringSliceVar(&co.exclude, "exclude", nil, "Optional method rewrites to force off")
	cmd.Flags().BoolVar(&co.includeAll, "include-all", false, "Force every optional method rewrite on")
	cmd.Flags().BoolVar(&co.requireRecursive, "require-recursive", false, "Follow require/require_relative chains")
	cmd.Flags().StringVar(&co.orOperator, "or", "", "Disjunction operator to emit: || or ??")
	cmd.Flags().IntVar(&co.diffAgainst, "diff", 0, "Also convert at this ES level and print the difference")
	cmd.Flags().StringVar(&co.html, "html", "", "Write an HTML rule-usage chart to this path")
	cmd.Flags().BoolVar(&co.showReport, "report", false, "Print a rule-usage table to stderr after converting")
	cmd.Flags().StringVar(&co.saveJSON, "save-json", "", "Persist per-file results to this path for later `ruby2go report`")

	return cmd
}

func runConvert(cobraCmd *cobra.Command, co *ConvertOptions) error {
	parser, ok := parsing.Lookup(co.parserName)
	if !ok {
		return fmt.Errorf("%w: %q (registered: %v)", ErrNoParserRegistered, co.parserName, parsing.Names())
	}

	cfg, err := config.LoadConfig(co.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := schema.ValidateOptions(co.rawOverrides()); err != nil {
		return err
	}

	opts := filterpipe.Options{}
	cfg.ApplyToOptions(&opts)
	co.applyOverrides(&opts)

	var compilerOpts []compiler.Option

	if opts.RequireRecursive && cfg.Cache.Enabled {
		diskCache, cacheErr := openDiskCache(cfg.Cache)
		if cacheErr != nil {
			return fmt.Errorf("open require_recursive cache: %w", cacheErr)
		}

		compilerOpts = append(compilerOpts, compiler.WithDiskCache(diskCache))
	}

	conv := compiler.New(parser, compilerOpts...)

	files, err := co.resolveFiles()
	if err != nil {
		return err
	}

	results := make([]report.FileResult, 0, len(files))

	for _, file := range files {
		results = append(results, convertOneFile(conv, opts, file, co))
	}

	summary := report.Summarize(results)

	if co.saveJSON != "" {
		if err := savePersistedResults(co.saveJSON, results); err != nil {
			return err
		}
	}

	if err := writeHTMLIfRequested(co, summary); err != nil {
		return err
	}

	if co.showReport {
		if err := report.RenderTable(summary, cobraCmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	if summary.Errored > 0 {
		return fmt.Errorf("%d of %d files failed to convert", summary.Errored, len(results))
	}

	return nil
}

// rawOverrides builds the map schema.ValidateOptions checks: only the
// flags the user actually set, so an unset --eslevel (0) doesn't trip the
// "must be a supported ES level" rule meant for an explicit bad value.
func (co *ConvertOptions) rawOverrides() map[string]any {
	raw := map[string]any{}

	if co.eslevel != 0 {
		raw["eslevel"] = co.eslevel
	}

	if len(co.filters) > 0 {
		raw["filters"] = toAnySlice(co.filters)
	}

	if len(co.include) > 0 {
		raw["include"] = toAnySlice(co.include)
	}

	if len(co.exclude) > 0 {
		raw["exclude"] = toAnySlice(co.exclude)
	}

	if co.includeAll {
		raw["include_all"] = true
	}

	if co.requireRecursive {
		raw["require_recursive"] = true
	}

	if co.orOperator != "" {
		raw["or"] = co.orOperator
	}

	return raw
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}

	return out
}

func (co *ConvertOptions) applyOverrides(opts *filterpipe.Options) {
	if co.eslevel != 0 {
		opts.ESLevel = filterpipe.ESLevel(co.eslevel)
	}

	if len(co.filters) > 0 {
		opts.Filters = co.filters
	}

	if len(co.include) > 0 {
		opts.Include = co.include
	}

	if len(co.exclude) > 0 {
		opts.Exclude = co.exclude
	}

	opts.IncludeAll = opts.IncludeAll || co.includeAll
	opts.RequireRecursive = opts.RequireRecursive || co.requireRecursive

	if co.orOperator != "" {
		opts.Or = filterpipe.DisjunctionOp(co.orOperator)
	}
}

// resolveFiles expands co.path into the list of SRC files to convert: the
// path itself when it's a single file, or, with --recursive, every file
// under it that enry identifies as srcLanguage and that isn't vendored.
func (co *ConvertOptions) resolveFiles() ([]string, error) {
	info, err := os.Stat(co.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", co.path, err)
	}

	if !info.IsDir() {
		return []string{co.path}, nil
	}

	if !co.recursive {
		return nil, fmt.Errorf("%s is a directory; pass --recursive to convert it", co.path)
	}

	var files []string

	walkErr := filepath.WalkDir(co.path, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() || enry.IsVendor(p) {
			return nil
		}

		content, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}

		if enry.GetLanguage(filepath.Base(p), content) == srcLanguage {
			files = append(files, p)
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", co.path, walkErr)
	}

	return files, nil
}

func convertOneFile(conv *compiler.Compiler, opts filterpipe.Options, file string, co *ConvertOptions) report.FileResult {
	source, readErr := os.ReadFile(file)
	if readErr != nil {
		return report.FileResult{Path: file, Err: readErr}
	}

	fileOpts := opts
	fileOpts.File = file

	start := time.Now()

	result, convErr := conv.Convert(string(source), fileOpts)

	elapsed := time.Since(start)

	if convErr != nil {
		return report.FileResult{Path: file, OriginalBytes: len(source), Duration: elapsed, Err: convErr}
	}

	writeErr := writeOutput(file, result.Code, co)

	if co.diffAgainst != 0 {
		writeErr = errors.Join(writeErr, diffAgainstLevel(conv, string(source), fileOpts, file, co.diffAgainst))
	}

	return report.FileResult{
		Path:          file,
		OriginalBytes: len(source),
		EmittedBytes:  len(result.Code),
		Duration:      elapsed,
		RuleUsage:     result.RuleUsage,
		Err:           writeErr,
	}
}

func diffAgainstLevel(conv *compiler.Compiler, source string, opts filterpipe.Options, file string, level int) error {
	altOpts := opts
	altOpts.ESLevel = filterpipe.ESLevel(level)

	baseline, baseErr := conv.Convert(source, opts)
	if baseErr != nil {
		return baseErr
	}

	alt, altErr := conv.Convert(source, altOpts)
	if altErr != nil {
		return altErr
	}

	result := diffcheck.Compare(baseline.Code, alt.Code)
	if !result.Equal {
		fmt.Fprintf(os.Stderr, "--- %s (eslevel %d vs %d) ---\n%s", file, opts.ESLevel, level, diffcheck.PrettyText(result))
	}

	return nil
}

func writeOutput(inputPath, code string, co *ConvertOptions) error {
	if co.output == "" {
		_, err := io.WriteString(os.Stdout, code)

		return err
	}

	if !co.recursive {
		return os.WriteFile(co.output, []byte(code), 0o644) //nolint:gosec // emitted source isn't a secret
	}

	rel, relErr := filepath.Rel(co.path, inputPath)
	if relErr != nil {
		rel = filepath.Base(inputPath)
	}

	outPath := filepath.Join(co.output, strings.TrimSuffix(rel, filepath.Ext(rel))+".js")

	if mkErr := os.MkdirAll(filepath.Dir(outPath), 0o755); mkErr != nil {
		return mkErr
	}

	return os.WriteFile(outPath, []byte(code), 0o644) //nolint:gosec // emitted source isn't a secret
}

func openDiskCache(cfg config.CacheConfig) (*cache.Cache, error) {
	dir := cfg.Directory
	if dir == "" {
		userCacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve default cache directory: %w", err)
		}

		dir = filepath.Join(userCacheDir, "ruby2go")
	}

	ttlHours := cfg.TTLHours
	if ttlHours <= 0 {
		ttlHours = config.DefaultCacheTTLHours
	}

	return cache.New(dir, time.Duration(ttlHours)*time.Hour)
}

func savePersistedResults(path string, results []report.FileResult) error {
	persisted := make([]PersistedResult, 0, len(results))

	for _, res := range results {
		entry := PersistedResult{
			Path:          res.Path,
			OriginalBytes: res.OriginalBytes,
			EmittedBytes:  res.EmittedBytes,
			DurationMS:    res.Duration.Milliseconds(),
			RuleUsage:     res.RuleUsage,
		}

		if res.Err != nil {
			entry.Error = res.Err.Error()
		}

		persisted = append(persisted, entry)
	}

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	return os.WriteFile(path, data, 0o644) //nolint:gosec // report data isn't a secret
}

func writeHTMLIfRequested(co *ConvertOptions, summary report.Summary) error {
	if co.html == "" {
		return nil
	}

	f, err := os.Create(co.html) //nolint:gosec // path comes from an operator-supplied CLI flag
	if err != nil {
		return err
	}
	defer f.Close()

	return report.RenderHTML(summary, f)
}

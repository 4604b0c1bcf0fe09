package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruby2js/ruby2go/internal/lspserver"
	"github.com/ruby2js/ruby2go/internal/observability"
	"github.com/ruby2js/ruby2go/pkg/filterpipe"
	"github.com/ruby2js/ruby2go/pkg/parsing"
	"github.com/ruby2js/ruby2go/pkg/version"
)

// NewServeLSPCommand creates the `serve-lsp` command.
func NewServeLSPCommand() *cobra.Command {
	var (
		parserName  string
		eslevel     int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "Run an editor-integration language server over stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServeLSP(parserName, eslevel, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&parserName, "parser", "", "Name of a parser registered via parsing.Register")
	cmd.Flags().IntVar(&eslevel, "eslevel", 0, "Target ES level used for diagnostics and hover previews")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", defaultMetricsAddr, "Listen address for the /metrics scrape endpoint")

	return cmd
}

func runServeLSP(parserName string, eslevel int, metricsAddr string) error {
	parser, ok := parsing.Lookup(parserName)
	if !ok {
		return fmt.Errorf("%w: %q (registered: %v)", ErrNoParserRegistered, parserName, parsing.Names())
	}

	providers, err := initObservability(observability.ModeLSP)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	stopMetrics, err := serveMetrics(providers, metricsAddr)
	if err != nil {
		return fmt.Errorf("serve metrics: %w", err)
	}

	if stopMetrics != nil {
		defer func() { _ = stopMetrics(context.Background()) }()
	}

	opts := filterpipe.Options{}
	if eslevel != 0 {
		opts.ESLevel = filterpipe.ESLevel(eslevel)
	}

	srv := lspserver.NewServer(parser, opts)
	srv.Run()

	return nil
}

// initObservability wires up tracing/metrics/logging for the requested
// mode, reading OTLP settings from the environment the way every ruby2go
// subcommand does.
func initObservability(mode observability.AppMode) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = mode

	return observability.Init(cfg)
}

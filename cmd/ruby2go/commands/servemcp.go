package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruby2js/ruby2go/internal/mcpserver"
	"github.com/ruby2js/ruby2go/internal/observability"
	"github.com/ruby2js/ruby2go/pkg/parsing"
	"github.com/ruby2js/ruby2go/pkg/version"
)

// NewServeMCPCommand creates the `serve-mcp` command.
func NewServeMCPCommand() *cobra.Command {
	var (
		debug       bool
		parserName  string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Start an MCP server exposing convert to model-driven agents",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes one tool that AI agents can discover and invoke:
  - ruby2go_convert: convert SRC source to TGT source via AST rewriting`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			parser, ok := parsing.Lookup(parserName)
			if !ok {
				return fmt.Errorf("%w: %q (registered: %v)", ErrNoParserRegistered, parserName, parsing.Names())
			}

			providers, err := initMCPObservability(debug)
			if err != nil {
				return err
			}

			defer func() {
				if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			stopMetrics, metricsErr := serveMetrics(providers, metricsAddr)
			if metricsErr != nil {
				return metricsErr
			}

			if stopMetrics != nil {
				defer func() { _ = stopMetrics(context.Background()) }()
			}

			red, redErr := observability.NewREDMetrics(providers.Meter)
			if redErr != nil {
				return redErr
			}

			deps := mcpserver.ServerDeps{Logger: providers.Logger, Metrics: red, Tracer: providers.Tracer}

			srv := mcpserver.NewServer(parser, deps)

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&parserName, "parser", "", "Name of a parser registered via parsing.Register")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", defaultMetricsAddr, "Listen address for the /metrics scrape endpoint")

	return cmd
}

func initMCPObservability(debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.Mode = observability.ModeMCP
	cfg.LogJSON = true

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(cfg)
}

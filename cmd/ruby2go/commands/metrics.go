package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ruby2js/ruby2go/internal/observability"
)

// defaultMetricsAddr is the listen address for the /metrics scrape endpoint
// on long-running serve-* commands.
const defaultMetricsAddr = ":9090"

// metricsReadHeaderTimeout bounds how long the server waits to read request
// headers before aborting, mitigating slow-header-style DoS attempts.
const metricsReadHeaderTimeout = 5 * time.Second

// serveMetrics starts an HTTP server exposing providers.MetricsHandler at
// /metrics, wrapped in HTTPMiddleware for per-scrape tracing and access
// logging. It returns nil, nil when providers carries no metrics handler
// (a mode that never stands up a listener). The returned stop func shuts
// the server down; callers should defer it.
func serveMetrics(providers observability.Providers, addr string) (stop func(context.Context) error, err error) {
	if providers.MetricsHandler == nil {
		return nil, nil
	}

	if addr == "" {
		addr = defaultMetricsAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", providers.MetricsHandler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           observability.HTTPMiddleware(providers.Tracer, providers.Logger, mux),
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			providers.Logger.Error("metrics server stopped unexpectedly", "error", serveErr)
		}
	}()

	providers.Logger.Info("metrics server listening", "addr", addr)

	return func(ctx context.Context) error {
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			return fmt.Errorf("shut down metrics server: %w", shutdownErr)
		}

		return nil
	}, nil
}

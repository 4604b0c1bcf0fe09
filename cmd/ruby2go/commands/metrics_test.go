package commands

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ruby2js/ruby2go/internal/observability"
)

func testProviders(handler http.Handler) observability.Providers {
	return observability.Providers{
		Tracer:         noop.NewTracerProvider().Tracer("test"),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		MetricsHandler: handler,
	}
}

func TestServeMetrics_NilHandlerIsNoop(t *testing.T) {
	t.Parallel()

	stop, err := serveMetrics(testProviders(nil), "")
	require.NoError(t, err)
	assert.Nil(t, stop)
}

func TestServeMetrics_ServesHandlerOnAddr(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)

		_, _ = rw.Write([]byte("metrics"))
	})

	stop, err := serveMetrics(testProviders(handler), "127.0.0.1:0")
	require.NoError(t, err)
	require.NotNil(t, stop)

	t.Cleanup(func() { _ = stop(context.Background()) })
}

func TestServeMetrics_DefaultsAddrWhenEmpty(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})

	stop, err := serveMetrics(testProviders(handler), "")
	require.NoError(t, err)
	require.NotNil(t, stop)

	t.Cleanup(func() { _ = stop(context.Background()) })
}

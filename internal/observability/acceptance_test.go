package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ruby2js/ruby2go/internal/observability"
)

// acceptanceSpanCount is the expected number of spans in the acceptance test
// (root + file + rewrite).
const acceptanceSpanCount = 3

// acceptanceFileCount is the simulated converted-file count used in log assertions.
const acceptanceFileCount = 42

// TestAcceptance_EndToEnd verifies all three observability signals (traces,
// metrics, structured logs with trace context) work together in a single
// simulated conversion run.
func TestAcceptance_EndToEnd(t *testing.T) {
	t.Parallel()

	// Setup: in-memory trace exporter.
	spanExporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanExporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("ruby2go")

	// Setup: in-memory metric reader.
	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	meter := mp.Meter("ruby2go")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)

	conv, err := observability.NewConversionMetrics(meter)
	require.NoError(t, err)

	// Setup: structured logger with trace context.
	var logBuf bytes.Buffer

	innerHandler := slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	tracingHandler := observability.NewTracingHandler(innerHandler, "ruby2go", "test", observability.ModeConvert)
	logger := slog.New(tracingHandler)

	// Simulate a convert run: root span, child spans, metrics, logs.
	ctx, rootSpan := tracer.Start(context.Background(), "ruby2go.convert")

	_, fileSpan := tracer.Start(ctx, "ruby2go.convert.file")
	fileSpan.End()

	_, rewriteSpan := tracer.Start(ctx, "ruby2go.rewrite.blocks")
	rewriteSpan.End()

	// Record metrics within the trace context.
	red.RecordRequest(ctx, "cli.convert", "ok", time.Second)

	conv.RecordRun(ctx, observability.ConversionStats{
		Conversions:         acceptanceFileCount,
		Files:               3,
		ConversionDurations: []time.Duration{time.Second, 2 * time.Second, 3 * time.Second},
		NodeCacheHits:       100,
		NodeCacheMisses:     10,
		ExportCacheHits:     50,
		ExportCacheMisses:   5,
	})

	// Emit a log line within the trace context.
	logger.InfoContext(ctx, "convert.complete", "conversions", acceptanceFileCount)

	rootSpan.End()

	// Assert: Traces.
	spans := spanExporter.GetSpans()
	require.Len(t, spans, acceptanceSpanCount, "expected root + 2 child spans")

	spanNames := make(map[string]bool, len(spans))
	for _, s := range spans {
		spanNames[s.Name] = true
	}

	assert.True(t, spanNames["ruby2go.convert"], "root span should exist")
	assert.True(t, spanNames["ruby2go.convert.file"], "file span should exist")
	assert.True(t, spanNames["ruby2go.rewrite.blocks"], "rewrite span should exist")

	// All spans share the same trace ID.
	traceID := spans[0].SpanContext.TraceID()
	for _, s := range spans[1:] {
		assert.Equal(t, traceID, s.SpanContext.TraceID(),
			"span %q should share trace ID", s.Name)
	}

	// Assert: Metrics.
	var rm metricdata.ResourceMetrics

	err = metricReader.Collect(ctx, &rm)
	require.NoError(t, err)

	reqTotal := findMetric(rm, "ruby2go.requests.total")
	require.NotNil(t, reqTotal, "request counter should be recorded")

	reqDuration := findMetric(rm, "ruby2go.request.duration.seconds")
	require.NotNil(t, reqDuration, "duration histogram should be recorded")

	// Assert: Conversion metrics.
	conversionsTotal := findMetric(rm, "ruby2go.conversions.total")
	require.NotNil(t, conversionsTotal, "conversions counter should be recorded")

	filesTotal := findMetric(rm, "ruby2go.files.total")
	require.NotNil(t, filesTotal, "files counter should be recorded")

	latency := findMetric(rm, "ruby2go.conversion.latency.seconds")
	require.NotNil(t, latency, "conversion latency histogram should be recorded")

	cacheHits := findMetric(rm, "ruby2go.require_recursive.cache.hits.total")
	require.NotNil(t, cacheHits, "cache hits counter should be recorded")

	cacheMisses := findMetric(rm, "ruby2go.require_recursive.cache.misses.total")
	require.NotNil(t, cacheMisses, "cache misses counter should be recorded")

	// Assert: Logs contain trace_id.
	var logRecord map[string]any

	err = json.Unmarshal(logBuf.Bytes(), &logRecord)
	require.NoError(t, err)

	assert.Equal(t, traceID.String(), logRecord["trace_id"],
		"log line should contain the active trace_id")
	assert.Contains(t, logRecord, "span_id",
		"log line should contain span_id")
	assert.Equal(t, "ruby2go", logRecord["service"],
		"log line should contain service name")

	conversions, ok := logRecord["conversions"].(float64)
	require.True(t, ok, "conversions should be a number")
	assert.InDelta(t, acceptanceFileCount, conversions, 0,
		"log line should contain custom attributes")
}

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricConversionsTotal  = "ruby2go.conversions.total"
	metricFilesTotal        = "ruby2go.files.total"
	metricConversionLatency = "ruby2go.conversion.latency.seconds"
	metricCacheHitsTotal    = "ruby2go.require_recursive.cache.hits.total"
	metricCacheMissesTotal  = "ruby2go.require_recursive.cache.misses.total"

	attrCache = "cache"
)

// ConversionMetrics holds OTel instruments for conversion-specific metrics,
// the natural complement to pkg/stats's in-process rewrite-rule counters.
type ConversionMetrics struct {
	conversionsTotal  metric.Int64Counter
	filesTotal        metric.Int64Counter
	conversionLatency metric.Float64Histogram
	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
}

// ConversionStats holds the statistics for a single convert run (one file
// or one directory batch), decoupled from pkg/compiler's own types.
type ConversionStats struct {
	Conversions         int64
	Files               int
	ConversionDurations []time.Duration
	NodeCacheHits       int64
	NodeCacheMisses     int64
	ExportCacheHits     int64
	ExportCacheMisses   int64
}

// NewConversionMetrics creates conversion metric instruments from the given meter.
func NewConversionMetrics(mt metric.Meter) (*ConversionMetrics, error) {
	conversions, err := mt.Int64Counter(metricConversionsTotal,
		metric.WithDescription("Total source files converted"),
		metric.WithUnit("{conversion}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricConversionsTotal, err)
	}

	files, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Total files visited, including those skipped or require_recursive-resolved"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	latency, err := mt.Float64Histogram(metricConversionLatency,
		metric.WithDescription("Per-file conversion latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricConversionLatency, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("require_recursive cache hits by cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("require_recursive cache misses by cache"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	return &ConversionMetrics{
		conversionsTotal:  conversions,
		filesTotal:        files,
		conversionLatency: latency,
		cacheHits:         hits,
		cacheMisses:       misses,
	}, nil
}

// RecordRun records conversion statistics for a completed convert invocation.
// Safe to call on a nil receiver (no-op).
func (cm *ConversionMetrics) RecordRun(ctx context.Context, stats ConversionStats) {
	if cm == nil {
		return
	}

	cm.conversionsTotal.Add(ctx, stats.Conversions)
	cm.filesTotal.Add(ctx, int64(stats.Files))

	for _, d := range stats.ConversionDurations {
		cm.conversionLatency.Record(ctx, d.Seconds())
	}

	nodeAttrs := metric.WithAttributes(attribute.String(attrCache, "node"))
	cm.cacheHits.Add(ctx, stats.NodeCacheHits, nodeAttrs)
	cm.cacheMisses.Add(ctx, stats.NodeCacheMisses, nodeAttrs)

	exportAttrs := metric.WithAttributes(attribute.String(attrCache, "export"))
	cm.cacheHits.Add(ctx, stats.ExportCacheHits, exportAttrs)
	cm.cacheMisses.Add(ctx, stats.ExportCacheMisses, exportAttrs)
}

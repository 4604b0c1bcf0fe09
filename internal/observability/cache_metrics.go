package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHits   = "ruby2go.cache.hits"
	metricCacheMisses = "ruby2go.cache.misses"
)

// CacheStatsProvider reports point-in-time hit/miss counts for a cache.
// internal/cache's Cache implements it.
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// RegisterCacheMetrics wires node and export require_recursive cache stats
// into observable gauges tagged by the "cache" attribute. Either provider
// may be nil, in which case its series is simply never observed.
func RegisterCacheMetrics(mt metric.Meter, node, export CacheStatsProvider) error {
	hits, err := mt.Int64ObservableGauge(metricCacheHits,
		metric.WithDescription("Current cache hit count by cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheHits, err)
	}

	misses, err := mt.Int64ObservableGauge(metricCacheMisses,
		metric.WithDescription("Current cache miss count by cache"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheMisses, err)
	}

	observe := func(_ context.Context, obs metric.Observer) error {
		if node != nil {
			nodeAttrs := metric.WithAttributes(attribute.String(attrCache, "node"))
			obs.ObserveInt64(hits, node.CacheHits(), nodeAttrs)
			obs.ObserveInt64(misses, node.CacheMisses(), nodeAttrs)
		}

		if export != nil {
			exportAttrs := metric.WithAttributes(attribute.String(attrCache, "export"))
			obs.ObserveInt64(hits, export.CacheHits(), exportAttrs)
			obs.ObserveInt64(misses, export.CacheMisses(), exportAttrs)
		}

		return nil
	}

	_, err = mt.RegisterCallback(observe, hits, misses)
	if err != nil {
		return fmt.Errorf("register cache metrics callback: %w", err)
	}

	return nil
}

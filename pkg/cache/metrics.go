package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cache operations.
var (
	// CacheHits counts cache hits by layer.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghas_cache_hits_total",
		Help: "Total cache hits by layer",
	}, []string{"layer"})

	// CacheMisses counts cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghas_cache_misses_total",
		Help: "Total cache misses",
	})

	// CacheErrors counts cache operation errors.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ghas_cache_errors_total",
		Help: "Total cache operation errors by operation",
	}, []string{"operation"})

	// CacheSize tracks bytes written to the cache.
	CacheSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ghas_cache_size_bytes",
		Help: "Bytes written to cache by layer",
	}, []string{"layer"})

	// NotModifiedResponses counts 304 revalidations served from cache.
	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghas_304_responses_total",
		Help: "Total 304 Not Modified responses served from cache",
	})

	// ConditionalRequestsSent counts requests sent with If-None-Match.
	ConditionalRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghas_conditional_requests_total",
		Help: "Total conditional requests sent with If-None-Match",
	})
)

// Package metrics documents the Prometheus metrics exposed by the toolkit.
// Metrics are defined in their owning packages (client, cache, ratelimit)
// via promauto to keep registration next to the code that drives them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the toolkit.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - ghas_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - ghas_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - ghas_errors_total{kind} (Counter): Errors by kind (unauthorized, not_found, rate_limited, api, network, server)
//
// Retry Metrics (pkg/client):
//   - ghas_retries_total{kind} (Counter): Retry attempts by error kind
//   - ghas_retry_backoff_seconds{kind} (Histogram): Backoff duration by error kind
//   - ghas_retry_exhausted_total{kind} (Counter): Calls that exhausted the retry budget
//
// Rate Limit Metrics (pkg/ratelimit):
//   - ghas_rate_limit_remaining (Gauge): Requests remaining in the current window
//   - ghas_rate_limit_blocks_total (Counter): Requests blocked at critical quota
//   - ghas_rate_limit_throttles_total (Counter): Requests throttled at low quota
//
// Cache Metrics (pkg/cache):
//   - ghas_cache_hits_total{layer} (Counter): Cache hits by layer
//   - ghas_cache_misses_total (Counter): Cache misses
//   - ghas_cache_size_bytes{layer} (Gauge): Bytes written to cache
//   - ghas_304_responses_total (Counter): 304 responses served from cache
//   - ghas_conditional_requests_total (Counter): Requests sent with If-None-Match
//   - ghas_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(ghas_cache_hits_total[5m])) /
//   (sum(rate(ghas_cache_hits_total[5m])) + sum(rate(ghas_cache_misses_total[5m])))
//
//   # Remaining Quota
//   ghas_rate_limit_remaining < 100
//
//   # Request Error Rate
//   rate(ghas_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(ghas_request_duration_seconds_bucket[5m]))

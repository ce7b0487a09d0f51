// Package metrics provides centralized Prometheus metrics registry for the feed server.
// All metrics are defined in their respective packages (feed, cache, upstream, throttle,
// server) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the feed server.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry exposed on /metrics.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Feed Metrics (pkg/feed):
//   - feed_requests_total{feed, outcome} (Counter): Page requests by cache outcome
//     (cached_fresh, cached_stale, not_cached, precondition_failed, not_found,
//     invalid_page_size, error)
//   - feed_assemble_duration_seconds{feed} (Histogram): Sync, fetch and assembly time
//   - feed_sync_errors_total{feed} (Counter): Failed entry source syncs
//
// HTTP Metrics (internal/server):
//   - feed_http_responses_total{feed, code} (Counter): Responses by status code
//   - feed_encodes_total{format} (Counter): Page serializations by format
//
// Page Cache Metrics (pkg/cache):
//   - feed_page_cache_hits_total (Counter): Rendered pages served from Redis
//   - feed_page_cache_misses_total (Counter): Page cache lookups that missed
//   - feed_page_cache_stored_bytes_total (Counter): Bytes written to the page cache
//   - feed_page_cache_errors_total{operation} (Counter): Page cache operation errors
//
// Upstream Metrics (pkg/upstream):
//   - upstream_requests_total{status} (Counter): Upstream fetches by HTTP status
//   - upstream_request_duration_seconds (Histogram): Upstream fetch duration
//   - upstream_retries_total{error_class} (Counter): Retry attempts by error class
//   - upstream_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - upstream_retry_exhausted_total{error_class} (Counter): Fetches that exhausted max retries
//   - upstream_mirrored_entries_total{feed} (Counter): Entries appended from upstream
//
// Sync Gate Metrics (pkg/throttle):
//   - feed_sync_gate_decisions_total{feed, decision} (Counter): Gate decisions (allowed, skipped, error)
//
// Example Prometheus Queries:
//
//   # Conditional hit rate
//   sum(rate(feed_requests_total{outcome="cached_fresh"}[5m])) /
//   sum(rate(feed_requests_total[5m]))
//
//   # Page cache hit rate
//   sum(rate(feed_page_cache_hits_total[5m])) /
//   (sum(rate(feed_page_cache_hits_total[5m])) + sum(rate(feed_page_cache_misses_total[5m])))
//
//   # Upstream error rate
//   sum(rate(upstream_requests_total{status!~"2..|304"}[5m]))
//
//   # P95 page assembly latency
//   histogram_quantile(0.95, rate(feed_assemble_duration_seconds_bucket[5m]))

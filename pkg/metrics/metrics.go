// Package metrics provides the centralized Prometheus metrics registry for
// the feature-toggle client. All metrics are defined in their respective
// packages (cache, client, evaluate, backoff, refresh) to maintain
// modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the toggle client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Definitions Cache Metrics (pkg/cache):
//   - toggle_cache_hits_total{layer} (Counter): Definitions cache hits by layer (memory, redis)
//   - toggle_cache_misses_total{layer} (Counter): Definitions cache misses by layer
//   - toggle_cache_evictions_total (Counter): Entries evicted after responses without an ETag
//   - toggle_cache_errors_total{operation} (Counter): Store operation errors (get, set, delete)
//
// Fetch Metrics (pkg/client):
//   - toggle_fetch_requests_total{status} (Counter): Definitions fetches by HTTP status class
//   - toggle_fetch_duration_seconds (Histogram): Fetch duration
//   - toggle_fetch_errors_total{class} (Counter): Fetch errors by class (client, server, network)
//   - toggle_conditional_requests_total (Counter): Requests sent with If-None-Match
//   - toggle_not_modified_total (Counter): 304 Not Modified responses served from cache
//
// Evaluation Metrics (pkg/evaluate):
//   - toggle_evaluations_total{result} (Counter): Flag evaluations by result (reused, computed)
//   - toggle_evaluation_errors_total (Counter): Errors absorbed at the evaluation boundary
//
// Upstream Backoff Metrics (pkg/backoff):
//   - toggle_upstream_failures (Gauge): Current consecutive upstream failures
//   - toggle_refresh_suspended_total (Counter): Refresh cycles blocked by suspension
//   - toggle_refresh_slowdowns_total (Counter): Refresh cycles delayed by slowdown
//
// Refresh Metrics (pkg/refresh):
//   - toggle_refresh_runs_total (Counter): Completed refresh cycles
//   - toggle_refresh_source_errors_total{source} (Counter): Per-source refresh failures
//   - toggle_refresh_duration_seconds (Histogram): Refresh cycle duration
//
// Example Prometheus Queries:
//
//   # Definitions Cache Hit Rate
//   sum(rate(toggle_cache_hits_total[5m])) /
//   (sum(rate(toggle_cache_hits_total[5m])) + sum(rate(toggle_cache_misses_total[5m])))
//
//   # Evaluation Reuse Rate
//   rate(toggle_evaluations_total{result="reused"}[5m]) /
//   sum(rate(toggle_evaluations_total[5m]))
//
//   # 304 Rate (upstream bandwidth saved)
//   rate(toggle_not_modified_total[5m]) / rate(toggle_fetch_requests_total[5m])
//
//   # P95 Fetch Latency
//   histogram_quantile(0.95, rate(toggle_fetch_duration_seconds_bucket[5m]))
//
//   # Upstream Health
//   toggle_upstream_failures > 0

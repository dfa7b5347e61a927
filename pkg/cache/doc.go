// Package cache provides the definitions cache that drives conditional
// fetching: the last known {etag, payload} per definitions source.
//
// The cache implements the following contract:
//
// - One entry per source identity (URL, credential, instance, app name)
// - ETag bookkeeping for conditional requests (If-None-Match)
// - Entries are overwritten on 200-with-ETag, deleted on 200-without-ETag,
//   and left untouched on 304
// - No eviction by size or time; the protocol is the only writer
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create an isolated store (or use cache.DefaultStore())
//	store := cache.NewMemoryStore()
//
//	// Build the source identity
//	key := cache.Key{
//		URL:     "https://flags.example.com/api/definitions",
//		Token:   "*:production.abc123",
//		AppName: "web-shop",
//	}
//
//	// Look up the last known state
//	entry, err := store.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Nothing cached yet - plain fetch
//	}
//
// # Conditional Requests
//
//	// Check whether the entry can back a conditional request
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// Server answers 304 if the payload is unchanged
//	}
//
// # Shared Store
//
// RedisStore shares ETag state between relay replicas. It cannot
// preserve payload pointer identity across processes, so it suits
// upstreams that serve ETags (the normal case); see the type comment.
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - toggle_cache_hits_total{layer} - cache hits (memory, redis)
//   - toggle_cache_misses_total{layer} - cache misses
//   - toggle_cache_evictions_total - evictions after ETag-less responses
//   - toggle_cache_errors_total{operation} - store operation errors
package cache

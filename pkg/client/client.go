// Package client implements the definitions fetch protocol: a
// conditional HTTP GET against a toggle definitions endpoint, backed by
// a definitions cache keyed per source.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nlohse/feature-toggle-client/pkg/cache"
	"github.com/nlohse/feature-toggle-client/pkg/defs"
	"github.com/nlohse/feature-toggle-client/pkg/logging"
)

// Prometheus metrics for fetch operations.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toggle_fetch_requests_total",
		Help: "Total definitions fetch requests by status",
	}, []string{"status"})

	fetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "toggle_fetch_duration_seconds",
		Help:    "Definitions fetch duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toggle_fetch_errors_total",
		Help: "Total definitions fetch errors by class",
	}, []string{"class"})

	conditionalRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toggle_conditional_requests_total",
		Help: "Total fetch requests sent with an If-None-Match header",
	})

	notModifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toggle_not_modified_total",
		Help: "Total 304 Not Modified responses answered from the definitions cache",
	})
)

// FetchResult is the outcome of one fetch against a definitions source.
type FetchResult struct {
	// Definitions is the decoded payload. On a 304 this is the cached
	// payload, returned by reference.
	Definitions *defs.Definitions

	// ETag is the entity tag the definitions cache now holds for this
	// source. Empty when the response carried none.
	ETag string

	// StatusCode is the HTTP status of the response. Non-2xx statuses
	// other than 304 are returned here rather than as errors.
	StatusCode int

	// NotModified is true when the payload was served from the cache
	// after a 304.
	NotModified bool

	// Header holds the response headers, for callers that inspect
	// Retry-After or similar.
	Header http.Header
}

// Fetch performs one conditional GET against the configured definitions
// endpoint. This is the core fetch method that orchestrates the cache
// protocol:
//
//   - a cached entry with an etag turns the request conditional;
//   - a 304 answers with the cached payload, untouched, by reference;
//   - a 2xx with an ETag header replaces the cache entry;
//   - a 2xx without one deletes the entry;
//   - any other status is decoded and returned with no cache effects.
//
// A nil store disables all cache interaction. A 304 arriving while no
// cached payload exists fails with StaleCacheError.
func Fetch(ctx context.Context, cfg Config, store cache.Store) (*FetchResult, error) {
	cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger("toggle-client")

	startTime := time.Now()
	defer func() {
		fetchDurationSeconds.Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Look up the cached entry for this source
	var key cache.Key
	var entry *cache.Entry
	if store != nil {
		key = cfg.cacheKey()
		entry, err = store.Get(ctx, key)
		if err != nil && err != cache.ErrCacheMiss {
			logger.Warn().Err(err).Str("url", cfg.URL).Msg("Definitions cache get error")
			entry = nil
		}
	}

	// Step 2: Build the request with identity and caller headers
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	cfg.applyHeaders(req)

	// Step 3: Make the request conditional if the cache allows it
	if entry != nil && cache.ShouldMakeConditionalRequest(entry) {
		cache.AddConditionalHeaders(req, entry)
		logger.Debug().
			Str("url", cfg.URL).
			Str("etag", entry.ETag).
			Msg("Making conditional request")
	}
	if req.Header.Get("If-None-Match") != "" {
		conditionalRequestsTotal.Inc()
	}

	// Step 4: Execute the HTTP request
	resp, err := cfg.httpClient().Do(req)
	if err != nil {
		fetchErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		fetchRequestsTotal.WithLabelValues("network_error").Inc()
		logger.Error().Err(err).Str("url", cfg.URL).Msg("Definitions fetch failed")
		return nil, &TransportError{URL: cfg.URL, Err: err}
	}
	defer resp.Body.Close()

	fetchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	// Step 5: Handle 304 Not Modified from the cache
	if resp.StatusCode == http.StatusNotModified {
		notModifiedTotal.Inc()

		if entry == nil || !entry.HasDefinitions() {
			fetchErrorsTotal.WithLabelValues(string(ErrorClassStaleCache)).Inc()
			logger.Error().
				Str("url", cfg.URL).
				Msg("304 Not Modified with no cached definitions")
			return nil, &StaleCacheError{URL: cfg.URL}
		}

		logger.Debug().
			Str("url", cfg.URL).
			Str("etag", entry.ETag).
			Bool("cache_hit", true).
			Msg("304 Not Modified - serving cached definitions")

		return &FetchResult{
			Definitions: entry.Definitions,
			ETag:        entry.ETag,
			StatusCode:  resp.StatusCode,
			NotModified: true,
			Header:      resp.Header,
		}, nil
	}

	// Step 6: Decode the body as a definitions payload
	var d defs.Definitions
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		fetchErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, fmt.Errorf("decode definitions (status %d): %w", resp.StatusCode, err)
	}

	result := &FetchResult{
		Definitions: &d,
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
	}

	// Step 7: Non-2xx statuses carry no cache side effects
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		if errClass != "" {
			fetchErrorsTotal.WithLabelValues(string(errClass)).Inc()
		}
		logger.Warn().
			Str("url", cfg.URL).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Definitions fetch returned non-success status")
		return result, nil
	}

	// Step 8: Update the cache from the success response
	result.ETag = resp.Header.Get("ETag")
	if store != nil {
		if result.ETag != "" {
			if err := store.Set(ctx, key, cache.NewEntry(result.ETag, &d)); err != nil {
				logger.Warn().Err(err).Str("url", cfg.URL).Msg("Definitions cache set error")
			} else {
				logger.Debug().
					Str("url", cfg.URL).
					Str("etag", result.ETag).
					Msg("Cached definitions")
			}
		} else {
			if err := store.Delete(ctx, key); err != nil {
				logger.Warn().Err(err).Str("url", cfg.URL).Msg("Definitions cache delete error")
			} else {
				cache.CacheEvictions.Inc()
				logger.Debug().
					Str("url", cfg.URL).
					Msg("Response without ETag - evicted cached definitions")
			}
		}
	}

	return result, nil
}

// FetchDefinitions fetches the definitions payload with no cache
// interaction.
func FetchDefinitions(ctx context.Context, cfg Config) (*defs.Definitions, error) {
	result, err := Fetch(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return result.Definitions, nil
}

// FetchDefinitionsCached runs the conditional fetch protocol against
// the given store. A nil store selects the process-default store.
func FetchDefinitionsCached(ctx context.Context, cfg Config, store cache.Store) (*defs.Definitions, error) {
	if store == nil {
		store = cache.DefaultStore()
	}
	result, err := Fetch(ctx, cfg, store)
	if err != nil {
		return nil, err
	}
	return result.Definitions, nil
}

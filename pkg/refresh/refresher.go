package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/nlohse/feature-toggle-client/pkg/backoff"
	"github.com/nlohse/feature-toggle-client/pkg/cache"
	"github.com/nlohse/feature-toggle-client/pkg/client"
)

// Prometheus metrics for background refresh.
var (
	refreshRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toggle_refresh_runs_total",
		Help: "Total refresh cycles executed",
	})

	refreshSourceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toggle_refresh_source_errors_total",
		Help: "Total failed source refreshes",
	}, []string{"source"})

	refreshDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "toggle_refresh_duration_seconds",
		Help:    "Refresh cycle duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)

// Source is one named definitions upstream to keep fresh.
type Source struct {
	// Name identifies the source in logs and metrics.
	Name string
	// Config is the fetch configuration for this source.
	Config client.Config
}

// Fetcher is the dependency that performs one definitions fetch.
type Fetcher interface {
	Fetch(ctx context.Context, cfg client.Config, store cache.Store) (*client.FetchResult, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, cfg client.Config, store cache.Store) (*client.FetchResult, error)

// Fetch implements the Fetcher interface.
func (f FetcherFunc) Fetch(ctx context.Context, cfg client.Config, store cache.Store) (*client.FetchResult, error) {
	return f(ctx, cfg, store)
}

// Config holds refresher configuration.
type Config struct {
	// Interval between refresh cycles.
	Interval time.Duration
	// MaxConcurrency is the maximum number of parallel source fetches.
	MaxConcurrency int
	// Store receives the fetched definitions. Defaults to the
	// process-wide store.
	Store cache.Store
	// Tracker gates cycles on upstream health. Defaults to a
	// process-local tracker.
	Tracker *backoff.Tracker
	// Fetcher performs the per-source fetch. Defaults to the HTTP
	// fetcher.
	Fetcher Fetcher
}

// DefaultConfig returns a configuration suitable for a relay fronting
// a handful of sources.
func DefaultConfig() Config {
	return Config{
		Interval:       30 * time.Second,
		MaxConcurrency: 4,
	}
}

// Refresher keeps a set of sources fresh in a shared store.
type Refresher struct {
	sources []Source
	config  Config
}

// NewRefresher creates a new refresher over the given sources.
func NewRefresher(sources []Source, config Config) *Refresher {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Store == nil {
		config.Store = cache.DefaultStore()
	}
	if config.Tracker == nil {
		config.Tracker = backoff.NewTracker(nil, log.Logger)
	}
	if config.Fetcher == nil {
		config.Fetcher = FetcherFunc(client.Fetch)
	}

	return &Refresher{
		sources: sources,
		config:  config,
	}
}

// Run refreshes all sources immediately and then once per interval
// until the context is cancelled. Cycles are skipped while the backoff
// tracker reports the upstream as suspended.
func (r *Refresher) Run(ctx context.Context) {
	log.Info().
		Int("sources", len(r.sources)).
		Dur("interval", r.config.Interval).
		Msg("Starting background refresh")

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.refreshIfAllowed(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Background refresh stopped")
			return
		case <-ticker.C:
			r.refreshIfAllowed(ctx)
		}
	}
}

// refreshIfAllowed runs one cycle unless the backoff tracker vetoes it.
// A tracker read failure never blocks refreshing.
func (r *Refresher) refreshIfAllowed(ctx context.Context) {
	allowed, err := r.config.Tracker.ShouldAllowRefresh(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Backoff state check failed, refreshing anyway")
		allowed = true
	}
	if !allowed {
		return
	}

	if err := r.RefreshAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Refresh cycle finished with failures")
	}
}

// RefreshAll runs one refresh cycle over every source using the worker
// pool. Failing sources are skipped, the rest still refresh; the
// returned error summarizes how many failed.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	start := time.Now()
	refreshRunsTotal.Inc()

	jobs := make(chan Source, len(r.sources))
	for _, source := range r.sources {
		jobs <- source
	}
	close(jobs)

	failures := make(chan string, len(r.sources))

	var wg sync.WaitGroup
	for i := 0; i < r.config.MaxConcurrency; i++ {
		wg.Add(1)
		go r.worker(ctx, jobs, failures, &wg, i)
	}

	wg.Wait()
	close(failures)

	failed := 0
	for range failures {
		failed++
	}

	duration := time.Since(start)
	refreshDurationSeconds.Observe(duration.Seconds())

	if failed > 0 {
		return fmt.Errorf("refresh cycle: %d of %d sources failed", failed, len(r.sources))
	}

	log.Info().
		Int("sources", len(r.sources)).
		Dur("duration", duration).
		Msg("Refresh cycle complete")

	return nil
}

// worker refreshes sources from the job queue.
func (r *Refresher) worker(ctx context.Context, jobs <-chan Source, failures chan<- string, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	refreshed := 0

	for source := range jobs {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("refreshed", refreshed).
				Msg("Refresh worker stopping (context cancelled)")
			return
		default:
		}

		if err := r.refreshSource(ctx, source); err != nil {
			failures <- source.Name
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("refreshed", refreshed).
			Msg("Refresh worker completed")
	}
}

// refreshSource fetches one source into the store and feeds the
// outcome to the backoff tracker.
func (r *Refresher) refreshSource(ctx context.Context, source Source) error {
	result, err := r.config.Fetcher.Fetch(ctx, source.Config, r.config.Store)
	if err != nil {
		refreshSourceErrorsTotal.WithLabelValues(source.Name).Inc()
		log.Warn().
			Err(err).
			Str("source", source.Name).
			Msg("Source refresh failed")

		if trackerErr := r.config.Tracker.RecordFailure(ctx, 0); trackerErr != nil {
			log.Warn().Err(trackerErr).Msg("Backoff state update failed")
		}
		return err
	}

	if !result.NotModified && (result.StatusCode < 200 || result.StatusCode >= 300) {
		refreshSourceErrorsTotal.WithLabelValues(source.Name).Inc()
		log.Warn().
			Str("source", source.Name).
			Int("status", result.StatusCode).
			Msg("Source refresh returned non-success status")

		retryAfter := backoff.RetryAfterFromHeaders(result.Header)
		if trackerErr := r.config.Tracker.RecordFailure(ctx, retryAfter); trackerErr != nil {
			log.Warn().Err(trackerErr).Msg("Backoff state update failed")
		}
		return fmt.Errorf("source %s: status %d", source.Name, result.StatusCode)
	}

	if err := r.config.Tracker.RecordSuccess(ctx); err != nil {
		log.Warn().Err(err).Msg("Backoff state update failed")
	}

	return nil
}

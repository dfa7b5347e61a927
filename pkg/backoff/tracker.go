package backoff

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for upstream backoff tracking.
var (
	upstreamFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "toggle_upstream_failures",
		Help: "Consecutive upstream fetch failures currently recorded",
	})

	refreshSuspendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toggle_refresh_suspended_total",
		Help: "Total refresh attempts skipped while the upstream was suspended",
	})

	refreshSlowdownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toggle_refresh_slowdowns_total",
		Help: "Total refresh attempts delayed due to elevated upstream failures",
	})
)

// Tracker monitors upstream fetch health and gates refresh attempts.
// With a Redis client the state is shared across relay replicas; with
// a nil client the tracker keeps process-local state.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger

	mu    sync.Mutex
	local UpstreamState
}

// NewTracker creates a new upstream backoff tracker. redisClient may
// be nil for process-local tracking.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
	}
}

// GetState retrieves the current upstream state.
// Returns a default healthy state if nothing has been recorded yet.
func (t *Tracker) GetState(ctx context.Context) (*UpstreamState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()

		state := t.local
		if state.LastUpdate.IsZero() {
			state.LastUpdate = time.Now()
		}
		state.UpdateHealth()
		return &state, nil
	}

	failures, err := t.redis.Get(ctx, RedisKeyConsecutiveFailures).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get consecutive failures: %w", err)
	}

	resumeTimestamp, err := t.redis.Get(ctx, RedisKeyResumeTimestamp).Int64()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get resume timestamp: %w", err)
	}

	lastUpdateStr, err := t.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get last update: %w", err)
	}

	// If no state exists in Redis, report a healthy upstream.
	if err == redis.Nil {
		t.logger.Debug().Msg("No backoff state in Redis, returning default healthy state")
		return &UpstreamState{
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &UpstreamState{
		ConsecutiveFailures: failures,
		LastUpdate:          lastUpdate,
	}
	if resumeTimestamp > 0 {
		state.ResumeAt = time.Unix(resumeTimestamp, 0)
	}
	state.UpdateHealth()

	return state, nil
}

// RecordFailure registers a failed upstream fetch. retryAfter carries
// the response's Retry-After hint; pass 0 when there was none. A hint
// overwrites the resume deadline, a hintless failure keeps any
// existing one.
func (t *Tracker) RecordFailure(ctx context.Context, retryAfter time.Duration) error {
	now := time.Now()

	var state UpstreamState
	if t.redis == nil {
		t.mu.Lock()
		t.local.ConsecutiveFailures++
		if retryAfter > 0 {
			t.local.ResumeAt = now.Add(retryAfter)
		}
		t.local.LastUpdate = now
		t.local.UpdateHealth()
		state = t.local
		t.mu.Unlock()
	} else {
		prev, err := t.GetState(ctx)
		if err != nil {
			return fmt.Errorf("get upstream state: %w", err)
		}

		state = UpstreamState{
			ConsecutiveFailures: prev.ConsecutiveFailures + 1,
			ResumeAt:            prev.ResumeAt,
			LastUpdate:          now,
		}
		if retryAfter > 0 {
			state.ResumeAt = now.Add(retryAfter)
		}
		state.UpdateHealth()

		if err := t.storeState(ctx, &state); err != nil {
			return err
		}
	}

	upstreamFailures.Set(float64(state.ConsecutiveFailures))

	switch {
	case state.NeedsSuspend():
		t.logger.Error().
			Int("consecutive_failures", state.ConsecutiveFailures).
			Time("resume_at", state.ResumeAt).
			Msg("Upstream failing - refresh suspended")
	case state.NeedsSlowdown():
		t.logger.Warn().
			Int("consecutive_failures", state.ConsecutiveFailures).
			Msg("Upstream failing - refresh slowed down")
	default:
		t.logger.Info().
			Int("consecutive_failures", state.ConsecutiveFailures).
			Msg("Upstream fetch failure recorded")
	}

	return nil
}

// RecordSuccess registers a successful upstream fetch and clears any
// accumulated backoff.
func (t *Tracker) RecordSuccess(ctx context.Context) error {
	state := UpstreamState{LastUpdate: time.Now(), IsHealthy: true}

	if t.redis == nil {
		t.mu.Lock()
		t.local = state
		t.mu.Unlock()
	} else {
		if err := t.storeState(ctx, &state); err != nil {
			return err
		}
	}

	upstreamFailures.Set(0)
	t.logger.Debug().Msg("Upstream fetch succeeded, backoff cleared")
	return nil
}

// storeState writes the state fields to Redis atomically.
func (t *Tracker) storeState(ctx context.Context, state *UpstreamState) error {
	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	var resumeTimestamp int64
	if !state.ResumeAt.IsZero() {
		resumeTimestamp = state.ResumeAt.Unix()
	}

	pipe := t.redis.Pipeline()
	pipe.Set(ctx, RedisKeyConsecutiveFailures, state.ConsecutiveFailures, 0)
	pipe.Set(ctx, RedisKeyResumeTimestamp, resumeTimestamp, 0)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store backoff state in redis: %w", err)
	}

	return nil
}

// ShouldAllowRefresh checks if a refresh attempt should proceed.
// Returns false while the upstream is suspended. Returns true but
// sleeps briefly when the upstream is in the slowdown band.
func (t *Tracker) ShouldAllowRefresh(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get upstream state: %w", err)
	}

	if state.NeedsSuspend() {
		t.logger.Error().
			Int("consecutive_failures", state.ConsecutiveFailures).
			Dur("wait_duration", state.TimeUntilResume()).
			Msg("Upstream suspended - skipping refresh")

		refreshSuspendedTotal.Inc()
		return false, nil
	}

	if state.NeedsSlowdown() {
		t.logger.Warn().
			Int("consecutive_failures", state.ConsecutiveFailures).
			Msg("Upstream degraded - delaying refresh")

		refreshSlowdownsTotal.Inc()
		time.Sleep(1 * time.Second)
	}

	return true, nil
}

// RetryAfterFromHeaders extracts a resume hint from a Retry-After
// header. Both forms are accepted: delay seconds and HTTP date.
// Returns 0 when the header is absent or unparseable.
func RetryAfterFromHeaders(headers http.Header) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}

	return 0
}

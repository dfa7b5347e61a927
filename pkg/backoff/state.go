// Package backoff tracks upstream definitions fetch health and gates
// the background refresher. It counts consecutive fetch failures and
// honors Retry-After hints so a struggling upstream is polled less,
// then not at all, until it recovers.
package backoff

import (
	"time"
)

// Redis keys for upstream backoff state storage.
const (
	RedisKeyConsecutiveFailures = "toggle:backoff:consecutive_failures"
	RedisKeyResumeTimestamp     = "toggle:backoff:resume_timestamp"
	RedisKeyLastUpdate          = "toggle:backoff:last_update"
)

// Thresholds for refresh gating decisions.
const (
	// FailureThresholdSlowdown delays refresh attempts once consecutive
	// failures reach this value. The upstream is still polled, just less
	// aggressively.
	FailureThresholdSlowdown = 3

	// FailureThresholdSuspend suspends refresh attempts entirely once
	// consecutive failures reach this value. Polling resumes only after
	// a recorded success or an explicit resume deadline passing.
	FailureThresholdSuspend = 10
)

// UpstreamState represents the current health of a definitions
// upstream. When a Redis client is configured, this state is shared
// across all relay replicas.
type UpstreamState struct {
	// ConsecutiveFailures is the number of fetch failures since the last
	// successful fetch.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// ResumeAt is the earliest time a refresh may be attempted again.
	// Set from a Retry-After hint on the failing response; zero when the
	// upstream gave no hint.
	ResumeAt time.Time `json:"resume_at"`

	// LastUpdate is the timestamp when this state was last updated.
	// Used to detect stale state.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy indicates whether refresh runs without restrictions.
	// True while ConsecutiveFailures is below FailureThresholdSlowdown.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *UpstreamState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsSuspend returns true if refresh attempts should be suspended,
// either because the failure count crossed the suspend threshold or
// because a Retry-After deadline has not passed yet.
func (s *UpstreamState) NeedsSuspend() bool {
	return s.ConsecutiveFailures >= FailureThresholdSuspend || time.Now().Before(s.ResumeAt)
}

// NeedsSlowdown returns true if refresh attempts should be delayed due
// to elevated failures.
func (s *UpstreamState) NeedsSlowdown() bool {
	return s.ConsecutiveFailures >= FailureThresholdSlowdown && !s.NeedsSuspend()
}

// TimeUntilResume returns the duration until the resume deadline.
// Returns 0 if no deadline is set or it has already passed.
func (s *UpstreamState) TimeUntilResume() time.Duration {
	duration := time.Until(s.ResumeAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on the current
// failure count.
func (s *UpstreamState) UpdateHealth() {
	s.IsHealthy = s.ConsecutiveFailures < FailureThresholdSlowdown
}

package backoff

import (
	"testing"
	"time"
)

func TestUpstreamState_IsStale(t *testing.T) {
	tests := []struct {
		name     string
		state    *UpstreamState
		maxAge   time.Duration
		expected bool
	}{
		{
			name: "fresh state",
			state: &UpstreamState{
				LastUpdate: time.Now(),
			},
			maxAge:   5 * time.Minute,
			expected: false,
		},
		{
			name: "stale state",
			state: &UpstreamState{
				LastUpdate: time.Now().Add(-10 * time.Minute),
			},
			maxAge:   5 * time.Minute,
			expected: true,
		},
		{
			name: "just under max age",
			state: &UpstreamState{
				LastUpdate: time.Now().Add(-4 * time.Minute),
			},
			maxAge:   5 * time.Minute,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.state.IsStale(tt.maxAge)
			if result != tt.expected {
				t.Errorf("IsStale() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestUpstreamState_NeedsSuspend(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		resumeAt time.Time
		expected bool
	}{
		{
			name:     "no failures",
			failures: 0,
			expected: false,
		},
		{
			name:     "just below suspend threshold",
			failures: FailureThresholdSuspend - 1,
			expected: false,
		},
		{
			name:     "at suspend threshold",
			failures: FailureThresholdSuspend,
			expected: true,
		},
		{
			name:     "above suspend threshold",
			failures: FailureThresholdSuspend + 5,
			expected: true,
		},
		{
			name:     "resume deadline in the future",
			failures: 1,
			resumeAt: time.Now().Add(30 * time.Second),
			expected: true,
		},
		{
			name:     "resume deadline passed",
			failures: 1,
			resumeAt: time.Now().Add(-30 * time.Second),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &UpstreamState{
				ConsecutiveFailures: tt.failures,
				ResumeAt:            tt.resumeAt,
			}
			if result := state.NeedsSuspend(); result != tt.expected {
				t.Errorf("NeedsSuspend() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestUpstreamState_NeedsSlowdown(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		resumeAt time.Time
		expected bool
	}{
		{
			name:     "no failures",
			failures: 0,
			expected: false,
		},
		{
			name:     "just below slowdown threshold",
			failures: FailureThresholdSlowdown - 1,
			expected: false,
		},
		{
			name:     "at slowdown threshold",
			failures: FailureThresholdSlowdown,
			expected: true,
		},
		{
			name:     "at suspend threshold - suspend wins",
			failures: FailureThresholdSuspend,
			expected: false,
		},
		{
			name:     "slowdown band with future resume deadline - suspend wins",
			failures: FailureThresholdSlowdown,
			resumeAt: time.Now().Add(30 * time.Second),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &UpstreamState{
				ConsecutiveFailures: tt.failures,
				ResumeAt:            tt.resumeAt,
			}
			if result := state.NeedsSlowdown(); result != tt.expected {
				t.Errorf("NeedsSlowdown() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestUpstreamState_TimeUntilResume(t *testing.T) {
	t.Run("future deadline", func(t *testing.T) {
		state := &UpstreamState{ResumeAt: time.Now().Add(30 * time.Second)}
		got := state.TimeUntilResume()
		if got <= 25*time.Second || got > 30*time.Second {
			t.Errorf("TimeUntilResume() = %v, want about 30s", got)
		}
	})

	t.Run("passed deadline", func(t *testing.T) {
		state := &UpstreamState{ResumeAt: time.Now().Add(-30 * time.Second)}
		if got := state.TimeUntilResume(); got != 0 {
			t.Errorf("TimeUntilResume() = %v, want 0", got)
		}
	})

	t.Run("no deadline", func(t *testing.T) {
		state := &UpstreamState{}
		if got := state.TimeUntilResume(); got != 0 {
			t.Errorf("TimeUntilResume() = %v, want 0", got)
		}
	})
}

func TestUpstreamState_UpdateHealth(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		expected bool
	}{
		{
			name:     "no failures",
			failures: 0,
			expected: true,
		},
		{
			name:     "below slowdown threshold",
			failures: FailureThresholdSlowdown - 1,
			expected: true,
		},
		{
			name:     "at slowdown threshold",
			failures: FailureThresholdSlowdown,
			expected: false,
		},
		{
			name:     "at suspend threshold",
			failures: FailureThresholdSuspend,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &UpstreamState{ConsecutiveFailures: tt.failures}
			state.UpdateHealth()
			if state.IsHealthy != tt.expected {
				t.Errorf("IsHealthy = %v, want %v", state.IsHealthy, tt.expected)
			}
		})
	}
}

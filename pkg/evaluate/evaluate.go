// Package evaluate ties the definitions fetcher, the evaluation cache,
// and the evaluation engine together behind a single entry point that
// never lets errors escape.
package evaluate

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nlohse/feature-toggle-client/pkg/client"
	"github.com/nlohse/feature-toggle-client/pkg/defs"
	"github.com/nlohse/feature-toggle-client/pkg/logging"
)

// Prometheus metrics for evaluation operations.
var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toggle_evaluations_total",
		Help: "Total toggle evaluations by result source",
	}, []string{"result"})

	evaluationErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toggle_evaluation_errors_total",
		Help: "Total evaluation failures absorbed at the flag boundary",
	})
)

// Result is the outcome of one flag evaluation. On failure, Error
// carries the cause while Enabled and Variant hold their safe
// defaults: disabled.
type Result struct {
	Enabled bool
	Variant defs.ToggleVariant
	Error   error
}

// Flag evaluates the named flag for the given context. This is the
// absorbing boundary: every failure underneath (fetch, context
// serialization, evaluator) is converted into a disabled Result with
// the cause in Error, so callers can branch on the flag without
// guarding against errors.
func Flag(ctx context.Context, name string, flagContext defs.Context, opts ...Option) Result {
	set, err := Toggles(ctx, flagContext, opts...)
	if err != nil {
		evaluationErrorsTotal.Inc()
		logging.NewLogger("toggle-evaluate").Error().
			Err(err).
			Str("flag", name).
			Msg("Flag evaluation failed")
		return Result{Enabled: false, Variant: defs.DisabledVariant, Error: err}
	}

	return Result{
		Enabled: set.IsEnabled(name),
		Variant: set.GetVariant(name),
	}
}

// Toggles evaluates every flag for the given context, reusing the
// evaluation cache when the freshness signal allows it. Unlike Flag,
// errors propagate to the caller.
func Toggles(ctx context.Context, flagContext defs.Context, opts ...Option) (*ToggleSet, error) {
	s := newSettings(opts...)

	result, err := client.Fetch(ctx, s.config, s.store)
	if err != nil {
		return nil, err
	}
	if !result.NotModified && (result.StatusCode < 200 || result.StatusCode >= 300) {
		return nil, fmt.Errorf("definitions endpoint returned status %d", result.StatusCode)
	}

	contextKey, err := ContextKey(flagContext)
	if err != nil {
		return nil, err
	}

	if toggles, ok := s.cache.Lookup(contextKey, result.ETag, result.Definitions); ok {
		evaluationsTotal.WithLabelValues("reused").Inc()
		return NewToggleSet(toggles), nil
	}

	toggles, err := s.evaluator.Evaluate(ctx, result.Definitions, flagContext)
	if err != nil {
		return nil, err
	}

	s.cache.Store(toggles, contextKey, result.ETag, result.Definitions)
	evaluationsTotal.WithLabelValues("computed").Inc()

	return NewToggleSet(toggles), nil
}

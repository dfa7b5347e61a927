package evaluate

import (
	"context"

	"github.com/nlohse/feature-toggle-client/pkg/cache"
	"github.com/nlohse/feature-toggle-client/pkg/client"
	"github.com/nlohse/feature-toggle-client/pkg/defs"
	"github.com/nlohse/feature-toggle-client/pkg/evaluator"
)

// Evaluator computes toggle states from a definitions payload and a
// context. Implementations must be pure functions of their inputs so
// cached results can stand in for recomputation.
type Evaluator interface {
	Evaluate(ctx context.Context, d *defs.Definitions, c defs.Context) ([]defs.Toggle, error)
}

// defaultEngine is shared so its compiled-pattern cache survives
// across calls.
var defaultEngine = evaluator.New()

// settings collects the resolved collaborators for one evaluation.
type settings struct {
	config    client.Config
	store     cache.Store
	cache     *Cache
	evaluator Evaluator
}

// Option configures a single evaluation call.
type Option func(*settings)

// WithConfig sets the fetch configuration for the definitions source.
func WithConfig(cfg client.Config) Option {
	return func(s *settings) {
		s.config = cfg
	}
}

// WithStore sets the definitions cache handle. Defaults to the
// process-wide store.
func WithStore(store cache.Store) Option {
	return func(s *settings) {
		s.store = store
	}
}

// WithCache sets the evaluation cache handle. Defaults to the
// process-wide cache.
func WithCache(c *Cache) Option {
	return func(s *settings) {
		s.cache = c
	}
}

// WithEvaluator replaces the built-in evaluation engine.
func WithEvaluator(e Evaluator) Option {
	return func(s *settings) {
		s.evaluator = e
	}
}

// newSettings applies options and fills process-wide defaults for
// anything left unset.
func newSettings(opts ...Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	if s.store == nil {
		s.store = cache.DefaultStore()
	}
	if s.cache == nil {
		s.cache = DefaultCache()
	}
	if s.evaluator == nil {
		s.evaluator = defaultEngine
	}
	return s
}

// Package evaluator implements the built-in toggle evaluation engine:
// activation strategies, constraints, and weighted variant selection.
package evaluator

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr/vm"

	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

// EvaluationError reports a failure while evaluating one flag, usually
// a malformed definition (bad constraint value, invalid pattern).
type EvaluationError struct {
	Flag   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluate flag %s: %s: %v", e.Flag, e.Reason, e.Err)
	}
	return fmt.Sprintf("evaluate flag %s: %s", e.Flag, e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Engine evaluates definitions into toggle states. It caches compiled
// MATCHES patterns and is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
}

// New creates an evaluation engine.
func New() *Engine {
	return &Engine{
		programs: make(map[string]*vm.Program),
	}
}

// Evaluate computes the toggle state of every feature in d against c.
// The result order follows the definitions order. Evaluation is pure:
// neither d nor c is modified, and no repeated-call state is kept
// beyond the compiled pattern cache.
func (e *Engine) Evaluate(ctx context.Context, d *defs.Definitions, c defs.Context) ([]defs.Toggle, error) {
	if d == nil {
		return []defs.Toggle{}, nil
	}

	toggles := make([]defs.Toggle, 0, len(d.Features))
	for i := range d.Features {
		toggle, err := e.evaluateFeature(&d.Features[i], c)
		if err != nil {
			return nil, err
		}
		toggles = append(toggles, toggle)
	}

	return toggles, nil
}

// evaluateFeature resolves the enabled state and variant of one feature.
func (e *Engine) evaluateFeature(f *defs.Feature, c defs.Context) (defs.Toggle, error) {
	toggle := defs.Toggle{
		Name:           f.Name,
		Variant:        defs.DisabledVariant,
		ImpressionData: f.ImpressionData,
	}

	if !f.Enabled {
		return toggle, nil
	}

	// A feature without strategies is active for everyone.
	var matched *defs.Strategy
	if len(f.Strategies) == 0 {
		toggle.Enabled = true
	} else {
		for i := range f.Strategies {
			ok, err := e.strategyEnabled(&f.Strategies[i], f.Name, c)
			if err != nil {
				return toggle, &EvaluationError{Flag: f.Name, Reason: "strategy evaluation failed", Err: err}
			}
			if ok {
				toggle.Enabled = true
				matched = &f.Strategies[i]
				break
			}
		}
	}

	if !toggle.Enabled {
		return toggle, nil
	}

	// Strategy-level variants take precedence over feature-level ones.
	variants := f.Variants
	if matched != nil && len(matched.Variants) > 0 {
		variants = matched.Variants
	}
	toggle.Variant = selectVariant(variants, f.Name, c)

	return toggle, nil
}

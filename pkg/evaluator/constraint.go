package evaluator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

// Constraint operators.
const (
	OperatorIn            = "IN"
	OperatorNotIn         = "NOT_IN"
	OperatorStrStartsWith = "STR_STARTS_WITH"
	OperatorStrEndsWith   = "STR_ENDS_WITH"
	OperatorStrContains   = "STR_CONTAINS"
	OperatorNumEq         = "NUM_EQ"
	OperatorNumGt         = "NUM_GT"
	OperatorNumGte        = "NUM_GTE"
	OperatorNumLt         = "NUM_LT"
	OperatorNumLte        = "NUM_LTE"
	OperatorDateAfter     = "DATE_AFTER"
	OperatorDateBefore    = "DATE_BEFORE"
	OperatorMatches       = "MATCHES"
)

// constraintSatisfied evaluates a single constraint against the
// context. A missing context field leaves the constraint unsatisfied;
// Inverted flips the final outcome, so an inverted constraint passes on
// a missing field.
func (e *Engine) constraintSatisfied(cn *defs.Constraint, c defs.Context) (bool, error) {
	value, present := resolveField(cn.ContextName, c)

	result, err := e.constraintResult(cn, value, present)
	if err != nil {
		return false, err
	}
	if cn.Inverted {
		return !result, nil
	}
	return result, nil
}

// resolveField reads a context field. An absent currentTime resolves to
// the wall clock so date constraints work without the caller supplying
// a timestamp.
func resolveField(name string, c defs.Context) (string, bool) {
	value, ok := c.Field(name)
	if !ok && name == "currentTime" {
		return time.Now().Format(time.RFC3339), true
	}
	return value, ok
}

// constraintResult dispatches on the operator. Numeric and date
// operators treat an unparseable constraint value as a definitions
// defect and fail the evaluation; an unparseable context value merely
// leaves the constraint unsatisfied.
func (e *Engine) constraintResult(cn *defs.Constraint, value string, present bool) (bool, error) {
	if !present {
		return false, nil
	}

	switch cn.Operator {
	case OperatorIn:
		return containsString(cn.Values, value, cn.CaseInsensitive), nil

	case OperatorNotIn:
		return !containsString(cn.Values, value, cn.CaseInsensitive), nil

	case OperatorStrStartsWith:
		return matchStrings(cn.Values, value, cn.CaseInsensitive, strings.HasPrefix), nil

	case OperatorStrEndsWith:
		return matchStrings(cn.Values, value, cn.CaseInsensitive, strings.HasSuffix), nil

	case OperatorStrContains:
		return matchStrings(cn.Values, value, cn.CaseInsensitive, strings.Contains), nil

	case OperatorNumEq:
		return compareNumbers(value, cn.Value, func(a, b float64) bool { return a == b })

	case OperatorNumGt:
		return compareNumbers(value, cn.Value, func(a, b float64) bool { return a > b })

	case OperatorNumGte:
		return compareNumbers(value, cn.Value, func(a, b float64) bool { return a >= b })

	case OperatorNumLt:
		return compareNumbers(value, cn.Value, func(a, b float64) bool { return a < b })

	case OperatorNumLte:
		return compareNumbers(value, cn.Value, func(a, b float64) bool { return a <= b })

	case OperatorDateAfter:
		return compareDates(value, cn.Value, func(a, b time.Time) bool { return a.After(b) })

	case OperatorDateBefore:
		return compareDates(value, cn.Value, func(a, b time.Time) bool { return a.Before(b) })

	case OperatorMatches:
		return e.matches(value, cn.Value)

	default:
		return false, fmt.Errorf("unsupported operator: %s", cn.Operator)
	}
}

// containsString checks list membership.
func containsString(list []string, value string, caseInsensitive bool) bool {
	for _, candidate := range list {
		if caseInsensitive {
			if strings.EqualFold(candidate, value) {
				return true
			}
			continue
		}
		if candidate == value {
			return true
		}
	}
	return false
}

// matchStrings applies a string predicate against every candidate.
func matchStrings(list []string, value string, caseInsensitive bool, match func(s, substr string) bool) bool {
	if caseInsensitive {
		value = strings.ToLower(value)
	}
	for _, candidate := range list {
		if caseInsensitive {
			candidate = strings.ToLower(candidate)
		}
		if match(value, candidate) {
			return true
		}
	}
	return false
}

// compareNumbers parses both sides as floats and applies cmp.
func compareNumbers(value, constraintValue string, cmp func(a, b float64) bool) (bool, error) {
	bound, err := strconv.ParseFloat(strings.TrimSpace(constraintValue), 64)
	if err != nil {
		return false, fmt.Errorf("parse numeric constraint value %q: %w", constraintValue, err)
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false, nil
	}

	return cmp(parsed, bound), nil
}

// compareDates parses both sides as RFC 3339 timestamps and applies cmp.
func compareDates(value, constraintValue string, cmp func(a, b time.Time) bool) (bool, error) {
	bound, err := time.Parse(time.RFC3339, strings.TrimSpace(constraintValue))
	if err != nil {
		return false, fmt.Errorf("parse date constraint value %q: %w", constraintValue, err)
	}

	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return false, nil
	}

	return cmp(parsed, bound), nil
}

// matches evaluates the MATCHES operator through the expression engine.
func (e *Engine) matches(value, pattern string) (bool, error) {
	program, err := e.compile(pattern)
	if err != nil {
		return false, err
	}

	result, err := expr.Run(program, map[string]interface{}{"value": value})
	if err != nil {
		return false, fmt.Errorf("evaluate pattern %q: %w", pattern, err)
	}

	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("pattern %q evaluated to non-boolean %T", pattern, result)
	}
	return matched, nil
}

// compile returns the cached program for a pattern, compiling on first
// use.
func (e *Engine) compile(pattern string) (*vm.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.programs[pattern]; ok {
		return program, nil
	}

	source := fmt.Sprintf("value matches %q", pattern)
	program, err := expr.Compile(source, expr.Env(map[string]interface{}{"value": ""}))
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}

	e.programs[pattern] = program
	return program, nil
}

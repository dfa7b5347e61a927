package evaluator

import (
	"strings"
	"testing"

	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

func TestConstraintSatisfied(t *testing.T) {
	ctx := defs.Context{
		UserID:      "alice",
		Environment: "production",
		Properties: map[string]string{
			"email":   "alice@example.com",
			"age":     "30",
			"signup":  "2024-06-01T12:00:00Z",
			"version": "2.4.1",
		},
	}

	tests := []struct {
		name       string
		constraint defs.Constraint
		expected   bool
	}{
		{
			name:       "IN matches",
			constraint: defs.Constraint{ContextName: "environment", Operator: OperatorIn, Values: []string{"staging", "production"}},
			expected:   true,
		},
		{
			name:       "IN misses",
			constraint: defs.Constraint{ContextName: "environment", Operator: OperatorIn, Values: []string{"staging"}},
			expected:   false,
		},
		{
			name:       "IN case insensitive",
			constraint: defs.Constraint{ContextName: "environment", Operator: OperatorIn, Values: []string{"PRODUCTION"}, CaseInsensitive: true},
			expected:   true,
		},
		{
			name:       "NOT_IN excludes",
			constraint: defs.Constraint{ContextName: "environment", Operator: OperatorNotIn, Values: []string{"production"}},
			expected:   false,
		},
		{
			name:       "NOT_IN passes",
			constraint: defs.Constraint{ContextName: "environment", Operator: OperatorNotIn, Values: []string{"staging"}},
			expected:   true,
		},
		{
			name:       "STR_STARTS_WITH",
			constraint: defs.Constraint{ContextName: "email", Operator: OperatorStrStartsWith, Values: []string{"alice@", "bob@"}},
			expected:   true,
		},
		{
			name:       "STR_STARTS_WITH case sensitive miss",
			constraint: defs.Constraint{ContextName: "email", Operator: OperatorStrStartsWith, Values: []string{"ALICE@"}},
			expected:   false,
		},
		{
			name:       "STR_STARTS_WITH case insensitive",
			constraint: defs.Constraint{ContextName: "email", Operator: OperatorStrStartsWith, Values: []string{"ALICE@"}, CaseInsensitive: true},
			expected:   true,
		},
		{
			name:       "STR_ENDS_WITH",
			constraint: defs.Constraint{ContextName: "email", Operator: OperatorStrEndsWith, Values: []string{"@example.com"}},
			expected:   true,
		},
		{
			name:       "STR_CONTAINS",
			constraint: defs.Constraint{ContextName: "email", Operator: OperatorStrContains, Values: []string{"@example"}},
			expected:   true,
		},
		{
			name:       "STR_CONTAINS miss",
			constraint: defs.Constraint{ContextName: "email", Operator: OperatorStrContains, Values: []string{"@other"}},
			expected:   false,
		},
		{
			name:       "NUM_EQ",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorNumEq, Value: "30"},
			expected:   true,
		},
		{
			name:       "NUM_GT true",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorNumGt, Value: "18"},
			expected:   true,
		},
		{
			name:       "NUM_GT false at bound",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorNumGt, Value: "30"},
			expected:   false,
		},
		{
			name:       "NUM_GTE true at bound",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorNumGte, Value: "30"},
			expected:   true,
		},
		{
			name:       "NUM_LT",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorNumLt, Value: "65"},
			expected:   true,
		},
		{
			name:       "NUM_LTE false",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorNumLte, Value: "29"},
			expected:   false,
		},
		{
			name:       "NUM decimal comparison",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorNumGt, Value: "29.5"},
			expected:   true,
		},
		{
			name:       "DATE_AFTER true",
			constraint: defs.Constraint{ContextName: "signup", Operator: OperatorDateAfter, Value: "2024-01-01T00:00:00Z"},
			expected:   true,
		},
		{
			name:       "DATE_AFTER false",
			constraint: defs.Constraint{ContextName: "signup", Operator: OperatorDateAfter, Value: "2025-01-01T00:00:00Z"},
			expected:   false,
		},
		{
			name:       "DATE_BEFORE true",
			constraint: defs.Constraint{ContextName: "signup", Operator: OperatorDateBefore, Value: "2025-01-01T00:00:00Z"},
			expected:   true,
		},
		{
			name:       "MATCHES pattern",
			constraint: defs.Constraint{ContextName: "version", Operator: OperatorMatches, Value: `^2\.\d+\.\d+$`},
			expected:   true,
		},
		{
			name:       "MATCHES miss",
			constraint: defs.Constraint{ContextName: "version", Operator: OperatorMatches, Value: `^3\.`},
			expected:   false,
		},
		{
			name:       "missing field fails",
			constraint: defs.Constraint{ContextName: "country", Operator: OperatorIn, Values: []string{"NO"}},
			expected:   false,
		},
		{
			name:       "inverted flips match",
			constraint: defs.Constraint{ContextName: "environment", Operator: OperatorIn, Values: []string{"production"}, Inverted: true},
			expected:   false,
		},
		{
			name:       "inverted flips miss",
			constraint: defs.Constraint{ContextName: "environment", Operator: OperatorIn, Values: []string{"staging"}, Inverted: true},
			expected:   true,
		},
		{
			name:       "inverted passes on missing field",
			constraint: defs.Constraint{ContextName: "country", Operator: OperatorIn, Values: []string{"NO"}, Inverted: true},
			expected:   true,
		},
		{
			name:       "non-numeric context value fails constraint",
			constraint: defs.Constraint{ContextName: "email", Operator: OperatorNumGt, Value: "10"},
			expected:   false,
		},
		{
			name:       "non-date context value fails constraint",
			constraint: defs.Constraint{ContextName: "email", Operator: OperatorDateAfter, Value: "2024-01-01T00:00:00Z"},
			expected:   false,
		},
	}

	engine := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.constraintSatisfied(&tt.constraint, ctx)
			if err != nil {
				t.Fatalf("constraintSatisfied() failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("constraintSatisfied() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestConstraintSatisfied_Errors(t *testing.T) {
	ctx := defs.Context{
		Properties: map[string]string{"age": "30", "version": "2.4.1"},
	}

	tests := []struct {
		name       string
		constraint defs.Constraint
	}{
		{
			name:       "non-numeric constraint value",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorNumGt, Value: "many"},
		},
		{
			name:       "non-date constraint value",
			constraint: defs.Constraint{ContextName: "age", Operator: OperatorDateAfter, Value: "yesterday"},
		},
		{
			name:       "invalid pattern",
			constraint: defs.Constraint{ContextName: "version", Operator: OperatorMatches, Value: "([unclosed"},
		},
		{
			name:       "unsupported operator",
			constraint: defs.Constraint{ContextName: "age", Operator: "SEMVER_GT", Value: "1.0.0"},
		},
	}

	engine := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.constraintSatisfied(&tt.constraint, ctx)
			if err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestConstraintSatisfied_CurrentTimeDefaultsToNow(t *testing.T) {
	engine := New()

	past := defs.Constraint{ContextName: "currentTime", Operator: OperatorDateAfter, Value: "2000-01-01T00:00:00Z"}
	result, err := engine.constraintSatisfied(&past, defs.Context{})
	if err != nil {
		t.Fatalf("constraintSatisfied() failed: %v", err)
	}
	if !result {
		t.Error("currentTime did not default to the wall clock")
	}

	explicit := defs.Constraint{ContextName: "currentTime", Operator: OperatorDateBefore, Value: "2000-01-01T00:00:00Z"}
	result, err = engine.constraintSatisfied(&explicit, defs.Context{CurrentTime: "1999-12-31T23:00:00Z"})
	if err != nil {
		t.Fatalf("constraintSatisfied() failed: %v", err)
	}
	if !result {
		t.Error("Explicit currentTime was ignored")
	}
}

func TestEngine_CompileCachesPrograms(t *testing.T) {
	engine := New()

	for i := 0; i < 3; i++ {
		matched, err := engine.matches("2.4.1", `^2\.`)
		if err != nil {
			t.Fatalf("matches() failed: %v", err)
		}
		if !matched {
			t.Error("Pattern did not match")
		}
	}

	engine.mu.Lock()
	cached := len(engine.programs)
	engine.mu.Unlock()
	if cached != 1 {
		t.Errorf("Program cache size = %d, want 1", cached)
	}
}

func TestMatches_QuotesInPattern(t *testing.T) {
	engine := New()

	matched, err := engine.matches(`say "hi"`, `"hi"`)
	if err != nil {
		t.Fatalf("matches() failed: %v", err)
	}
	if !matched {
		t.Error("Pattern with quotes did not match")
	}
}

func TestMatchStrings_EmptyList(t *testing.T) {
	if matchStrings(nil, "value", false, strings.HasPrefix) {
		t.Error("Empty candidate list matched")
	}
}

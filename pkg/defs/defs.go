// Package defs defines the feature-toggle definitions document, the
// evaluation context, and the evaluated toggle shapes shared by the
// fetch, cache, and evaluation packages.
package defs

// Definitions is the payload served by a definitions endpoint.
// It is treated as immutable once decoded; cached copies are handed
// out by reference, never deep-copied.
type Definitions struct {
	Version  int       `json:"version"`
	Features []Feature `json:"features"`
}

// Feature is one flag definition.
type Feature struct {
	Name           string     `json:"name"`
	Type           string     `json:"type,omitempty"`
	Enabled        bool       `json:"enabled"`
	Stale          bool       `json:"stale,omitempty"`
	ImpressionData bool       `json:"impressionData,omitempty"`
	Strategies     []Strategy `json:"strategies,omitempty"`
	Variants       []Variant  `json:"variants,omitempty"`
}

// Strategy is one activation strategy attached to a feature.
// A feature with no strategies is active for everyone when enabled.
type Strategy struct {
	Name        string            `json:"name"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Constraints []Constraint      `json:"constraints,omitempty"`
	Variants    []Variant         `json:"variants,omitempty"`
}

// Constraint restricts a strategy to contexts matching an operator
// over a single context field.
type Constraint struct {
	ContextName     string   `json:"contextName"`
	Operator        string   `json:"operator"`
	Values          []string `json:"values,omitempty"`
	Value           string   `json:"value,omitempty"`
	Inverted        bool     `json:"inverted,omitempty"`
	CaseInsensitive bool     `json:"caseInsensitive,omitempty"`
}

// Variant is one weighted variant definition.
type Variant struct {
	Name       string          `json:"name"`
	Weight     int             `json:"weight"`
	Stickiness string          `json:"stickiness,omitempty"`
	Payload    *VariantPayload `json:"payload,omitempty"`
	Overrides  []Override      `json:"overrides,omitempty"`
}

// VariantPayload is the optional payload attached to a variant.
type VariantPayload struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Override forces a variant for contexts whose named field matches one
// of the listed values, bypassing weighted selection.
type Override struct {
	ContextName string   `json:"contextName"`
	Values      []string `json:"values"`
}

// Feature returns the named feature definition, or nil if absent.
func (d *Definitions) Feature(name string) *Feature {
	if d == nil {
		return nil
	}
	for i := range d.Features {
		if d.Features[i].Name == name {
			return &d.Features[i]
		}
	}
	return nil
}

package defs

// Toggle is the evaluated state of one named flag for one context.
type Toggle struct {
	Name           string        `json:"name"`
	Enabled        bool          `json:"enabled"`
	Variant        ToggleVariant `json:"variant"`
	ImpressionData bool          `json:"impressionData"`
}

// ToggleVariant is the variant resolved for a toggle.
type ToggleVariant struct {
	Name    string          `json:"name"`
	Enabled bool            `json:"enabled"`
	Payload *VariantPayload `json:"payload,omitempty"`
}

// DisabledVariant is returned whenever no variant applies: the flag is
// disabled, has no variants, or the lookup failed.
var DisabledVariant = ToggleVariant{Name: "disabled", Enabled: false}

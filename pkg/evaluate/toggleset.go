package evaluate

import (
	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

// ToggleSet answers flag lookups from one evaluated toggle list.
type ToggleSet struct {
	toggles map[string]defs.Toggle
}

// NewToggleSet builds the lookup facade over an evaluated toggle list.
func NewToggleSet(toggles []defs.Toggle) *ToggleSet {
	m := make(map[string]defs.Toggle, len(toggles))
	for _, t := range toggles {
		m[t.Name] = t
	}
	return &ToggleSet{toggles: m}
}

// IsEnabled reports whether the named flag is enabled. Unknown flags
// are disabled.
func (s *ToggleSet) IsEnabled(name string) bool {
	return s.toggles[name].Enabled
}

// GetVariant returns the variant resolved for the named flag. Unknown
// flags get the disabled variant.
func (s *ToggleSet) GetVariant(name string) defs.ToggleVariant {
	t, ok := s.toggles[name]
	if !ok {
		return defs.DisabledVariant
	}
	return t.Variant
}

// Toggle returns the full evaluated state for name. The second return
// reports whether the flag exists in the definitions at all.
func (s *ToggleSet) Toggle(name string) (defs.Toggle, bool) {
	t, ok := s.toggles[name]
	return t, ok
}

// Len reports the number of evaluated flags.
func (s *ToggleSet) Len() int {
	return len(s.toggles)
}

package evaluator

import (
	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

// selectVariant picks a variant for the context: overrides first, then
// weighted selection sticky on the configured identity. The groupID
// keeps the bucketing independent between features sharing variant
// names.
func selectVariant(variants []defs.Variant, groupID string, c defs.Context) defs.ToggleVariant {
	if len(variants) == 0 {
		return defs.DisabledVariant
	}

	if v := overriddenVariant(variants, c); v != nil {
		return toggleVariant(*v)
	}

	total := 0
	for i := range variants {
		total += variants[i].Weight
	}
	if total <= 0 {
		return defs.DisabledVariant
	}

	identifier := stickinessIdentifier(variantStickiness(variants), c)
	if identifier == "" {
		identifier = randomIdentifier()
	}

	target := normalizedValue(identifier, groupID, total)

	cumulative := 0
	for i := range variants {
		cumulative += variants[i].Weight
		if target <= cumulative {
			return toggleVariant(variants[i])
		}
	}

	return defs.DisabledVariant
}

// overriddenVariant returns the first variant whose override matches
// the context, or nil.
func overriddenVariant(variants []defs.Variant, c defs.Context) *defs.Variant {
	for i := range variants {
		for _, o := range variants[i].Overrides {
			value, ok := c.Field(o.ContextName)
			if !ok {
				continue
			}
			for _, candidate := range o.Values {
				if candidate == value {
					return &variants[i]
				}
			}
		}
	}
	return nil
}

// variantStickiness returns the first explicit stickiness in the
// variant list, or default stickiness.
func variantStickiness(variants []defs.Variant) string {
	for i := range variants {
		if variants[i].Stickiness != "" {
			return variants[i].Stickiness
		}
	}
	return StickinessDefault
}

func toggleVariant(v defs.Variant) defs.ToggleVariant {
	return defs.ToggleVariant{
		Name:    v.Name,
		Enabled: true,
		Payload: v.Payload,
	}
}

package evaluate

import (
	"encoding/json"
	"fmt"

	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

// ContextKey serializes a context into its canonical comparison form.
// encoding/json fixes the struct field order and sorts map keys, so
// two contexts carrying the same values always produce the same key
// regardless of how their property maps were built.
func ContextKey(c defs.Context) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("serialize context: %w", err)
	}
	return string(data), nil
}

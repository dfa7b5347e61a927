// Package cache provides definitions caching with ETag bookkeeping
// for conditional requests.
package cache

import (
	"time"

	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

// Entry is the last known state of one definitions source.
type Entry struct {
	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag,omitempty"`

	// Definitions is the payload of the last successful fetch
	Definitions *defs.Definitions `json:"definitions,omitempty"`

	// FetchedAt is when this entry was stored
	FetchedAt time.Time `json:"fetched_at"`
}

// NewEntry builds an entry for a freshly fetched payload.
func NewEntry(etag string, d *defs.Definitions) *Entry {
	return &Entry{
		ETag:        etag,
		Definitions: d,
		FetchedAt:   time.Now(),
	}
}

// HasETag reports whether the entry can drive a conditional request.
func (e *Entry) HasETag() bool {
	return e != nil && e.ETag != ""
}

// HasDefinitions reports whether a payload is available to serve a 304.
func (e *Entry) HasDefinitions() bool {
	return e != nil && e.Definitions != nil
}

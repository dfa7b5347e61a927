package evaluate

import (
	"sync"

	"github.com/nlohse/feature-toggle-client/pkg/defs"
)

// Cache is the single-slot evaluation cache: the last computed toggle
// list together with the identity it was computed under. A lookup only
// ever compares against that one slot; any write overwrites it in
// full. Safe for concurrent use, with last-writer-wins semantics.
type Cache struct {
	mu          sync.Mutex
	etag        string
	definitions *defs.Definitions
	contextKey  string
	toggles     []defs.Toggle
}

// NewCache creates an empty evaluation cache.
func NewCache() *Cache {
	return &Cache{}
}

// defaultCache is the process-wide slot used when a caller supplies none.
var defaultCache = NewCache()

// DefaultCache returns the process-wide shared evaluation cache.
// Callers needing isolation create their own with NewCache and pass it
// via WithCache.
func DefaultCache() *Cache {
	return defaultCache
}

// Lookup returns the stored toggle list when it still answers for the
// given context key against the current definitions state. Reuse
// requires a computed list, an identical context key, and a positive
// freshness signal.
func (c *Cache) Lookup(contextKey, etag string, current *defs.Definitions) ([]defs.Toggle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.toggles == nil {
		return nil, false
	}
	if c.contextKey != contextKey {
		return nil, false
	}
	if !c.fresh(etag, current) {
		return nil, false
	}
	return c.toggles, true
}

// fresh computes the freshness signal: etag equality when both sides
// carry one, payload reference identity otherwise. Equal-content
// payloads under different references are deliberately treated as
// changed; the comparison must never deep-compare documents.
func (c *Cache) fresh(etag string, current *defs.Definitions) bool {
	if c.etag != "" && etag != "" {
		return c.etag == etag
	}
	return c.definitions == current
}

// Store overwrites the slot in full with a freshly computed result.
// A nil toggle list leaves the slot unanswerable; evaluators report
// no flags as an empty, non-nil list.
func (c *Cache) Store(toggles []defs.Toggle, contextKey, etag string, d *defs.Definitions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toggles = toggles
	c.contextKey = contextKey
	c.etag = etag
	c.definitions = d
}

// Reset clears the slot. This is the caller-initiated reset; nothing
// else ever clears the cache outside Store overwrites.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.toggles = nil
	c.contextKey = ""
	c.etag = ""
	c.definitions = nil
}

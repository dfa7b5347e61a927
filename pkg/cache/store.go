package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the store
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the stored entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is the definitions cache: the last known {etag, payload} per
// source key. Implementations report missing keys with ErrCacheMiss.
// The fetch protocol is the only writer: a 200 with an ETag overwrites
// the entry, a 200 without one deletes it, a 304 leaves it untouched.
type Store interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	Set(ctx context.Context, key Key, entry *Entry) error
	Delete(ctx context.Context, key Key) error
}

// MemoryStore is the in-process Store. Entries are held by reference,
// so the payload served for a 304 is pointer-identical to the one
// stored. Safe for concurrent use; nothing is evicted by size or time.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Get retrieves the entry for key.
// Returns ErrCacheMiss if no entry exists.
func (s *MemoryStore) Get(ctx context.Context, key Key) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key.String()]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry, nil
}

// Set stores entry at key, replacing any prior entry.
func (s *MemoryStore) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	s.mu.Lock()
	s.entries[key.String()] = entry
	s.mu.Unlock()

	return nil
}

// Delete removes the entry for key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	delete(s.entries, key.String())
	s.mu.Unlock()

	return nil
}

// Len reports the number of cached sources.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reset drops every entry. This is the caller-initiated reset; nothing
// else ever clears the store wholesale.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()
}

// defaultStore is the process-wide store used when a caller supplies none.
var defaultStore = NewMemoryStore()

// DefaultStore returns the process-wide shared store. Callers needing
// isolation (tests, one handle per tenant) create their own with
// NewMemoryStore and pass it explicitly.
func DefaultStore() *MemoryStore {
	return defaultStore
}

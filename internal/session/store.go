// Package session tracks which sender already has a live bot
// conversation. One entry per sender key, overwritten whole on renewal,
// kept for the lifetime of the process.
package session

import (
	"sync"
	"time"
)

// Entry binds a sender to their conversation and its scoped token.
// The pair is always written atomically: a renewed conversation
// replaces the entry, never merges into it.
type Entry struct {
	ConversationID string
	Token          string
	CreatedAt      time.Time
}

// Store is the session lookup interface. Implementations must be safe
// for concurrent use; the webhook handler runs one goroutine per call.
type Store interface {
	// Lookup returns the entry for a sender key, if one exists.
	Lookup(senderKey string) (Entry, bool)

	// Put stores or replaces the entry for a sender key.
	Put(senderKey string, entry Entry)

	// Delete removes the entry for a sender key, ending the session.
	Delete(senderKey string)
}

// MemoryStore is the in-memory Store implementation. Entries live
// until deleted or the process exits; there is no eviction.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Lookup(senderKey string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[senderKey]
	return entry, ok
}

func (s *MemoryStore) Put(senderKey string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[senderKey] = entry
}

func (s *MemoryStore) Delete(senderKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, senderKey)
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

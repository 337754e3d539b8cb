package trust

import (
	"sync"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It backs the session tier: entries live for the process lifetime only.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory trust store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Lookup returns the entry for an endpoint.
func (s *MemoryStore) Lookup(hostname string, port uint16) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[EndpointKey(hostname, port)]
	if !exists {
		return nil, ErrEntryNotFound
	}
	return &entry, nil
}

// Put stores an entry, replacing any existing entry for the endpoint.
func (s *MemoryStore) Put(entry Entry) error {
	if entry.Hostname == "" || entry.Fingerprint == "" {
		return ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key()] = entry
	return nil
}

// Remove deletes the entry for an endpoint.
func (s *MemoryStore) Remove(hostname string, port uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := EndpointKey(hostname, port)
	if _, exists := s.entries[key]; !exists {
		return ErrEntryNotFound
	}
	delete(s.entries, key)
	return nil
}

// List returns all entries.
func (s *MemoryStore) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	return entries
}

// Save is a no-op for the in-memory store.
func (s *MemoryStore) Save() error { return nil }

// Load is a no-op for the in-memory store.
func (s *MemoryStore) Load() error { return nil }

// Verify MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

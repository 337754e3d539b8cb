package secrets

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory credential store.
// Secrets are copied on the way in and out. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string][]byte
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		secrets: make(map[string][]byte),
	}
}

// Retrieve returns the secret for ref, or ErrNotFound.
func (s *MemoryStore) Retrieve(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, ok := s.secrets[ref]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(secret))
	copy(out, secret)
	return out, nil
}

// Store saves secret under ref, replacing any existing value.
func (s *MemoryStore) Store(ref string, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(secret))
	copy(cp, secret)
	s.secrets[ref] = cp
	return nil
}

// Delete removes the secret for ref.
func (s *MemoryStore) Delete(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.secrets, ref)
	return nil
}

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)

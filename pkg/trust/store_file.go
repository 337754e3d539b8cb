package trust

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// fileFormatVersion is bumped when the on-disk layout changes.
const fileFormatVersion = 1

// trustFile is the on-disk JSON layout.
type trustFile struct {
	Version int              `json:"version"`
	SavedAt time.Time        `json:"saved_at"`
	Hosts   map[string]Entry `json:"hosts"`
}

// FileStore is a file-based implementation of the Store interface.
// It backs the persistent tier: entries survive process restarts.
// The backing file is JSON keyed by "host:port".
type FileStore struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
}

// NewFileStore creates a trust store backed by the given file path.
// Call Load before first use to read existing entries.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:    path,
		entries: make(map[string]Entry),
	}
}

// Lookup returns the entry for an endpoint.
func (s *FileStore) Lookup(hostname string, port uint16) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[EndpointKey(hostname, port)]
	if !exists {
		return nil, ErrEntryNotFound
	}
	return &entry, nil
}

// Put stores an entry, replacing any existing entry for the endpoint.
// The change is in-memory until Save is called.
func (s *FileStore) Put(entry Entry) error {
	if entry.Hostname == "" || entry.Fingerprint == "" {
		return ErrInvalidEntry
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Key()] = entry
	return nil
}

// Remove deletes the entry for an endpoint.
func (s *FileStore) Remove(hostname string, port uint16) error {
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
func (s *FileStore) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	return entries
}

// Save writes all entries to the backing file.
func (s *FileStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	file := trustFile{
		Version: fileFormatVersion,
		SavedAt: time.Now().UTC(),
		Hosts:   s.entries,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Load reads entries from the backing file.
// A missing file leaves the store empty and is not an error.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file trustFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Hosts == nil {
		file.Hosts = make(map[string]Entry)
	}
	s.entries = file.Hosts
	return nil
}

// Verify FileStore implements Store.
var _ Store = (*FileStore)(nil)

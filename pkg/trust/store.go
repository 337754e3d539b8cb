package trust

import "errors"

// Store errors.
var (
	ErrEntryNotFound = errors.New("trust entry not found")
	ErrInvalidEntry  = errors.New("invalid trust entry")
)

// Lookup is the read side of trusted-host storage. Every Store
// satisfies it, and so does TieredStore, which is not itself a Store.
type Lookup interface {
	// Lookup returns the entry for an endpoint.
	// Returns ErrEntryNotFound if no entry exists.
	Lookup(hostname string, port uint16) (*Entry, error)
}

// Store defines the interface for trusted-host storage.
// Implementations must be safe for concurrent access.
type Store interface {
	// Lookup returns the entry for an endpoint.
	// Returns ErrEntryNotFound if no entry exists.
	Lookup(hostname string, port uint16) (*Entry, error)

	// Put stores an entry, replacing any existing entry for the same
	// endpoint.
	Put(entry Entry) error

	// Remove deletes the entry for an endpoint.
	// Returns ErrEntryNotFound if no entry exists.
	Remove(hostname string, port uint16) error

	// List returns all entries.
	List() []Entry

	// Save persists the store to its backing storage.
	// For in-memory stores, this is a no-op.
	Save() error

	// Load reads the store from its backing storage.
	// For in-memory stores, this is a no-op.
	Load() error
}

// Package secrets defines the external credential store boundary.
//
// Passwords and private key material never live on connection identities
// or in configuration files; identities carry an opaque reference that is
// resolved through a Store at connect time. The real store is provided by
// the embedding application (for example an OS keychain); this package
// ships an in-memory implementation for tests and ephemeral use.
package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no secret exists for a reference.
var ErrNotFound = errors.New("secrets: not found")

// ErrClosed is returned when the store has been closed.
var ErrClosed = errors.New("secrets: store closed")

// Store resolves credential references to secret material.
//
// Retrieve may block, for example while the backing store waits for a
// human verification step, so it takes a context. Store and Delete are
// serialized writes.
type Store interface {
	// Retrieve returns the secret for ref. Returns ErrNotFound when no
	// secret exists for the reference.
	Retrieve(ctx context.Context, ref string) ([]byte, error)

	// Store saves secret under ref, replacing any existing value.
	Store(ref string, secret []byte) error

	// Delete removes the secret for ref. Deleting a missing reference
	// is not an error.
	Delete(ref string) error
}

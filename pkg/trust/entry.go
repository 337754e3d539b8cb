package trust

import (
	"fmt"
	"time"
)

// Entry is one trusted host record.
type Entry struct {
	// Hostname is the remote hostname or IP address as dialed.
	Hostname string `json:"hostname"`

	// Port is the remote port.
	Port uint16 `json:"port"`

	// Algorithm is the host key algorithm (e.g. "ssh-ed25519").
	Algorithm string `json:"algorithm"`

	// Fingerprint is the SHA-256 fingerprint, "SHA256:..." form.
	Fingerprint string `json:"fingerprint"`

	// TrustedAt records when the user trusted this key.
	TrustedAt time.Time `json:"trusted_at"`
}

// Key returns the store key for this entry. Entries are keyed by
// endpoint, not by hostname alone, so the same host on two ports is two
// independent trust decisions.
func (e Entry) Key() string {
	return EndpointKey(e.Hostname, e.Port)
}

// EndpointKey builds the "host:port" store key.
func EndpointKey(hostname string, port uint16) string {
	return fmt.Sprintf("%s:%d", hostname, port)
}

// Comparison is the outcome of comparing a presented host key against
// the store.
type Comparison uint8

const (
	// ComparisonUnknown means no entry exists for the endpoint.
	ComparisonUnknown Comparison = iota

	// ComparisonMatch means the stored fingerprint equals the presented one.
	ComparisonMatch

	// ComparisonMismatch means an entry exists with a different fingerprint.
	ComparisonMismatch
)

// String returns the comparison name.
func (c Comparison) String() string {
	switch c {
	case ComparisonUnknown:
		return "UNKNOWN"
	case ComparisonMatch:
		return "MATCH"
	case ComparisonMismatch:
		return "MISMATCH"
	default:
		return "INVALID"
	}
}

// Compare checks the presented fingerprint against a store. It only
// reads, so any Lookup (a single tier or the tiered view) serves.
func Compare(store Lookup, hostname string, port uint16, fingerprint string) (Comparison, error) {
	entry, err := store.Lookup(hostname, port)
	if err == ErrEntryNotFound {
		return ComparisonUnknown, nil
	}
	if err != nil {
		return ComparisonUnknown, err
	}
	if entry.Fingerprint == fingerprint {
		return ComparisonMatch, nil
	}
	return ComparisonMismatch, nil
}

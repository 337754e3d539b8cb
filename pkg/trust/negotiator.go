package trust

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Negotiator errors.
var (
	// ErrHostKeyRejected is returned from verification when the user
	// rejects the presented host key. The handshake fails with it.
	ErrHostKeyRejected = errors.New("host key rejected")

	// ErrChallengePending is returned when a second challenge would be
	// raised while one is already pending. One negotiator serves one
	// connection attempt at a time; hitting this is a programming error.
	ErrChallengePending = errors.New("trust: challenge already pending")

	// ErrNoChallengePending is returned by Resolve when there is nothing
	// to resolve.
	ErrNoChallengePending = errors.New("trust: no challenge pending")
)

// Decision is the user's answer to a host key challenge.
type Decision uint8

const (
	// DecisionReject refuses the key; the connection attempt fails.
	DecisionReject Decision = iota

	// DecisionTrustOnce accepts the key for the process lifetime only.
	DecisionTrustOnce

	// DecisionTrustAndSave accepts the key and persists it.
	DecisionTrustAndSave
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case DecisionReject:
		return "REJECT"
	case DecisionTrustOnce:
		return "TRUST_ONCE"
	case DecisionTrustAndSave:
		return "TRUST_AND_SAVE"
	default:
		return "UNKNOWN"
	}
}

// Challenge describes a host key awaiting a user decision.
type Challenge struct {
	// Hostname and Port identify the endpoint being verified.
	Hostname string
	Port     uint16

	// Algorithm is the presented key's algorithm name.
	Algorithm string

	// Fingerprint is the presented key's SHA-256 fingerprint.
	Fingerprint string

	// Comparison is why the challenge was raised: ComparisonUnknown for
	// a first contact, ComparisonMismatch for a changed key.
	Comparison Comparison

	// StoredFingerprint is the previously trusted fingerprint.
	// Set only when Comparison is ComparisonMismatch.
	StoredFingerprint string
}

type pendingChallenge struct {
	challenge  Challenge
	decisionCh chan Decision
}

// Negotiator verifies host keys against a tiered trust store and runs
// the suspend-for-decision protocol for unknown or changed keys.
//
// Verify executes on the transport's handshake goroutine. The challenge
// is handed to the owning application by message passing: the handler
// receives a Challenge value, the handshake goroutine parks on a
// one-shot decision channel, and Resolve (called from any goroutine)
// delivers the answer.
type Negotiator struct {
	store *TieredStore

	mu          sync.Mutex
	pending     *pendingChallenge
	onChallenge func(Challenge)
}

// NewNegotiator creates a negotiator over the given tiered store.
func NewNegotiator(store *TieredStore) *Negotiator {
	if store == nil {
		store = NewTieredStore(nil, nil)
	}
	return &Negotiator{store: store}
}

// SetChallengeHandler registers the callback invoked when a challenge is
// raised. The handler runs on the handshake goroutine and must not
// block; it should record the challenge and return, leaving the decision
// to a later Resolve call.
func (n *Negotiator) SetChallengeHandler(handler func(Challenge)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChallenge = handler
}

// Pending returns a copy of the pending challenge, or nil.
func (n *Negotiator) Pending() *Challenge {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == nil {
		return nil
	}
	ch := n.pending.challenge
	return &ch
}

// Verify checks the presented host key for an endpoint.
//
// A fingerprint match against either store tier approves silently. An
// unknown or mismatched key raises a challenge and blocks until Resolve
// delivers a decision or ctx ends. Rejection, and any context error, fail
// the verification; the caller's handshake tears down the attempt.
func (n *Negotiator) Verify(ctx context.Context, hostname string, port uint16, key ssh.PublicKey) error {
	fp := Fingerprint(key)

	cmp, err := Compare(n.store, hostname, port, fp)
	if err != nil {
		return err
	}
	if cmp == ComparisonMatch {
		return nil
	}

	challenge := Challenge{
		Hostname:    hostname,
		Port:        port,
		Algorithm:   key.Type(),
		Fingerprint: fp,
		Comparison:  cmp,
	}
	if cmp == ComparisonMismatch {
		if stored, err := n.store.Lookup(hostname, port); err == nil {
			challenge.StoredFingerprint = stored.Fingerprint
		}
	}

	pc := &pendingChallenge{
		challenge:  challenge,
		decisionCh: make(chan Decision, 1),
	}

	n.mu.Lock()
	if n.pending != nil {
		n.mu.Unlock()
		return ErrChallengePending
	}
	n.pending = pc
	handler := n.onChallenge
	n.mu.Unlock()

	if handler != nil {
		handler(challenge)
	}

	select {
	case decision := <-pc.decisionCh:
		return n.apply(challenge, decision)
	case <-ctx.Done():
		n.mu.Lock()
		if n.pending == pc {
			n.pending = nil
		}
		n.mu.Unlock()
		return ctx.Err()
	}
}

// Resolve delivers the user's decision for the pending challenge.
// The challenge slot is consumed; a second Resolve returns
// ErrNoChallengePending.
func (n *Negotiator) Resolve(decision Decision) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pending == nil {
		return ErrNoChallengePending
	}
	n.pending.decisionCh <- decision
	n.pending = nil
	return nil
}

// Cancel force-resolves any pending challenge as a rejection.
// Used on connection teardown and timeout so the parked handshake
// goroutine is released. Cancelling with no pending challenge is a no-op.
func (n *Negotiator) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pending == nil {
		return
	}
	n.pending.decisionCh <- DecisionReject
	n.pending = nil
}

func (n *Negotiator) apply(challenge Challenge, decision Decision) error {
	switch decision {
	case DecisionTrustOnce, DecisionTrustAndSave:
		entry := Entry{
			Hostname:    challenge.Hostname,
			Port:        challenge.Port,
			Algorithm:   challenge.Algorithm,
			Fingerprint: challenge.Fingerprint,
			TrustedAt:   time.Now().UTC(),
		}
		if decision == DecisionTrustAndSave {
			return n.store.PutPersistent(entry)
		}
		return n.store.PutSession(entry)
	default:
		// Rejection writes nothing to either tier.
		return ErrHostKeyRejected
	}
}

// HostKeyCallback adapts the negotiator to the transport's host key
// verification hook. The dialed address carries the endpoint; ctx bounds
// how long an unresolved challenge may park the handshake.
func (n *Negotiator) HostKeyCallback(ctx context.Context) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		host, port := splitEndpoint(hostname)
		return n.Verify(ctx, host, port, key)
	}
}

// splitEndpoint splits a dialed "host:port" address. A bare host maps to
// port 22.
func splitEndpoint(addr string) (string, uint16) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 22
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return host, 22
	}
	return host, uint16(port)
}

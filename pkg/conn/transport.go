package conn

import (
	"context"
	"io"
	"time"

	"github.com/hawser-project/hawser-go/pkg/identity"
)

// Default timing constants.
const (
	// DefaultConnectTimeout is the application-level bound on one
	// connection attempt, covering dial, handshake and authentication.
	DefaultConnectTimeout = 15 * time.Second

	// TransportTimeoutMargin is added to the application timeout to form
	// the transport-level timeout, keeping the application timer the one
	// that fires first.
	TransportTimeoutMargin = 10 * time.Second
)

// DialConfig configures a dialer.
type DialConfig struct {
	// Timeout bounds the TCP dial and SSH handshake at the transport
	// level. Callers set this strictly longer than their own attempt
	// timer. Zero means DefaultConnectTimeout + TransportTimeoutMargin.
	Timeout time.Duration
}

func (c *DialConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultConnectTimeout + TransportTimeoutMargin
	}
}

// Dialer establishes authenticated transports.
type Dialer interface {
	// Dial connects and authenticates to the identity's endpoint.
	// The secret is the resolved credential material: a password or a
	// PEM-encoded private key, per the identity's auth method.
	Dial(ctx context.Context, id identity.Identity, secret []byte) (Transport, error)
}

// Transport is an established, authenticated connection to a remote
// host. Implementations must be safe for concurrent use and must make
// Close idempotent.
type Transport interface {
	// NewShell opens an interactive shell channel with a remote PTY of
	// the given size.
	NewShell(term string, cols, rows int) (Shell, error)

	// Run executes a command on a fresh channel and returns its combined
	// output. The command is torn down when ctx ends.
	Run(ctx context.Context, command string) ([]byte, error)

	// Ping sends a transport-level liveness probe and waits for the
	// reply.
	Ping() error

	// RemoteAddr returns the peer address as dialed.
	RemoteAddr() string

	// Close performs a protocol-level close and releases the transport.
	Close() error
}

// Shell is an interactive remote shell channel. Read returns remote
// output; Write sends input to the remote side. Close tears the channel
// down and is idempotent.
type Shell interface {
	io.Reader
	io.Writer

	// Resize propagates a terminal size change, in character cells.
	Resize(cols, rows int) error

	// Wait blocks until the remote shell exits.
	Wait() error

	// Close closes the channel.
	Close() error
}

package bridge

import (
	"io"
	"sync/atomic"
)

// Endpoint is the local side of the relay: a duplex byte stream backed
// by a file descriptor or an in-memory equivalent.
type Endpoint interface {
	io.Reader
	io.Writer
	io.Closer
}

// closeOnceEndpoint guards an Endpoint so its descriptor is closed
// exactly once. The bridge owns the close; relay goroutines and
// external teardown paths all funnel through this guard, so racing
// closers cannot double-close (or close a reused descriptor).
type closeOnceEndpoint struct {
	ep       Endpoint
	closed   atomic.Bool
	closeErr error
}

func newCloseOnceEndpoint(ep Endpoint) *closeOnceEndpoint {
	return &closeOnceEndpoint{ep: ep}
}

func (c *closeOnceEndpoint) Read(p []byte) (int, error) {
	return c.ep.Read(p)
}

func (c *closeOnceEndpoint) Write(p []byte) (int, error) {
	return c.ep.Write(p)
}

// Close closes the underlying endpoint on the first call only.
// Subsequent calls return the first call's result.
func (c *closeOnceEndpoint) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.closeErr = c.ep.Close()
	}
	return c.closeErr
}

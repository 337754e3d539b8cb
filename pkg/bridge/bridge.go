package bridge

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"

	"github.com/hawser-project/hawser-go/pkg/conn"
	"github.com/hawser-project/hawser-go/pkg/log"
)

// DefaultReadBufferSize is the relay read buffer size per direction.
const DefaultReadBufferSize = 32 * 1024

// ErrAlreadyStarted is returned by Start on a bridge that has run.
// A bridge is single-use; build a new one per shell channel.
var ErrAlreadyStarted = errors.New("bridge: already started")

// Config configures a Bridge.
type Config struct {
	// ReadBufferSize is the per-direction read buffer size.
	// Default: DefaultReadBufferSize.
	ReadBufferSize int

	// ConnectionID tags log events. Optional.
	ConnectionID string

	// Logger receives lifecycle and traffic events. Default: NoopLogger.
	Logger log.Logger
}

func (c *Config) applyDefaults() {
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
}

// Bridge relays bytes between a remote shell channel and a local
// endpoint. See the package documentation for lifecycle rules.
type Bridge struct {
	config Config

	mu       sync.Mutex
	status   Status
	onStatus func(Status)

	remote conn.Shell
	local  *closeOnceEndpoint

	finishOnce sync.Once
	wg         sync.WaitGroup
}

// New creates an idle bridge.
func New(config Config) *Bridge {
	config.applyDefaults()
	return &Bridge{
		config: config,
		status: Status{Phase: PhaseIdle},
	}
}

// Status returns the current bridge status.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// OnStatusChange sets a callback invoked on every status transition.
// Set it before Start.
func (b *Bridge) OnStatusChange(fn func(Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStatus = fn
}

// Start launches both relay directions. The bridge takes ownership of
// closing both the shell and the endpoint.
func (b *Bridge) Start(remote conn.Shell, local Endpoint) error {
	b.mu.Lock()
	if b.status.Phase != PhaseIdle {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.remote = remote
	b.local = newCloseOnceEndpoint(local)
	b.mu.Unlock()

	b.setStatus(Status{Phase: PhaseRunning})

	b.wg.Add(2)
	go b.relayRemoteToLocal()
	go b.relayLocalToRemote()
	return nil
}

// Stop tears the bridge down and waits for both relays to exit.
// Stopping an already terminated bridge is a no-op.
func (b *Bridge) Stop() {
	b.mu.Lock()
	started := b.status.Phase != PhaseIdle
	b.mu.Unlock()
	if !started {
		return
	}

	b.finish(PhaseDisconnected, "bridge stopped")
	b.wg.Wait()
}

// Wait blocks until both relay directions have exited.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// finish records the terminal status and cancels both directions by
// closing both ends. Only the first caller decides phase and reason;
// the losing relay's subsequent error is absorbed here.
func (b *Bridge) finish(phase Phase, reason string) {
	b.finishOnce.Do(func() {
		b.setStatus(Status{Phase: phase, Reason: reason})
		b.remote.Close()
		b.local.Close()
	})
}

// relayRemoteToLocal moves remote shell output to the local endpoint.
// Short local writes are completed; EINTR and EAGAIN are retried, any
// other write error terminates the bridge.
func (b *Bridge) relayRemoteToLocal() {
	defer b.wg.Done()

	buf := make([]byte, b.config.ReadBufferSize)
	for {
		n, err := b.remote.Read(buf)
		if n > 0 {
			if werr := writeFull(b.local, buf[:n]); werr != nil {
				b.finish(PhaseError, fmt.Sprintf("local write: %v", werr))
				return
			}
			b.config.Logger.Log(log.NewTrafficEvent(b.config.ConnectionID, log.DirectionRemoteToLocal, n))
		}
		if err != nil {
			if err == io.EOF {
				b.finish(PhaseDisconnected, "remote channel closed")
			} else {
				b.finish(PhaseError, fmt.Sprintf("remote read: %v", err))
			}
			return
		}
	}
}

// relayLocalToRemote moves local input to the remote shell. A zero-byte
// read and io.EOF both mean the endpoint is done.
func (b *Bridge) relayLocalToRemote() {
	defer b.wg.Done()

	buf := make([]byte, b.config.ReadBufferSize)
	for {
		n, err := b.local.Read(buf)
		if n > 0 {
			if werr := writeFull(b.remote, buf[:n]); werr != nil {
				b.finish(PhaseError, fmt.Sprintf("remote write: %v", werr))
				return
			}
			b.config.Logger.Log(log.NewTrafficEvent(b.config.ConnectionID, log.DirectionLocalToRemote, n))
		}
		if err != nil {
			if err == io.EOF {
				b.finish(PhaseDisconnected, "local endpoint closed")
			} else {
				b.finish(PhaseError, fmt.Sprintf("local read: %v", err))
			}
			return
		}
		if n == 0 {
			// A descriptor signalling readiness with no data is end of
			// stream.
			b.finish(PhaseDisconnected, "local endpoint closed")
			return
		}
	}
}

// setStatus applies a transition, enforcing one-way movement.
func (b *Bridge) setStatus(next Status) {
	b.mu.Lock()
	if b.status.Phase.terminal() {
		b.mu.Unlock()
		return
	}
	b.status = next
	fn := b.onStatus
	b.mu.Unlock()

	b.config.Logger.Log(log.NewStateChangeEvent(
		b.config.ConnectionID, log.StateEntityBridge,
		"", next.Phase.String(), next.Reason,
	))
	if fn != nil {
		fn(next)
	}
}

// writeFull writes all of p, retrying interrupted and would-block
// writes.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		p = p[n:]
		if err != nil {
			if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) {
				continue
			}
			return err
		}
	}
	return nil
}

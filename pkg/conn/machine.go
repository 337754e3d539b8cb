package conn

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/log"
	"github.com/hawser-project/hawser-go/pkg/trust"
)

// MachineConfig configures the connection state machine.
type MachineConfig struct {
	// ConnectTimeout is the application-level bound on one attempt.
	// Default: DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// Logger receives lifecycle events. Default: NoopLogger.
	Logger log.Logger
}

func (c *MachineConfig) applyDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
}

// FailureError carries a classified failure as an error.
type FailureError struct {
	Failure Failure
}

// Error returns the user-facing failure message.
func (e *FailureError) Error() string {
	return e.Failure.Message
}

// Machine drives one logical connection through
// Idle -> Connecting -> Connected / Failed.
//
// An attempt races the dialer against an application timer. The timer
// firing is a losing racer for the dial: the attempt context is
// cancelled, any parked trust challenge is force-rejected, and the
// state lands on Failed with the timeout message. Disconnect and Cancel
// always land the machine on Idle.
type Machine struct {
	dialer     Dialer
	negotiator *trust.Negotiator
	config     MachineConfig

	mu            sync.RWMutex
	state         State
	transport     Transport
	attemptID     string
	cancelAttempt context.CancelFunc

	onStateChange func(oldState, newState State)
}

// NewMachine creates a connection state machine.
func NewMachine(dialer Dialer, negotiator *trust.Negotiator, config MachineConfig) *Machine {
	config.applyDefaults()
	return &Machine{
		dialer:     dialer,
		negotiator: negotiator,
		config:     config,
		state:      State{Phase: PhaseIdle},
	}
}

// State returns the current connection state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Transport returns the established transport, or nil.
func (m *Machine) Transport() Transport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transport
}

// ConnectionID returns the UUID of the current or last attempt.
func (m *Machine) ConnectionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attemptID
}

// OnStateChange sets a callback for state changes. The callback runs on
// the goroutine performing the transition.
func (m *Machine) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// Connect runs one connection attempt and blocks until it resolves.
//
// A second Connect while an attempt is in progress is rejected with
// ErrAlreadyConnecting; while connected, with ErrAlreadyConnected. On
// failure the machine lands on Failed and the returned error is a
// *FailureError carrying the classified message.
func (m *Machine) Connect(ctx context.Context, id identity.Identity, secret []byte) error {
	m.mu.Lock()
	switch m.state.Phase {
	case PhaseConnecting:
		m.mu.Unlock()
		return ErrAlreadyConnecting
	case PhaseConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	attemptID := uuid.NewString()
	m.attemptID = attemptID
	m.cancelAttempt = cancel
	oldState := m.state
	m.state = State{Phase: PhaseConnecting}
	m.mu.Unlock()

	m.notify(attemptID, oldState, State{Phase: PhaseConnecting}, "")

	type dialResult struct {
		transport Transport
		err       error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		tr, err := m.dialer.Dial(attemptCtx, id, secret)
		resultCh <- dialResult{transport: tr, err: err}
	}()

	timer := time.NewTimer(m.config.ConnectTimeout)
	defer timer.Stop()

	select {
	case r := <-resultCh:
		if r.err != nil {
			cancel()
			return m.fail(attemptID, Classify(r.err, id.Auth))
		}
		return m.established(attemptID, r.transport)

	case <-timer.C:
		// The application timer wins the race. Abort the dial, release
		// any parked trust challenge, and reap the loser.
		cancel()
		m.negotiator.Cancel()
		go func() {
			if r := <-resultCh; r.transport != nil {
				r.transport.Close()
			}
		}()
		return m.fail(attemptID, Failure{Message: MsgTimedOut, Advice: AdviceRetry})

	case <-ctx.Done():
		cancel()
		m.negotiator.Cancel()
		go func() {
			if r := <-resultCh; r.transport != nil {
				r.transport.Close()
			}
		}()
		m.toIdle(attemptID, "attempt cancelled")
		return ctx.Err()
	}
}

// Disconnect closes any established transport and lands on Idle.
// Calling it in any state, any number of times, is safe.
func (m *Machine) Disconnect() {
	m.mu.Lock()
	switch m.state.Phase {
	case PhaseConnecting:
		m.mu.Unlock()
		m.Cancel()
		return
	case PhaseIdle:
		m.mu.Unlock()
		return
	}

	attemptID := m.attemptID
	tr := m.transport
	m.transport = nil
	oldState := m.state
	m.state = State{Phase: PhaseIdle}
	m.mu.Unlock()

	if tr != nil {
		tr.Close()
	}
	m.notify(attemptID, oldState, State{Phase: PhaseIdle}, "disconnect")
}

// Cancel aborts an in-flight attempt without a protocol-level close and
// lands on Idle. A no-op outside Connecting.
func (m *Machine) Cancel() {
	m.mu.Lock()
	if m.state.Phase != PhaseConnecting {
		m.mu.Unlock()
		return
	}
	attemptID := m.attemptID
	cancel := m.cancelAttempt
	m.cancelAttempt = nil
	oldState := m.state
	m.state = State{Phase: PhaseIdle}
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.negotiator.Cancel()
	m.notify(attemptID, oldState, State{Phase: PhaseIdle}, "attempt cancelled")
}

// established records a successful attempt. If the attempt was cancelled
// while the dial was completing, the transport is discarded.
func (m *Machine) established(attemptID string, tr Transport) error {
	m.mu.Lock()
	if m.state.Phase != PhaseConnecting || m.attemptID != attemptID {
		m.mu.Unlock()
		tr.Close()
		return context.Canceled
	}
	m.transport = tr
	m.cancelAttempt = nil
	oldState := m.state
	m.state = State{Phase: PhaseConnected}
	m.mu.Unlock()

	m.notify(attemptID, oldState, State{Phase: PhaseConnected}, "")
	return nil
}

// fail records a failed attempt, unless the attempt was already
// cancelled underfoot.
func (m *Machine) fail(attemptID string, f Failure) error {
	m.mu.Lock()
	if m.state.Phase != PhaseConnecting || m.attemptID != attemptID {
		m.mu.Unlock()
		return context.Canceled
	}
	m.cancelAttempt = nil
	oldState := m.state
	newState := failed(f)
	m.state = newState
	m.mu.Unlock()

	m.notify(attemptID, oldState, newState, f.Message)
	return &FailureError{Failure: f}
}

func (m *Machine) toIdle(attemptID, reason string) {
	m.mu.Lock()
	if m.state.Phase != PhaseConnecting || m.attemptID != attemptID {
		m.mu.Unlock()
		return
	}
	m.cancelAttempt = nil
	oldState := m.state
	m.state = State{Phase: PhaseIdle}
	m.mu.Unlock()

	m.notify(attemptID, oldState, State{Phase: PhaseIdle}, reason)
}

func (m *Machine) notify(attemptID string, oldState, newState State, reason string) {
	m.config.Logger.Log(log.NewStateChangeEvent(
		attemptID, log.StateEntityConnection,
		oldState.Phase.String(), newState.Phase.String(), reason,
	))

	m.mu.RLock()
	fn := m.onStateChange
	m.mu.RUnlock()
	if fn != nil {
		fn(oldState, newState)
	}
}

package session

import (
	"context"
	"errors"
	"sync"

	"github.com/hawser-project/hawser-go/pkg/conn"
	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/log"
	"github.com/hawser-project/hawser-go/pkg/mux"
	"github.com/hawser-project/hawser-go/pkg/netwatch"
	"github.com/hawser-project/hawser-go/pkg/secrets"
)

// Sentinel errors for manager misuse.
var (
	// ErrNoIdentity is returned when a reconnect is requested with no
	// preserved identity.
	ErrNoIdentity = errors.New("session: no preserved identity")

	// ErrReconnectInProgress is returned when an attempt is already in
	// flight.
	ErrReconnectInProgress = errors.New("session: reconnect in progress")

	// ErrNetworkUnavailable is returned when a reconnect is wanted but
	// the network is unreachable.
	ErrNetworkUnavailable = errors.New("session: network unavailable")
)

// Connector drives the underlying connection lifecycle. A connection
// state machine satisfies this.
type Connector interface {
	Connect(ctx context.Context, id identity.Identity, secret []byte) error
	Disconnect()
	State() conn.State
	Transport() conn.Transport
}

var _ Connector = (*conn.Machine)(nil)

// Prober checks for a named remote multiplexer session.
type Prober interface {
	HasSession(ctx context.Context, name string) (bool, error)
}

// Terminal is the interactive surface the manager restarts after a
// reconnect. SendLine delivers one command line to the remote shell.
type Terminal interface {
	Restart(tr conn.Transport) error
	SendLine(line string) error
}

// Config configures a Manager.
type Config struct {
	// Connector is required.
	Connector Connector

	// Secrets resolves the identity's credential material. Required.
	Secrets secrets.Store

	// Terminal is restarted after every successful connect. Required.
	Terminal Terminal

	// NewProber builds a session prober over an established transport.
	// Default: the tmux prober.
	NewProber func(tr conn.Transport) Prober

	// Logger receives lifecycle events. Default: NoopLogger.
	Logger log.Logger
}

func (c *Config) applyDefaults() {
	if c.NewProber == nil {
		c.NewProber = func(tr conn.Transport) Prober { return mux.NewProber(tr) }
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
}

// Manager preserves connection identity and the tracked remote session
// name across involuntary disconnects, and drives reconnection.
type Manager struct {
	config Config

	mu        sync.Mutex
	state     State
	id        identity.Identity
	hasID     bool
	tracked   string
	reachable bool

	onStateChange func(State)
}

// NewManager creates a manager. The network starts assumed reachable
// until a transition says otherwise.
func NewManager(config Config) *Manager {
	config.applyDefaults()
	return &Manager{
		config:    config,
		state:     State{Phase: PhaseIdle},
		reachable: true,
	}
}

// State returns the current manager state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange sets a callback invoked on every transition, on the
// transitioning goroutine.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// TrackedSession returns the tracked remote session name, or "".
func (m *Manager) TrackedSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracked
}

// Track records the remote session the caller attached to. It survives
// involuntary disconnects.
func (m *Manager) Track(name string) {
	m.mu.Lock()
	m.tracked = name
	m.mu.Unlock()
}

// Detach is the voluntary detach path: it clears the tracked name.
func (m *Manager) Detach() {
	m.mu.Lock()
	m.tracked = ""
	m.mu.Unlock()
}

// Connect establishes the initial session and preserves the identity
// for later reconnects.
func (m *Manager) Connect(ctx context.Context, id identity.Identity) error {
	m.mu.Lock()
	if m.state.Phase == PhaseReconnecting {
		m.mu.Unlock()
		return ErrReconnectInProgress
	}
	m.id = id
	m.hasID = true
	m.mu.Unlock()

	return m.establish(ctx)
}

// OnBackground sends a graceful disconnect within the OS grace window.
// An attempt still in flight is cancelled; the connector handles both
// cases. Identity and tracked session name are preserved; only a
// voluntary Detach clears the name.
func (m *Manager) OnBackground() {
	m.config.Connector.Disconnect()
	m.setState(State{Phase: PhaseIdle})
}

// OnForeground reconnects with the preserved identity if the network
// is reachable. With no preserved identity it does nothing.
func (m *Manager) OnForeground(ctx context.Context) error {
	m.mu.Lock()
	if !m.hasID {
		m.mu.Unlock()
		return ErrNoIdentity
	}
	if m.state.Phase == PhaseReconnecting || m.state.Phase == PhaseConnected {
		m.mu.Unlock()
		return nil
	}
	reachable := m.reachable
	m.mu.Unlock()

	if !reachable {
		m.setState(State{Phase: PhaseWaitingForNetwork})
		return ErrNetworkUnavailable
	}
	return m.establish(ctx)
}

// OnConnectionLost records an involuntary transport loss, reported by
// the keep-alive prober or a bridge failure. The identity and tracked
// session stay preserved so the next foreground or network-return
// event can reconnect.
func (m *Manager) OnConnectionLost(message string) {
	if m.config.Connector.State().Phase == conn.PhaseConnected {
		m.config.Connector.Disconnect()
	}
	m.setState(State{Phase: PhaseFailed, Message: message})
}

// OnNetworkChange feeds one reachability transition. Losing the
// network while connected tears the session down to Failed; regaining
// it with a preserved identity triggers one reconnect attempt.
func (m *Manager) OnNetworkChange(ctx context.Context, tr netwatch.Transition) {
	m.mu.Lock()
	m.reachable = tr.Reachable
	phase := m.state.Phase
	hasID := m.hasID
	m.mu.Unlock()

	if !tr.Reachable {
		if phase == PhaseConnected {
			m.config.Connector.Disconnect()
			m.setState(State{Phase: PhaseFailed, Message: conn.MsgNetworkUnavailable})
		}
		return
	}

	if hasID && (phase == PhaseFailed || phase == PhaseWaitingForNetwork) {
		m.establish(ctx)
	}
}

// Watch consumes transitions from an observer until ctx ends.
func (m *Manager) Watch(ctx context.Context, obs netwatch.Observer) {
	ch, cancel := obs.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case tr, ok := <-ch:
				if !ok {
					return
				}
				m.OnNetworkChange(ctx, tr)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// establish runs one full connect: credentials, transport, terminal,
// then at most one reattach probe.
func (m *Manager) establish(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Phase == PhaseReconnecting {
		m.mu.Unlock()
		return ErrReconnectInProgress
	}
	id := m.id
	old := m.state
	m.state = State{Phase: PhaseReconnecting}
	fn := m.onStateChange
	m.mu.Unlock()

	m.announce(old, State{Phase: PhaseReconnecting}, fn)

	secret, err := m.config.Secrets.Retrieve(ctx, id.SecretRef)
	if err != nil {
		msg := conn.MsgAuthFailed
		if errors.Is(err, secrets.ErrNotFound) {
			msg = "Credentials unavailable"
		}
		m.setState(State{Phase: PhaseFailed, Message: msg})
		return err
	}

	if err := m.config.Connector.Connect(ctx, id, secret); err != nil {
		var fe *conn.FailureError
		msg := err.Error()
		if errors.As(err, &fe) {
			msg = fe.Failure.Message
		}
		m.setState(State{Phase: PhaseFailed, Message: msg})
		return err
	}

	tr := m.config.Connector.Transport()
	if err := m.config.Terminal.Restart(tr); err != nil {
		m.config.Connector.Disconnect()
		m.setState(State{Phase: PhaseFailed, Message: err.Error()})
		return err
	}

	m.reattach(ctx, tr)
	m.setState(State{Phase: PhaseConnected})
	return nil
}

// reattach issues exactly one existence probe for the tracked session
// and, if it still exists, one attach command over the fresh shell.
// Any probe failure means the session is gone: the name is cleared and
// the caller stays on the base shell. Never retried.
func (m *Manager) reattach(ctx context.Context, tr conn.Transport) {
	m.mu.Lock()
	name := m.tracked
	m.mu.Unlock()
	if name == "" {
		return
	}

	ok, err := m.config.NewProber(tr).HasSession(ctx, name)
	if err != nil || !ok {
		m.mu.Lock()
		m.tracked = ""
		m.mu.Unlock()
		m.config.Logger.Log(log.NewStateChangeEvent(
			"", log.StateEntitySession, "", "DETACHED", "remote session gone: "+name,
		))
		return
	}

	cmd, err := mux.AttachCommand(name)
	if err != nil {
		return
	}
	if err := m.config.Terminal.SendLine(cmd); err != nil {
		m.mu.Lock()
		m.tracked = ""
		m.mu.Unlock()
	}
}

func (m *Manager) setState(next State) {
	m.mu.Lock()
	old := m.state
	m.state = next
	fn := m.onStateChange
	m.mu.Unlock()

	m.announce(old, next, fn)
}

func (m *Manager) announce(old, next State, fn func(State)) {
	if old == next {
		return
	}
	m.config.Logger.Log(log.NewStateChangeEvent(
		"", log.StateEntitySession,
		old.Phase.String(), next.Phase.String(), next.Message,
	))
	if fn != nil {
		fn(next)
	}
}

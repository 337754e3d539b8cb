package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hawser-project/hawser-go/pkg/bridge"
	"github.com/hawser-project/hawser-go/pkg/config"
	"github.com/hawser-project/hawser-go/pkg/conn"
	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/log"
	"github.com/hawser-project/hawser-go/pkg/mux"
	"github.com/hawser-project/hawser-go/pkg/netwatch"
	"github.com/hawser-project/hawser-go/pkg/secrets"
	"github.com/hawser-project/hawser-go/pkg/session"
	"github.com/hawser-project/hawser-go/pkg/term"
	"github.com/hawser-project/hawser-go/pkg/trust"
)

// ErrNoShell is returned when an operation needs a live interactive
// shell and there is none.
var ErrNoShell = errors.New("client: no interactive shell")

// MsgConnectionLost is the failure message for a keep-alive detected
// transport loss.
const MsgConnectionLost = "Connection lost"

// Client is the caller-facing surface over one logical connection.
type Client struct {
	config  config.Config
	logger  log.Logger
	runtime *term.Runtime

	trustStore *trust.TieredStore
	negotiator *trust.Negotiator
	machine    *conn.Machine
	manager    *session.Manager

	mu        sync.Mutex
	surface   *term.Surface
	shell     conn.Shell
	relay     *bridge.Bridge
	keepalive *conn.Prober
}

var _ session.Terminal = (*Client)(nil)

// New builds a client from configuration. The persistent trust store
// is loaded from the configured known-hosts path; a missing file is an
// empty store.
func New(cfg config.Config, store secrets.Store, logger log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.NoopLogger{}
	}

	fileStore := trust.NewFileStore(cfg.KnownHostsPath)
	if err := fileStore.Load(); err != nil {
		return nil, fmt.Errorf("client: loading trust store: %w", err)
	}
	tiered := trust.NewTieredStore(trust.NewMemoryStore(), fileStore)
	negotiator := trust.NewNegotiator(tiered)

	dialer := conn.NewSSHDialer(negotiator, conn.DialConfig{
		Timeout: cfg.ConnectTimeout.Std() + conn.TransportTimeoutMargin,
	})
	machine := conn.NewMachine(dialer, negotiator, conn.MachineConfig{
		ConnectTimeout: cfg.ConnectTimeout.Std(),
		Logger:         logger,
	})

	c := &Client{
		config: cfg,
		logger: logger,
		runtime: term.NewRuntime(term.Config{
			TermType: cfg.TermType,
			Cols:     cfg.Cols,
			Rows:     cfg.Rows,
		}),
		trustStore: tiered,
		negotiator: negotiator,
		machine:    machine,
	}
	c.manager = session.NewManager(session.Config{
		Connector: machine,
		Secrets:   store,
		Terminal:  c,
		Logger:    logger,
	})
	return c, nil
}

// Connect establishes a session to the identity and starts the
// interactive terminal. Blocks until the attempt resolves.
func (c *Client) Connect(ctx context.Context, id identity.Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return c.manager.Connect(ctx, id)
}

// Disconnect closes the session gracefully. The identity and any
// tracked remote session are preserved for a later reconnect.
func (c *Client) Disconnect() {
	c.teardownTerminal()
	c.manager.OnBackground()
}

// Cancel aborts an in-flight connection attempt, force-rejecting any
// pending host key challenge.
func (c *Client) Cancel() {
	c.machine.Cancel()
}

// Close releases everything the client owns.
func (c *Client) Close() error {
	c.Disconnect()
	return c.runtime.Close()
}

// ResolveHostKeyChallenge delivers the user's decision for the pending
// host key challenge.
func (c *Client) ResolveHostKeyChallenge(decision trust.Decision) error {
	return c.negotiator.Resolve(decision)
}

// PendingChallenge returns the host key challenge awaiting a decision,
// or nil.
func (c *Client) PendingChallenge() *trust.Challenge {
	return c.negotiator.Pending()
}

// OnHostKeyChallenge registers a non-blocking callback for raised
// challenges.
func (c *Client) OnHostKeyChallenge(fn func(trust.Challenge)) {
	c.negotiator.SetChallengeHandler(fn)
}

// Status returns the connection machine state.
func (c *Client) Status() conn.State {
	return c.machine.State()
}

// SessionState returns the reconnection manager state.
func (c *Client) SessionState() session.State {
	return c.manager.State()
}

// BridgeStatus returns the relay status, or an idle status when no
// relay exists.
func (c *Client) BridgeStatus() bridge.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.relay == nil {
		return bridge.Status{Phase: bridge.PhaseIdle}
	}
	return c.relay.Status()
}

// TrackedSession returns the tracked remote session name, or "".
func (c *Client) TrackedSession() string {
	return c.manager.TrackedSession()
}

// Surface returns the live terminal surface, or nil.
func (c *Client) Surface() *term.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// Attach joins or creates the named remote multiplexer session and
// tracks it for reattachment after an involuntary disconnect.
func (c *Client) Attach(ctx context.Context, name string) error {
	tr := c.machine.Transport()
	if tr == nil {
		return conn.ErrNotConnected
	}

	exists, err := mux.NewProber(tr).HasSession(ctx, name)
	if err != nil {
		return err
	}
	cmd, err := mux.AttachCommand(name)
	if !exists {
		cmd, err = mux.NewSessionCommand(name)
	}
	if err != nil {
		return err
	}
	if err := c.SendLine(cmd); err != nil {
		return err
	}
	c.manager.Track(name)
	return nil
}

// Detach voluntarily leaves the attached session: the detach keys go
// to the remote shell and the tracked name is cleared, so the next
// reconnect stays on the base shell.
func (c *Client) Detach() error {
	c.mu.Lock()
	shell := c.shell
	c.mu.Unlock()
	if shell == nil {
		return ErrNoShell
	}
	if _, err := shell.Write([]byte(mux.DetachKeys)); err != nil {
		return err
	}
	c.manager.Detach()
	return nil
}

// Resize propagates a terminal size change to the local surface and
// the remote PTY.
func (c *Client) Resize(cols, rows int) error {
	c.mu.Lock()
	surface := c.surface
	shell := c.shell
	c.mu.Unlock()
	if surface == nil || shell == nil {
		return ErrNoShell
	}
	if err := surface.Resize(cols, rows); err != nil {
		return err
	}
	return shell.Resize(cols, rows)
}

// OnBackground and OnForeground forward process lifecycle signals to
// the session manager.
func (c *Client) OnBackground() {
	c.teardownTerminal()
	c.manager.OnBackground()
}

func (c *Client) OnForeground(ctx context.Context) error {
	return c.manager.OnForeground(ctx)
}

// Watch subscribes the session manager to a reachability observer.
func (c *Client) Watch(ctx context.Context, obs netwatch.Observer) {
	c.manager.Watch(ctx, obs)
}

// Restart replaces the interactive terminal on a fresh transport: a
// new surface, a new shell channel, a new relay and a new keep-alive
// prober. Any previous terminal is torn down first.
func (c *Client) Restart(tr conn.Transport) error {
	c.teardownTerminal()

	surface, err := c.runtime.NewSurface()
	if err != nil {
		return err
	}
	cols, rows := surface.Size()

	shell, err := tr.NewShell(c.runtime.TermType(), cols, rows)
	if err != nil {
		surface.Close()
		return err
	}

	relay := bridge.New(bridge.Config{
		ConnectionID: c.machine.ConnectionID(),
		Logger:       c.logger,
	})
	if err := relay.Start(shell, surface.Endpoint()); err != nil {
		shell.Close()
		surface.Close()
		return err
	}

	keepalive := conn.NewProber(conn.ProberConfig{
		Interval:  c.config.KeepAliveInterval.Std(),
		MaxMissed: c.config.KeepAliveMaxMissed,
	}, tr.Ping, c.onConnectionLost)
	keepalive.Start(context.Background())

	c.mu.Lock()
	c.surface = surface
	c.shell = shell
	c.relay = relay
	c.keepalive = keepalive
	c.mu.Unlock()
	return nil
}

// SendLine delivers one command line to the remote shell.
func (c *Client) SendLine(line string) error {
	c.mu.Lock()
	shell := c.shell
	c.mu.Unlock()
	if shell == nil {
		return ErrNoShell
	}
	_, err := shell.Write([]byte(line + "\n"))
	return err
}

// onConnectionLost runs when the keep-alive miss budget is spent.
func (c *Client) onConnectionLost() {
	c.teardownTerminal()
	c.manager.OnConnectionLost(MsgConnectionLost)
}

// teardownTerminal stops the relay and releases the surface. The relay
// owns closing the shell and the endpoint; the surface close releases
// the master side.
func (c *Client) teardownTerminal() {
	c.mu.Lock()
	surface := c.surface
	relay := c.relay
	keepalive := c.keepalive
	c.surface = nil
	c.shell = nil
	c.relay = nil
	c.keepalive = nil
	c.mu.Unlock()

	if keepalive != nil {
		keepalive.Stop()
	}
	if relay != nil {
		relay.Stop()
	}
	if surface != nil {
		surface.Close()
	}
}

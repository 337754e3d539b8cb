package hawser_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/hawser-project/hawser-go/pkg/bridge"
	"github.com/hawser-project/hawser-go/pkg/conn"
	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/secrets"
	"github.com/hawser-project/hawser-go/pkg/session"
	"github.com/hawser-project/hawser-go/pkg/trust"
)

// These tests wire the full client stack together over in-memory fakes:
// a dialer that runs real host key verification, a transport whose shell
// is a pipe pair, the relay bridge, and the reconnection manager. No
// network or remote host is involved.

func generateHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)
	return signer.PublicKey()
}

// verifyingDialer runs host key verification against a negotiator the
// way the SSH dialer does during a handshake, then hands out a
// preconfigured transport.
type verifyingDialer struct {
	negotiator *trust.Negotiator
	hostKey    ssh.PublicKey
	transport  conn.Transport

	mu         sync.Mutex
	lastSecret []byte
	dials      int
}

func (d *verifyingDialer) Dial(ctx context.Context, id identity.Identity, secret []byte) (conn.Transport, error) {
	d.mu.Lock()
	d.lastSecret = append([]byte(nil), secret...)
	d.dials++
	d.mu.Unlock()

	if err := d.negotiator.Verify(ctx, id.Host, id.EffectivePort(), d.hostKey); err != nil {
		return nil, err
	}
	return d.transport, nil
}

// pipeShell is an interactive shell channel backed by two pipes. The
// test writes remote output into outW and reads forwarded keystrokes
// from inR.
type pipeShell struct {
	outR *io.PipeReader
	outW *io.PipeWriter
	inR  *io.PipeReader
	inW  *io.PipeWriter

	closeOnce sync.Once
	done      chan struct{}
}

func newPipeShell() *pipeShell {
	outR, outW := io.Pipe()
	inR, inW := io.Pipe()
	return &pipeShell{outR: outR, outW: outW, inR: inR, inW: inW, done: make(chan struct{})}
}

func (s *pipeShell) Read(p []byte) (int, error)  { return s.outR.Read(p) }
func (s *pipeShell) Write(p []byte) (int, error) { return s.inW.Write(p) }
func (s *pipeShell) Resize(cols, rows int) error { return nil }

func (s *pipeShell) Wait() error {
	<-s.done
	return nil
}

func (s *pipeShell) Close() error {
	s.closeOnce.Do(func() {
		// Close the writer ends only. A relay blocked on outR then
		// observes a clean end of stream rather than a closed pipe.
		s.outW.Close()
		s.inW.Close()
		close(s.done)
	})
	return nil
}

// pipeTransport is an established transport whose shell channel is a
// pipe pair. Close tears the shell down the way a real transport close
// collapses its channels.
type pipeTransport struct {
	mu     sync.Mutex
	shell  *pipeShell
	closed bool
}

func (t *pipeTransport) NewShell(term string, cols, rows int) (conn.Shell, error) {
	s := newPipeShell()
	t.mu.Lock()
	t.shell = s
	t.mu.Unlock()
	return s, nil
}

func (t *pipeTransport) Run(ctx context.Context, command string) ([]byte, error) {
	return nil, nil
}

func (t *pipeTransport) Ping() error      { return nil }
func (t *pipeTransport) RemoteAddr() string { return "devbox.local:22" }

func (t *pipeTransport) Close() error {
	t.mu.Lock()
	s := t.shell
	t.closed = true
	t.mu.Unlock()
	if s != nil {
		s.Close()
	}
	return nil
}

// terminalRecorder satisfies the manager's terminal seam and records
// what the manager asked of it.
type terminalRecorder struct {
	mu       sync.Mutex
	restarts int
	lines    []string
}

func (r *terminalRecorder) Restart(tr conn.Transport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restarts++
	return nil
}

func (r *terminalRecorder) SendLine(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return nil
}

func (r *terminalRecorder) snapshot() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restarts, append([]string(nil), r.lines...)
}

// proberStub answers session probes with a fixed result.
type proberStub struct {
	present bool
	probes  atomic.Int32
}

func (p *proberStub) HasSession(ctx context.Context, name string) (bool, error) {
	p.probes.Add(1)
	return p.present, nil
}

// TestE2E_FirstContactTrustAndSave connects through the full stack: the
// handshake parks on an unknown host key, the challenge surfaces to the
// application, and a trust-and-save decision releases it and persists
// the key.
func TestE2E_FirstContactTrustAndSave(t *testing.T) {
	hostKey := generateHostKey(t)
	persistent := trust.NewMemoryStore()
	store := trust.NewTieredStore(trust.NewMemoryStore(), persistent)
	negotiator := trust.NewNegotiator(store)

	challenges := make(chan trust.Challenge, 1)
	negotiator.SetChallengeHandler(func(c trust.Challenge) {
		challenges <- c
	})

	dialer := &verifyingDialer{
		negotiator: negotiator,
		hostKey:    hostKey,
		transport:  &pipeTransport{},
	}
	machine := conn.NewMachine(dialer, negotiator, conn.MachineConfig{
		ConnectTimeout: 5 * time.Second,
	})

	id := identity.Identity{
		Host:      "devbox.local",
		Username:  "dev",
		Auth:      identity.AuthPassword,
		SecretRef: "cred-1",
	}

	connectErr := make(chan error, 1)
	go func() {
		connectErr <- machine.Connect(context.Background(), id, []byte("hunter2"))
	}()

	var challenge trust.Challenge
	select {
	case challenge = <-challenges:
	case <-time.After(2 * time.Second):
		t.Fatal("no host key challenge raised")
	}

	assert.Equal(t, "devbox.local", challenge.Hostname)
	assert.Equal(t, uint16(22), challenge.Port)
	assert.Equal(t, trust.ComparisonUnknown, challenge.Comparison)
	assert.Equal(t, trust.Fingerprint(hostKey), challenge.Fingerprint)

	// The attempt is parked until the decision arrives.
	require.Equal(t, conn.PhaseConnecting, machine.State().Phase)
	require.NotNil(t, negotiator.Pending())

	require.NoError(t, negotiator.Resolve(trust.DecisionTrustAndSave))
	require.NoError(t, <-connectErr)
	assert.Equal(t, conn.PhaseConnected, machine.State().Phase)

	entry, err := persistent.Lookup("devbox.local", 22)
	require.NoError(t, err)
	assert.Equal(t, trust.Fingerprint(hostKey), entry.Fingerprint)

	// A reconnect to the same endpoint is now approved silently.
	machine.Disconnect()
	require.NoError(t, machine.Connect(context.Background(), id, []byte("hunter2")))
	assert.Equal(t, conn.PhaseConnected, machine.State().Phase)
	machine.Disconnect()
}

// TestE2E_ChangedHostKeyRejected seeds a different trusted fingerprint
// and verifies that rejecting the mismatch challenge fails the attempt
// with the host key failure message.
func TestE2E_ChangedHostKeyRejected(t *testing.T) {
	hostKey := generateHostKey(t)
	persistent := trust.NewMemoryStore()
	require.NoError(t, persistent.Put(trust.Entry{
		Hostname:    "devbox.local",
		Port:        22,
		Algorithm:   "ssh-ed25519",
		Fingerprint: "SHA256:previously-trusted",
		TrustedAt:   time.Now().UTC(),
	}))
	store := trust.NewTieredStore(trust.NewMemoryStore(), persistent)
	negotiator := trust.NewNegotiator(store)

	challenges := make(chan trust.Challenge, 1)
	negotiator.SetChallengeHandler(func(c trust.Challenge) {
		challenges <- c
	})

	dialer := &verifyingDialer{
		negotiator: negotiator,
		hostKey:    hostKey,
		transport:  &pipeTransport{},
	}
	machine := conn.NewMachine(dialer, negotiator, conn.MachineConfig{
		ConnectTimeout: 5 * time.Second,
	})

	id := identity.Identity{
		Host:      "devbox.local",
		Username:  "dev",
		Auth:      identity.AuthPassword,
		SecretRef: "cred-1",
	}

	connectErr := make(chan error, 1)
	go func() {
		connectErr <- machine.Connect(context.Background(), id, []byte("hunter2"))
	}()

	var challenge trust.Challenge
	select {
	case challenge = <-challenges:
	case <-time.After(2 * time.Second):
		t.Fatal("no host key challenge raised")
	}
	assert.Equal(t, trust.ComparisonMismatch, challenge.Comparison)
	assert.Equal(t, "SHA256:previously-trusted", challenge.StoredFingerprint)

	require.NoError(t, negotiator.Resolve(trust.DecisionReject))

	err := <-connectErr
	var failure *conn.FailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, conn.MsgHostKeyRejected, failure.Failure.Message)
	assert.Equal(t, conn.AdviceReviewHostKey, failure.Failure.Advice)

	state := machine.State()
	assert.Equal(t, conn.PhaseFailed, state.Phase)
	assert.Equal(t, conn.MsgHostKeyRejected, state.Message)

	// Rejection writes nothing; the old fingerprint stays trusted.
	entry, err := persistent.Lookup("devbox.local", 22)
	require.NoError(t, err)
	assert.Equal(t, "SHA256:previously-trusted", entry.Fingerprint)
}

// TestE2E_BackgroundForegroundReattach runs the continuity flow: connect
// via the manager, track a tmux session, drop to background, and verify
// that foregrounding reconnects, restarts the terminal, probes exactly
// once and replays the attach command.
func TestE2E_BackgroundForegroundReattach(t *testing.T) {
	hostKey := generateHostKey(t)
	persistent := trust.NewMemoryStore()
	require.NoError(t, persistent.Put(trust.Entry{
		Hostname:    "devbox.local",
		Port:        22,
		Algorithm:   "ssh-ed25519",
		Fingerprint: trust.Fingerprint(hostKey),
		TrustedAt:   time.Now().UTC(),
	}))
	store := trust.NewTieredStore(trust.NewMemoryStore(), persistent)
	negotiator := trust.NewNegotiator(store)

	dialer := &verifyingDialer{
		negotiator: negotiator,
		hostKey:    hostKey,
		transport:  &pipeTransport{},
	}
	machine := conn.NewMachine(dialer, negotiator, conn.MachineConfig{
		ConnectTimeout: 5 * time.Second,
	})

	creds := secrets.NewMemoryStore()
	require.NoError(t, creds.Store("cred-1", []byte("hunter2")))

	terminal := &terminalRecorder{}
	prober := &proberStub{present: true}
	manager := session.NewManager(session.Config{
		Connector: machine,
		Secrets:   creds,
		Terminal:  terminal,
		NewProber: func(tr conn.Transport) session.Prober { return prober },
	})

	id := identity.Identity{
		Host:      "devbox.local",
		Username:  "dev",
		Auth:      identity.AuthPassword,
		SecretRef: "cred-1",
	}
	require.NoError(t, manager.Connect(context.Background(), id))
	assert.Equal(t, session.PhaseConnected, manager.State().Phase)

	dialer.mu.Lock()
	assert.Equal(t, []byte("hunter2"), dialer.lastSecret)
	dialer.mu.Unlock()

	manager.Track("work")
	manager.OnBackground()
	assert.Equal(t, session.PhaseIdle, manager.State().Phase)
	assert.Equal(t, conn.PhaseIdle, machine.State().Phase)
	assert.Equal(t, "work", manager.TrackedSession())

	require.NoError(t, manager.OnForeground(context.Background()))
	assert.Equal(t, session.PhaseConnected, manager.State().Phase)
	assert.Equal(t, conn.PhaseConnected, machine.State().Phase)

	assert.Equal(t, int32(1), prober.probes.Load())
	restarts, lines := terminal.snapshot()
	assert.Equal(t, 2, restarts)
	require.Len(t, lines, 1)
	assert.Equal(t, "tmux attach-session -t '=work'", lines[0])

	machine.Disconnect()
}

// TestE2E_ShellBridgeRelay connects, opens a shell channel on the
// transport and relays it through the bridge. Disconnecting the machine
// collapses the channel and the bridge lands on a clean disconnect.
func TestE2E_ShellBridgeRelay(t *testing.T) {
	hostKey := generateHostKey(t)
	persistent := trust.NewMemoryStore()
	require.NoError(t, persistent.Put(trust.Entry{
		Hostname:    "devbox.local",
		Port:        22,
		Algorithm:   "ssh-ed25519",
		Fingerprint: trust.Fingerprint(hostKey),
		TrustedAt:   time.Now().UTC(),
	}))
	negotiator := trust.NewNegotiator(trust.NewTieredStore(trust.NewMemoryStore(), persistent))

	transport := &pipeTransport{}
	dialer := &verifyingDialer{
		negotiator: negotiator,
		hostKey:    hostKey,
		transport:  transport,
	}
	machine := conn.NewMachine(dialer, negotiator, conn.MachineConfig{
		ConnectTimeout: 5 * time.Second,
	})

	id := identity.Identity{
		Host:      "devbox.local",
		Username:  "dev",
		Auth:      identity.AuthPassword,
		SecretRef: "cred-1",
	}
	require.NoError(t, machine.Connect(context.Background(), id, []byte("hunter2")))

	tr := machine.Transport()
	require.NotNil(t, tr)
	remote, err := tr.NewShell("xterm-256color", 80, 24)
	require.NoError(t, err)

	localOutR, localOutW := io.Pipe()
	localInR, localInW := io.Pipe()
	local := pipeEndpoint{out: localOutW, in: localInR}

	relay := bridge.New(bridge.Config{ConnectionID: machine.ConnectionID()})
	require.NoError(t, relay.Start(remote, local))

	// Remote output reaches the local endpoint.
	shell := transport.shell
	go shell.outW.Write([]byte("$ "))
	buf := make([]byte, 16)
	n, err := localOutR.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "$ ", string(buf[:n]))

	// Local keystrokes reach the remote channel.
	go localInW.Write([]byte("uptime\n"))
	n, err = shell.inR.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "uptime\n", string(buf[:n]))

	// Tearing the connection down collapses the channel; the bridge
	// observes end of stream and finishes cleanly.
	machine.Disconnect()
	relay.Wait()
	status := relay.Status()
	assert.Equal(t, bridge.PhaseDisconnected, status.Phase)
	assert.Equal(t, "remote channel closed", status.Reason)
}

// TestE2E_AttemptTimeout lets the application timer win against a dialer
// that never completes and checks the classified timeout failure.
func TestE2E_AttemptTimeout(t *testing.T) {
	negotiator := trust.NewNegotiator(trust.NewTieredStore(trust.NewMemoryStore(), trust.NewMemoryStore()))

	stall := make(chan struct{})
	defer close(stall)
	machine := conn.NewMachine(dialFunc(func(ctx context.Context, id identity.Identity, secret []byte) (conn.Transport, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-stall:
			return nil, context.Canceled
		}
	}), negotiator, conn.MachineConfig{ConnectTimeout: 50 * time.Millisecond})

	id := identity.Identity{
		Host:      "devbox.local",
		Username:  "dev",
		Auth:      identity.AuthPassword,
		SecretRef: "cred-1",
	}

	err := machine.Connect(context.Background(), id, []byte("hunter2"))
	var failure *conn.FailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, conn.MsgTimedOut, failure.Failure.Message)
	assert.Equal(t, conn.AdviceRetry, failure.Failure.Advice)
	assert.Equal(t, conn.PhaseFailed, machine.State().Phase)
}

// pipeEndpoint is an in-memory local endpoint. Close collapses both
// directions so a relay blocked on Read is released.
type pipeEndpoint struct {
	out *io.PipeWriter
	in  *io.PipeReader
}

func (e pipeEndpoint) Read(p []byte) (int, error)  { return e.in.Read(p) }
func (e pipeEndpoint) Write(p []byte) (int, error) { return e.out.Write(p) }

func (e pipeEndpoint) Close() error {
	e.in.Close()
	return e.out.Close()
}

// dialFunc adapts a function to the dialer interface.
type dialFunc func(ctx context.Context, id identity.Identity, secret []byte) (conn.Transport, error)

func (f dialFunc) Dial(ctx context.Context, id identity.Identity, secret []byte) (conn.Transport, error) {
	return f(ctx, id, secret)
}

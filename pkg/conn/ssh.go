package conn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/trust"
)

// keepAliveRequest is the OpenSSH global request used as a liveness probe.
const keepAliveRequest = "keepalive@openssh.com"

// SSHDialer is the production Dialer on top of golang.org/x/crypto/ssh.
// Host keys are verified through the trust negotiator, which may park
// the handshake while the user decides.
type SSHDialer struct {
	negotiator *trust.Negotiator
	config     DialConfig
}

// NewSSHDialer creates an SSH dialer.
func NewSSHDialer(negotiator *trust.Negotiator, config DialConfig) *SSHDialer {
	config.applyDefaults()
	return &SSHDialer{
		negotiator: negotiator,
		config:     config,
	}
}

// Dial connects and authenticates to the identity's endpoint.
func (d *SSHDialer) Dial(ctx context.Context, id identity.Identity, secret []byte) (Transport, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	authMethod, err := buildAuthMethod(id.Auth, secret)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            id.Username,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: d.negotiator.HostKeyCallback(ctx),
		Timeout:         d.config.Timeout,
	}

	addr := id.Addr()
	netDialer := &net.Dialer{Timeout: d.config.Timeout}
	netConn, err := netDialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	// Bound the handshake at the transport level. The host key callback
	// may legitimately park for a user decision, so the deadline is the
	// transport timeout, not something shorter.
	if err := netConn.SetDeadline(time.Now().Add(d.config.Timeout)); err != nil {
		netConn.Close()
		return nil, err
	}

	// Closing the socket is the only way to abort an in-flight
	// handshake when the caller cancels.
	handshakeDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			netConn.Close()
		case <-handshakeDone:
		}
	}()

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, clientConfig)
	close(handshakeDone)
	if err != nil {
		netConn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	if err := netConn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, err
	}

	return &sshTransport{
		client: ssh.NewClient(sshConn, chans, reqs),
		addr:   addr,
	}, nil
}

// buildAuthMethod turns resolved secret material into an SSH auth method.
func buildAuthMethod(auth identity.AuthMethod, secret []byte) (ssh.AuthMethod, error) {
	switch auth {
	case identity.AuthPrivateKey:
		signer, err := ssh.ParsePrivateKey(secret)
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		return ssh.PublicKeys(signer), nil
	default:
		return ssh.Password(string(secret)), nil
	}
}

// sshTransport wraps an ssh.Client as a Transport.
type sshTransport struct {
	client *ssh.Client
	addr   string

	closeOnce sync.Once
	closeErr  error
}

// NewShell opens an interactive shell channel with a remote PTY.
func (t *sshTransport) NewShell(term string, cols, rows int) (Shell, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty(term, rows, cols, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("requesting pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, err
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("starting shell: %w", err)
	}

	return &sshShell{
		session: session,
		stdin:   stdin,
		stdout:  stdout,
	}, nil
}

// Run executes a command on a fresh channel and returns combined output.
func (t *sshTransport) Run(ctx context.Context, command string) ([]byte, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer session.Close()

	type result struct {
		output []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(command)
		done <- result{output: out, err: err}
	}()

	select {
	case r := <-done:
		return r.output, r.err
	case <-ctx.Done():
		session.Close()
		<-done
		return nil, ctx.Err()
	}
}

// Ping sends a keepalive request and waits for the reply.
func (t *sshTransport) Ping() error {
	_, _, err := t.client.SendRequest(keepAliveRequest, true, nil)
	return err
}

// RemoteAddr returns the peer address as dialed.
func (t *sshTransport) RemoteAddr() string {
	return t.addr
}

// Close performs a protocol-level close. Safe to call more than once.
func (t *sshTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.client.Close()
	})
	return t.closeErr
}

// sshShell wraps an ssh.Session shell channel.
type sshShell struct {
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader

	closeOnce sync.Once
	closeErr  error
}

func (s *sshShell) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *sshShell) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

// Resize propagates a terminal size change.
func (s *sshShell) Resize(cols, rows int) error {
	return s.session.WindowChange(rows, cols)
}

// Wait blocks until the remote shell exits.
func (s *sshShell) Wait() error {
	err := s.session.Wait()
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		// A nonzero exit status is a normal shell exit, not a transport
		// failure.
		return nil
	}
	return err
}

// Close closes the channel. Safe to call more than once.
func (s *sshShell) Close() error {
	s.closeOnce.Do(func() {
		s.stdin.Close()
		s.closeErr = s.session.Close()
	})
	return s.closeErr
}

// Compile-time interface satisfaction checks.
var (
	_ Dialer    = (*SSHDialer)(nil)
	_ Transport = (*sshTransport)(nil)
	_ Shell     = (*sshShell)(nil)
)

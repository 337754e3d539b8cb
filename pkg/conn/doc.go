// Package conn implements the connection lifecycle for a remote shell
// session.
//
// The Machine drives a single logical connection through
// Idle -> Connecting -> Connected / Failed. Each attempt races the SSH
// dial and handshake against an application-level timer; the transport's
// own timeout is configured strictly longer so the application timer
// always loses last. Failures are mapped through a pure error taxonomy
// into stable user-facing messages.
//
// The Dialer and Transport interfaces isolate the state machine from the
// SSH implementation; SSHDialer is the production implementation on
// golang.org/x/crypto/ssh. The Prober sends keepalive@openssh.com
// requests over an established transport and reports connection loss.
package conn

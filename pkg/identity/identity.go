package identity

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Errors returned by Identity validation.
var (
	// ErrMissingHost is returned when the hostname is empty.
	ErrMissingHost = errors.New("identity: missing host")

	// ErrMissingUsername is returned when the username is empty.
	ErrMissingUsername = errors.New("identity: missing username")

	// ErrMissingSecretRef is returned when no credential reference is set.
	ErrMissingSecretRef = errors.New("identity: missing secret reference")
)

// AuthMethod selects how a connection authenticates to the remote host.
type AuthMethod uint8

const (
	// AuthPassword authenticates with a password held in the credential store.
	AuthPassword AuthMethod = iota

	// AuthPrivateKey authenticates with a private key held in the credential store.
	AuthPrivateKey
)

// String returns the auth method name.
func (a AuthMethod) String() string {
	switch a {
	case AuthPassword:
		return "PASSWORD"
	case AuthPrivateKey:
		return "PRIVATE_KEY"
	default:
		return "UNKNOWN"
	}
}

// Identity describes one remote endpoint and how to authenticate to it.
// It is a value type; a connection attempt captures the identity it was
// started with and never observes later mutations.
type Identity struct {
	// Host is the remote hostname or IP address.
	Host string

	// Port is the remote port. Zero means the default port 22.
	Port uint16

	// Username is the account to authenticate as.
	Username string

	// Auth selects the authentication method.
	Auth AuthMethod

	// SecretRef is the credential-store key holding the password or
	// private key material for this identity. The secret itself is
	// never stored on the identity.
	SecretRef string
}

// DefaultPort is used when an identity does not specify a port.
const DefaultPort uint16 = 22

// Validate checks that the identity is complete enough to dial.
func (id Identity) Validate() error {
	if id.Host == "" {
		return ErrMissingHost
	}
	if id.Username == "" {
		return ErrMissingUsername
	}
	if id.SecretRef == "" {
		return ErrMissingSecretRef
	}
	return nil
}

// EffectivePort returns the port to dial, applying the default.
func (id Identity) EffectivePort() uint16 {
	if id.Port == 0 {
		return DefaultPort
	}
	return id.Port
}

// Addr returns the dialable "host:port" address.
func (id Identity) Addr() string {
	return net.JoinHostPort(id.Host, strconv.Itoa(int(id.EffectivePort())))
}

// String returns a human-readable "user@host:port" form.
// The secret reference is intentionally omitted.
func (id Identity) String() string {
	return fmt.Sprintf("%s@%s", id.Username, id.Addr())
}

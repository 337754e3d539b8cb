package conn

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/trust"
)

// Machine errors.
var (
	ErrAlreadyConnecting = errors.New("conn: attempt already in progress")
	ErrAlreadyConnected  = errors.New("conn: already connected")
	ErrNotConnected      = errors.New("conn: not connected")
)

// User-facing failure messages. These are the complete set of
// categorized messages; anything unrecognized falls through with the
// underlying description.
const (
	MsgTimedOut           = "Connection timed out"
	MsgAuthFailed         = "Authentication failed"
	MsgAuthFailedKey      = "Authentication failed (public key not accepted by server)"
	MsgRefused            = "Connection refused"
	MsgNetworkUnavailable = "Network unavailable"
	MsgHostKeyRejected    = "Host key rejected"
)

// Advice is the single suggested next action attached to a failure.
type Advice uint8

const (
	// AdviceRetry suggests retrying the connection as-is.
	AdviceRetry Advice = iota

	// AdviceCheckCredentials suggests fixing the username or secret.
	AdviceCheckCredentials

	// AdviceCheckNetwork suggests waiting for or fixing connectivity.
	AdviceCheckNetwork

	// AdviceReviewHostKey suggests inspecting the host key challenge.
	AdviceReviewHostKey
)

// String returns the advice name.
func (a Advice) String() string {
	switch a {
	case AdviceRetry:
		return "RETRY"
	case AdviceCheckCredentials:
		return "CHECK_CREDENTIALS"
	case AdviceCheckNetwork:
		return "CHECK_NETWORK"
	case AdviceReviewHostKey:
		return "REVIEW_HOST_KEY"
	default:
		return "UNKNOWN"
	}
}

// Failure is a classified connection failure: a stable user-facing
// message plus one suggested next action.
type Failure struct {
	Message string
	Advice  Advice
}

// Classify maps a connection error to its user-facing failure. It is a
// pure function of the error and the attempted auth method; it never
// inspects or mutates connection state.
func Classify(err error, auth identity.AuthMethod) Failure {
	if err == nil {
		return Failure{}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Failure{Message: MsgTimedOut, Advice: AdviceRetry}

	case errors.Is(err, trust.ErrHostKeyRejected):
		return Failure{Message: MsgHostKeyRejected, Advice: AdviceReviewHostKey}

	case errors.Is(err, syscall.ECONNREFUSED):
		return Failure{Message: MsgRefused, Advice: AdviceRetry}

	case errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETDOWN),
		isDNSFailure(err):
		return Failure{Message: MsgNetworkUnavailable, Advice: AdviceCheckNetwork}

	case isAuthFailure(err):
		if auth == identity.AuthPrivateKey {
			return Failure{Message: MsgAuthFailedKey, Advice: AdviceCheckCredentials}
		}
		return Failure{Message: MsgAuthFailed, Advice: AdviceCheckCredentials}

	case isTimeout(err):
		return Failure{Message: MsgTimedOut, Advice: AdviceRetry}
	}

	return Failure{Message: err.Error(), Advice: AdviceRetry}
}

// isAuthFailure detects the transport's authentication rejection. The
// SSH client library reports it as a plain string, so we match on the
// stable prefix it has carried since the package's first release.
func isAuthFailure(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}

func isDNSFailure(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "i/o timeout")
}

package conn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/trust"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		auth        identity.AuthMethod
		wantMessage string
		wantAdvice  Advice
	}{
		{
			name:        "deadline exceeded",
			err:         context.DeadlineExceeded,
			wantMessage: MsgTimedOut,
			wantAdvice:  AdviceRetry,
		},
		{
			name:        "wrapped deadline",
			err:         fmt.Errorf("dialing example.com:22: %w", context.DeadlineExceeded),
			wantMessage: MsgTimedOut,
			wantAdvice:  AdviceRetry,
		},
		{
			name:        "host key rejected",
			err:         fmt.Errorf("ssh: handshake failed: %w", trust.ErrHostKeyRejected),
			wantMessage: MsgHostKeyRejected,
			wantAdvice:  AdviceReviewHostKey,
		},
		{
			name:        "connection refused",
			err:         &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			wantMessage: MsgRefused,
			wantAdvice:  AdviceRetry,
		},
		{
			name:        "network unreachable",
			err:         &net.OpError{Op: "dial", Err: syscall.ENETUNREACH},
			wantMessage: MsgNetworkUnavailable,
			wantAdvice:  AdviceCheckNetwork,
		},
		{
			name:        "host unreachable",
			err:         &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH},
			wantMessage: MsgNetworkUnavailable,
			wantAdvice:  AdviceCheckNetwork,
		},
		{
			name:        "dns failure",
			err:         &net.DNSError{Err: "no such host", Name: "nope.invalid"},
			wantMessage: MsgNetworkUnavailable,
			wantAdvice:  AdviceCheckNetwork,
		},
		{
			name:        "password auth failure",
			err:         errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password], no supported methods remain"),
			auth:        identity.AuthPassword,
			wantMessage: MsgAuthFailed,
			wantAdvice:  AdviceCheckCredentials,
		},
		{
			name:        "key auth failure",
			err:         errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none publickey], no supported methods remain"),
			auth:        identity.AuthPrivateKey,
			wantMessage: MsgAuthFailedKey,
			wantAdvice:  AdviceCheckCredentials,
		},
		{
			name:        "unrecognized error falls through",
			err:         errors.New("ssh: handshake failed: banner exchange broke"),
			wantMessage: "ssh: handshake failed: banner exchange broke",
			wantAdvice:  AdviceRetry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, tt.auth)
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.Advice != tt.wantAdvice {
				t.Errorf("Advice = %v, want %v", got.Advice, tt.wantAdvice)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	// Same error in, same failure out, independent of call order.
	err := &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	first := Classify(err, identity.AuthPassword)
	for i := 0; i < 10; i++ {
		if got := Classify(err, identity.AuthPassword); got != first {
			t.Fatalf("Classify not deterministic: %+v vs %+v", got, first)
		}
	}
}

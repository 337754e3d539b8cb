package mux

import (
	"context"
	"errors"
)

// Runner executes one remote command and returns its combined output.
// An established transport satisfies this.
type Runner interface {
	Run(ctx context.Context, command string) ([]byte, error)
}

// exitStatusError is how SSH exec channels report a nonzero exit.
type exitStatusError interface {
	ExitStatus() int
}

// Prober checks for named multiplexer sessions on the remote host.
type Prober struct {
	runner Runner
}

// NewProber creates a prober over the given runner.
func NewProber(runner Runner) *Prober {
	return &Prober{runner: runner}
}

// HasSession reports whether a session with the exact name exists.
// A nonzero exit from the remote probe means the session is absent;
// any other failure is a transport error.
func (p *Prober) HasSession(ctx context.Context, name string) (bool, error) {
	cmd, err := HasSessionCommand(name)
	if err != nil {
		return false, err
	}
	_, err = p.runner.Run(ctx, cmd)
	if err == nil {
		return true, nil
	}
	var exit exitStatusError
	if errors.As(err, &exit) {
		return false, nil
	}
	return false, err
}

// Sessions lists session names on the remote host. A nonzero exit
// means the server is not running, which is an empty list.
func (p *Prober) Sessions(ctx context.Context) ([]string, error) {
	out, err := p.runner.Run(ctx, ListSessionsCommand())
	if err != nil {
		var exit exitStatusError
		if errors.As(err, &exit) {
			return nil, nil
		}
		return nil, err
	}
	return ParseSessionList(out), nil
}

package mux

import (
	"errors"
	"strings"
)

// ErrEmptySessionName is returned when a command builder is given an
// empty session name.
var ErrEmptySessionName = errors.New("mux: empty session name")

// DetachKeys is the raw key sequence that detaches the client from an
// attached session: the default prefix C-b followed by d. Sent as
// keystrokes, not as a command line.
const DetachKeys = "\x02d"

// HasSessionCommand returns the exact-match probe for a named session.
// The "=" prefix disables tmux's prefix matching so "work" does not
// match "workshop".
func HasSessionCommand(name string) (string, error) {
	if name == "" {
		return "", ErrEmptySessionName
	}
	return "tmux has-session -t " + shellQuote("="+name), nil
}

// AttachCommand returns the command line that attaches the current
// shell to a named session.
func AttachCommand(name string) (string, error) {
	if name == "" {
		return "", ErrEmptySessionName
	}
	return "tmux attach-session -t " + shellQuote("="+name), nil
}

// NewSessionCommand returns the command line that creates and attaches
// a named session.
func NewSessionCommand(name string) (string, error) {
	if name == "" {
		return "", ErrEmptySessionName
	}
	return "tmux new-session -s " + shellQuote(name), nil
}

// ListSessionsCommand returns the command line listing session names,
// one per line.
func ListSessionsCommand() string {
	return "tmux list-sessions -F '#{session_name}'"
}

// ParseSessionList splits list-sessions output into session names.
func ParseSessionList(output []byte) []string {
	var names []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}

// shellQuote wraps s in single quotes for a POSIX shell, escaping any
// embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

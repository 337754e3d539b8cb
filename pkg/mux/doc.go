// Package mux builds remote terminal multiplexer (tmux) command lines
// and probes for named sessions over an established transport.
//
// The package never talks to the network itself. A Prober issues its
// single has-session check through a Runner, which any authenticated
// transport satisfies; attach command lines are handed to the caller
// to send over an interactive shell.
package mux

// Package term hosts the local terminal engine behind the relay.
//
// A Runtime is a constructed context object owning terminal Surfaces;
// there is no process-wide singleton, so tests and multi-connection
// callers build as many runtimes as they need. A Surface wraps a PTY
// pair: the slave side is the duplex endpoint handed to the byte
// relay, the master side is where the embedding UI reads rendered
// output and injects keystrokes.
package term

// Package session preserves connection continuity across process
// lifecycle and network transitions.
//
// A Manager owns the preserved connection identity and the tracked
// remote multiplexer session name. Backgrounding disconnects
// gracefully but keeps both; foregrounding reconnects with credentials
// from the secret store and, when a session name is tracked, performs
// one existence probe and at most one reattach. Reachability loss
// while connected marks the session Failed; reachability return with a
// preserved identity triggers one reconnect attempt.
package session

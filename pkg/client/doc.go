// Package client composes the connection machine, trust negotiator,
// terminal runtime, byte relay and session manager into the
// caller-facing surface.
//
// A Client owns one logical connection at a time. The interactive
// loop drives Connect, Disconnect, Cancel, ResolveHostKeyChallenge,
// Attach and Detach; observers read Status, SessionState,
// BridgeStatus and PendingChallenge.
package client

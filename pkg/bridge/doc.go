// Package bridge relays bytes between a remote shell channel and a
// local terminal endpoint.
//
// A Bridge runs two relay goroutines under one supervising scope:
// remote output toward the local endpoint and local input toward the
// remote channel. The first side to terminate decides the final status
// and cancels the other by closing both ends; the local endpoint is
// wrapped so its file descriptor is closed exactly once no matter how
// many paths race to shut it down.
//
// A Bridge is single-use. Its status moves one way: Idle -> Running ->
// Disconnected or Error, and never leaves a terminal state.
package bridge

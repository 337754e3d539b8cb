// Package netwatch models network reachability for the session layer.
//
// The actual reachability source is platform glue outside this module;
// netwatch defines the Observer contract, a fan-out Hub for delivering
// transitions to any number of subscribers, and a Simulated source for
// tests and the reference CLI.
package netwatch

package log

// Logger receives client lifecycle events. Pass nil or NoopLogger to
// disable event capture.
type Logger interface {
	// Log records one event. Implementations must be safe for concurrent
	// use and should return quickly; the connection, bridge and session
	// layers emit events inline on their own goroutines.
	Log(event Event)
}

// NoopLogger discards all events. It is the default sink everywhere a
// logger is optional, and is usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}

package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	// Should not panic with any event type
	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "test-conn",
		Category:     CategoryState,
	}

	// Test with nil payloads
	logger.Log(event)

	// Test with state change payload
	event.StateChange = &StateChangeEvent{Entity: StateEntityConnection, NewState: "CONNECTED"}
	logger.Log(event)

	// Test with trust payload
	event.StateChange = nil
	event.Trust = &TrustEvent{Hostname: "example.com", Port: 22, Fingerprint: "SHA256:abc", Comparison: "UNKNOWN"}
	logger.Log(event)

	// Test with traffic payload
	event.Trust = nil
	event.Traffic = &TrafficEvent{Direction: DirectionRemoteToLocal, Bytes: 100}
	logger.Log(event)

	// Test with error payload
	event.Traffic = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestLoggerInterfaceSatisfaction(t *testing.T) {
	// Compile-time check that NoopLogger satisfies Logger interface
	var _ Logger = NoopLogger{}
	var _ Logger = &NoopLogger{}
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	// NoopLogger should be usable as zero value
	var logger NoopLogger
	logger.Log(Event{})
}

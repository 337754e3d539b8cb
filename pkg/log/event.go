package log

import (
	"time"
)

// Event represents a client log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection attempt (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// RemoteAddr is the peer address ("host:port").
	RemoteAddr string `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"5,keyasint,omitempty"` // Lifecycle transitions
	Trust       *TrustEvent       `cbor:"6,keyasint,omitempty"` // Host key decisions
	Traffic     *TrafficEvent     `cbor:"7,keyasint,omitempty"` // Relay byte counts
	Error       *ErrorEventData   `cbor:"8,keyasint,omitempty"` // Errors at any layer
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a lifecycle state change.
	CategoryState Category = 0
	// CategoryTrust indicates a host key trust event.
	CategoryTrust Category = 1
	// CategoryTraffic indicates relay traffic accounting.
	CategoryTraffic Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryTrust:
		return "TRUST"
	case CategoryTraffic:
		return "TRAFFIC"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Direction indicates the direction of relayed data.
type Direction uint8

const (
	// DirectionRemoteToLocal is remote shell output toward the terminal.
	DirectionRemoteToLocal Direction = 0
	// DirectionLocalToRemote is terminal input toward the remote shell.
	DirectionLocalToRemote Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionRemoteToLocal:
		return "REMOTE_TO_LOCAL"
	case DirectionLocalToRemote:
		return "LOCAL_TO_REMOTE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection, bridge and session lifecycle
// transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityBridge indicates an I/O bridge state change.
	StateEntityBridge StateEntity = 1
	// StateEntitySession indicates a session manager state change.
	StateEntitySession StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityBridge:
		return "BRIDGE"
	case StateEntitySession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// TrustEvent captures a host key verification outcome.
type TrustEvent struct {
	// Hostname and Port identify the verified endpoint.
	Hostname string `cbor:"1,keyasint"`
	Port     uint16 `cbor:"2,keyasint"`

	// Algorithm is the host key algorithm.
	Algorithm string `cbor:"3,keyasint,omitempty"`

	// Fingerprint is the presented SHA-256 fingerprint.
	Fingerprint string `cbor:"4,keyasint"`

	// Comparison is the store comparison outcome (UNKNOWN/MATCH/MISMATCH).
	Comparison string `cbor:"5,keyasint"`

	// Decision is the resolution (REJECT/TRUST_ONCE/TRUST_AND_SAVE),
	// empty while the challenge is still pending.
	Decision string `cbor:"6,keyasint,omitempty"`
}

// TrafficEvent captures relay byte accounting at the bridge layer.
type TrafficEvent struct {
	// Direction of the relayed data.
	Direction Direction `cbor:"1,keyasint"`

	// Bytes relayed.
	Bytes int `cbor:"2,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}

// NewStateChangeEvent builds a lifecycle transition event.
func NewStateChangeEvent(connID string, entity StateEntity, oldState, newState, reason string) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Category:     CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	}
}

// NewTrustEvent builds a host key trust event.
func NewTrustEvent(connID string, data TrustEvent) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Category:     CategoryTrust,
		Trust:        &data,
	}
}

// NewTrafficEvent builds a relay traffic event.
func NewTrafficEvent(connID string, direction Direction, bytes int) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Category:     CategoryTraffic,
		Traffic: &TrafficEvent{
			Direction: direction,
			Bytes:     bytes,
		},
	}
}

// NewErrorEvent builds an error event.
func NewErrorEvent(connID, context, message string) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Category:     CategoryError,
		Error: &ErrorEventData{
			Message: message,
			Context: context,
		},
	}
}

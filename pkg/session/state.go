package session

// Phase is the reconnection manager lifecycle phase.
type Phase uint8

const (
	// PhaseIdle indicates no session is live and none is wanted.
	PhaseIdle Phase = iota

	// PhaseReconnecting indicates a reconnect attempt is in flight.
	PhaseReconnecting

	// PhaseConnected indicates a live session.
	PhaseConnected

	// PhaseFailed indicates the last attempt failed; the preserved
	// identity allows another.
	PhaseFailed

	// PhaseWaitingForNetwork indicates a reconnect is wanted but the
	// network is unreachable.
	PhaseWaitingForNetwork
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseReconnecting:
		return "RECONNECTING"
	case PhaseConnected:
		return "CONNECTED"
	case PhaseFailed:
		return "FAILED"
	case PhaseWaitingForNetwork:
		return "WAITING_FOR_NETWORK"
	default:
		return "UNKNOWN"
	}
}

// State is the externally visible manager state. Message is set for
// PhaseFailed.
type State struct {
	Phase   Phase
	Message string
}

package conn

// Phase represents the connection lifecycle phase.
type Phase uint8

const (
	// PhaseIdle indicates no connection and no attempt in progress.
	PhaseIdle Phase = iota

	// PhaseConnecting indicates a connection attempt is in progress.
	PhaseConnecting

	// PhaseConnected indicates an established, authenticated transport.
	PhaseConnected

	// PhaseFailed indicates the last attempt failed.
	PhaseFailed
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseConnected:
		return "CONNECTED"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// State is the externally visible connection state. Message and Advice
// are populated only when Phase is PhaseFailed.
type State struct {
	Phase   Phase
	Message string
	Advice  Advice
}

// IsFailed reports whether the state carries a failure.
func (s State) IsFailed() bool {
	return s.Phase == PhaseFailed
}

// failed builds a Failed state from a classified failure.
func failed(f Failure) State {
	return State{Phase: PhaseFailed, Message: f.Message, Advice: f.Advice}
}

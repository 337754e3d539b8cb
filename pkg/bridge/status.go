package bridge

// Phase represents the bridge lifecycle phase.
type Phase uint8

const (
	// PhaseIdle indicates the bridge has not started.
	PhaseIdle Phase = iota

	// PhaseRunning indicates both relay directions are active.
	PhaseRunning

	// PhaseDisconnected indicates a clean shutdown: either side reached
	// end of stream or the bridge was stopped.
	PhaseDisconnected

	// PhaseError indicates a relay failed with an unexpected error.
	PhaseError
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseRunning:
		return "RUNNING"
	case PhaseDisconnected:
		return "DISCONNECTED"
	case PhaseError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// terminal reports whether the phase is an end state.
func (p Phase) terminal() bool {
	return p == PhaseDisconnected || p == PhaseError
}

// Status is the externally visible bridge state. Reason is populated
// for terminal phases.
type Status struct {
	Phase  Phase
	Reason string
}

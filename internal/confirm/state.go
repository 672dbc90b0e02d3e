package confirm

// State is the poller's position in the assign-then-confirm flow.
type State int

const (
	StateIdle State = iota
	StateAssigning
	StateConfirming
	StateConfirmed
	StateTimedOut
	StateFailed
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAssigning:
		return "assigning"
	case StateConfirming:
		return "confirming"
	case StateConfirmed:
		return "confirmed"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the flow has completed and navigated.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateTimedOut
}

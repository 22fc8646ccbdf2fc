package saga

// Phase is the lifecycle state of one saga instance.
type Phase string

const (
	PhaseRunning      Phase = "RUNNING"
	PhaseCompensating Phase = "COMPENSATING"
	PhaseSucceeded    Phase = "SUCCEEDED"
	PhaseFailed       Phase = "FAILED"
)

var allPhases = []Phase{
	PhaseRunning,
	PhaseCompensating,
	PhaseSucceeded,
	PhaseFailed,
}

var phaseTransitions = map[Phase]map[Phase]bool{
	PhaseRunning: {
		PhaseCompensating: true,
		PhaseSucceeded:    true,
		PhaseFailed:       true,
	},
	PhaseCompensating: {
		PhaseFailed: true,
	},
}

func AllPhases() []Phase {
	out := make([]Phase, len(allPhases))
	copy(out, allPhases)
	return out
}

func CanTransition(from, to Phase) bool {
	next, ok := phaseTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsTerminal reports whether p is a final phase. A terminal instance is
// removed from the runner registry and never mutates again.
func IsTerminal(p Phase) bool {
	switch p {
	case PhaseSucceeded, PhaseFailed:
		return true
	default:
		return false
	}
}

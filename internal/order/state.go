package order

type State string

const (
	StateCreated    State = "CREATED"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
	StateRejected   State = "REJECTED"
)

var allStates = []State{
	StateCreated,
	StateInProgress,
	StateCompleted,
	StateRejected,
}

var transitions = map[State]map[State]bool{
	StateCreated: {
		StateInProgress: true,
		StateRejected:   true,
	},
	StateInProgress: {
		StateCompleted: true,
	},
}

func AllStates() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}

func CanTransition(from, to State) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func IsTerminal(s State) bool {
	switch s {
	case StateCompleted, StateRejected:
		return true
	default:
		return false
	}
}

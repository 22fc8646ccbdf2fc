package order

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from State
		to   State
		want bool
	}{
		{StateCreated, StateInProgress, true},
		{StateCreated, StateRejected, true},
		{StateInProgress, StateCompleted, true},
		{StateCreated, StateCompleted, false},
		{StateInProgress, StateRejected, false},
		{StateCompleted, StateInProgress, false},
		{StateRejected, StateCreated, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateCompleted: true,
		StateRejected:  true,
	}
	for _, s := range AllStates() {
		if got := IsTerminal(s); got != terminal[s] {
			t.Fatalf("IsTerminal(%s) = %v, want %v", s, got, terminal[s])
		}
	}
}

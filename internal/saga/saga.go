package saga

import (
	"context"
	"fmt"
)

// Action is one side of a step: the forward effect or its compensation.
// Actions run with the owning instance's lock held, so they must not
// block on saga progress (emitting a command and returning is fine,
// waiting for its reply is not).
type Action func(ctx context.Context, ex *Execution) error

// Step is one position in a saga definition.
//
// Local steps (Remote == false) complete as soon as Forward returns and
// the cursor chains to the next step without a broker round trip.
// Remote steps emit exactly one command in Forward and then suspend the
// instance until a matching participant event arrives.
type Step struct {
	Name    string
	Forward Action

	// Compensate semantically undoes a completed Forward. Only consulted
	// when Compensatable is set.
	Compensate    Action
	Compensatable bool

	// Remote marks steps that wait for a participant event. A remote
	// compensation likewise suspends until its release ack arrives.
	Remote bool

	// Unfailable steps have no failure event defined; receiving one is a
	// protocol violation and fails the instance outright.
	Unfailable bool
}

// Definition is an immutable ordered step sequence. Concrete sagas
// build one per request with the business arguments captured in the
// step closures.
type Definition struct {
	Name  string
	Steps []Step
}

func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("saga name is required")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("saga requires at least one step")
	}
	seen := make(map[string]struct{}, len(d.Steps))
	for _, step := range d.Steps {
		if step.Name == "" {
			return fmt.Errorf("saga step name is required")
		}
		if _, exists := seen[step.Name]; exists {
			return fmt.Errorf("duplicate saga step: %s", step.Name)
		}
		seen[step.Name] = struct{}{}
		if step.Forward == nil {
			return fmt.Errorf("saga step %s has no forward action", step.Name)
		}
		if step.Compensatable && step.Compensate == nil {
			return fmt.Errorf("saga step %s is compensatable but has no compensation", step.Name)
		}
		if step.Unfailable && step.Compensatable {
			return fmt.Errorf("saga step %s cannot be both unfailable and compensatable", step.Name)
		}
	}
	return nil
}

// Execution is the per-instance handle passed to step actions. All
// methods are called with the instance lock held.
type Execution struct {
	inst *Instance
}

// CorrelationID identifies the instance; commands carry it so that
// participant events can be routed back.
func (e *Execution) CorrelationID() string { return e.inst.id }

// SetToken records the business identifier participants stamp on their
// events (the order id for the create-order saga). Later events must
// carry it to be matched against this instance.
func (e *Execution) SetToken(token string) { e.inst.token = token }

func (e *Execution) Token() string { return e.inst.token }

// SetResult sets the value the outcome future resolves with on success.
func (e *Execution) SetResult(v any) { e.inst.result = v }

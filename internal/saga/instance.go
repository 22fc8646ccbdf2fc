package saga

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrProtocolViolation marks an event that is impossible for the step
// the instance is waiting on, e.g. a failure event for an unfailable
// step. The instance fails outright; no compensation is attempted
// because the step's effects are indeterminate.
var ErrProtocolViolation = errors.New("saga protocol violation")

// Result carries the terminal outcome of one instance. Exactly one of
// Value/Err is meaningful.
type Result struct {
	Value any
	Err   error
}

// Future resolves exactly once, when the owning instance reaches a
// terminal phase.
type Future struct {
	ch chan Result
}

func newFuture() *Future {
	return &Future{ch: make(chan Result, 1)}
}

// Wait blocks until the saga settles or ctx is done.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case res := <-f.ch:
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Instance is one running execution of a Definition. All mutation
// happens under mu: the triggering call's initial advance and every
// dispatched event serialize on it, so events for one correlation id
// can never interleave while events for different instances proceed in
// parallel.
type Instance struct {
	id  string
	def Definition

	mu      sync.Mutex
	phase   Phase
	cursor  int
	token   string
	result  any
	lastErr error

	future *Future
	exec   *Execution
	logger *zap.Logger
}

func newInstance(id string, def Definition, logger *zap.Logger) *Instance {
	inst := &Instance{
		id:     id,
		def:    def,
		phase:  PhaseRunning,
		future: newFuture(),
		logger: logger.With(
			zap.String("saga", def.Name),
			zap.String("correlation_id", id),
		),
	}
	inst.exec = &Execution{inst: inst}
	return inst
}

func (i *Instance) ID() string { return i.id }

func (i *Instance) Phase() Phase {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.phase
}

// start performs the synchronous leading steps and issues the first
// remote command. Reports whether the instance went terminal already
// (local-only saga, or a local failure before anything was reserved).
func (i *Instance) start(ctx context.Context) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.runForward(ctx)
	return IsTerminal(i.phase)
}

// handleEvent applies one participant event and reports whether the
// instance reached a terminal phase. Mismatched step, token or
// direction means the event belongs to another order or to a stale
// step; those are dropped without state change.
func (i *Instance) handleEvent(ctx context.Context, ev Event) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if IsTerminal(i.phase) {
		return true
	}
	step := i.def.Steps[i.cursor]
	if ev.Step != step.Name || ev.Token != i.token {
		i.logger.Debug("event dropped: no match for cursor",
			zap.String("event_step", ev.Step),
			zap.String("event_token", ev.Token),
			zap.String("cursor_step", step.Name),
			zap.String("token", i.token),
		)
		return false
	}

	switch i.phase {
	case PhaseRunning:
		if ev.Compensation || !step.Remote {
			i.logger.Debug("event dropped: not awaited while running",
				zap.String("step", step.Name),
				zap.Bool("compensation", ev.Compensation),
			)
			return false
		}
		if ev.Failed {
			if step.Unfailable {
				err := fmt.Errorf("%w: failure event for unfailable step %s: %s",
					ErrProtocolViolation, step.Name, ev.Err)
				i.logger.Error("protocol violation",
					zap.String("step", step.Name),
					zap.String("event_error", ev.Err),
				)
				i.fail(err)
				return true
			}
			i.lastErr = errors.New(ev.Err)
			i.logger.Info("step rejected, compensating",
				zap.String("step", step.Name),
				zap.String("reason", ev.Err),
			)
			i.transition(PhaseCompensating)
			i.unwind(ctx)
			return IsTerminal(i.phase)
		}
		i.cursor++
		if i.cursor == len(i.def.Steps) {
			i.succeed()
			return true
		}
		i.runForward(ctx)
		return IsTerminal(i.phase)

	case PhaseCompensating:
		if !ev.Compensation {
			i.logger.Debug("event dropped: forward event while compensating",
				zap.String("step", step.Name),
			)
			return false
		}
		if ev.Failed {
			// Best effort: a failed release is logged, unwinding goes on.
			i.logger.Error("compensation rejected by participant",
				zap.String("step", step.Name),
				zap.String("event_error", ev.Err),
			)
		}
		i.unwind(ctx)
		return IsTerminal(i.phase)
	}
	return false
}

// runForward executes steps from the cursor until a remote command has
// been issued or a terminal phase is reached. Called with mu held and
// phase RUNNING.
func (i *Instance) runForward(ctx context.Context) {
	for {
		step := i.def.Steps[i.cursor]
		if err := step.Forward(ctx, i.exec); err != nil {
			// The step itself did not happen, so unwinding starts below it.
			i.lastErr = err
			i.logger.Info("forward action failed, compensating",
				zap.String("step", step.Name),
				zap.Error(err),
			)
			i.transition(PhaseCompensating)
			i.unwind(ctx)
			return
		}
		if step.Remote {
			return
		}
		i.cursor++
		if i.cursor == len(i.def.Steps) {
			i.succeed()
			return
		}
	}
}

// unwind walks the cursor down, compensating completed steps. Remote
// compensations emit their command and suspend the instance until the
// release ack arrives; non-compensatable steps are skipped. Once the
// cursor drops below the first step the instance fails with the error
// that started the rollback. Called with mu held, phase COMPENSATING.
func (i *Instance) unwind(ctx context.Context) {
	for {
		i.cursor--
		if i.cursor < 0 {
			i.fail(i.lastErr)
			return
		}
		step := i.def.Steps[i.cursor]
		if !step.Compensatable {
			continue
		}
		if err := step.Compensate(ctx, i.exec); err != nil {
			i.logger.Error("compensation action failed",
				zap.String("step", step.Name),
				zap.Error(err),
			)
			continue
		}
		if step.Remote {
			return
		}
	}
}

func (i *Instance) transition(to Phase) {
	if !CanTransition(i.phase, to) {
		// Definition bug; log loudly but keep the instance consistent.
		i.logger.Error("illegal phase transition",
			zap.String("from", string(i.phase)),
			zap.String("to", string(to)),
		)
	}
	i.phase = to
}

func (i *Instance) succeed() {
	i.transition(PhaseSucceeded)
	i.future.ch <- Result{Value: i.result}
	i.logger.Info("saga succeeded", zap.String("token", i.token))
}

func (i *Instance) fail(err error) {
	i.transition(PhaseFailed)
	i.future.ch <- Result{Err: err}
	i.logger.Info("saga failed", zap.String("token", i.token), zap.Error(err))
}

package saga

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner owns every in-flight saga instance and routes participant
// events to them by correlation id. It is the single dispatch point for
// asynchronous saga progress.
type Runner struct {
	logger *zap.Logger

	mu        sync.RWMutex
	instances map[string]*Instance
}

func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger:    logger,
		instances: make(map[string]*Instance),
	}
}

// Start registers a new instance of def and performs its synchronous
// leading steps. It returns once the first remote command has been
// issued (or the instance already settled); the returned future
// resolves when the instance reaches a terminal phase.
func (r *Runner) Start(ctx context.Context, def Definition) (*Future, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	inst := newInstance(uuid.NewString(), def, r.logger)

	r.mu.Lock()
	r.instances[inst.id] = inst
	r.mu.Unlock()

	r.logger.Info("saga started",
		zap.String("saga", def.Name),
		zap.String("correlation_id", inst.id),
	)
	if inst.start(ctx) {
		r.remove(inst.id)
	}
	return inst.future, nil
}

// Dispatch routes one decoded participant event. Unknown correlation
// ids are normal traffic (already-completed sagas, unrelated events on
// a shared topic) and are dropped. Dispatch is safe for concurrent use
// from multiple consumer goroutines: events for distinct instances run
// in parallel, events for one instance serialize on its lock.
func (r *Runner) Dispatch(ctx context.Context, ev Event) {
	r.mu.RLock()
	inst := r.instances[ev.CorrelationID]
	r.mu.RUnlock()

	if inst == nil {
		r.logger.Debug("event dropped: no registered instance",
			zap.String("correlation_id", ev.CorrelationID),
			zap.String("step", ev.Step),
		)
		return
	}
	if inst.handleEvent(ctx, ev) {
		r.remove(inst.id)
	}
}

func (r *Runner) remove(id string) {
	r.mu.Lock()
	delete(r.instances, id)
	r.mu.Unlock()
}

// Len reports the number of registered (in-flight) instances.
func (r *Runner) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

package order

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"order-saga/internal/wire"
)

type Service struct {
	store  Store
	cache  *StatusCache
	logger *zap.Logger
}

// NewService wires the order lifecycle. cache may be nil; state changes
// are mirrored into it when present.
func NewService(store Store, cache *StatusCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// Create persists a new order in CREATED state and returns it with its
// assigned id.
func (s *Service) Create(ctx context.Context, userID int64, lines []wire.Line) (*Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user id is required")
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("order requires at least one line")
	}
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 || l.Price < 0 {
			return nil, fmt.Errorf("invalid order line for product %d", l.ProductID)
		}
	}

	o := &Order{UserID: userID, State: StateCreated, Lines: lines}
	if err := s.store.Insert(ctx, o); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	s.cache.Set(ctx, o.ID, o.State)
	s.logger.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("user_id", userID),
		zap.Int64("total", o.Total()))
	return o, nil
}

// MarkInProgress moves a created order into fulfillment. It is the
// final local step of the create-order saga.
func (s *Service) MarkInProgress(ctx context.Context, id int64) error {
	return s.setState(ctx, id, StateInProgress)
}

// Complete marks an in-progress order fulfilled.
func (s *Service) Complete(ctx context.Context, id int64) error {
	return s.setState(ctx, id, StateCompleted)
}

// Reject compensates order creation.
func (s *Service) Reject(ctx context.Context, id int64) error {
	return s.setState(ctx, id, StateRejected)
}

func (s *Service) setState(ctx context.Context, id int64, to State) error {
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find order %d: %w", id, err)
	}
	if !CanTransition(o.State, to) {
		return fmt.Errorf("%w: order %d %s -> %s", ErrInvalidTransition, id, o.State, to)
	}
	if err := s.store.UpdateState(ctx, id, o.State, to); err != nil {
		return fmt.Errorf("update order %d: %w", id, err)
	}
	s.cache.Set(ctx, id, to)
	s.logger.Info("order state changed",
		zap.Int64("order_id", id),
		zap.String("from", string(o.State)),
		zap.String("to", string(to)))
	return nil
}

// Status answers from the cache when it can and repopulates it from
// the store when it cannot.
func (s *Service) Status(ctx context.Context, id int64) (State, error) {
	if st, ok := s.cache.Get(ctx, id); ok {
		return st, nil
	}
	o, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	s.cache.Set(ctx, id, o.State)
	return o.State, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Order, error) {
	return s.store.ListByUser(ctx, userID)
}

// Package order holds the order aggregate, its lifecycle service, and
// the create-order saga that coordinates inventory and customer balance
// across the broker.
package order

import (
	"context"
	"errors"

	"order-saga/internal/wire"
)

var ErrInvalidTransition = errors.New("invalid order state transition")

type Order struct {
	ID     int64       `json:"id"`
	UserID int64       `json:"user_id"`
	State  State       `json:"state"`
	Lines  []wire.Line `json:"lines"`
}

// Total is the order price in cents.
func (o *Order) Total() int64 {
	return wire.Total(o.Lines)
}

type Store interface {
	// Insert persists a new order and assigns its ID.
	Insert(ctx context.Context, o *Order) error

	// UpdateState moves an order from one state to another. It returns
	// store.ErrNotFound when no order is in the expected state, so
	// concurrent transitions cannot both win.
	UpdateState(ctx context.Context, id int64, from, to State) error

	FindByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
}

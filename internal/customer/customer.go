// Package customer is the balance participant: customer accounts and
// the per-order balance holds the create-order saga drives through
// reserve, submit and release commands.
package customer

import (
	"context"
	"errors"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// Customer is an account with a cents balance.
type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// Store keeps balances and the hold ledger. A hold is keyed
// (customerID, orderID), so reserving twice for the same order
// surfaces as store.ErrAlreadyExists instead of holding funds twice.
type Store interface {
	InsertCustomer(ctx context.Context, c *Customer) error
	FindCustomer(ctx context.Context, id int64) (*Customer, error)
	AddBalance(ctx context.Context, customerID, amount int64) error

	// Reserve places a hold. Fails with ErrInsufficientBalance when the
	// available balance (balance minus existing holds) is short.
	Reserve(ctx context.Context, customerID, orderID, amount int64) error

	// Submit converts the order's hold into a permanent decrement.
	// store.ErrNotFound when the order holds nothing.
	Submit(ctx context.Context, customerID, orderID int64) error

	// Release drops the order's hold. store.ErrNotFound when the order
	// holds nothing.
	Release(ctx context.Context, customerID, orderID int64) error
}

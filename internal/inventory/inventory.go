// Package inventory is the inventory participant: products, their
// stock counts, and the per-order reservation ledger the create-order
// saga drives through reserve, submit and release commands.
package inventory

import (
	"context"
	"errors"

	"order-saga/internal/wire"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type Product struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Inventory int    `json:"inventory"`
}

// Store is the reservation ledger. Reserve, Submit and Release each
// cover every line of an order atomically; a reservation is keyed
// (productID, orderID) so a duplicate reserve surfaces as
// store.ErrAlreadyExists instead of holding stock twice.
type Store interface {
	InsertProduct(ctx context.Context, p *Product) error
	FindProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	AddInventory(ctx context.Context, productID int64, quantity int) error

	// Reserve places a hold for every line. Fails with
	// ErrInsufficientStock when any line exceeds the available count
	// (inventory minus existing holds), leaving no partial holds.
	Reserve(ctx context.Context, orderID, userID int64, lines []wire.Line) error

	// Submit turns the order's holds into permanent decrements.
	// store.ErrNotFound when the order holds nothing.
	Submit(ctx context.Context, orderID int64) error

	// Release drops the order's holds. store.ErrNotFound when the order
	// holds nothing.
	Release(ctx context.Context, orderID int64) error
}

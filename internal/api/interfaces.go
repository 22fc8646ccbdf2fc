package api

import (
	"context"

	"order-saga/internal/customer"
	"order-saga/internal/inventory"
	"order-saga/internal/order"
	"order-saga/internal/wire"
)

// OrderCreator runs the create-order saga to completion.
type OrderCreator interface {
	CreateOrder(ctx context.Context, userID int64, lines []wire.Line) (int64, error)
}

type Orders interface {
	Get(ctx context.Context, id int64) (*order.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*order.Order, error)
	Status(ctx context.Context, id int64) (order.State, error)
	Complete(ctx context.Context, id int64) error
}

type Products interface {
	CreateProduct(ctx context.Context, name string, price int64, inventory int) (*inventory.Product, error)
	GetProduct(ctx context.Context, id int64) (*inventory.Product, error)
	ListProducts(ctx context.Context) ([]*inventory.Product, error)
	AddInventory(ctx context.Context, productID int64, quantity int) error
}

type Customers interface {
	CreateCustomer(ctx context.Context, name string, balance int64) (*customer.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*customer.Customer, error)
	AddBalance(ctx context.Context, customerID, amount int64) error
}

package api

import "order-saga/internal/wire"

const (
	ErrInvalidJSON  = "invalid_json"
	ErrInvalidID    = "invalid_id"
	ErrMissingUser  = "missing_user_id"
	ErrMissingLines = "missing_lines"
	ErrNotFound     = "not_found"
	ErrConflict     = "conflict"
	ErrRejected     = "order_rejected"
	ErrTimeout      = "saga_timeout"
	ErrInternal     = "internal_error"
)

type CreateOrderRequest struct {
	UserID int64       `json:"user_id"`
	Lines  []wire.Line `json:"lines"`
}

type OrderStatusResponse struct {
	OrderID int64  `json:"order_id"`
	State   string `json:"state"`
}

type CreateProductRequest struct {
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Inventory int    `json:"inventory"`
}

type AddInventoryRequest struct {
	Quantity int `json:"quantity"`
}

type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

type AddBalanceRequest struct {
	Amount int64 `json:"amount"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

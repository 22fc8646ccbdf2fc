package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-saga/internal/customer"
	"order-saga/internal/store"
)

const customersSchema = `
CREATE TABLE IF NOT EXISTS customers (
    id      BIGSERIAL PRIMARY KEY,
    name    TEXT   NOT NULL,
    balance BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS reserved_balances (
    customer_id BIGINT NOT NULL REFERENCES customers (id),
    order_id    BIGINT NOT NULL,
    amount      BIGINT NOT NULL,
    PRIMARY KEY (customer_id, order_id)
);
CREATE INDEX IF NOT EXISTS reserved_balances_order_id_idx ON reserved_balances (order_id);
`

type CustomerStore struct {
	pool *pgxpool.Pool
}

func NewCustomerStore(pool *pgxpool.Pool) *CustomerStore {
	return &CustomerStore{pool: pool}
}

func (s *CustomerStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, customersSchema); err != nil {
		return fmt.Errorf("ensure customers schema: %w", err)
	}
	return nil
}

func (s *CustomerStore) InsertCustomer(ctx context.Context, c *customer.Customer) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO customers (name, balance) VALUES ($1, $2) RETURNING id`,
		c.Name, c.Balance).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (s *CustomerStore) FindCustomer(ctx context.Context, id int64) (*customer.Customer, error) {
	var c customer.Customer
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, balance FROM customers WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &c, nil
}

func (s *CustomerStore) AddBalance(ctx context.Context, customerID, amount int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE customers SET balance = balance + $1 WHERE id = $2`,
		amount, customerID)
	if err != nil {
		return fmt.Errorf("add balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", customerID, store.ErrNotFound)
	}
	return nil
}

// Reserve locks the customer row before checking the available balance
// so two orders cannot both hold the same funds.
func (s *CustomerStore) Reserve(ctx context.Context, customerID, orderID, amount int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reserve: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM customers WHERE id = $1 FOR UPDATE`,
		customerID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("customer %d: %w", customerID, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock customer: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reserved_balances WHERE customer_id = $1 AND order_id = $2)`,
		customerID, orderID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check hold: %w", err)
	}
	if exists {
		return fmt.Errorf("order %d: %w", orderID, store.ErrAlreadyExists)
	}

	var held int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM reserved_balances WHERE customer_id = $1`,
		customerID).Scan(&held)
	if err != nil {
		return fmt.Errorf("sum holds: %w", err)
	}
	if amount > balance-held {
		return fmt.Errorf("%w: customer %d", customer.ErrInsufficientBalance, customerID)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO reserved_balances (customer_id, order_id, amount) VALUES ($1, $2, $3)`,
		customerID, orderID, amount)
	if isUniqueViolation(err) {
		return fmt.Errorf("order %d: %w", orderID, store.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert hold: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reserve: %w", err)
	}
	return nil
}

func (s *CustomerStore) Submit(ctx context.Context, customerID, orderID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback(ctx)

	var amount int64
	err = tx.QueryRow(ctx,
		`SELECT amount FROM reserved_balances WHERE customer_id = $1 AND order_id = $2 FOR UPDATE`,
		customerID, orderID).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("order %d holds nothing: %w", orderID, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load hold: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE customers SET balance = balance - $1 WHERE id = $2`,
		amount, customerID); err != nil {
		return fmt.Errorf("decrement balance: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM reserved_balances WHERE customer_id = $1 AND order_id = $2`,
		customerID, orderID); err != nil {
		return fmt.Errorf("drop hold: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit submit: %w", err)
	}
	return nil
}

func (s *CustomerStore) Release(ctx context.Context, customerID, orderID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM reserved_balances WHERE customer_id = $1 AND order_id = $2`,
		customerID, orderID)
	if err != nil {
		return fmt.Errorf("release hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d holds nothing: %w", orderID, store.ErrNotFound)
	}
	return nil
}

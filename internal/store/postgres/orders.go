package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-saga/internal/order"
	"order-saga/internal/store"
)

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
    id      BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    state   TEXT   NOT NULL,
    lines   JSONB  NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id);
`

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

func (s *OrderStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, ordersSchema); err != nil {
		return fmt.Errorf("ensure orders schema: %w", err)
	}
	return nil
}

func (s *OrderStore) Insert(ctx context.Context, o *order.Order) error {
	lines, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshal order lines: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO orders (user_id, state, lines) VALUES ($1, $2, $3) RETURNING id`,
		o.UserID, string(o.State), lines).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *OrderStore) UpdateState(ctx context.Context, id int64, from, to order.State) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE orders SET state = $1 WHERE id = $2 AND state = $3`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update order state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d in state %s: %w", id, from, store.ErrNotFound)
	}
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	var (
		o     order.Order
		state string
		lines []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, state, lines FROM orders WHERE id = $1`,
		id).Scan(&o.ID, &o.UserID, &state, &lines)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	o.State = order.State(state)
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}
	return &o, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, state, lines FROM orders WHERE user_id = $1 ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		var (
			o     order.Order
			state string
			lines []byte
		)
		if err := rows.Scan(&o.ID, &o.UserID, &state, &lines); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.State = order.State(state)
		if err := json.Unmarshal(lines, &o.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal order lines: %w", err)
		}
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

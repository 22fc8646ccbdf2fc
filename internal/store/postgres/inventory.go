package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-saga/internal/inventory"
	"order-saga/internal/store"
	"order-saga/internal/wire"
)

const inventorySchema = `
CREATE TABLE IF NOT EXISTS products (
    id        BIGSERIAL PRIMARY KEY,
    name      TEXT   NOT NULL,
    price     BIGINT NOT NULL,
    inventory INT    NOT NULL
);
CREATE TABLE IF NOT EXISTS reserved_products (
    product_id BIGINT NOT NULL REFERENCES products (id),
    order_id   BIGINT NOT NULL,
    user_id    BIGINT NOT NULL,
    quantity   INT    NOT NULL,
    PRIMARY KEY (product_id, order_id)
);
CREATE INDEX IF NOT EXISTS reserved_products_order_id_idx ON reserved_products (order_id);
`

type InventoryStore struct {
	pool *pgxpool.Pool
}

func NewInventoryStore(pool *pgxpool.Pool) *InventoryStore {
	return &InventoryStore{pool: pool}
}

func (s *InventoryStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, inventorySchema); err != nil {
		return fmt.Errorf("ensure inventory schema: %w", err)
	}
	return nil
}

func (s *InventoryStore) InsertProduct(ctx context.Context, p *inventory.Product) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, inventory) VALUES ($1, $2, $3) RETURNING id`,
		p.Name, p.Price, p.Inventory).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *InventoryStore) FindProduct(ctx context.Context, id int64) (*inventory.Product, error) {
	var p inventory.Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, price, inventory FROM products WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.Price, &p.Inventory)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &p, nil
}

func (s *InventoryStore) ListProducts(ctx context.Context) ([]*inventory.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, price, inventory FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*inventory.Product
	for rows.Next() {
		var p inventory.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Inventory); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *InventoryStore) AddInventory(ctx context.Context, productID int64, quantity int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET inventory = inventory + $1 WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("add inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
	}
	return nil
}

// Reserve holds every line inside one transaction. Product rows are
// locked before the availability check so two orders cannot both hold
// the last unit.
func (s *InventoryStore) Reserve(ctx context.Context, orderID, userID int64, lines []wire.Line) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reserve: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reserved_products WHERE order_id = $1)`,
		orderID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check reservation: %w", err)
	}
	if exists {
		return fmt.Errorf("order %d: %w", orderID, store.ErrAlreadyExists)
	}

	wanted := make(map[int64]int)
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := wanted[l.ProductID]; !ok {
			ids = append(ids, l.ProductID)
		}
		wanted[l.ProductID] += l.Quantity
	}

	for _, productID := range ids {
		qty := wanted[productID]
		var stock int
		err = tx.QueryRow(ctx,
			`SELECT inventory FROM products WHERE id = $1 FOR UPDATE`,
			productID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}

		var held int
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(quantity), 0) FROM reserved_products WHERE product_id = $1`,
			productID).Scan(&held)
		if err != nil {
			return fmt.Errorf("sum holds: %w", err)
		}
		if qty > stock-held {
			return fmt.Errorf("%w: product %d", inventory.ErrInsufficientStock, productID)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO reserved_products (product_id, order_id, user_id, quantity) VALUES ($1, $2, $3, $4)`,
			productID, orderID, userID, qty)
		if isUniqueViolation(err) {
			return fmt.Errorf("order %d: %w", orderID, store.ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("insert hold: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reserve: %w", err)
	}
	return nil
}

func (s *InventoryStore) Submit(ctx context.Context, orderID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT product_id, quantity FROM reserved_products WHERE order_id = $1 FOR UPDATE`,
		orderID)
	if err != nil {
		return fmt.Errorf("load holds: %w", err)
	}
	holds := make(map[int64]int)
	for rows.Next() {
		var (
			productID int64
			qty       int
		)
		if err := rows.Scan(&productID, &qty); err != nil {
			rows.Close()
			return fmt.Errorf("scan hold: %w", err)
		}
		holds[productID] = qty
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load holds: %w", err)
	}
	if len(holds) == 0 {
		return fmt.Errorf("order %d holds nothing: %w", orderID, store.ErrNotFound)
	}

	for productID, qty := range holds {
		if _, err := tx.Exec(ctx,
			`UPDATE products SET inventory = inventory - $1 WHERE id = $2`,
			qty, productID); err != nil {
			return fmt.Errorf("decrement inventory: %w", err)
		}
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM reserved_products WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("drop holds: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit submit: %w", err)
	}
	return nil
}

func (s *InventoryStore) Release(ctx context.Context, orderID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM reserved_products WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("release holds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d holds nothing: %w", orderID, store.ErrNotFound)
	}
	return nil
}

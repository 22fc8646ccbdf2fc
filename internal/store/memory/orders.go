// Package memory holds mutex-guarded in-memory stores. They back the
// unit tests and the in-process scenario suite, and keep the same
// sentinel-error contract as the postgres stores.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"order-saga/internal/order"
	"order-saga/internal/store"
)

type OrderStore struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]order.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[int64]order.Order)}
}

func (s *OrderStore) Insert(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (s *OrderStore) UpdateState(ctx context.Context, id int64, from, to order.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.State != from {
		return fmt.Errorf("order %d in state %s: %w", id, from, store.ErrNotFound)
	}
	o.State = to
	s.orders[id] = o
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	out := cloneOrder(o)
	return &out, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID int64) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*order.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			c := cloneOrder(o)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneOrder(o order.Order) order.Order {
	o.Lines = append(o.Lines[:0:0], o.Lines...)
	return o
}

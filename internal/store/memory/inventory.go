package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"order-saga/internal/inventory"
	"order-saga/internal/store"
	"order-saga/internal/wire"
)

type stockHoldKey struct {
	productID int64
	orderID   int64
}

type InventoryStore struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]inventory.Product
	holds    map[stockHoldKey]int
}

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		products: make(map[int64]inventory.Product),
		holds:    make(map[stockHoldKey]int),
	}
}

func (s *InventoryStore) InsertProduct(ctx context.Context, p *inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.products[p.ID] = *p
	return nil
}

func (s *InventoryStore) FindProduct(ctx context.Context, id int64) (*inventory.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (s *InventoryStore) ListProducts(ctx context.Context) ([]*inventory.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*inventory.Product, 0, len(s.products))
	for _, p := range s.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InventoryStore) AddInventory(ctx context.Context, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
	}
	p.Inventory += quantity
	s.products[productID] = p
	return nil
}

func (s *InventoryStore) Reserve(ctx context.Context, orderID, userID int64, lines []wire.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.holds {
		if key.orderID == orderID {
			return fmt.Errorf("order %d: %w", orderID, store.ErrAlreadyExists)
		}
	}

	// Validate every line before writing any hold.
	wanted := make(map[int64]int)
	for _, l := range lines {
		wanted[l.ProductID] += l.Quantity
	}
	for productID, qty := range wanted {
		p, ok := s.products[productID]
		if !ok {
			return fmt.Errorf("product %d: %w", productID, store.ErrNotFound)
		}
		if qty > p.Inventory-s.heldLocked(productID) {
			return fmt.Errorf("%w: product %d", inventory.ErrInsufficientStock, productID)
		}
	}
	for productID, qty := range wanted {
		s.holds[stockHoldKey{productID: productID, orderID: orderID}] = qty
	}
	return nil
}

func (s *InventoryStore) Submit(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for key, qty := range s.holds {
		if key.orderID != orderID {
			continue
		}
		found = true
		p := s.products[key.productID]
		p.Inventory -= qty
		s.products[key.productID] = p
		delete(s.holds, key)
	}
	if !found {
		return fmt.Errorf("order %d holds nothing: %w", orderID, store.ErrNotFound)
	}
	return nil
}

func (s *InventoryStore) Release(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for key := range s.holds {
		if key.orderID == orderID {
			found = true
			delete(s.holds, key)
		}
	}
	if !found {
		return fmt.Errorf("order %d holds nothing: %w", orderID, store.ErrNotFound)
	}
	return nil
}

// heldLocked sums the holds against a product. Callers hold s.mu.
func (s *InventoryStore) heldLocked(productID int64) int {
	held := 0
	for key, qty := range s.holds {
		if key.productID == productID {
			held += qty
		}
	}
	return held
}

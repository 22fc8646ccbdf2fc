package memory

import (
	"context"
	"fmt"
	"sync"

	"order-saga/internal/customer"
	"order-saga/internal/store"
)

type balanceHoldKey struct {
	customerID int64
	orderID    int64
}

type CustomerStore struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]customer.Customer
	holds     map[balanceHoldKey]int64
}

func NewCustomerStore() *CustomerStore {
	return &CustomerStore{
		customers: make(map[int64]customer.Customer),
		holds:     make(map[balanceHoldKey]int64),
	}
}

func (s *CustomerStore) InsertCustomer(ctx context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.customers[c.ID] = *c
	return nil
}

func (s *CustomerStore) FindCustomer(ctx context.Context, id int64) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	return &c, nil
}

func (s *CustomerStore) AddBalance(ctx context.Context, customerID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return fmt.Errorf("customer %d: %w", customerID, store.ErrNotFound)
	}
	c.Balance += amount
	s.customers[customerID] = c
	return nil
}

func (s *CustomerStore) Reserve(ctx context.Context, customerID, orderID, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[customerID]
	if !ok {
		return fmt.Errorf("customer %d: %w", customerID, store.ErrNotFound)
	}
	key := balanceHoldKey{customerID: customerID, orderID: orderID}
	if _, exists := s.holds[key]; exists {
		return fmt.Errorf("order %d: %w", orderID, store.ErrAlreadyExists)
	}
	if amount > c.Balance-s.heldLocked(customerID) {
		return fmt.Errorf("%w: customer %d", customer.ErrInsufficientBalance, customerID)
	}
	s.holds[key] = amount
	return nil
}

func (s *CustomerStore) Submit(ctx context.Context, customerID, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := balanceHoldKey{customerID: customerID, orderID: orderID}
	amount, ok := s.holds[key]
	if !ok {
		return fmt.Errorf("order %d holds nothing: %w", orderID, store.ErrNotFound)
	}
	c := s.customers[customerID]
	c.Balance -= amount
	s.customers[customerID] = c
	delete(s.holds, key)
	return nil
}

func (s *CustomerStore) Release(ctx context.Context, customerID, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := balanceHoldKey{customerID: customerID, orderID: orderID}
	if _, ok := s.holds[key]; !ok {
		return fmt.Errorf("order %d holds nothing: %w", orderID, store.ErrNotFound)
	}
	delete(s.holds, key)
	return nil
}

// heldLocked sums the holds against a customer. Callers hold s.mu.
func (s *CustomerStore) heldLocked(customerID int64) int64 {
	var held int64
	for key, amount := range s.holds {
		if key.customerID == customerID {
			held += amount
		}
	}
	return held
}

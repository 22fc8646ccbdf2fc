package memory

import (
	"context"
	"errors"
	"testing"

	"order-saga/internal/customer"
	"order-saga/internal/store"
)

func seedCustomer(t *testing.T, s *CustomerStore, balance int64) *customer.Customer {
	t.Helper()
	c := &customer.Customer{Name: "alice", Balance: balance}
	if err := s.InsertCustomer(context.Background(), c); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	return c
}

func TestCustomerReserveSubmit(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	c := seedCustomer(t, s, 1000)

	if err := s.Reserve(ctx, c.ID, 1, 400); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	got, _ := s.FindCustomer(ctx, c.ID)
	if got.Balance != 1000 {
		t.Fatalf("balance = %d before submit", got.Balance)
	}

	if err := s.Submit(ctx, c.ID, 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, _ = s.FindCustomer(ctx, c.ID)
	if got.Balance != 600 {
		t.Fatalf("balance = %d after submit", got.Balance)
	}
	if err := s.Submit(ctx, c.ID, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second submit err = %v, want ErrNotFound", err)
	}
}

func TestCustomerReserveCountsHolds(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	c := seedCustomer(t, s, 1000)

	if err := s.Reserve(ctx, c.ID, 1, 700); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	err := s.Reserve(ctx, c.ID, 2, 400)
	if !errors.Is(err, customer.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	if err := s.Release(ctx, c.ID, 1); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := s.Reserve(ctx, c.ID, 2, 400); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
}

func TestCustomerReserveDuplicateOrder(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	c := seedCustomer(t, s, 1000)

	if err := s.Reserve(ctx, c.ID, 1, 100); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := s.Reserve(ctx, c.ID, 1, 100); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestCustomerReleaseMissing(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	c := seedCustomer(t, s, 1000)
	if err := s.Release(ctx, c.ID, 99); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCustomerAddBalance(t *testing.T) {
	s := NewCustomerStore()
	ctx := context.Background()
	c := seedCustomer(t, s, 100)

	if err := s.AddBalance(ctx, c.ID, 50); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, _ := s.FindCustomer(ctx, c.ID)
	if got.Balance != 150 {
		t.Fatalf("balance = %d", got.Balance)
	}
	if err := s.AddBalance(ctx, 99, 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.FindCustomer(ctx, 99); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

package customer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) CreateCustomer(ctx context.Context, name string, balance int64) (*Customer, error) {
	if name == "" {
		return nil, fmt.Errorf("customer name is required")
	}
	if balance < 0 {
		return nil, fmt.Errorf("balance must not be negative")
	}
	c := &Customer{Name: name, Balance: balance}
	if err := s.store.InsertCustomer(ctx, c); err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	s.logger.Info("customer created", zap.Int64("customer_id", c.ID), zap.String("name", name))
	return c, nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return s.store.FindCustomer(ctx, id)
}

func (s *Service) AddBalance(ctx context.Context, customerID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if err := s.store.AddBalance(ctx, customerID, amount); err != nil {
		return fmt.Errorf("add balance: %w", err)
	}
	s.logger.Info("balance added", zap.Int64("customer_id", customerID), zap.Int64("amount", amount))
	return nil
}

func (s *Service) Reserve(ctx context.Context, customerID, orderID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return s.store.Reserve(ctx, customerID, orderID, amount)
}

func (s *Service) Submit(ctx context.Context, customerID, orderID int64) error {
	return s.store.Submit(ctx, customerID, orderID)
}

func (s *Service) Release(ctx context.Context, customerID, orderID int64) error {
	return s.store.Release(ctx, customerID, orderID)
}

package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"order-saga/internal/wire"
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

func (s *Service) CreateProduct(ctx context.Context, name string, price int64, inventory int) (*Product, error) {
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if price < 0 || inventory < 0 {
		return nil, fmt.Errorf("product price and inventory must not be negative")
	}
	p := &Product{Name: name, Price: price, Inventory: inventory}
	if err := s.store.InsertProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	s.logger.Info("product created", zap.Int64("product_id", p.ID), zap.String("name", name))
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.store.FindProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.store.ListProducts(ctx)
}

func (s *Service) AddInventory(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if err := s.store.AddInventory(ctx, productID, quantity); err != nil {
		return fmt.Errorf("add inventory: %w", err)
	}
	s.logger.Info("inventory added", zap.Int64("product_id", productID), zap.Int("quantity", quantity))
	return nil
}

func (s *Service) Reserve(ctx context.Context, orderID, userID int64, lines []wire.Line) error {
	if len(lines) == 0 {
		return fmt.Errorf("reserve requires at least one line")
	}
	return s.store.Reserve(ctx, orderID, userID, lines)
}

func (s *Service) Submit(ctx context.Context, orderID int64) error {
	return s.store.Submit(ctx, orderID)
}

func (s *Service) Release(ctx context.Context, orderID int64) error {
	return s.store.Release(ctx, orderID)
}

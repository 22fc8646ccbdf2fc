package order

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"order-saga/internal/bus"
	"order-saga/internal/saga"
	"order-saga/internal/wire"
)

const SagaName = "create-order"

// Step names. Participant events are tagged with these, so they are
// part of the wire contract.
const (
	StepCreateOrder      = "CREATE_ORDER"
	StepReserveInventory = "RESERVE_INVENTORY"
	StepReserveBalance   = "RESERVE_BALANCE"
	StepSubmitInventory  = "SUBMIT_RESERVED_INVENTORY"
	StepSubmitBalance    = "SUBMIT_RESERVED_BALANCE"
	StepCompleteOrder    = "COMPLETE_ORDER_CREATION"
)

// CommandTopics names the outbound participant topics.
type CommandTopics struct {
	Inventory string
	Customer  string
}

// Coordinator owns the create-order saga: it builds the per-request
// definition, starts instances on the shared runner, and publishes the
// participant commands the forward and compensation actions emit.
type Coordinator struct {
	runner  *saga.Runner
	service *Service
	bus     bus.Bus
	topics  CommandTopics
	logger  *zap.Logger
}

func NewCoordinator(runner *saga.Runner, service *Service, b bus.Bus, topics CommandTopics, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		runner:  runner,
		service: service,
		bus:     b,
		topics:  topics,
		logger:  logger,
	}
}

// CreateOrder runs the saga to completion and returns the created order
// id. A FAILED outcome returns the first forward failure as the error;
// by then the order row, if one was created, is REJECTED.
func (c *Coordinator) CreateOrder(ctx context.Context, userID int64, lines []wire.Line) (int64, error) {
	fut, err := c.runner.Start(ctx, c.definition(userID, lines))
	if err != nil {
		return 0, err
	}
	v, err := fut.Wait(ctx)
	if err != nil {
		return 0, err
	}
	orderID, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("saga resolved without an order id")
	}
	return orderID, nil
}

func (c *Coordinator) definition(userID int64, lines []wire.Line) saga.Definition {
	// Step 0 assigns the order id; every later closure reads it.
	var orderID int64
	amount := wire.Total(lines)

	return saga.Definition{
		Name: SagaName,
		Steps: []saga.Step{
			{
				Name: StepCreateOrder,
				Forward: func(ctx context.Context, ex *saga.Execution) error {
					o, err := c.service.Create(ctx, userID, lines)
					if err != nil {
						return err
					}
					orderID = o.ID
					ex.SetToken(strconv.FormatInt(orderID, 10))
					ex.SetResult(orderID)
					return nil
				},
				Compensate: func(ctx context.Context, ex *saga.Execution) error {
					return c.service.Reject(ctx, orderID)
				},
				Compensatable: true,
			},
			{
				Name: StepReserveInventory,
				Forward: func(ctx context.Context, ex *saga.Execution) error {
					return c.publish(ctx, c.topics.Inventory, wire.Envelope{
						Kind:          wire.KindReserveInventory,
						CorrelationID: ex.CorrelationID(),
						OrderID:       orderID,
						UserID:        userID,
						Lines:         lines,
					})
				},
				Compensate: func(ctx context.Context, ex *saga.Execution) error {
					return c.publish(ctx, c.topics.Inventory, wire.Envelope{
						Kind:          wire.KindReleaseInventory,
						CorrelationID: ex.CorrelationID(),
						OrderID:       orderID,
						UserID:        userID,
					})
				},
				Compensatable: true,
				Remote:        true,
			},
			{
				Name: StepReserveBalance,
				Forward: func(ctx context.Context, ex *saga.Execution) error {
					return c.publish(ctx, c.topics.Customer, wire.Envelope{
						Kind:          wire.KindReserveBalance,
						CorrelationID: ex.CorrelationID(),
						OrderID:       orderID,
						UserID:        userID,
						Amount:        amount,
					})
				},
				Compensate: func(ctx context.Context, ex *saga.Execution) error {
					return c.publish(ctx, c.topics.Customer, wire.Envelope{
						Kind:          wire.KindReleaseBalance,
						CorrelationID: ex.CorrelationID(),
						OrderID:       orderID,
						UserID:        userID,
					})
				},
				Compensatable: true,
				Remote:        true,
			},
			{
				Name: StepSubmitInventory,
				Forward: func(ctx context.Context, ex *saga.Execution) error {
					return c.publish(ctx, c.topics.Inventory, wire.Envelope{
						Kind:          wire.KindSubmitInventory,
						CorrelationID: ex.CorrelationID(),
						OrderID:       orderID,
						UserID:        userID,
					})
				},
				Remote:     true,
				Unfailable: true,
			},
			{
				Name: StepSubmitBalance,
				Forward: func(ctx context.Context, ex *saga.Execution) error {
					return c.publish(ctx, c.topics.Customer, wire.Envelope{
						Kind:          wire.KindSubmitBalance,
						CorrelationID: ex.CorrelationID(),
						OrderID:       orderID,
						UserID:        userID,
					})
				},
				Remote:     true,
				Unfailable: true,
			},
			{
				Name: StepCompleteOrder,
				Forward: func(ctx context.Context, ex *saga.Execution) error {
					return c.service.MarkInProgress(ctx, orderID)
				},
			},
		},
	}
}

func (c *Coordinator) publish(ctx context.Context, topic string, env wire.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Kind, err)
	}
	if err := c.bus.Publish(ctx, topic, strconv.FormatInt(env.OrderID, 10), data); err != nil {
		return fmt.Errorf("publish %s: %w", env.Kind, err)
	}
	c.logger.Debug("command published",
		zap.String("kind", env.Kind),
		zap.String("topic", topic),
		zap.Int64("order_id", env.OrderID))
	return nil
}

package customer

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"order-saga/internal/bus"
	"order-saga/internal/idempotency"
	"order-saga/internal/wire"
)

// Consumer executes balance commands and answers each with exactly one
// terminal event on the events topic, mirroring the inventory
// participant.
type Consumer struct {
	service     *Service
	bus         bus.Bus
	eventsTopic string
	logger      *zap.Logger
}

func NewConsumer(service *Service, b bus.Bus, eventsTopic string, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{service: service, bus: b, eventsTopic: eventsTopic, logger: logger}
}

func (c *Consumer) Subscribe(b bus.Bus, commandsTopic string) {
	b.Subscribe(commandsTopic, c.Handle)
}

func (c *Consumer) Handle(ctx context.Context, msg bus.Message) {
	env, err := wire.Decode(msg.Value)
	if err != nil {
		c.logger.Warn("dropping malformed command", zap.Error(err))
		return
	}

	var reply wire.Envelope
	switch env.Kind {
	case wire.KindReserveBalance:
		err := c.service.Reserve(ctx, env.UserID, env.OrderID, env.Amount)
		reply = c.reply(env, wire.KindReserveBalanceSuccess, wire.KindReserveBalanceFailed, err,
			idempotency.ApplyDuplicate)
	case wire.KindSubmitBalance:
		err := c.service.Submit(ctx, env.UserID, env.OrderID)
		reply = c.reply(env, wire.KindSubmitBalanceSuccess, wire.KindSubmitBalanceFailed, err,
			idempotency.ApplyDuplicate)
	case wire.KindReleaseBalance:
		err := c.service.Release(ctx, env.UserID, env.OrderID)
		reply = c.reply(env, wire.KindReleaseBalanceSuccess, wire.KindReleaseBalanceFailed, err,
			idempotency.ApplyDuplicate, idempotency.ApplyMissing)
	default:
		c.logger.Warn("dropping unrecognized command kind", zap.String("kind", env.Kind))
		return
	}

	c.publish(ctx, reply)
}

func (c *Consumer) reply(cmd wire.Envelope, successKind, failedKind string, err error, absorb ...idempotency.ApplyDecision) wire.Envelope {
	ev := wire.Envelope{
		CorrelationID: cmd.CorrelationID,
		OrderID:       cmd.OrderID,
	}

	decision := idempotency.DecideApply(err)
	ok := decision == idempotency.ApplyOK
	for _, d := range absorb {
		if decision == d {
			ok = true
			c.logger.Info("command absorbed as duplicate",
				zap.String("kind", cmd.Kind),
				zap.Int64("order_id", cmd.OrderID))
		}
	}

	if ok {
		ev.Kind = successKind
		return ev
	}
	ev.Kind = failedKind
	ev.Error = err.Error()
	c.logger.Warn("command failed",
		zap.String("kind", cmd.Kind),
		zap.Int64("order_id", cmd.OrderID),
		zap.Error(err))
	return ev
}

func (c *Consumer) publish(ctx context.Context, ev wire.Envelope) {
	data, err := ev.Encode()
	if err != nil {
		c.logger.Error("encode event", zap.String("kind", ev.Kind), zap.Error(err))
		return
	}
	if err := c.bus.Publish(ctx, c.eventsTopic, strconv.FormatInt(ev.OrderID, 10), data); err != nil {
		c.logger.Error("publish event", zap.String("kind", ev.Kind), zap.Error(err))
	}
}

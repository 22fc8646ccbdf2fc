package inventory

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"order-saga/internal/bus"
	"order-saga/internal/idempotency"
	"order-saga/internal/wire"
)

// Consumer executes inventory commands and answers each with exactly
// one terminal event on the events topic. Redelivered commands are
// absorbed by the idempotency classification: a duplicate reserve or a
// release of nothing repeats the success reply instead of re-applying.
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
	case wire.KindReserveInventory:
		err := c.service.Reserve(ctx, env.OrderID, env.UserID, env.Lines)
		reply = c.reply(env, wire.KindReserveInventorySuccess, wire.KindReserveInventoryFailed, err,
			idempotency.ApplyDuplicate)
	case wire.KindSubmitInventory:
		err := c.service.Submit(ctx, env.OrderID)
		reply = c.reply(env, wire.KindSubmitInventorySuccess, wire.KindSubmitInventoryFailed, err,
			idempotency.ApplyDuplicate)
	case wire.KindReleaseInventory:
		err := c.service.Release(ctx, env.OrderID)
		reply = c.reply(env, wire.KindReleaseInventorySuccess, wire.KindReleaseInventoryFailed, err,
			idempotency.ApplyDuplicate, idempotency.ApplyMissing)
	default:
		c.logger.Warn("dropping unrecognized command kind", zap.String("kind", env.Kind))
		return
	}

	c.publish(ctx, reply)
}

// reply builds the terminal event for a command outcome. Decisions in
// absorb count as success: the state the command asked for already
// holds.
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

package order

import (
	"context"

	"go.uber.org/zap"

	"order-saga/internal/bus"
	"order-saga/internal/saga"
	"order-saga/internal/wire"
)

// Consumer pumps participant events from the broker into the runner.
// Handle is the unit-testable core; Subscribe wires it onto the bus.
type Consumer struct {
	runner *saga.Runner
	logger *zap.Logger
}

func NewConsumer(runner *saga.Runner, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{runner: runner, logger: logger}
}

// Handle decodes one raw event message and dispatches it. Malformed or
// unrecognized traffic is logged and dropped; an event topic is shared
// ground and one bad message must not stall the pump.
func (c *Consumer) Handle(ctx context.Context, msg bus.Message) {
	env, err := wire.Decode(msg.Value)
	if err != nil {
		c.logger.Warn("dropping malformed event",
			zap.String("topic", msg.Topic),
			zap.Error(err))
		return
	}
	ev, ok := DecodeEvent(env)
	if !ok {
		c.logger.Warn("dropping unrecognized event kind",
			zap.String("topic", msg.Topic),
			zap.String("kind", env.Kind))
		return
	}
	c.runner.Dispatch(ctx, ev)
}

// Subscribe attaches the pump to every given event topic.
func (c *Consumer) Subscribe(b bus.Bus, topics ...string) {
	for _, topic := range topics {
		b.Subscribe(topic, c.Handle)
	}
}

package relay

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"order-saga/internal/bus"
	"order-saga/internal/rediskeys"
)

// Dispatcher is the pipeline sink: it counts delivered payloads and
// tracks the highest id seen. One dispatcher instance owns the max
// counter, so the read-then-set below does not race.
type Dispatcher struct {
	redis  redis.UniversalClient
	logger *zap.Logger
}

func NewDispatcher(redisClient redis.UniversalClient, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{redis: redisClient, logger: logger}
}

func (d *Dispatcher) Subscribe(b bus.Bus, topic string) {
	b.Subscribe(topic, d.Handle)
}

func (d *Dispatcher) Handle(ctx context.Context, msg bus.Message) {
	p, err := DecodePayload(msg.Value)
	if err != nil {
		d.logger.Warn("dropping malformed payload", zap.Error(err))
		return
	}

	if err := d.redis.Incr(ctx, rediskeys.RelayDispatchedKey).Err(); err != nil {
		d.logger.Error("dispatched counter failed", zap.Error(err))
	}

	max, err := d.redis.Get(ctx, rediskeys.RelayDispatchedMaxKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		d.logger.Error("dispatched max read failed", zap.Error(err))
		return
	}
	if p.ID > max {
		if err := d.redis.Set(ctx, rediskeys.RelayDispatchedMaxKey, p.ID, 0).Err(); err != nil {
			d.logger.Error("dispatched max write failed", zap.Error(err))
		}
	}
	d.logger.Debug("payload dispatched", zap.Int64("id", p.ID))
}

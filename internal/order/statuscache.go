package order

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"order-saga/internal/rediskeys"
)

// StatusCache mirrors order states into redis so status polls do not
// hit the orders table. It is write-through and best effort: a cache
// failure is logged, never propagated, and readers fall back to the
// store on a miss.
type StatusCache struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewStatusCache(client redis.UniversalClient, logger *zap.Logger) *StatusCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusCache{client: client, logger: logger}
}

func (c *StatusCache) Set(ctx context.Context, orderID int64, s State) {
	if c == nil {
		return
	}
	key := rediskeys.OrderStateKey(orderID)
	if err := c.client.Set(ctx, key, string(s), rediskeys.OrderStateTTL).Err(); err != nil {
		c.logger.Warn("status cache write failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func (c *StatusCache) Get(ctx context.Context, orderID int64) (State, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.client.Get(ctx, rediskeys.OrderStateKey(orderID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("status cache read failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		return "", false
	}
	return State(val), true
}

package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"order-saga/internal/rediskeys"
)

// Totals is the pipeline's progress snapshot.
type Totals struct {
	Ingested      int64 `json:"ingested"`
	Transformed   int64 `json:"transformed"`
	Dispatched    int64 `json:"dispatched"`
	DispatchedMax int64 `json:"dispatched_max"`
}

func ReadTotals(ctx context.Context, client redis.UniversalClient) (Totals, error) {
	var (
		t   Totals
		err error
	)
	if t.Ingested, err = readCounter(ctx, client, rediskeys.RelayIngestedKey); err != nil {
		return Totals{}, err
	}
	if t.Transformed, err = readCounter(ctx, client, rediskeys.RelayTransformedKey); err != nil {
		return Totals{}, err
	}
	if t.Dispatched, err = readCounter(ctx, client, rediskeys.RelayDispatchedKey); err != nil {
		return Totals{}, err
	}
	if t.DispatchedMax, err = readCounter(ctx, client, rediskeys.RelayDispatchedMaxKey); err != nil {
		return Totals{}, err
	}
	return t, nil
}

func readCounter(ctx context.Context, client redis.UniversalClient, key string) (int64, error) {
	val, err := client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return val, nil
}

package relay

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"order-saga/internal/bus"
	"order-saga/internal/rediskeys"
	"order-saga/internal/retry"
)

const defaultMaxAttempts = 5

// Transformer consumes ingested payloads on a worker pool, simulates
// work, and republishes them for dispatch. Failed payloads are
// rescheduled through a redis ZSET with backoff and land on the DLQ
// topic once their attempts are spent.
type Transformer struct {
	bus         bus.Bus
	topics      Topics
	redis       redis.UniversalClient
	retryCfg    retry.Config
	maxAttempts int64
	workDelay   time.Duration
	workers     int
	logger      *zap.Logger

	// test hooks
	now     func() time.Time
	rng     *rand.Rand
	process func(ctx context.Context, p Payload) error

	jobs   chan bus.Message
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewTransformer(b bus.Bus, topics Topics, redisClient redis.UniversalClient, workers int, workDelay time.Duration, logger *zap.Logger) (*Transformer, error) {
	if b == nil {
		return nil, errors.New("bus is required")
	}
	if redisClient == nil {
		return nil, errors.New("redis client is required")
	}
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Transformer{
		bus:         b,
		topics:      topics,
		redis:       redisClient,
		retryCfg:    retry.DefaultConfig(),
		maxAttempts: defaultMaxAttempts,
		workDelay:   workDelay,
		workers:     workers,
		logger:      logger,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		jobs:        make(chan bus.Message, 64),
	}
	t.process = t.defaultProcess
	return t, nil
}

// Start subscribes the pool to the ingest topic and begins the retry
// poller.
func (t *Transformer) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case msg := <-t.jobs:
					t.Handle(runCtx, msg)
				}
			}
		}()
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.retryCfg.Base)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				t.pollRetries(runCtx)
			}
		}
	}()

	t.bus.Subscribe(t.topics.Ingest, func(ctx context.Context, msg bus.Message) {
		select {
		case t.jobs <- msg:
		case <-runCtx.Done():
		}
	})
}

func (t *Transformer) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}

// Handle processes one ingested payload end to end.
func (t *Transformer) Handle(ctx context.Context, msg bus.Message) {
	p, err := DecodePayload(msg.Value)
	if err != nil {
		t.logger.Warn("dropping malformed payload", zap.Error(err))
		return
	}

	if t.workDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.workDelay):
		}
	}

	procErr := t.process(ctx, p)
	if procErr == nil {
		t.forward(ctx, p)
		return
	}
	t.logger.Warn("transform failed", zap.Int64("id", p.ID), zap.Error(procErr))

	attempt, err := t.bumpAttempt(ctx, p.ID)
	if err != nil {
		t.logger.Error("attempt increment failed", zap.Int64("id", p.ID), zap.Error(err))
		attempt = 1
	}
	if attempt < t.maxAttempts {
		t.scheduleRetry(ctx, msg, p.ID, attempt)
		return
	}
	t.deadLetter(ctx, msg, p.ID)
}

func (t *Transformer) defaultProcess(ctx context.Context, p Payload) error {
	return nil
}

func (t *Transformer) forward(ctx context.Context, p Payload) {
	if err := t.redis.Incr(ctx, rediskeys.RelayTransformedKey).Err(); err != nil {
		t.logger.Error("transformed counter failed", zap.Error(err))
	}
	key := strconv.FormatInt(p.ID, 10)
	if err := t.bus.Publish(ctx, t.topics.Dispatch, key, p.Encode()); err != nil {
		t.logger.Error("dispatch publish failed", zap.Int64("id", p.ID), zap.Error(err))
		return
	}
	t.logger.Debug("payload transformed", zap.Int64("id", p.ID))
}

func (t *Transformer) bumpAttempt(ctx context.Context, id int64) (int64, error) {
	key := rediskeys.RelayAttemptsKey(strconv.FormatInt(id, 10))
	attempt, err := t.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if attempt == 1 {
		if err := t.redis.Expire(ctx, key, rediskeys.RelayAttemptsTTL).Err(); err != nil {
			t.logger.Warn("attempt ttl set failed", zap.Error(err))
		}
	}
	return attempt, nil
}

func (t *Transformer) scheduleRetry(ctx context.Context, msg bus.Message, id, attempt int64) {
	delay, err := retry.NextDelay(t.retryCfg, attempt, t.rng)
	if err != nil {
		t.logger.Error("retry delay failed", zap.Int64("id", id), zap.Error(err))
		return
	}
	score := retry.NextScore(t.now(), delay)
	if err := t.redis.ZAdd(ctx, rediskeys.RelayRetryKey, redis.Z{Score: score, Member: string(msg.Value)}).Err(); err != nil {
		t.logger.Error("retry schedule failed", zap.Int64("id", id), zap.Error(err))
		return
	}
	t.logger.Info("retry scheduled",
		zap.Int64("id", id),
		zap.Int64("attempt", attempt),
		zap.Duration("delay", delay))
}

func (t *Transformer) deadLetter(ctx context.Context, msg bus.Message, id int64) {
	if err := t.bus.Publish(ctx, t.topics.DLQ, strconv.FormatInt(id, 10), msg.Value); err != nil {
		t.logger.Error("dlq publish failed", zap.Int64("id", id), zap.Error(err))
		return
	}
	t.logger.Warn("payload dead-lettered", zap.Int64("id", id))
}

// pollRetries republishes every due retry entry back onto the ingest
// topic.
func (t *Transformer) pollRetries(ctx context.Context) {
	due, err := t.redis.ZRangeByScore(ctx, rediskeys.RelayRetryKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatFloat(retry.DueMax(t.now()), 'f', -1, 64),
	}).Result()
	if err != nil {
		t.logger.Error("retry poll failed", zap.Error(err))
		return
	}
	for _, member := range due {
		removed, err := t.redis.ZRem(ctx, rediskeys.RelayRetryKey, member).Result()
		if err != nil {
			t.logger.Error("retry dequeue failed", zap.Error(err))
			continue
		}
		if removed == 0 {
			// Another poller claimed it.
			continue
		}
		p, err := DecodePayload([]byte(member))
		if err != nil {
			t.logger.Warn("dropping malformed retry entry", zap.Error(err))
			continue
		}
		key := strconv.FormatInt(p.ID, 10)
		if err := t.bus.Publish(ctx, t.topics.Ingest, key, []byte(member)); err != nil {
			t.logger.Error("retry republish failed", zap.Int64("id", p.ID), zap.Error(err))
		}
	}
}

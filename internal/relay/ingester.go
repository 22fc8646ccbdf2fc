package relay

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"order-saga/internal/bus"
	"order-saga/internal/rediskeys"
)

// Ingester emits one sequenced payload per tick while started. The
// sequence lives in redis so restarts keep counting instead of reusing
// ids.
type Ingester struct {
	bus      bus.Bus
	topic    string
	redis    redis.UniversalClient
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewIngester(b bus.Bus, topic string, redisClient redis.UniversalClient, interval time.Duration, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Ingester{
		bus:      b,
		topic:    topic,
		redis:    redisClient,
		interval: interval,
		logger:   logger,
	}
}

// Start begins emitting. Calling Start on a running ingester is a
// no-op, so the control endpoint can be hit repeatedly.
func (i *Ingester) Start(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	i.cancel = cancel
	i.done = make(chan struct{})
	go i.run(runCtx, i.done)
	i.logger.Info("ingester started", zap.Duration("interval", i.interval))
}

// Stop halts emission and waits for the loop to exit.
func (i *Ingester) Stop() {
	i.mu.Lock()
	cancel, done := i.cancel, i.done
	i.cancel, i.done = nil, nil
	i.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	i.logger.Info("ingester stopped")
}

// Running reports whether the emit loop is active.
func (i *Ingester) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cancel != nil
}

func (i *Ingester) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.emit(ctx)
		}
	}
}

func (i *Ingester) emit(ctx context.Context) {
	id, err := i.redis.Incr(ctx, rediskeys.RelayIngestedKey).Result()
	if err != nil {
		i.logger.Error("sequence increment failed", zap.Error(err))
		return
	}
	p := Payload{ID: id, Emitted: time.Now()}
	if err := i.bus.Publish(ctx, i.topic, strconv.FormatInt(id, 10), p.Encode()); err != nil {
		i.logger.Error("ingest publish failed", zap.Int64("id", id), zap.Error(err))
		return
	}
	i.logger.Debug("payload ingested", zap.Int64("id", id))
}

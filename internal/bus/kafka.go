package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"order-saga/internal/kafka"
)

// Kafka adapts the kafka client interfaces to the Bus boundary. Each
// subscription runs its own consumer poll loop, so handlers for
// different topics never block one another.
type Kafka struct {
	producer    kafka.Producer
	newConsumer func(topic string) (kafka.Consumer, error)
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewKafka(producer kafka.Producer, newConsumer func(topic string) (kafka.Consumer, error), logger *zap.Logger) *Kafka {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Kafka{
		producer:    producer,
		newConsumer: newConsumer,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (b *Kafka) Publish(ctx context.Context, topic, key string, value []byte) error {
	return b.producer.Publish(ctx, topic, kafka.Message{Key: key, Value: value})
}

func (b *Kafka) Subscribe(topic string, h Handler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		consumer, err := b.newConsumer(topic)
		if err != nil {
			b.logger.Error("consumer init failed", zap.String("topic", topic), zap.Error(err))
			return
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				b.logger.Warn("consumer close failed", zap.String("topic", topic), zap.Error(err))
			}
		}()

		for {
			msg, err := consumer.Poll(b.ctx)
			if err != nil {
				if b.ctx.Err() != nil {
					return
				}
				b.logger.Warn("poll failed", zap.String("topic", topic), zap.Error(err))
				continue
			}
			h(b.ctx, Message{Topic: topic, Key: msg.Key, Value: msg.Value})
			if err := consumer.Commit(b.ctx, msg); err != nil {
				b.logger.Warn("commit failed", zap.String("topic", topic), zap.Error(err))
			}
		}
	}()
}

// Close stops every subscription loop and waits for them to exit.
func (b *Kafka) Close() {
	b.cancel()
	b.wg.Wait()
}

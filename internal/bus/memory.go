package bus

import (
	"context"
	"sync"
)

const memoryQueueDepth = 128

// Memory is an in-process Bus used by tests and the e2e scenario
// suite. Each subscriber owns a buffered queue drained by its own
// goroutine, so delivery is asynchronous and interleaved like the real
// broker's, just without the network.
type Memory struct {
	mu     sync.Mutex
	subs   map[string][]chan Message
	closed bool
	wg     sync.WaitGroup
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]chan Message)}
}

func (b *Memory) Subscribe(topic string, h Handler) {
	ch := make(chan Message, memoryQueueDepth)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range ch {
			h(context.Background(), msg)
		}
	}()
}

func (b *Memory) Publish(ctx context.Context, topic, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for _, ch := range b.subs[topic] {
		ch <- Message{Topic: topic, Key: key, Value: value}
	}
	return nil
}

// Close stops delivery and waits for in-flight handlers to drain.
func (b *Memory) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.mu.Unlock()
	b.wg.Wait()
}

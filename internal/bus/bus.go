// Package bus is the message transport boundary of the system: topics
// with keyed publish and handler subscriptions. Implementations promise
// at-least-once delivery with no ordering across saga instances;
// everything above the bus must tolerate duplicates and foreign
// traffic.
package bus

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("bus closed")

// Message is one delivery.
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// Handler consumes one delivery. Handlers are invoked from the
// subscription's own goroutine and may publish further messages.
type Handler func(ctx context.Context, msg Message)

type Bus interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	Subscribe(topic string, h Handler)
}

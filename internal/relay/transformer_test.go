package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"order-saga/internal/bus"
	"order-saga/internal/rediskeys"
)

func testTopics() Topics {
	return Topics{Ingest: "relay-ingest", Dispatch: "relay-dispatch", DLQ: "relay-dlq"}
}

type transformerHarness struct {
	transformer *Transformer
	client      *redis.Client
	mr          *miniredis.Miniredis
	bus         *bus.Memory
	dispatched  chan bus.Message
	ingested    chan bus.Message
	dlq         chan bus.Message
}

func newTransformerHarness(t *testing.T) *transformerHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	memBus := bus.NewMemory()
	t.Cleanup(memBus.Close)

	tr, err := NewTransformer(memBus, testTopics(), client, 1, 0, nil)
	if err != nil {
		t.Fatalf("new transformer: %v", err)
	}

	h := &transformerHarness{
		transformer: tr,
		client:      client,
		mr:          mr,
		bus:         memBus,
		dispatched:  make(chan bus.Message, 16),
		ingested:    make(chan bus.Message, 16),
		dlq:         make(chan bus.Message, 16),
	}
	memBus.Subscribe("relay-dispatch", func(ctx context.Context, msg bus.Message) { h.dispatched <- msg })
	memBus.Subscribe("relay-ingest", func(ctx context.Context, msg bus.Message) { h.ingested <- msg })
	memBus.Subscribe("relay-dlq", func(ctx context.Context, msg bus.Message) { h.dlq <- msg })
	return h
}

func recv(t *testing.T, ch chan bus.Message, what string) bus.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s message", what)
		return bus.Message{}
	}
}

func TestTransformerHandleSuccess(t *testing.T) {
	h := newTransformerHarness(t)
	p := Payload{ID: 7, Emitted: time.UnixMilli(1000)}

	h.transformer.Handle(context.Background(), bus.Message{Value: p.Encode()})

	msg := recv(t, h.dispatched, "dispatch")
	got, err := DecodePayload(msg.Value)
	if err != nil || got.ID != 7 {
		t.Fatalf("payload = %+v, err = %v", got, err)
	}
	if n, _ := h.client.Get(context.Background(), rediskeys.RelayTransformedKey).Int64(); n != 1 {
		t.Fatalf("transformed = %d", n)
	}
}

func TestTransformerRetryThenDLQ(t *testing.T) {
	h := newTransformerHarness(t)
	h.transformer.maxAttempts = 2
	h.transformer.now = func() time.Time { return time.Unix(0, 0) }
	h.transformer.process = func(ctx context.Context, p Payload) error {
		return errors.New("boom")
	}
	p := Payload{ID: 7, Emitted: time.UnixMilli(1000)}
	msg := bus.Message{Value: p.Encode()}
	ctx := context.Background()

	// First failure schedules a retry.
	h.transformer.Handle(ctx, msg)
	members, err := h.mr.ZMembers(rediskeys.RelayRetryKey)
	if err != nil {
		t.Fatalf("retry members: %v", err)
	}
	if len(members) != 1 || members[0] != string(p.Encode()) {
		t.Fatalf("retry members = %v", members)
	}
	if attempts, _ := h.client.Get(ctx, rediskeys.RelayAttemptsKey("7")).Result(); attempts != "1" {
		t.Fatalf("attempts = %q", attempts)
	}

	// Second failure exhausts the allowed attempts.
	h.transformer.Handle(ctx, msg)
	dead := recv(t, h.dlq, "dlq")
	if string(dead.Value) != string(p.Encode()) {
		t.Fatalf("dlq payload = %q", dead.Value)
	}
}

func TestTransformerPollRetriesRepublishesDue(t *testing.T) {
	h := newTransformerHarness(t)
	now := time.Unix(100, 0)
	h.transformer.now = func() time.Time { return now }
	p := Payload{ID: 3, Emitted: time.UnixMilli(500)}
	ctx := context.Background()

	// One due entry and one still in the future.
	h.client.ZAdd(ctx, rediskeys.RelayRetryKey,
		redis.Z{Score: float64(now.UnixMilli() - 100), Member: string(p.Encode())},
		redis.Z{Score: float64(now.UnixMilli() + 60000), Member: "9:900"})

	h.transformer.pollRetries(ctx)

	msg := recv(t, h.ingested, "ingest")
	if string(msg.Value) != string(p.Encode()) {
		t.Fatalf("republished = %q", msg.Value)
	}
	members, _ := h.mr.ZMembers(rediskeys.RelayRetryKey)
	if len(members) != 1 || members[0] != "9:900" {
		t.Fatalf("remaining members = %v", members)
	}
}

func TestTransformerDropsMalformedPayload(t *testing.T) {
	h := newTransformerHarness(t)
	h.transformer.Handle(context.Background(), bus.Message{Value: []byte("garbage")})

	select {
	case msg := <-h.dispatched:
		t.Fatalf("unexpected dispatch %q", msg.Value)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTransformerEndToEnd(t *testing.T) {
	h := newTransformerHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.transformer.Start(ctx)
	defer h.transformer.Stop()

	p := Payload{ID: 1, Emitted: time.Now()}
	if err := h.bus.Publish(ctx, "relay-ingest", "1", p.Encode()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := recv(t, h.dispatched, "dispatch")
	got, err := DecodePayload(msg.Value)
	if err != nil || got.ID != 1 {
		t.Fatalf("payload = %+v, err = %v", got, err)
	}
}

package inventory_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"order-saga/internal/bus"
	"order-saga/internal/inventory"
	"order-saga/internal/store/memory"
	"order-saga/internal/wire"
)

type harness struct {
	service  *inventory.Service
	consumer *inventory.Consumer
	events   chan wire.Envelope
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	memBus := bus.NewMemory()
	t.Cleanup(memBus.Close)

	svc := inventory.NewService(memory.NewInventoryStore(), nil)
	consumer := inventory.NewConsumer(svc, memBus, "inventory-events", nil)

	events := make(chan wire.Envelope, 16)
	memBus.Subscribe("inventory-events", func(ctx context.Context, msg bus.Message) {
		env, err := wire.Decode(msg.Value)
		if err != nil {
			t.Errorf("malformed event: %v", err)
			return
		}
		events <- env
	})

	return &harness{service: svc, consumer: consumer, events: events}
}

func (h *harness) send(t *testing.T, env wire.Envelope) wire.Envelope {
	t.Helper()
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	h.consumer.Handle(context.Background(), bus.Message{Value: data})
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event for %s", env.Kind)
		return wire.Envelope{}
	}
}

func (h *harness) seedProduct(t *testing.T, stock int) *inventory.Product {
	t.Helper()
	p, err := h.service.CreateProduct(context.Background(), "widget", 100, stock)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestConsumerReserveSubmit(t *testing.T) {
	h := newHarness(t)
	p := h.seedProduct(t, 10)
	lines := []wire.Line{{ProductID: p.ID, Quantity: 4}}

	ev := h.send(t, wire.Envelope{Kind: wire.KindReserveInventory, CorrelationID: "c1", OrderID: 1, UserID: 5, Lines: lines})
	if ev.Kind != wire.KindReserveInventorySuccess || ev.CorrelationID != "c1" || ev.OrderID != 1 {
		t.Fatalf("event = %+v", ev)
	}

	ev = h.send(t, wire.Envelope{Kind: wire.KindSubmitInventory, CorrelationID: "c1", OrderID: 1, UserID: 5})
	if ev.Kind != wire.KindSubmitInventorySuccess {
		t.Fatalf("event = %+v", ev)
	}

	got, _ := h.service.GetProduct(context.Background(), p.ID)
	if got.Inventory != 6 {
		t.Fatalf("inventory = %d", got.Inventory)
	}
}

func TestConsumerReserveDuplicateRepeatsSuccess(t *testing.T) {
	h := newHarness(t)
	p := h.seedProduct(t, 10)
	cmd := wire.Envelope{Kind: wire.KindReserveInventory, CorrelationID: "c1", OrderID: 1, UserID: 5,
		Lines: []wire.Line{{ProductID: p.ID, Quantity: 4}}}

	first := h.send(t, cmd)
	second := h.send(t, cmd)
	if first.Kind != wire.KindReserveInventorySuccess || second.Kind != wire.KindReserveInventorySuccess {
		t.Fatalf("events = %s, %s", first.Kind, second.Kind)
	}

	// The hold was not doubled: 6 more can still be reserved.
	ev := h.send(t, wire.Envelope{Kind: wire.KindReserveInventory, CorrelationID: "c2", OrderID: 2, UserID: 5,
		Lines: []wire.Line{{ProductID: p.ID, Quantity: 6}}})
	if ev.Kind != wire.KindReserveInventorySuccess {
		t.Fatalf("event = %+v", ev)
	}
}

func TestConsumerReserveInsufficient(t *testing.T) {
	h := newHarness(t)
	p := h.seedProduct(t, 3)

	ev := h.send(t, wire.Envelope{Kind: wire.KindReserveInventory, CorrelationID: "c1", OrderID: 1, UserID: 5,
		Lines: []wire.Line{{ProductID: p.ID, Quantity: 4}}})
	if ev.Kind != wire.KindReserveInventoryFailed {
		t.Fatalf("event = %+v", ev)
	}
	if !strings.Contains(ev.Error, "insufficient stock") {
		t.Fatalf("error = %q", ev.Error)
	}
}

func TestConsumerReleaseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	p := h.seedProduct(t, 10)

	h.send(t, wire.Envelope{Kind: wire.KindReserveInventory, CorrelationID: "c1", OrderID: 1, UserID: 5,
		Lines: []wire.Line{{ProductID: p.ID, Quantity: 4}}})

	first := h.send(t, wire.Envelope{Kind: wire.KindReleaseInventory, CorrelationID: "c1", OrderID: 1, UserID: 5})
	second := h.send(t, wire.Envelope{Kind: wire.KindReleaseInventory, CorrelationID: "c1", OrderID: 1, UserID: 5})
	if first.Kind != wire.KindReleaseInventorySuccess || second.Kind != wire.KindReleaseInventorySuccess {
		t.Fatalf("events = %s, %s", first.Kind, second.Kind)
	}

	got, _ := h.service.GetProduct(context.Background(), p.ID)
	if got.Inventory != 10 {
		t.Fatalf("inventory = %d", got.Inventory)
	}
}

func TestConsumerSubmitWithoutHoldFails(t *testing.T) {
	h := newHarness(t)
	h.seedProduct(t, 10)

	ev := h.send(t, wire.Envelope{Kind: wire.KindSubmitInventory, CorrelationID: "c1", OrderID: 1, UserID: 5})
	if ev.Kind != wire.KindSubmitInventoryFailed {
		t.Fatalf("event = %+v", ev)
	}
}

func TestConsumerDropsUnknownKind(t *testing.T) {
	h := newHarness(t)
	data, err := wire.Envelope{Kind: "Bogus", CorrelationID: "c1", OrderID: 1}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	h.consumer.Handle(context.Background(), bus.Message{Value: data})
	select {
	case ev := <-h.events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

package customer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"order-saga/internal/bus"
	"order-saga/internal/customer"
	"order-saga/internal/store/memory"
	"order-saga/internal/wire"
)

type harness struct {
	service  *customer.Service
	consumer *customer.Consumer
	events   chan wire.Envelope
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	memBus := bus.NewMemory()
	t.Cleanup(memBus.Close)

	svc := customer.NewService(memory.NewCustomerStore(), nil)
	consumer := customer.NewConsumer(svc, memBus, "customer-events", nil)

	events := make(chan wire.Envelope, 16)
	memBus.Subscribe("customer-events", func(ctx context.Context, msg bus.Message) {
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

func (h *harness) seedCustomer(t *testing.T, balance int64) *customer.Customer {
	t.Helper()
	c, err := h.service.CreateCustomer(context.Background(), "alice", balance)
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func TestConsumerReserveSubmit(t *testing.T) {
	h := newHarness(t)
	c := h.seedCustomer(t, 1000)

	ev := h.send(t, wire.Envelope{Kind: wire.KindReserveBalance, CorrelationID: "c1", OrderID: 1, UserID: c.ID, Amount: 400})
	if ev.Kind != wire.KindReserveBalanceSuccess || ev.CorrelationID != "c1" || ev.OrderID != 1 {
		t.Fatalf("event = %+v", ev)
	}

	ev = h.send(t, wire.Envelope{Kind: wire.KindSubmitBalance, CorrelationID: "c1", OrderID: 1, UserID: c.ID})
	if ev.Kind != wire.KindSubmitBalanceSuccess {
		t.Fatalf("event = %+v", ev)
	}

	got, _ := h.service.GetCustomer(context.Background(), c.ID)
	if got.Balance != 600 {
		t.Fatalf("balance = %d", got.Balance)
	}
}

func TestConsumerReserveInsufficient(t *testing.T) {
	h := newHarness(t)
	c := h.seedCustomer(t, 100)

	ev := h.send(t, wire.Envelope{Kind: wire.KindReserveBalance, CorrelationID: "c1", OrderID: 1, UserID: c.ID, Amount: 400})
	if ev.Kind != wire.KindReserveBalanceFailed {
		t.Fatalf("event = %+v", ev)
	}
	if !strings.Contains(ev.Error, "insufficient balance") {
		t.Fatalf("error = %q", ev.Error)
	}
}

func TestConsumerReserveDuplicateRepeatsSuccess(t *testing.T) {
	h := newHarness(t)
	c := h.seedCustomer(t, 1000)
	cmd := wire.Envelope{Kind: wire.KindReserveBalance, CorrelationID: "c1", OrderID: 1, UserID: c.ID, Amount: 600}

	first := h.send(t, cmd)
	second := h.send(t, cmd)
	if first.Kind != wire.KindReserveBalanceSuccess || second.Kind != wire.KindReserveBalanceSuccess {
		t.Fatalf("events = %s, %s", first.Kind, second.Kind)
	}

	// The hold was not doubled: 400 remains reservable.
	ev := h.send(t, wire.Envelope{Kind: wire.KindReserveBalance, CorrelationID: "c2", OrderID: 2, UserID: c.ID, Amount: 400})
	if ev.Kind != wire.KindReserveBalanceSuccess {
		t.Fatalf("event = %+v", ev)
	}
}

func TestConsumerReleaseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	c := h.seedCustomer(t, 1000)

	h.send(t, wire.Envelope{Kind: wire.KindReserveBalance, CorrelationID: "c1", OrderID: 1, UserID: c.ID, Amount: 400})
	first := h.send(t, wire.Envelope{Kind: wire.KindReleaseBalance, CorrelationID: "c1", OrderID: 1, UserID: c.ID})
	second := h.send(t, wire.Envelope{Kind: wire.KindReleaseBalance, CorrelationID: "c1", OrderID: 1, UserID: c.ID})
	if first.Kind != wire.KindReleaseBalanceSuccess || second.Kind != wire.KindReleaseBalanceSuccess {
		t.Fatalf("events = %s, %s", first.Kind, second.Kind)
	}

	got, _ := h.service.GetCustomer(context.Background(), c.ID)
	if got.Balance != 1000 {
		t.Fatalf("balance = %d", got.Balance)
	}
}

func TestConsumerSubmitWithoutHoldFails(t *testing.T) {
	h := newHarness(t)
	c := h.seedCustomer(t, 1000)

	ev := h.send(t, wire.Envelope{Kind: wire.KindSubmitBalance, CorrelationID: "c1", OrderID: 1, UserID: c.ID})
	if ev.Kind != wire.KindSubmitBalanceFailed {
		t.Fatalf("event = %+v", ev)
	}
}

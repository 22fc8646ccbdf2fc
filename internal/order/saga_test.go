package order

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"order-saga/internal/bus"
	"order-saga/internal/saga"
	"order-saga/internal/wire"
)

// scriptedParticipant answers every command with its success event
// unless told to fail a specific command kind.
type scriptedParticipant struct {
	mu   sync.Mutex
	seen []string
	fail map[string]string
}

func (p *scriptedParticipant) failOn(kind, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail == nil {
		p.fail = make(map[string]string)
	}
	p.fail[kind] = reason
}

func (p *scriptedParticipant) commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.seen...)
}

func (p *scriptedParticipant) handler(t *testing.T, b bus.Bus, eventsTopic string) bus.Handler {
	return func(ctx context.Context, msg bus.Message) {
		env, err := wire.Decode(msg.Value)
		if err != nil {
			t.Errorf("participant got malformed command: %v", err)
			return
		}
		p.mu.Lock()
		p.seen = append(p.seen, env.Kind)
		reason, failed := p.fail[env.Kind]
		p.mu.Unlock()

		reply := wire.Envelope{
			Kind:          replyKind(env.Kind, failed),
			CorrelationID: env.CorrelationID,
			OrderID:       env.OrderID,
			Error:         reason,
		}
		data, err := reply.Encode()
		if err != nil {
			t.Errorf("encode reply: %v", err)
			return
		}
		if err := b.Publish(ctx, eventsTopic, "", data); err != nil {
			t.Errorf("publish reply: %v", err)
		}
	}
}

func replyKind(cmdKind string, failed bool) string {
	replies := map[string][2]string{
		wire.KindReserveInventory: {wire.KindReserveInventorySuccess, wire.KindReserveInventoryFailed},
		wire.KindReleaseInventory: {wire.KindReleaseInventorySuccess, wire.KindReleaseInventoryFailed},
		wire.KindSubmitInventory:  {wire.KindSubmitInventorySuccess, wire.KindSubmitInventoryFailed},
		wire.KindReserveBalance:   {wire.KindReserveBalanceSuccess, wire.KindReserveBalanceFailed},
		wire.KindReleaseBalance:   {wire.KindReleaseBalanceSuccess, wire.KindReleaseBalanceFailed},
		wire.KindSubmitBalance:    {wire.KindSubmitBalanceSuccess, wire.KindSubmitBalanceFailed},
	}
	pair := replies[cmdKind]
	if failed {
		return pair[1]
	}
	return pair[0]
}

type sagaHarness struct {
	coordinator *Coordinator
	service     *Service
	inventory   *scriptedParticipant
	customer    *scriptedParticipant
}

func newSagaHarness(t *testing.T) *sagaHarness {
	t.Helper()
	memBus := bus.NewMemory()
	t.Cleanup(memBus.Close)

	runner := saga.NewRunner(nil)
	svc := NewService(newFakeStore(), nil, nil)
	coord := NewCoordinator(runner, svc, memBus, CommandTopics{
		Inventory: "inventory-commands",
		Customer:  "customer-commands",
	}, nil)

	inv := &scriptedParticipant{}
	cust := &scriptedParticipant{}
	memBus.Subscribe("inventory-commands", inv.handler(t, memBus, "inventory-events"))
	memBus.Subscribe("customer-commands", cust.handler(t, memBus, "customer-events"))
	NewConsumer(runner, nil).Subscribe(memBus, "inventory-events", "customer-events")

	return &sagaHarness{coordinator: coord, service: svc, inventory: inv, customer: cust}
}

func TestCreateOrderHappyPath(t *testing.T) {
	h := newSagaHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orderID, err := h.coordinator.CreateOrder(ctx, 7, testLines())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if orderID == 0 {
		t.Fatalf("no order id")
	}

	o, err := h.service.Get(ctx, orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.State != StateInProgress {
		t.Fatalf("state = %s, want %s", o.State, StateInProgress)
	}

	wantInv := []string{wire.KindReserveInventory, wire.KindSubmitInventory}
	wantCust := []string{wire.KindReserveBalance, wire.KindSubmitBalance}
	if got := h.inventory.commands(); !equalStrings(got, wantInv) {
		t.Fatalf("inventory commands = %v, want %v", got, wantInv)
	}
	if got := h.customer.commands(); !equalStrings(got, wantCust) {
		t.Fatalf("customer commands = %v, want %v", got, wantCust)
	}
}

func TestCreateOrderInventoryRejected(t *testing.T) {
	h := newSagaHarness(t)
	h.inventory.failOn(wire.KindReserveInventory, "out of stock")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.coordinator.CreateOrder(ctx, 7, testLines())
	if err == nil || !strings.Contains(err.Error(), "out of stock") {
		t.Fatalf("err = %v, want out of stock", err)
	}

	// Balance was never touched.
	if got := h.customer.commands(); len(got) != 0 {
		t.Fatalf("customer commands = %v, want none", got)
	}
	// Only the order row itself gets compensated; a failed reserve
	// holds nothing so no release is sent.
	if got := h.inventory.commands(); !equalStrings(got, []string{wire.KindReserveInventory}) {
		t.Fatalf("inventory commands = %v", got)
	}
	assertRejected(t, h.service, 1)
}

func TestCreateOrderBalanceRejected(t *testing.T) {
	h := newSagaHarness(t)
	h.customer.failOn(wire.KindReserveBalance, "insufficient balance")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.coordinator.CreateOrder(ctx, 7, testLines())
	if err == nil || !strings.Contains(err.Error(), "insufficient balance") {
		t.Fatalf("err = %v, want insufficient balance", err)
	}

	// The inventory hold is released before the outcome resolves.
	wantInv := []string{wire.KindReserveInventory, wire.KindReleaseInventory}
	if got := h.inventory.commands(); !equalStrings(got, wantInv) {
		t.Fatalf("inventory commands = %v, want %v", got, wantInv)
	}
	assertRejected(t, h.service, 1)
}

func assertRejected(t *testing.T, svc *Service, orderID int64) {
	t.Helper()
	o, err := svc.Get(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.State != StateRejected {
		t.Fatalf("state = %s, want %s", o.State, StateRejected)
	}
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

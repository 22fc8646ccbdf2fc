package order

import (
	"strconv"

	"order-saga/internal/saga"
	"order-saga/internal/wire"
)

// DecodeEvent maps a participant event envelope onto the saga event the
// runner dispatches. The switch is exhaustive over the event kinds;
// command kinds and unknown kinds return ok == false and are dropped by
// the caller.
func DecodeEvent(env wire.Envelope) (saga.Event, bool) {
	ev := saga.Event{
		CorrelationID: env.CorrelationID,
		Token:         strconv.FormatInt(env.OrderID, 10),
		Err:           env.Error,
	}
	switch env.Kind {
	case wire.KindReserveInventorySuccess:
		ev.Step = StepReserveInventory
	case wire.KindReserveInventoryFailed:
		ev.Step = StepReserveInventory
		ev.Failed = true
	case wire.KindReserveBalanceSuccess:
		ev.Step = StepReserveBalance
	case wire.KindReserveBalanceFailed:
		ev.Step = StepReserveBalance
		ev.Failed = true
	case wire.KindSubmitInventorySuccess:
		ev.Step = StepSubmitInventory
	case wire.KindSubmitInventoryFailed:
		ev.Step = StepSubmitInventory
		ev.Failed = true
	case wire.KindSubmitBalanceSuccess:
		ev.Step = StepSubmitBalance
	case wire.KindSubmitBalanceFailed:
		ev.Step = StepSubmitBalance
		ev.Failed = true
	case wire.KindReleaseInventorySuccess:
		ev.Step = StepReserveInventory
		ev.Compensation = true
	case wire.KindReleaseInventoryFailed:
		ev.Step = StepReserveInventory
		ev.Compensation = true
		ev.Failed = true
	case wire.KindReleaseBalanceSuccess:
		ev.Step = StepReserveBalance
		ev.Compensation = true
	case wire.KindReleaseBalanceFailed:
		ev.Step = StepReserveBalance
		ev.Compensation = true
		ev.Failed = true
	default:
		return saga.Event{}, false
	}
	return ev, true
}

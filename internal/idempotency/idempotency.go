// Package idempotency classifies store errors into the replies a
// participant owes the orchestrator. Commands may be redelivered, so
// the classification is the whole at-least-once story: a duplicate
// apply acknowledges, it never re-applies.
package idempotency

import (
	"errors"

	"order-saga/internal/store"
)

type ApplyDecision int

const (
	ApplyOK ApplyDecision = iota
	ApplyDuplicate
	ApplyMissing
	ApplyUnavailable
	ApplyReject
)

// DecideApply classifies the outcome of a state-changing participant
// operation. ApplyDuplicate means the operation already happened and
// the original success reply should be repeated; ApplyMissing means
// there is nothing to operate on; ApplyReject is a domain rejection the
// orchestrator must hear about.
func DecideApply(err error) ApplyDecision {
	if err == nil {
		return ApplyOK
	}
	if errors.Is(err, store.ErrAlreadyExists) {
		return ApplyDuplicate
	}
	if errors.Is(err, store.ErrNotFound) {
		return ApplyMissing
	}
	if errors.Is(err, store.ErrStoreUnavailable) {
		return ApplyUnavailable
	}
	return ApplyReject
}

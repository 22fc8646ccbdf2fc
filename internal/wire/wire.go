// Package wire defines the closed set of commands and events exchanged
// with the saga participants, and their JSON envelope. Every message is
// decoded exactly once at the transport boundary; unknown or malformed
// traffic is dropped there, never inside the orchestrator.
package wire

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command kinds, published on the participant command topics.
const (
	KindReserveInventory = "ReserveInventory"
	KindReleaseInventory = "ReleaseInventory"
	KindSubmitInventory  = "SubmitInventory"
	KindReserveBalance   = "ReserveBalance"
	KindReleaseBalance   = "ReleaseBalance"
	KindSubmitBalance    = "SubmitBalance"
)

// Event kinds, published on the participant event topics. Each command
// has exactly one success and one failure reply; failure replies for
// the submit commands exist on the wire only as protocol violations.
const (
	KindReserveInventorySuccess = "ReserveInventorySuccess"
	KindReserveInventoryFailed  = "ReserveInventoryFailed"
	KindSubmitInventorySuccess  = "SubmitInventorySuccess"
	KindSubmitInventoryFailed   = "SubmitInventoryFailed"
	KindReleaseInventorySuccess = "ReleaseInventorySuccess"
	KindReleaseInventoryFailed  = "ReleaseInventoryFailed"

	KindReserveBalanceSuccess = "ReserveBalanceSuccess"
	KindReserveBalanceFailed  = "ReserveBalanceFailed"
	KindSubmitBalanceSuccess  = "SubmitBalanceSuccess"
	KindSubmitBalanceFailed   = "SubmitBalanceFailed"
	KindReleaseBalanceSuccess = "ReleaseBalanceSuccess"
	KindReleaseBalanceFailed  = "ReleaseBalanceFailed"
)

// Line is one ordered product position. Prices are cents.
type Line struct {
	ProductID int64 `json:"product_id"`
	Price     int64 `json:"price"`
	Quantity  int   `json:"quantity"`
}

// Envelope is the single on-the-wire shape for commands and events.
// Kind selects which of the optional fields are meaningful.
type Envelope struct {
	Kind          string `json:"kind"`
	CorrelationID string `json:"correlation_id"`
	OrderID       int64  `json:"order_id"`
	UserID        int64  `json:"user_id,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Lines         []Line `json:"lines,omitempty"`
	Error         string `json:"error,omitempty"`
}

func (e Envelope) Encode() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

func (e Envelope) Validate() error {
	if strings.TrimSpace(e.Kind) == "" {
		return fmt.Errorf("envelope kind is required")
	}
	if strings.TrimSpace(e.CorrelationID) == "" {
		return fmt.Errorf("envelope correlation_id is required")
	}
	if e.OrderID <= 0 {
		return fmt.Errorf("envelope order_id is required")
	}
	return nil
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Total sums the line positions in cents.
func Total(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += l.Price * int64(l.Quantity)
	}
	return total
}

// Package rediskeys centralizes every redis key and TTL so no two
// packages can disagree about them.
package rediskeys

import (
	"strconv"
	"time"
)

const (
	OrderStateKeyPrefix = "order:state:"

	RelayIngestedKey      = "relay:ingested"
	RelayTransformedKey   = "relay:transformed"
	RelayDispatchedKey    = "relay:dispatched"
	RelayDispatchedMaxKey = "relay:dispatched:max"
	RelayRetryKey         = "relay:retry"
	RelayAttemptsPrefix   = "relay:attempts:"
)

const (
	OrderStateTTL    = 24 * time.Hour
	RelayAttemptsTTL = time.Hour
)

func OrderStateKey(orderID int64) string {
	return OrderStateKeyPrefix + strconv.FormatInt(orderID, 10)
}

func RelayAttemptsKey(id string) string {
	return RelayAttemptsPrefix + id
}

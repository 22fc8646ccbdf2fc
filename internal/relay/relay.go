// Package relay is the at-least-once ingest/transform/dispatch
// pipeline. It moves sequenced payloads across broker topics with
// redis-backed counters, scheduled retries and a DLQ, and has no saga
// semantics: redelivery is handled by retrying, not compensating.
package relay

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Topics names the pipeline's broker topics.
type Topics struct {
	Ingest   string
	Dispatch string
	DLQ      string
}

// Payload is the "<id>:<unixmilli>" value carried between stages.
type Payload struct {
	ID      int64
	Emitted time.Time
}

func (p Payload) Encode() []byte {
	return []byte(strconv.FormatInt(p.ID, 10) + ":" + strconv.FormatInt(p.Emitted.UnixMilli(), 10))
}

func DecodePayload(data []byte) (Payload, error) {
	id, millis, ok := strings.Cut(string(data), ":")
	if !ok {
		return Payload{}, fmt.Errorf("malformed relay payload %q", data)
	}
	parsedID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("malformed relay payload id %q", id)
	}
	parsedMillis, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("malformed relay payload timestamp %q", millis)
	}
	return Payload{ID: parsedID, Emitted: time.UnixMilli(parsedMillis)}, nil
}

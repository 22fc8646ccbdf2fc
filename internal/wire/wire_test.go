package wire

import (
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	env := Envelope{
		Kind:          KindReserveInventory,
		CorrelationID: "corr-1",
		OrderID:       12,
		UserID:        3,
		Lines:         []Line{{ProductID: 1, Price: 250, Quantity: 2}},
	}
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != env.Kind || got.OrderID != 12 || len(got.Lines) != 1 {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecodeMissingFields(t *testing.T) {
	cases := []string{
		`{"correlation_id":"c","order_id":1}`,
		`{"kind":"ReserveInventory","order_id":1}`,
		`{"kind":"ReserveInventory","correlation_id":"c"}`,
	}
	for _, tc := range cases {
		if _, err := Decode([]byte(tc)); err == nil {
			t.Fatalf("expected error for %s", tc)
		}
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	_, err := Envelope{Kind: KindSubmitBalance}.Encode()
	if err == nil || !strings.Contains(err.Error(), "correlation_id") {
		t.Fatalf("err = %v", err)
	}
}

func TestTotal(t *testing.T) {
	lines := []Line{
		{ProductID: 1, Price: 83, Quantity: 2},
		{ProductID: 2, Price: 73, Quantity: 1},
	}
	if got := Total(lines); got != 239 {
		t.Fatalf("total = %d, want 239", got)
	}
	if got := Total(nil); got != 0 {
		t.Fatalf("empty total = %d", got)
	}
}

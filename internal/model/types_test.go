package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRawQuote_Normalize(t *testing.T) {
	raw := RawQuote{
		Symbol:    "BTC_CAD",
		Bid:       "89000",
		Ask:       "89500",
		Timestamp: "1700000000",
		Change:    "1.2",
	}

	q, err := raw.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if q.Symbol != "BTC_CAD" {
		t.Errorf("Symbol = %q, want %q", q.Symbol, "BTC_CAD")
	}
	if q.Bid != 89000 {
		t.Errorf("Bid = %v, want 89000", q.Bid)
	}
	if q.Ask != 89500 {
		t.Errorf("Ask = %v, want 89500", q.Ask)
	}
	if q.Spot != 89250 {
		t.Errorf("Spot = %v, want 89250", q.Spot)
	}
	if q.Change != 1.2 {
		t.Errorf("Change = %v, want 1.2", q.Change)
	}
	if q.Timestamp != 1700000000 {
		t.Errorf("Timestamp = %d, want 1700000000", q.Timestamp)
	}
}

func TestRawQuote_Normalize_MissingField(t *testing.T) {
	tests := []struct {
		name string
		raw  RawQuote
	}{
		{"no symbol", RawQuote{Bid: "1", Ask: "2", Timestamp: "3", Change: "0"}},
		{"no bid", RawQuote{Symbol: "BTC_CAD", Ask: "2", Timestamp: "3", Change: "0"}},
		{"no ask", RawQuote{Symbol: "BTC_CAD", Bid: "1", Timestamp: "3", Change: "0"}},
		{"no timestamp", RawQuote{Symbol: "BTC_CAD", Bid: "1", Ask: "2", Change: "0"}},
		{"no change", RawQuote{Symbol: "BTC_CAD", Bid: "1", Ask: "2", Timestamp: "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.raw.Normalize(); !errors.Is(err, ErrMissingField) {
				t.Errorf("Normalize error = %v, want ErrMissingField", err)
			}
		})
	}
}

func TestRawQuote_Normalize_NonNumeric(t *testing.T) {
	raw := RawQuote{
		Symbol:    "BTC_CAD",
		Bid:       "not-a-number",
		Ask:       "89500",
		Timestamp: "1700000000",
		Change:    "1.2",
	}

	if _, err := raw.Normalize(); err == nil {
		t.Error("Normalize succeeded on non-numeric bid, want error")
	}
}

func TestRawQuote_Normalize_SpotIgnoresUpstream(t *testing.T) {
	// Upstream payloads may carry their own spot; it must never survive
	// decoding into the normalized Quote.
	payload := `{"symbol":"ETH_CAD","bid":3000,"ask":3100,"spot":999,"timestamp":1700000000,"change":-0.5}`

	var raw RawQuote
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	q, err := raw.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if q.Spot != 3050 {
		t.Errorf("Spot = %v, want 3050", q.Spot)
	}
}

func TestRawQuote_NumberEncodings(t *testing.T) {
	// Upstream has been observed sending numerics both as JSON numbers
	// and as strings; both must coerce.
	payload := `{"symbol":"LTC_CAD","bid":"120.5","ask":121.5,"timestamp":"1700000000","change":"0.8"}`

	var raw RawQuote
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	q, err := raw.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if q.Bid != 120.5 || q.Ask != 121.5 {
		t.Errorf("Bid/Ask = %v/%v, want 120.5/121.5", q.Bid, q.Ask)
	}
}

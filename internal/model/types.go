package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Quote is one normalized market reading for a symbol. A Quote is
// immutable once constructed; a new upstream reading produces a new
// Quote, never a mutation of a prior one.
type Quote struct {
	Symbol    string  `json:"symbol"`    // Trading pair (e.g. "BTC_CAD")
	Timestamp int64   `json:"timestamp"` // Upstream-reported time (seconds since epoch)
	Bid       float64 `json:"bid"`       // Best bid
	Ask       float64 `json:"ask"`       // Best ask
	Spot      float64 `json:"spot"`      // (bid + ask) / 2, always recomputed
	Change    float64 `json:"change"`    // Percentage change, upstream-reported
}

// RawQuote is the wire shape of a single upstream record. Numeric fields
// are decoded as json.Number so both string and number encodings coerce;
// a missing field is a zero Number and fails normalization.
type RawQuote struct {
	Symbol    string      `json:"symbol"`
	Bid       json.Number `json:"bid"`
	Ask       json.Number `json:"ask"`
	Timestamp json.Number `json:"timestamp"`
	Change    json.Number `json:"change"`
}

// ErrMissingField indicates a raw record lacked a required field.
var ErrMissingField = errors.New("missing field")

// Normalize validates a raw upstream record and converts it into a Quote.
// Spot is derived from bid and ask; the upstream value, if any, is never
// trusted.
func (r RawQuote) Normalize() (Quote, error) {
	if r.Symbol == "" {
		return Quote{}, fmt.Errorf("symbol: %w", ErrMissingField)
	}

	bid, err := numField("bid", r.Bid)
	if err != nil {
		return Quote{}, err
	}
	ask, err := numField("ask", r.Ask)
	if err != nil {
		return Quote{}, err
	}
	change, err := numField("change", r.Change)
	if err != nil {
		return Quote{}, err
	}

	if r.Timestamp == "" {
		return Quote{}, fmt.Errorf("timestamp: %w", ErrMissingField)
	}
	ts, err := r.Timestamp.Int64()
	if err != nil {
		return Quote{}, fmt.Errorf("timestamp: %w", err)
	}

	return Quote{
		Symbol:    r.Symbol,
		Timestamp: ts,
		Bid:       bid,
		Ask:       ask,
		Spot:      (bid + ask) / 2,
		Change:    change,
	}, nil
}

func numField(name string, n json.Number) (float64, error) {
	if n == "" {
		return 0, fmt.Errorf("%s: %w", name, ErrMissingField)
	}
	v, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

package history

import (
	"context"
	"testing"
	"time"

	"github.com/mbeaudoin/rates-relay/internal/model"
)

func quoteAt(ts int64, spot float64) model.Quote {
	return model.Quote{
		Symbol:    "BTC_CAD",
		Timestamp: ts,
		Bid:       spot - 250,
		Ask:       spot + 250,
		Spot:      spot,
		Change:    1.2,
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMemoryStore_RetentionOnWrite(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := NewMemory()
	m.now = fixedClock(now)

	ctx := context.Background()
	old := now.Add(-31 * 24 * time.Hour).Unix()
	fresh := now.Add(-time.Hour).Unix()

	if err := m.Store(ctx, "BTC_CAD", quoteAt(old, 80000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	// The write that stored it already trimmed it: it was older than the
	// retention period at write time.
	if got := m.count("BTC_CAD"); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}

	if err := m.Store(ctx, "BTC_CAD", quoteAt(fresh, 89000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got := m.count("BTC_CAD"); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}

func TestMemoryStore_DuplicateTimestamps(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := NewMemory()
	m.now = fixedClock(now)

	ctx := context.Background()
	ts := now.Add(-time.Hour).Unix()

	// No dedup key: the same reading stored twice yields two entries.
	if err := m.Store(ctx, "BTC_CAD", quoteAt(ts, 89000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := m.Store(ctx, "BTC_CAD", quoteAt(ts, 89000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got := m.count("BTC_CAD"); got != 2 {
		t.Errorf("count = %d, want 2", got)
	}

	// Both age out together once past retention.
	m.now = fixedClock(now.Add(31 * 24 * time.Hour))
	if err := m.Store(ctx, "BTC_CAD", quoteAt(now.Add(31*24*time.Hour).Unix(), 90000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if got := m.count("BTC_CAD"); got != 1 {
		t.Errorf("count after aging = %d, want 1", got)
	}
}

func TestMemoryStore_PreviousPrice_FirstInWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := NewMemory()
	m.now = fixedClock(now)

	ctx := context.Background()
	older := now.Add(-6 * 24 * time.Hour).Unix()
	newer := now.Add(-1 * time.Hour).Unix()

	if err := m.Store(ctx, "BTC_CAD", quoteAt(older, 85000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := m.Store(ctx, "BTC_CAD", quoteAt(newer, 89000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// The reference point is the earliest entry in the window, not the
	// most recent one.
	q, ok, err := m.PreviousPrice(ctx, "BTC_CAD", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("PreviousPrice failed: %v", err)
	}
	if !ok {
		t.Fatal("PreviousPrice absent, want present")
	}
	if q.Timestamp != older {
		t.Errorf("Timestamp = %d, want %d (earliest in window)", q.Timestamp, older)
	}
	if q.Spot != 85000 {
		t.Errorf("Spot = %v, want 85000", q.Spot)
	}
}

func TestMemoryStore_PreviousPrice_Absent(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := NewMemory()
	m.now = fixedClock(now)

	ctx := context.Background()

	// Empty series.
	if _, ok, err := m.PreviousPrice(ctx, "BTC_CAD", 7*24*time.Hour); err != nil || ok {
		t.Errorf("PreviousPrice = (ok=%v, err=%v), want absent", ok, err)
	}

	// Entry outside the window.
	outside := now.Add(-8 * 24 * time.Hour).Unix()
	if err := m.Store(ctx, "BTC_CAD", quoteAt(outside, 85000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, ok, err := m.PreviousPrice(ctx, "BTC_CAD", 7*24*time.Hour); err != nil || ok {
		t.Errorf("PreviousPrice = (ok=%v, err=%v), want absent", ok, err)
	}
}

func TestMemoryStore_PreviousPrice_CorruptEntry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := NewMemory()
	m.now = fixedClock(now)

	// Corrupt payloads surface as a non-fatal absence.
	m.series["BTC_CAD"] = []entry{{ts: now.Add(-time.Hour).Unix(), payload: []byte("not json")}}

	_, ok, err := m.PreviousPrice(context.Background(), "BTC_CAD", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("PreviousPrice error = %v, want nil", err)
	}
	if ok {
		t.Error("PreviousPrice present for corrupt entry, want absent")
	}
}

func TestMemoryStore_DefaultLookback(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := NewMemory()
	m.now = fixedClock(now)

	ctx := context.Background()
	ts := now.Add(-6 * 24 * time.Hour).Unix()
	if err := m.Store(ctx, "BTC_CAD", quoteAt(ts, 85000)); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// window <= 0 falls back to the 7-day default.
	if _, ok, err := m.PreviousPrice(ctx, "BTC_CAD", 0); err != nil || !ok {
		t.Errorf("PreviousPrice = (ok=%v, err=%v), want present", ok, err)
	}
}

func TestRetentionCutoff(t *testing.T) {
	now := time.Unix(1700000000, 0)
	want := now.Add(-30 * 24 * time.Hour).Unix()
	if got := retentionCutoff(now); got != want {
		t.Errorf("retentionCutoff = %d, want %d", got, want)
	}
}

func TestLookbackBounds(t *testing.T) {
	now := time.Unix(1700000000, 0)

	min, max := lookbackBounds(now, 7*24*time.Hour)
	if max != now.Unix() {
		t.Errorf("max = %d, want %d", max, now.Unix())
	}
	if min != now.Add(-7*24*time.Hour).Unix() {
		t.Errorf("min = %d, want %d", min, now.Add(-7*24*time.Hour).Unix())
	}
}

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mbeaudoin/rates-relay/internal/model"
)

// entry is one stored (timestamp, payload) pair.
type entry struct {
	ts      int64
	payload []byte
}

// MemoryStore is an in-process Store for development and tests. It uses
// the same JSON entry encoding as the durable backends.
type MemoryStore struct {
	mu     sync.Mutex
	series map[string][]entry
	now    func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		series: make(map[string][]entry),
		now:    time.Now,
	}
}

// Store appends an entry and trims the symbol's series.
func (m *MemoryStore) Store(ctx context.Context, symbol string, q model.Quote) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := append(m.series[symbol], entry{ts: q.Timestamp, payload: payload})
	// Keep ascending timestamp order; stable so duplicate timestamps
	// retain arrival order.
	sort.SliceStable(s, func(i, j int) bool { return s[i].ts < s[j].ts })

	cutoff := retentionCutoff(m.now())
	trimmed := s[:0]
	for _, e := range s {
		if e.ts >= cutoff {
			trimmed = append(trimmed, e)
		}
	}
	m.series[symbol] = trimmed

	return nil
}

// PreviousPrice returns the earliest entry within the lookback window.
func (m *MemoryStore) PreviousPrice(ctx context.Context, symbol string, window time.Duration) (model.Quote, bool, error) {
	min, max := lookbackBounds(m.now(), window)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.series[symbol] {
		if e.ts < min || e.ts > max {
			continue
		}
		var q model.Quote
		if err := json.Unmarshal(e.payload, &q); err != nil {
			return model.Quote{}, false, nil
		}
		return q, true, nil
	}
	return model.Quote{}, false, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() {}

// count reports the number of retained entries for symbol.
func (m *MemoryStore) count(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.series[symbol])
}

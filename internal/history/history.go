package history

import (
	"context"
	"time"

	"github.com/mbeaudoin/rates-relay/internal/model"
)

// RetentionPeriod is the maximum age of a stored entry. Every write
// trims entries older than this from the written symbol's series.
const RetentionPeriod = 30 * 24 * time.Hour

// DefaultLookback is the window used to find a previous reference price
// when the caller does not specify one.
const DefaultLookback = 7 * 24 * time.Hour

// Store is a durable, per-symbol time series of quotes.
//
// Implementations must be safe for concurrent use by many sessions;
// concurrent writes to the same symbol are serialized by the backend.
type Store interface {
	// Store appends an entry for symbol, then trims entries older than
	// RetentionPeriod from that symbol's series. Duplicate timestamps
	// coexist as distinct entries. An unreachable backend is an error;
	// losing write capability invalidates change-tracking guarantees.
	Store(ctx context.Context, symbol string, q model.Quote) error

	// PreviousPrice returns the earliest entry within [now-window, now].
	// The second return is false when no entry falls in the window or
	// when a stored payload cannot be parsed back into a Quote (corrupt
	// entries are a non-fatal absence, not an error).
	PreviousPrice(ctx context.Context, symbol string, window time.Duration) (model.Quote, bool, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}

// retentionCutoff returns the oldest timestamp allowed to survive a
// write performed at now. Entries strictly older are purged.
func retentionCutoff(now time.Time) int64 {
	return now.Add(-RetentionPeriod).Unix()
}

// lookbackBounds returns the inclusive [min, max] timestamp range for a
// previous-price query performed at now.
func lookbackBounds(now time.Time, window time.Duration) (int64, int64) {
	if window <= 0 {
		window = DefaultLookback
	}
	return now.Add(-window).Unix(), now.Unix()
}

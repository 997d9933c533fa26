package rates

import (
	"context"
	"log/slog"
	"time"

	"github.com/mbeaudoin/rates-relay/internal/history"
	"github.com/mbeaudoin/rates-relay/internal/model"
)

// Fetcher provides raw quote snapshots from the upstream feed.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.RawQuote, error)
}

// Aggregator normalizes upstream snapshots into per-symbol quotes,
// recording each successful quote in the price history store.
type Aggregator struct {
	fetcher   Fetcher
	store     history.Store
	supported map[string]struct{}
	logger    *slog.Logger
}

// New creates an Aggregator over the given feed, store, and supported
// symbol set.
func New(fetcher Fetcher, store history.Store, supported map[string]struct{}, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		fetcher:   fetcher,
		store:     store,
		supported: supported,
		logger:    logger,
	}
}

// Refresh runs one cycle: fetch the upstream snapshot, filter it to the
// supported universe, normalize and store each record, and return the
// result keyed by symbol (last record wins on duplicates).
//
// Upstream failures and per-record defects produce a smaller (possibly
// empty) result, never an error. A store failure aborts the cycle; it is
// more severe than a data defect because it breaks the guarantee that
// every published quote is durably recorded.
func (a *Aggregator) Refresh(ctx context.Context) (map[string]model.Quote, error) {
	start := time.Now()

	records, err := a.fetcher.Fetch(ctx)
	if err != nil {
		a.logger.Warn("upstream fetch failed", "error", err)
		return map[string]model.Quote{}, nil
	}
	if len(records) == 0 {
		return map[string]model.Quote{}, nil
	}

	result := make(map[string]model.Quote)
	var skipped int

	for _, raw := range records {
		if _, ok := a.supported[raw.Symbol]; !ok {
			// Upstream reports symbols outside the configured universe;
			// not an error.
			continue
		}

		q, err := raw.Normalize()
		if err != nil {
			skipped++
			a.logger.Error("skipping malformed record",
				"symbol", raw.Symbol,
				"error", err,
			)
			continue
		}

		if err := a.store.Store(ctx, q.Symbol, q); err != nil {
			return nil, err
		}

		result[q.Symbol] = q
	}

	a.logger.Debug("refresh cycle complete",
		"records", len(records),
		"published", len(result),
		"skipped", skipped,
		"duration", time.Since(start),
	)

	return result, nil
}

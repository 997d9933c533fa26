package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mbeaudoin/rates-relay/internal/config"
	"github.com/mbeaudoin/rates-relay/internal/database"
	"github.com/mbeaudoin/rates-relay/internal/model"
)

// PostgresStore persists price history in a PostgreSQL table, one row
// per entry, indexed by (symbol, ts).
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgres connects to PostgreSQL and ensures the schema exists.
func NewPostgres(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger,
		now:    time.Now,
	}

	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS price_history (
			symbol  TEXT   NOT NULL,
			ts      BIGINT NOT NULL,
			payload JSONB  NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS price_history_symbol_ts_idx
		ON price_history (symbol, ts)
	`)
	return err
}

// Store inserts the entry and trims the symbol's series in one
// transaction, so concurrent writers to the same symbol serialize at
// the database.
func (s *PostgresStore) Store(ctx context.Context, symbol string, q model.Quote) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin store tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO price_history (symbol, ts, payload) VALUES ($1, $2, $3)`,
		symbol, q.Timestamp, payload,
	); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM price_history WHERE symbol = $1 AND ts < $2`,
		symbol, retentionCutoff(s.now()),
	); err != nil {
		return fmt.Errorf("trim entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit store tx: %w", err)
	}
	return nil
}

// PreviousPrice returns the earliest entry within the lookback window.
func (s *PostgresStore) PreviousPrice(ctx context.Context, symbol string, window time.Duration) (model.Quote, bool, error) {
	min, max := lookbackBounds(s.now(), window)

	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM price_history
		WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC
		LIMIT 1
	`, symbol, min, max).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Quote{}, false, nil
	}
	if err != nil {
		return model.Quote{}, false, fmt.Errorf("query previous price: %w", err)
	}

	var q model.Quote
	if err := json.Unmarshal(payload, &q); err != nil {
		s.logger.Warn("corrupt price history entry",
			"symbol", symbol,
			"error", err,
		)
		return model.Quote{}, false, nil
	}
	return q, true, nil
}

// Ping verifies the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

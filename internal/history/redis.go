package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mbeaudoin/rates-relay/internal/config"
	"github.com/mbeaudoin/rates-relay/internal/model"
)

// redisKeyPrefix namespaces one sorted set per symbol, scored by entry
// timestamp.
const redisKeyPrefix = "price_history:"

// RedisStore persists price history in Redis sorted sets.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Store adds the entry and trims the symbol's series in one pipelined
// transaction.
func (s *RedisStore) Store(ctx context.Context, symbol string, q model.Quote) error {
	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	key := redisKeyPrefix + symbol
	cutoff := retentionCutoff(s.now())

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(q.Timestamp),
		Member: payload,
	})
	// Exclusive bound: entries at exactly the cutoff are not yet older
	// than the retention period.
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store entry: %w", err)
	}
	return nil
}

// PreviousPrice returns the earliest entry within the lookback window.
func (s *RedisStore) PreviousPrice(ctx context.Context, symbol string, window time.Duration) (model.Quote, bool, error) {
	min, max := lookbackBounds(s.now(), window)

	vals, err := s.client.ZRangeByScore(ctx, redisKeyPrefix+symbol, &redis.ZRangeBy{
		Min:    strconv.FormatInt(min, 10),
		Max:    strconv.FormatInt(max, 10),
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return model.Quote{}, false, fmt.Errorf("query previous price: %w", err)
	}
	if len(vals) == 0 {
		return model.Quote{}, false, nil
	}

	var q model.Quote
	if err := json.Unmarshal([]byte(vals[0]), &q); err != nil {
		s.logger.Warn("corrupt price history entry",
			"symbol", symbol,
			"error", err,
		)
		return model.Quote{}, false, nil
	}
	return q, true, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() {
	s.client.Close()
}

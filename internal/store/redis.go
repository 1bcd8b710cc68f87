package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aftabjack/options-data-b/internal/model"
)

const statsKey = "stats:global"

// Compile-time check that RedisStore implements Store.
var _ Store = (*RedisStore)(nil)

// Config holds Redis connection settings.
type Config struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int // Bounded maximum concurrent connections
	DialTimeout time.Duration
	ReadTimeout time.Duration

	Namespace string        // Hash key prefix (e.g., "option")
	TTL       time.Duration // Per-key expiry, re-armed on every write
}

// RedisStore writes ticker snapshots as per-symbol hashes with a TTL.
type RedisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewRedis connects a RedisStore and verifies the connection.
func NewRedis(ctx context.Context, cfg Config, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		namespace: cfg.Namespace,
		ttl:       cfg.TTL,
		logger:    logger,
	}, nil
}

// Key returns the hash key for a symbol.
func (s *RedisStore) Key(symbol string) string {
	return s.namespace + ":" + symbol
}

// WriteBatch upserts every record under its symbol key in one non-transactional
// pipeline. Each key is deleted before the HSET so a write replaces the prior
// snapshot in full — a partial update never leaks stale fields from an older
// message. The TTL is re-armed on every write and the global counters are
// submitted in the same pipeline.
func (s *RedisStore) WriteBatch(ctx context.Context, records []model.TickerRecord) error {
	if len(records) == 0 {
		return nil
	}

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := range records {
			rec := &records[i]
			if rec.Symbol == "" {
				continue
			}
			key := s.Key(rec.Symbol)
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, rec.Fields())
			pipe.Expire(ctx, key, s.ttl)
		}

		pipe.HIncrBy(ctx, statsKey, "messages", int64(len(records)))
		pipe.HSet(ctx, statsKey, "last_update",
			strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 6, 64))
		return nil
	})
	if err != nil {
		return fmt.Errorf("pipeline write: %w", err)
	}
	return nil
}

// Ping verifies the connection is healthy.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

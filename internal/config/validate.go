package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *TrackerConfig) Validate() error {
	if c.API.MaxRetries < 1 {
		return errors.New("api.max_retries must be >= 1")
	}

	if c.Redis.Addr == "" {
		return errors.New("redis.addr is required")
	}
	if c.Redis.PoolSize < 1 {
		return errors.New("redis.pool_size must be >= 1")
	}
	if c.Redis.TTL <= 0 {
		return errors.New("redis.ttl must be positive")
	}

	if c.Feed.WSURL == "" {
		return errors.New("feed.ws_url is required")
	}
	if c.Feed.SubscribeChunkSize < 1 {
		return errors.New("feed.subscribe_chunk_size must be >= 1")
	}
	if c.Feed.MaxReconnectAttempts < 1 {
		return errors.New("feed.max_reconnect_attempts must be >= 1")
	}
	if c.Feed.StaleAfter <= c.Feed.PingInterval {
		return fmt.Errorf("feed.stale_after (%v) must exceed feed.ping_interval (%v), or a slow feed reads as a dead one",
			c.Feed.StaleAfter, c.Feed.PingInterval)
	}

	if len(c.Catalog.Assets) == 0 {
		return errors.New("catalog.assets must not be empty")
	}

	if c.Queue.Capacity < 1 {
		return errors.New("queue.capacity must be >= 1")
	}

	if c.Writer.BatchSize < 1 {
		return errors.New("writer.batch_size must be >= 1")
	}
	if c.Writer.BatchSize > c.Queue.Capacity {
		return fmt.Errorf("writer.batch_size (%d) cannot exceed queue.capacity (%d)",
			c.Writer.BatchSize, c.Queue.Capacity)
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

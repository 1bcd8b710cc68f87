package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL    = "https://api.bybit.com"
	DefaultAPITimeout = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisPoolSize    = 50
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultRedisReadTimeout = 5 * time.Second
	DefaultNamespace        = "option"
	DefaultTTL              = 24 * time.Hour

	DefaultWSURL                = "wss://stream.bybit.com/v5/public/option"
	DefaultPingInterval         = 45 * time.Second
	DefaultStaleAfter           = 90 * time.Second
	DefaultPollInterval         = 1 * time.Second
	DefaultReconnectDelay       = 10 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultSubscribeChunkSize   = 100
	DefaultSubscribeChunkDelay  = 500 * time.Millisecond
	DefaultSubscribeTimeout     = 10 * time.Second
	DefaultMessageBufferSize    = 4096

	DefaultCategory  = "option"
	DefaultCacheFile = "symbols_cache.json"
	DefaultCacheTTL  = 24 * time.Hour

	DefaultQueueCapacity = 2000

	DefaultBatchSize       = 100
	DefaultBatchTimeout    = 1 * time.Second
	DefaultTickInterval    = 50 * time.Millisecond
	DefaultErrorAlertEvery = 10

	DefaultHealthPort      = 8080
	DefaultUnhealthyAfter  = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultAlertThrottle = 5 * time.Minute
	DefaultProject       = "Options Tracker"

	DefaultLogLevel = "info"
)

// DefaultAssets are the base assets tracked when none are configured.
var DefaultAssets = []string{"BTC", "ETH", "SOL"}

func (c *TrackerConfig) applyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryDelay == 0 {
		c.API.RetryDelay = DefaultRetryDelay
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = DefaultRedisPoolSize
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = DefaultRedisReadTimeout
	}
	if c.Redis.Namespace == "" {
		c.Redis.Namespace = DefaultNamespace
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = DefaultTTL
	}

	// Feed defaults
	if c.Feed.WSURL == "" {
		c.Feed.WSURL = DefaultWSURL
	}
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultPingInterval
	}
	if c.Feed.StaleAfter == 0 {
		c.Feed.StaleAfter = DefaultStaleAfter
	}
	if c.Feed.PollInterval == 0 {
		c.Feed.PollInterval = DefaultPollInterval
	}
	if c.Feed.ReconnectDelay == 0 {
		c.Feed.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Feed.MaxReconnectAttempts == 0 {
		c.Feed.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Feed.SubscribeChunkSize == 0 {
		c.Feed.SubscribeChunkSize = DefaultSubscribeChunkSize
	}
	if c.Feed.SubscribeChunkDelay == 0 {
		c.Feed.SubscribeChunkDelay = DefaultSubscribeChunkDelay
	}
	if c.Feed.SubscribeTimeout == 0 {
		c.Feed.SubscribeTimeout = DefaultSubscribeTimeout
	}
	if c.Feed.MessageBufferSize == 0 {
		c.Feed.MessageBufferSize = DefaultMessageBufferSize
	}

	// Catalog defaults
	if len(c.Catalog.Assets) == 0 {
		c.Catalog.Assets = DefaultAssets
	}
	if c.Catalog.Category == "" {
		c.Catalog.Category = DefaultCategory
	}
	if c.Catalog.CacheFile == "" {
		c.Catalog.CacheFile = DefaultCacheFile
	}
	if c.Catalog.CacheTTL == 0 {
		c.Catalog.CacheTTL = DefaultCacheTTL
	}

	// Queue defaults
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = DefaultQueueCapacity
	}

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.BatchTimeout == 0 {
		c.Writer.BatchTimeout = DefaultBatchTimeout
	}
	if c.Writer.TickInterval == 0 {
		c.Writer.TickInterval = DefaultTickInterval
	}
	if c.Writer.ErrorAlertEvery == 0 {
		c.Writer.ErrorAlertEvery = DefaultErrorAlertEvery
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.UnhealthyAfter == 0 {
		c.Health.UnhealthyAfter = DefaultUnhealthyAfter
	}
	if c.Health.ShutdownTimeout == 0 {
		c.Health.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Telegram defaults
	if c.Telegram.Throttle == 0 {
		c.Telegram.Throttle = DefaultAlertThrottle
	}
	if c.Telegram.Project == "" {
		c.Telegram.Project = DefaultProject
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

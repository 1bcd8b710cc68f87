package config

import "time"

// TrackerConfig is the root configuration for a tracker instance.
type TrackerConfig struct {
	API      APIConfig      `yaml:"api"`
	Redis    RedisConfig    `yaml:"redis"`
	Feed     FeedConfig     `yaml:"feed"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Queue    QueueConfig    `yaml:"queue"`
	Writer   WriterConfig   `yaml:"writer"`
	Health   HealthConfig   `yaml:"health"`
	Telegram TelegramConfig `yaml:"telegram"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig holds exchange REST API settings.
type APIConfig struct {
	RestURL    string        `yaml:"rest_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// RedisConfig holds the store connection.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	PoolSize    int           `yaml:"pool_size"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	Namespace   string        `yaml:"namespace"`
	TTL         time.Duration `yaml:"ttl"`
}

// FeedConfig holds websocket feed and supervisor settings.
type FeedConfig struct {
	WSURL                string        `yaml:"ws_url"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	StaleAfter           time.Duration `yaml:"stale_after"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	SubscribeChunkSize   int           `yaml:"subscribe_chunk_size"`
	SubscribeChunkDelay  time.Duration `yaml:"subscribe_chunk_delay"`
	SubscribeTimeout     time.Duration `yaml:"subscribe_timeout"`
	MessageBufferSize    int           `yaml:"message_buffer_size"`
}

// CatalogConfig holds instrument catalog settings.
type CatalogConfig struct {
	Assets    []string      `yaml:"assets"`
	Category  string        `yaml:"category"`
	CacheFile string        `yaml:"cache_file"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// QueueConfig holds the ingestion queue settings.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// WriterConfig holds batch writer settings.
type WriterConfig struct {
	BatchSize       int           `yaml:"batch_size"`
	BatchTimeout    time.Duration `yaml:"batch_timeout"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	ErrorAlertEvery int           `yaml:"error_alert_every"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Port            int           `yaml:"port"`
	UnhealthyAfter  time.Duration `yaml:"unhealthy_after"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelegramConfig holds critical-alert delivery settings.
type TelegramConfig struct {
	BotToken string        `yaml:"bot_token"`
	ChatID   string        `yaml:"chat_id"`
	Throttle time.Duration `yaml:"throttle"`
	Project  string        `yaml:"project"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
api:
  rest_url: https://api-testnet.bybit.com
redis:
  addr: redis:6379
  db: 1
feed:
  ws_url: wss://stream-testnet.bybit.com/v5/public/option
catalog:
  assets: [BTC, ETH]
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.RestURL != "https://api-testnet.bybit.com" {
		t.Errorf("API.RestURL = %q", cfg.API.RestURL)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Redis.DB != 1 {
		t.Errorf("Redis.DB = %d, want 1", cfg.Redis.DB)
	}
	if len(cfg.Catalog.Assets) != 2 {
		t.Errorf("Catalog.Assets = %v", cfg.Catalog.Assets)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "secret123")

	yaml := `
redis:
  addr: localhost:6379
  password: ${TEST_REDIS_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Redis.Password != "secret123" {
		t.Errorf("Redis.Password = %q, want %q", cfg.Redis.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "redis:\n  addr: localhost:6379\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Feed.WSURL != DefaultWSURL {
		t.Errorf("Feed.WSURL = %q, want default", cfg.Feed.WSURL)
	}
	if cfg.Writer.BatchSize != DefaultBatchSize {
		t.Errorf("Writer.BatchSize = %d, want %d", cfg.Writer.BatchSize, DefaultBatchSize)
	}
	if cfg.Queue.Capacity != DefaultQueueCapacity {
		t.Errorf("Queue.Capacity = %d, want %d", cfg.Queue.Capacity, DefaultQueueCapacity)
	}
	if cfg.Redis.TTL != DefaultTTL {
		t.Errorf("Redis.TTL = %v, want %v", cfg.Redis.TTL, DefaultTTL)
	}
	if len(cfg.Catalog.Assets) != 3 {
		t.Errorf("Catalog.Assets = %v, want BTC,ETH,SOL", cfg.Catalog.Assets)
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestValidate_StaleAfterMustExceedPingInterval(t *testing.T) {
	cfg := Default()
	cfg.Feed.StaleAfter = 10 * time.Second
	cfg.Feed.PingInterval = 45 * time.Second

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when stale_after <= ping_interval")
	}
}

func TestValidate_NegativeMaxRetries(t *testing.T) {
	// applyDefaults only patches zero, so a negative value would otherwise
	// reach the retry loops and skip them entirely.
	cfg := Default()
	cfg.API.MaxRetries = -1

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when api.max_retries < 1")
	}
}

func TestValidate_BatchLargerThanQueue(t *testing.T) {
	cfg := Default()
	cfg.Writer.BatchSize = 5000
	cfg.Queue.Capacity = 100

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when batch_size exceeds queue capacity")
	}
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	if _, err := LoadAndValidate(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

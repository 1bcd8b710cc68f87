package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aftabjack/options-data-b/internal/api"
)

// ErrNoSymbols is returned when neither the listing API nor the cache can
// supply a usable symbol list. Startup cannot proceed without symbols.
var ErrNoSymbols = errors.New("no symbols available from api or cache")

// InstrumentSource lists instruments for one base asset.
type InstrumentSource interface {
	GetAllInstruments(ctx context.Context, category, baseCoin string) ([]api.Instrument, error)
}

// Config holds catalog loader settings.
type Config struct {
	Assets     []string      // Base assets to track (e.g., BTC, ETH, SOL)
	Category   string        // Instrument class filter (e.g., "option")
	CacheFile  string        // Local cache path
	CacheTTL   time.Duration // Cache validity window
	Retries    int           // Fetch attempts per Load
	RetryDelay time.Duration // Fixed delay between attempts
}

// Loader supplies the symbol set to subscribe to, with a cache fallback.
type Loader struct {
	cfg    Config
	source InstrumentSource
	logger *slog.Logger
}

// cacheFile is the on-disk cache layout.
type cacheFile struct {
	Symbols   []string       `json:"symbols"`
	Count     int            `json:"count"`
	UpdatedAt time.Time      `json:"updated_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	ByAsset   map[string]int `json:"by_asset"`
}

// NewLoader creates a catalog Loader.
func NewLoader(cfg Config, source InstrumentSource, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cfg: cfg, source: source, logger: logger}
}

// Load returns the ordered set of currently tradable symbols.
//
// A non-expired cache short-circuits the fetch. Otherwise the listing is
// fetched with bounded retries and persisted with a new expiry. If every
// attempt fails, an expired cache still serves as a degraded fallback;
// with no usable list at all, Load returns ErrNoSymbols.
func (l *Loader) Load(ctx context.Context) ([]string, error) {
	cached, cacheErr := l.readCache()
	if cacheErr == nil && time.Now().Before(cached.ExpiresAt) {
		l.logger.Info("symbol catalog loaded from cache",
			"count", cached.Count,
			"expires_at", cached.ExpiresAt,
		)
		return cached.Symbols, nil
	}

	symbols, err := l.fetchWithRetry(ctx)
	if err != nil {
		if cacheErr == nil && len(cached.Symbols) > 0 {
			l.logger.Warn("catalog fetch failed, falling back to expired cache",
				"error", err,
				"count", cached.Count,
				"cached_at", cached.UpdatedAt,
			)
			return cached.Symbols, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrNoSymbols, err)
	}
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	if err := l.writeCache(symbols); err != nil {
		l.logger.Warn("failed to write symbol cache", "error", err)
	}

	return symbols, nil
}

// Refresh fetches a fresh catalog unconditionally and rewrites the cache.
func (l *Loader) Refresh(ctx context.Context) ([]string, error) {
	symbols, err := l.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}
	if err := l.writeCache(symbols); err != nil {
		return nil, fmt.Errorf("write symbol cache: %w", err)
	}
	return symbols, nil
}

// fetchWithRetry tries the full listing a bounded number of times with a
// fixed inter-attempt delay.
func (l *Loader) fetchWithRetry(ctx context.Context) ([]string, error) {
	var lastErr error

	for attempt := 1; attempt <= l.cfg.Retries; attempt++ {
		symbols, err := l.fetch(ctx)
		if err == nil {
			return symbols, nil
		}
		lastErr = err

		l.logger.Warn("catalog fetch attempt failed",
			"attempt", attempt,
			"retries", l.cfg.Retries,
			"error", err,
		)

		if attempt < l.cfg.Retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(l.cfg.RetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("catalog fetch failed after %d attempts: %w", l.cfg.Retries, lastErr)
}

// fetch lists every asset and keeps only tradable symbols.
func (l *Loader) fetch(ctx context.Context) ([]string, error) {
	var symbols []string

	for _, asset := range l.cfg.Assets {
		instruments, err := l.source.GetAllInstruments(ctx, l.cfg.Category, asset)
		if err != nil {
			return nil, fmt.Errorf("list %s instruments: %w", asset, err)
		}
		for _, inst := range instruments {
			if inst.Tradable() {
				symbols = append(symbols, inst.Symbol)
			}
		}
	}

	return symbols, nil
}

func (l *Loader) readCache() (*cacheFile, error) {
	data, err := os.ReadFile(l.cfg.CacheFile)
	if err != nil {
		return nil, err
	}

	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("parse cache file: %w", err)
	}
	return &cached, nil
}

func (l *Loader) writeCache(symbols []string) error {
	byAsset := make(map[string]int, len(l.cfg.Assets))
	for _, asset := range l.cfg.Assets {
		prefix := asset + "-"
		for _, s := range symbols {
			if strings.HasPrefix(s, prefix) {
				byAsset[asset]++
			}
		}
	}

	now := time.Now()
	data, err := json.MarshalIndent(cacheFile{
		Symbols:   symbols,
		Count:     len(symbols),
		UpdatedAt: now,
		ExpiresAt: now.Add(l.cfg.CacheTTL),
		ByAsset:   byAsset,
	}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(l.cfg.CacheFile, data, 0o644)
}

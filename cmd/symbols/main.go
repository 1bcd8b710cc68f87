// Command symbols refreshes the instrument catalog cache and prints a
// per-asset summary. Run it to inspect what the tracker would subscribe to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aftabjack/options-data-b/internal/api"
	"github.com/aftabjack/options-data-b/internal/catalog"
	"github.com/aftabjack/options-data-b/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/tracker.yaml", "path to config file")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall fetch timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	apiClient := api.NewClient(
		cfg.API.RestURL,
		cfg.API.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryDelay),
	)

	loader := catalog.NewLoader(catalog.Config{
		Assets:     cfg.Catalog.Assets,
		Category:   cfg.Catalog.Category,
		CacheFile:  cfg.Catalog.CacheFile,
		CacheTTL:   cfg.Catalog.CacheTTL,
		Retries:    cfg.API.MaxRetries,
		RetryDelay: cfg.API.RetryDelay,
	}, apiClient, logger)

	symbols, err := loader.Refresh(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "refresh catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("fetched %d tradable symbols\n", len(symbols))
	for _, asset := range cfg.Catalog.Assets {
		n := 0
		prefix := asset + "-"
		for _, s := range symbols {
			if strings.HasPrefix(s, prefix) {
				n++
			}
		}
		fmt.Printf("  %-6s %d\n", asset, n)
	}
	fmt.Printf("cache written to %s (expires in %s)\n", cfg.Catalog.CacheFile, cfg.Catalog.CacheTTL)
}

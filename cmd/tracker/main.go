package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aftabjack/options-data-b/internal/api"
	"github.com/aftabjack/options-data-b/internal/catalog"
	"github.com/aftabjack/options-data-b/internal/config"
	"github.com/aftabjack/options-data-b/internal/connection"
	"github.com/aftabjack/options-data-b/internal/health"
	"github.com/aftabjack/options-data-b/internal/metrics"
	"github.com/aftabjack/options-data-b/internal/notify"
	"github.com/aftabjack/options-data-b/internal/queue"
	"github.com/aftabjack/options-data-b/internal/store"
	"github.com/aftabjack/options-data-b/internal/version"
	"github.com/aftabjack/options-data-b/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/tracker.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting tracker",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Alerts (no-op when the bot token is unset)
	alerts := notify.NewTelegram(notify.Config{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		Throttle: cfg.Telegram.Throttle,
		Project:  cfg.Telegram.Project,
	}, logger)

	// Connect to the store
	logger.Info("connecting to store", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	st, err := store.NewRedis(ctx, store.Config{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
		Namespace:   cfg.Redis.Namespace,
		TTL:         cfg.Redis.TTL,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}

	// Load the instrument catalog
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

	symbols, err := loader.Load(ctx)
	if err != nil {
		logger.Error("failed to load instrument catalog", "error", err)
		alerts.CatalogUnavailable("instrument catalog unavailable, cannot start", map[string]string{
			"error": err.Error(),
		})
		st.Close()
		os.Exit(1)
	}
	logger.Info("instrument catalog loaded", "symbols", len(symbols))

	// Pipeline: queue, metrics, writer, supervisor
	q := queue.New(cfg.Queue.Capacity)
	m := metrics.New()

	bw := writer.New(writer.Config{
		BatchSize:       cfg.Writer.BatchSize,
		BatchTimeout:    cfg.Writer.BatchTimeout,
		TickInterval:    cfg.Writer.TickInterval,
		ErrorAlertEvery: cfg.Writer.ErrorAlertEvery,
	}, q, st, m, alerts, logger)
	bw.Start(ctx)

	factory := func() connection.Transport {
		return connection.NewClient(connection.ClientConfig{
			URL:              cfg.Feed.WSURL,
			SubscribeTimeout: cfg.Feed.SubscribeTimeout,
			BufferSize:       cfg.Feed.MessageBufferSize,
		}, logger)
	}

	sup := connection.NewSupervisor(connection.SupervisorConfig{
		SubscribeChunkSize:   cfg.Feed.SubscribeChunkSize,
		SubscribeChunkDelay:  cfg.Feed.SubscribeChunkDelay,
		PingInterval:         cfg.Feed.PingInterval,
		StaleAfter:           cfg.Feed.StaleAfter,
		PollInterval:         cfg.Feed.PollInterval,
		ReconnectDelay:       cfg.Feed.ReconnectDelay,
		MaxReconnectAttempts: cfg.Feed.MaxReconnectAttempts,
	}, factory, symbols, q, m, alerts, logger)

	// Health server
	var healthSrv *health.Server
	if cfg.Health.Enabled {
		healthSrv = health.New(health.Config{
			Port:           cfg.Health.Port,
			UnhealthyAfter: cfg.Health.UnhealthyAfter,
		}, m, q, sup.State, st, logger)
		healthSrv.Start()
	}

	// The supervisor runs in the foreground until shutdown or exhaustion.
	runErr := sup.Run(ctx)
	if runErr != nil {
		logger.Error("feed supervisor gave up", "error", runErr)
	}

	logger.Info("shutting down...")
	cancel()

	shutdownTimeout := cfg.Health.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	bw.Stop(shutdownCtx)
	if healthSrv != nil {
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown", "error", err)
		}
	}
	// Close the store after the final flush has gone through.
	if err := st.Close(); err != nil {
		logger.Warn("store close", "error", err)
	}

	snap := m.Snapshot()
	logger.Info("tracker stopped",
		"received", snap.Received,
		"processed", snap.Processed,
		"dropped", snap.Dropped,
		"write_errors", snap.WriteErrors,
		"reconnects", snap.Reconnects,
	)

	if runErr != nil {
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aftabjack/options-data-b/internal/metrics"
	"github.com/aftabjack/options-data-b/internal/notify"
	"github.com/aftabjack/options-data-b/internal/queue"
	"github.com/aftabjack/options-data-b/internal/store"
)

// Config tunes the batch writer.
type Config struct {
	BatchSize       int           // Max records per store write
	BatchTimeout    time.Duration // Flush a partial batch after this long
	TickInterval    time.Duration // Queue poll cadence
	ErrorAlertEvery int           // Alert on every Nth consecutive failed batch
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:       100,
		BatchTimeout:    time.Second,
		TickInterval:    50 * time.Millisecond,
		ErrorAlertEvery: 10,
	}
}

// BatchWriter drains the record queue into the store in batches. A batch
// goes out when it is full or when records have been sitting for
// BatchTimeout. A failed batch is dropped rather than retried: the feed
// replaces every symbol's value on its next update anyway.
type BatchWriter struct {
	cfg     Config
	queue   *queue.Queue
	store   store.Store
	metrics *metrics.Metrics
	alerts  notify.Alerter
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	consecutiveErrs int
}

// New creates a batch writer draining q into st.
func New(cfg Config, q *queue.Queue, st store.Store, m *metrics.Metrics,
	alerts notify.Alerter, logger *slog.Logger) *BatchWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if alerts == nil {
		alerts = notify.NopAlerter{}
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	return &BatchWriter{
		cfg:     cfg,
		queue:   q,
		store:   st,
		metrics: m,
		alerts:  alerts,
		logger:  logger,
	}
}

// Start launches the drain loop.
func (w *BatchWriter) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("batch writer started",
		"batch_size", w.cfg.BatchSize,
		"batch_timeout", w.cfg.BatchTimeout,
	)
}

// Stop shuts the loop down and writes whatever is still queued. The ctx
// bounds how long shutdown may take.
func (w *BatchWriter) Stop(ctx context.Context) {
	w.logger.Info("stopping batch writer")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("batch writer stop timed out")
		return
	}

	// Final drain. Each flush removes a batch from the queue whether or not
	// the write succeeds, so this terminates.
	for w.queue.Len() > 0 {
		w.flush(ctx)
		if ctx.Err() != nil {
			w.logger.Warn("final drain cut short", "remaining", w.queue.Len())
			return
		}
	}
	w.logger.Info("batch writer stopped")
}

func (w *BatchWriter) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	lastFlush := time.Now()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			depth := w.queue.Len()
			if depth == 0 {
				// Nothing waiting: restart the clock so a fresh trickle
				// flushes one BatchTimeout after it starts arriving.
				lastFlush = time.Now()
				continue
			}
			if depth >= w.cfg.BatchSize || time.Since(lastFlush) >= w.cfg.BatchTimeout {
				// A drained batch is already accepted; the store write must
				// outlive the run loop's cancellation or a clean stop loses
				// it. Stop bounds total shutdown time with its own ctx.
				w.flush(context.WithoutCancel(w.ctx))
				lastFlush = time.Now()
			}
		}
	}
}

// flush writes one batch. On failure the batch is counted and discarded.
func (w *BatchWriter) flush(ctx context.Context) {
	batch := w.queue.DrainUpTo(w.cfg.BatchSize)
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	if err := w.store.WriteBatch(ctx, batch); err != nil {
		w.metrics.AddWriteErrors(1)
		w.consecutiveErrs++
		w.logger.Error("batch write failed", "error", err, "count", len(batch))
		if w.cfg.ErrorAlertEvery > 0 && w.consecutiveErrs%w.cfg.ErrorAlertEvery == 0 {
			w.alerts.StoreFailing("batch writes failing", map[string]string{
				"consecutive_failures": fmt.Sprintf("%d", w.consecutiveErrs),
				"last_error":           err.Error(),
			})
		}
		return
	}

	w.consecutiveErrs = 0
	w.metrics.AddProcessed(int64(len(batch)))
	w.logger.Debug("flushed batch", "count", len(batch), "duration", time.Since(start))
}

package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aftabjack/options-data-b/internal/metrics"
	"github.com/aftabjack/options-data-b/internal/normalize"
	"github.com/aftabjack/options-data-b/internal/notify"
	"github.com/aftabjack/options-data-b/internal/queue"
)

// Supervisor owns the feed connection lifecycle. It connects, subscribes in
// chunks, pumps normalized records into the write queue, sends keepalives,
// watches for inbound silence, and reconnects with linear backoff. It gives
// up only after the attempt budget is exhausted.
type Supervisor struct {
	cfg          SupervisorConfig
	newTransport TransportFactory
	symbols      []string
	queue        *queue.Queue
	metrics      *metrics.Metrics
	alerts       notify.Alerter
	logger       *slog.Logger

	state    atomic.Int32
	attempts int
}

// NewSupervisor creates a supervisor. The factory is invoked once per
// connection attempt so each attempt gets a fresh transport.
func NewSupervisor(cfg SupervisorConfig, factory TransportFactory, symbols []string,
	q *queue.Queue, m *metrics.Metrics, alerts notify.Alerter, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if alerts == nil {
		alerts = notify.NopAlerter{}
	}
	def := DefaultSupervisorConfig()
	if cfg.SubscribeChunkSize <= 0 {
		cfg.SubscribeChunkSize = def.SubscribeChunkSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	return &Supervisor{
		cfg:          cfg,
		newTransport: factory,
		symbols:      symbols,
		queue:        q,
		metrics:      m,
		alerts:       alerts,
		logger:       logger,
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(st State) {
	old := State(s.state.Swap(int32(st)))
	if old != st {
		s.logger.Info("connection state", "from", old.String(), "to", st.String())
	}
}

// Run drives the connection until ctx is cancelled or the reconnect budget
// is exhausted. A cancelled context is a clean shutdown and returns nil;
// exhaustion returns ErrReconnectExhausted.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return nil
		}

		s.setState(StateConnecting)
		tr := s.newTransport()

		err := s.connectAndSubscribe(ctx, tr)
		if err == nil {
			s.attempts = 0
			s.setState(StateStreaming)
			err = s.stream(ctx, tr)
		}
		_ = tr.Close()

		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return nil
		}

		if errors.Is(err, ErrFeedStale) {
			s.setState(StateStale)
			s.logger.Warn("feed went stale", "error", err)
		} else {
			s.logger.Warn("connection lost", "error", err)
		}

		s.attempts++
		s.metrics.AddReconnects(1)
		if s.attempts > s.cfg.MaxReconnectAttempts {
			s.setState(StateFailed)
			s.alerts.TransportExhausted("feed reconnect budget exhausted", map[string]string{
				"attempts":   fmt.Sprintf("%d", s.attempts-1),
				"last_error": err.Error(),
			})
			return fmt.Errorf("%w after %d attempts: %w", ErrReconnectExhausted, s.attempts-1, err)
		}

		s.setState(StateReconnecting)
		delay := time.Duration(s.attempts) * s.cfg.ReconnectDelay
		s.logger.Info("reconnecting", "attempt", s.attempts, "max", s.cfg.MaxReconnectAttempts, "delay", delay)
		select {
		case <-ctx.Done():
			s.setState(StateDisconnected)
			return nil
		case <-time.After(delay):
		}
	}
}

// connectAndSubscribe brings one transport up and subscribes all symbols in
// chunks, pausing between chunks to stay under the feed's rate limits.
func (s *Supervisor) connectAndSubscribe(ctx context.Context, tr Transport) error {
	if err := tr.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	s.setState(StateSubscribing)
	chunk := s.cfg.SubscribeChunkSize
	for start := 0; start < len(s.symbols); start += chunk {
		end := start + chunk
		if end > len(s.symbols) {
			end = len(s.symbols)
		}
		if err := tr.Subscribe(ctx, s.symbols[start:end]); err != nil {
			return fmt.Errorf("subscribe symbols %d-%d: %w", start, end-1, err)
		}
		if end < len(s.symbols) && s.cfg.SubscribeChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.SubscribeChunkDelay):
			}
		}
	}

	s.logger.Info("subscribed", "symbols", len(s.symbols))
	return nil
}

// stream runs the consumer and keepalive goroutines and polls for staleness.
// It returns the reason streaming ended: a transport error, ErrFeedStale, or
// nil on context cancellation.
func (s *Supervisor) stream(ctx context.Context, tr Transport) error {
	streamingSince := time.Now()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(2)
	go s.consume(tr, stop, &wg)
	go s.keepalive(tr, stop, &wg)
	defer func() {
		close(stop)
		wg.Wait()
	}()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-tr.Errors():
			return fmt.Errorf("transport: %w", err)
		case <-ticker.C:
			silence := time.Since(streamingSince)
			if age, ok := s.metrics.LastMessageAge(); ok && age < silence {
				silence = age
			}
			if silence > s.cfg.StaleAfter {
				return fmt.Errorf("%w: no inbound message for %s", ErrFeedStale, silence.Round(time.Second))
			}
		}
	}
}

// consume normalizes inbound frames and pushes them onto the write queue.
// A full queue discards the newest record; drops are counted, never blocked
// on.
func (s *Supervisor) consume(tr Transport, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	var drops int64
	for {
		select {
		case <-stop:
			return
		case msg, ok := <-tr.Messages():
			if !ok {
				return
			}
			rec, ok := normalize.Normalize(msg.Data, msg.ReceivedAt)
			if !ok {
				continue
			}
			s.metrics.AddReceived(1)
			s.metrics.MarkMessage(msg.ReceivedAt)
			if !s.queue.Push(rec) {
				s.metrics.AddDropped(1)
				drops++
				if drops%1000 == 1 {
					s.logger.Warn("write queue full, dropping records", "dropped", drops)
				}
			}
		}
	}
}

// keepalive sends pings on a fixed interval. Send failures are logged and
// skipped; only inbound silence forces a reconnect.
func (s *Supervisor) keepalive(tr Transport, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := tr.Ping(); err != nil {
				s.logger.Warn("keepalive send failed", "error", err)
				continue
			}
			s.metrics.MarkPing(time.Now())
		}
	}
}

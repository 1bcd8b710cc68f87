package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aftabjack/options-data-b/internal/connection"
	"github.com/aftabjack/options-data-b/internal/metrics"
	"github.com/aftabjack/options-data-b/internal/queue"
	"github.com/aftabjack/options-data-b/internal/store"
)

// Config tunes the health server.
type Config struct {
	Port           int           // Listen port
	UnhealthyAfter time.Duration // Inbound silence that flips /health to 503
}

// Status is the /health response body.
type Status struct {
	Status        string           `json:"status"`
	State         string           `json:"state"`
	QueueDepth    int              `json:"queue_depth"`
	StoreOK       bool             `json:"store_ok"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	MessageAge    *float64         `json:"last_message_age_seconds,omitempty"`
	Metrics       metrics.Snapshot `json:"metrics"`
}

// Server exposes liveness and readiness over HTTP. /health reports 503 when
// the feed has failed, the store is unreachable, or no message has arrived
// within UnhealthyAfter. /ready reports 200 only while streaming.
type Server struct {
	cfg     Config
	metrics *metrics.Metrics
	queue   *queue.Queue
	state   func() connection.State
	store   store.Store
	logger  *slog.Logger

	srv *http.Server
}

// New creates a health server. state reports the supervisor's current
// lifecycle state.
func New(cfg Config, m *metrics.Metrics, q *queue.Queue, state func() connection.State,
	st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		metrics: m,
		queue:   q,
		state:   state,
		store:   st,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Start listens in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("health server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health server failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.metrics.Snapshot()
	st := s.state()

	pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	storeOK := s.store.Ping(pingCtx) == nil

	status := Status{
		State:         st.String(),
		QueueDepth:    s.queue.Len(),
		StoreOK:       storeOK,
		UptimeSeconds: snap.Uptime.Seconds(),
		Metrics:       snap,
	}

	healthy := st != connection.StateFailed && storeOK
	if snap.HasMessage {
		age := snap.LastMessage.Seconds()
		status.MessageAge = &age
		if snap.LastMessage > s.cfg.UnhealthyAfter {
			healthy = false
		}
	} else if snap.Uptime > s.cfg.UnhealthyAfter {
		// Never heard from the feed at all.
		healthy = false
	}

	code := http.StatusOK
	status.Status = "healthy"
	if !healthy {
		code = http.StatusServiceUnavailable
		status.Status = "unhealthy"
	}
	writeJSON(w, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st := s.state()
	ready := st == connection.StateStreaming

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"ready": ready,
		"state": st.String(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

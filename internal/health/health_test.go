package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aftabjack/options-data-b/internal/connection"
	"github.com/aftabjack/options-data-b/internal/metrics"
	"github.com/aftabjack/options-data-b/internal/model"
	"github.com/aftabjack/options-data-b/internal/queue"
)

type stubStore struct {
	pingErr error
}

func (s *stubStore) WriteBatch(ctx context.Context, records []model.TickerRecord) error { return nil }
func (s *stubStore) Ping(ctx context.Context) error                                     { return s.pingErr }
func (s *stubStore) Close() error                                                       { return nil }

func newTestServer(st *stubStore, state connection.State, m *metrics.Metrics) (*Server, *queue.Queue) {
	q := queue.New(10)
	srv := New(Config{Port: 0, UnhealthyAfter: time.Minute}, m, q,
		func() connection.State { return state }, st, nil)
	return srv, q
}

func getHealth(t *testing.T, srv *Server) (int, Status) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body Status
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	return rec.Code, body
}

func TestHealth_HealthyWhileStreaming(t *testing.T) {
	m := metrics.New()
	m.AddReceived(10)
	m.MarkMessage(time.Now())

	srv, q := newTestServer(&stubStore{}, connection.StateStreaming, m)
	q.Push(model.TickerRecord{Symbol: "BTC-26SEP26-60000-C"})

	code, body := getHealth(t, srv)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Status != "healthy" {
		t.Errorf("status = %q, want healthy", body.Status)
	}
	if body.State != "streaming" {
		t.Errorf("state = %q, want streaming", body.State)
	}
	if body.QueueDepth != 1 {
		t.Errorf("queue_depth = %d, want 1", body.QueueDepth)
	}
	if !body.StoreOK {
		t.Error("store_ok = false, want true")
	}
	if body.MessageAge == nil {
		t.Error("last_message_age_seconds missing")
	}
	if body.Metrics.Received != 10 {
		t.Errorf("metrics.received = %d, want 10", body.Metrics.Received)
	}
}

func TestHealth_UnhealthyWhenFailed(t *testing.T) {
	m := metrics.New()
	m.MarkMessage(time.Now())

	srv, _ := newTestServer(&stubStore{}, connection.StateFailed, m)

	code, body := getHealth(t, srv)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	if body.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", body.Status)
	}
}

func TestHealth_UnhealthyWhenStoreDown(t *testing.T) {
	m := metrics.New()
	m.MarkMessage(time.Now())

	srv, _ := newTestServer(&stubStore{pingErr: errors.New("refused")}, connection.StateStreaming, m)

	code, body := getHealth(t, srv)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	if body.StoreOK {
		t.Error("store_ok = true, want false")
	}
}

func TestHealth_UnhealthyWhenSilent(t *testing.T) {
	m := metrics.New()
	m.MarkMessage(time.Now().Add(-5 * time.Minute))

	srv, _ := newTestServer(&stubStore{}, connection.StateStreaming, m)

	code, body := getHealth(t, srv)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
	if body.MessageAge == nil || *body.MessageAge < 60 {
		t.Errorf("last_message_age_seconds = %v, want >= 60", body.MessageAge)
	}
}

func TestHealth_GracePeriodBeforeFirstMessage(t *testing.T) {
	// No message yet, but the process just started: still healthy.
	srv, _ := newTestServer(&stubStore{}, connection.StateSubscribing, metrics.New())

	code, _ := getHealth(t, srv)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200 during startup grace", code)
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		state connection.State
		want  int
	}{
		{connection.StateStreaming, http.StatusOK},
		{connection.StateConnecting, http.StatusServiceUnavailable},
		{connection.StateReconnecting, http.StatusServiceUnavailable},
		{connection.StateFailed, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		srv, _ := newTestServer(&stubStore{}, tc.state, metrics.New())
		rec := httptest.NewRecorder()
		srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != tc.want {
			t.Errorf("ready during %s = %d, want %d", tc.state, rec.Code, tc.want)
		}
	}
}

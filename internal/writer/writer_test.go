package writer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aftabjack/options-data-b/internal/metrics"
	"github.com/aftabjack/options-data-b/internal/model"
	"github.com/aftabjack/options-data-b/internal/queue"
)

type fakeStore struct {
	mu      sync.Mutex
	batches [][]model.TickerRecord
	err     error
}

func (s *fakeStore) WriteBatch(ctx context.Context, records []model.TickerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]model.TickerRecord, len(records))
	copy(batch, records)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                   { return nil }

func (s *fakeStore) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeStore) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *fakeStore) totalRecords() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

type recordingAlerter struct {
	mu    sync.Mutex
	store int
}

func (a *recordingAlerter) TransportExhausted(string, map[string]string) {}
func (a *recordingAlerter) StoreFailing(string, map[string]string) {
	a.mu.Lock()
	a.store++
	a.mu.Unlock()
}
func (a *recordingAlerter) CatalogUnavailable(string, map[string]string) {}

func (a *recordingAlerter) storeFailingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store
}

func record(symbol string) model.TickerRecord {
	return model.TickerRecord{
		Symbol:    symbol,
		Timestamp: time.Now(),
		LastPrice: model.Float(100),
	}
}

func fill(q *queue.Queue, n int) {
	for i := 0; i < n; i++ {
		q.Push(record("BTC-26SEP26-60000-C"))
	}
}

func TestBatchWriter_FlushesFullBatch(t *testing.T) {
	q := queue.New(1000)
	st := &fakeStore{}
	m := metrics.New()

	cfg := Config{BatchSize: 10, BatchTimeout: time.Hour, TickInterval: 5 * time.Millisecond}
	w := New(cfg, q, st, m, nil, nil)
	w.Start(context.Background())
	defer w.Stop(context.Background())

	fill(q, 10)

	deadline := time.After(time.Second)
	for st.batchCount() < 1 {
		select {
		case <-deadline:
			t.Fatal("full batch was never flushed")
		case <-time.After(time.Millisecond):
		}
	}

	if got := st.totalRecords(); got != 10 {
		t.Errorf("records written = %d, want 10", got)
	}
	if m.Snapshot().Processed != 10 {
		t.Errorf("processed = %d, want 10", m.Snapshot().Processed)
	}
}

func TestBatchWriter_FlushesPartialBatchOnTimeout(t *testing.T) {
	q := queue.New(1000)
	st := &fakeStore{}
	m := metrics.New()

	cfg := Config{BatchSize: 100, BatchTimeout: 150 * time.Millisecond, TickInterval: 10 * time.Millisecond}
	w := New(cfg, q, st, m, nil, nil)
	w.Start(context.Background())
	defer w.Stop(context.Background())

	start := time.Now()
	fill(q, 50)

	deadline := time.After(2 * time.Second)
	for st.batchCount() < 1 {
		select {
		case <-deadline:
			t.Fatal("partial batch was never flushed")
		case <-time.After(time.Millisecond):
		}
	}
	elapsed := time.Since(start)

	// One flush carrying everything, and only after the timeout elapsed.
	if got := st.batchCount(); got != 1 {
		t.Errorf("flushes = %d, want 1", got)
	}
	if got := st.totalRecords(); got != 50 {
		t.Errorf("records written = %d, want 50", got)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("flushed after %v, want >= ~150ms (size trigger must not fire early)", elapsed)
	}
}

func TestBatchWriter_FailedBatchDroppedNotRetried(t *testing.T) {
	q := queue.New(1000)
	st := &fakeStore{}
	st.setErr(errors.New("store down"))
	m := metrics.New()

	cfg := Config{BatchSize: 10, BatchTimeout: time.Hour, TickInterval: 5 * time.Millisecond}
	w := New(cfg, q, st, m, nil, nil)
	w.Start(context.Background())
	defer w.Stop(context.Background())

	fill(q, 10)

	deadline := time.After(time.Second)
	for m.WriteErrors() < 1 {
		select {
		case <-deadline:
			t.Fatal("write error was never counted")
		case <-time.After(time.Millisecond):
		}
	}

	// The failed batch is gone from the queue and never resubmitted.
	time.Sleep(30 * time.Millisecond)
	if q.Len() != 0 {
		t.Errorf("queue depth = %d, want 0 after failed flush", q.Len())
	}
	if got := m.WriteErrors(); got != 1 {
		t.Errorf("write errors = %d, want 1 (no retries)", got)
	}
	if st.batchCount() != 0 {
		t.Errorf("batches stored = %d, want 0", st.batchCount())
	}

	// Recovery: the next batch goes through once the store is back.
	st.setErr(nil)
	fill(q, 10)
	deadline = time.After(time.Second)
	for st.batchCount() < 1 {
		select {
		case <-deadline:
			t.Fatal("writer did not recover after store came back")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBatchWriter_AlertsOnConsecutiveFailures(t *testing.T) {
	q := queue.New(1000)
	st := &fakeStore{}
	st.setErr(errors.New("store down"))
	m := metrics.New()
	alerts := &recordingAlerter{}

	cfg := Config{BatchSize: 5, BatchTimeout: time.Hour, TickInterval: 5 * time.Millisecond, ErrorAlertEvery: 2}
	w := New(cfg, q, st, m, alerts, nil)
	w.Start(context.Background())
	defer w.Stop(context.Background())

	for i := 0; i < 4; i++ {
		fill(q, 5)
		deadline := time.After(time.Second)
		for m.WriteErrors() < int64(i+1) {
			select {
			case <-deadline:
				t.Fatalf("failure %d was never counted", i+1)
			case <-time.After(time.Millisecond):
			}
		}
	}

	// Every 2nd consecutive failure alerts: failures 2 and 4.
	if got := alerts.storeFailingCount(); got != 2 {
		t.Errorf("store-failing alerts = %d, want 2", got)
	}
}

// gatingStore blocks WriteBatch until released, signalling when a write is
// in flight.
type gatingStore struct {
	fakeStore
	inFlight chan struct{}
	release  chan struct{}
}

func (s *gatingStore) WriteBatch(ctx context.Context, records []model.TickerRecord) error {
	select {
	case s.inFlight <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
	}
	return s.fakeStore.WriteBatch(ctx, records)
}

func TestBatchWriter_InFlightBatchSurvivesStop(t *testing.T) {
	q := queue.New(100)
	st := &gatingStore{
		inFlight: make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	m := metrics.New()

	cfg := Config{BatchSize: 10, BatchTimeout: time.Hour, TickInterval: time.Millisecond}
	w := New(cfg, q, st, m, nil, nil)
	w.Start(context.Background())

	fill(q, 10)

	select {
	case <-st.inFlight:
	case <-time.After(time.Second):
		t.Fatal("store write never started")
	}

	// Stop while the batch is mid-write. The drained batch was accepted;
	// cancelling the run loop must not abort the store write.
	stopDone := make(chan struct{})
	go func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		w.Stop(stopCtx)
		close(stopDone)
	}()

	time.Sleep(20 * time.Millisecond)
	close(st.release)

	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop never returned")
	}

	if got := st.totalRecords(); got != 10 {
		t.Errorf("records written = %d, want 10 (in-flight batch lost on stop)", got)
	}
	if got := m.WriteErrors(); got != 0 {
		t.Errorf("write errors = %d, want 0", got)
	}
	if q.Len() != 0 {
		t.Errorf("queue depth = %d, want 0", q.Len())
	}
}

func TestBatchWriter_FinalFlushOnStop(t *testing.T) {
	q := queue.New(1000)
	st := &fakeStore{}
	m := metrics.New()

	// Tick far in the future so only Stop can flush.
	cfg := Config{BatchSize: 100, BatchTimeout: time.Hour, TickInterval: time.Hour}
	w := New(cfg, q, st, m, nil, nil)
	w.Start(context.Background())

	fill(q, 230)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.Stop(stopCtx)

	if got := st.totalRecords(); got != 230 {
		t.Errorf("records written = %d, want 230", got)
	}
	// 230 records at batch size 100 is three store writes.
	if got := st.batchCount(); got != 3 {
		t.Errorf("flushes = %d, want 3", got)
	}
	if q.Len() != 0 {
		t.Errorf("queue depth = %d, want 0 after Stop", q.Len())
	}
}

package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds the process-wide pipeline counters. Each counter has a
// single writing component; everyone else only reads. All access is atomic
// because the feed consumer, batch writer, and supervisor run on separate
// goroutines.
type Metrics struct {
	received    atomic.Int64 // feed consumer
	processed   atomic.Int64 // batch writer
	dropped     atomic.Int64 // feed consumer (queue overflow)
	writeErrors atomic.Int64 // batch writer
	reconnects  atomic.Int64 // supervisor

	lastMessage atomic.Int64 // unix nanos of last normalized message
	lastPing    atomic.Int64 // unix nanos of last keepalive send

	start time.Time
}

// New creates a Metrics with the start time set to now.
func New() *Metrics {
	return &Metrics{start: time.Now()}
}

func (m *Metrics) AddReceived(n int64)    { m.received.Add(n) }
func (m *Metrics) AddProcessed(n int64)   { m.processed.Add(n) }
func (m *Metrics) AddDropped(n int64)     { m.dropped.Add(n) }
func (m *Metrics) AddWriteErrors(n int64) { m.writeErrors.Add(n) }
func (m *Metrics) AddReconnects(n int64)  { m.reconnects.Add(n) }

func (m *Metrics) WriteErrors() int64 { return m.writeErrors.Load() }
func (m *Metrics) Reconnects() int64  { return m.reconnects.Load() }

// MarkMessage records the arrival time of a successfully normalized
// inbound message.
func (m *Metrics) MarkMessage(at time.Time) {
	m.lastMessage.Store(at.UnixNano())
}

// MarkPing records the time of a keepalive send.
func (m *Metrics) MarkPing(at time.Time) {
	m.lastPing.Store(at.UnixNano())
}

// LastMessageAge returns the time since the last normalized message and
// whether any message has been seen at all.
func (m *Metrics) LastMessageAge() (time.Duration, bool) {
	ns := m.lastMessage.Load()
	if ns == 0 {
		return 0, false
	}
	return time.Since(time.Unix(0, ns)), true
}

// LastPingAge returns the time since the last keepalive send and whether
// one has happened.
func (m *Metrics) LastPingAge() (time.Duration, bool) {
	ns := m.lastPing.Load()
	if ns == 0 {
		return 0, false
	}
	return time.Since(time.Unix(0, ns)), true
}

// Snapshot is a read-only view for the health surface.
type Snapshot struct {
	Received    int64         `json:"messages_received"`
	Processed   int64         `json:"messages_processed"`
	Dropped     int64         `json:"messages_dropped"`
	WriteErrors int64         `json:"write_errors"`
	Reconnects  int64         `json:"reconnects"`
	LastMessage time.Duration `json:"-"`
	HasMessage  bool          `json:"-"`
	LastPing    time.Duration `json:"-"`
	HasPing     bool          `json:"-"`
	Uptime      time.Duration `json:"-"`
}

// Snapshot returns a consistent-enough point-in-time view of the counters.
// Counters are read individually; callers must not expect cross-counter
// invariants to hold exactly during heavy traffic.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Received:    m.received.Load(),
		Processed:   m.processed.Load(),
		Dropped:     m.dropped.Load(),
		WriteErrors: m.writeErrors.Load(),
		Reconnects:  m.reconnects.Load(),
		Uptime:      time.Since(m.start),
	}
	s.LastMessage, s.HasMessage = m.LastMessageAge()
	s.LastPing, s.HasPing = m.LastPingAge()
	return s
}

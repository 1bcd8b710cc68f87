package metrics

import (
	"testing"
	"time"
)

func TestSnapshot_Counters(t *testing.T) {
	m := New()
	m.AddReceived(10)
	m.AddProcessed(7)
	m.AddDropped(2)
	m.AddWriteErrors(1)
	m.AddReconnects(3)

	s := m.Snapshot()

	if s.Received != 10 {
		t.Errorf("Received = %d, want 10", s.Received)
	}
	if s.Processed != 7 {
		t.Errorf("Processed = %d, want 7", s.Processed)
	}
	if s.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", s.Dropped)
	}
	if s.WriteErrors != 1 {
		t.Errorf("WriteErrors = %d, want 1", s.WriteErrors)
	}
	if s.Reconnects != 3 {
		t.Errorf("Reconnects = %d, want 3", s.Reconnects)
	}
}

func TestLastMessageAge_NeverSeen(t *testing.T) {
	m := New()

	if _, ok := m.LastMessageAge(); ok {
		t.Error("LastMessageAge reported a message before any was marked")
	}

	m.MarkMessage(time.Now().Add(-5 * time.Second))
	age, ok := m.LastMessageAge()
	if !ok {
		t.Fatal("LastMessageAge not set after MarkMessage")
	}
	if age < 5*time.Second || age > 6*time.Second {
		t.Errorf("age = %v, want about 5s", age)
	}
}

func TestLastPingAge(t *testing.T) {
	m := New()

	if _, ok := m.LastPingAge(); ok {
		t.Error("LastPingAge reported a ping before any was marked")
	}

	m.MarkPing(time.Now())
	if _, ok := m.LastPingAge(); !ok {
		t.Error("LastPingAge not set after MarkPing")
	}
}

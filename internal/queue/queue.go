package queue

import (
	"sync"

	"github.com/aftabjack/options-data-b/internal/model"
)

// Queue is a fixed-capacity FIFO buffer of ticker records sitting between
// the feed consumer (multiple producers across reconnects) and the batch
// writer (single consumer).
//
// Push never blocks: when the queue is full the new record is discarded.
// A freshly consumed queue beats an unbounded backlog — by the time a
// stale entry would finally be written it has already been superseded.
type Queue struct {
	mu       sync.Mutex
	buf      []model.TickerRecord
	head     int // read position
	tail     int // write position
	count    int
	capacity int
}

// New creates a queue with the given capacity.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		buf:      make([]model.TickerRecord, capacity),
		capacity: capacity,
	}
}

// Push appends a record. Returns false if the queue is at capacity, in
// which case the record is dropped (drop-newest policy).
func (q *Queue) Push(rec model.TickerRecord) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == q.capacity {
		return false
	}

	q.buf[q.tail] = rec
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	return true
}

// DrainUpTo removes and returns up to n oldest records. It returns
// immediately with whatever is available, never waiting for more.
func (q *Queue) DrainUpTo(n int) []model.TickerRecord {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 || n <= 0 {
		return nil
	}
	if n > q.count {
		n = q.count
	}

	out := make([]model.TickerRecord, n)
	for i := 0; i < n; i++ {
		out[i] = q.buf[q.head]
		q.buf[q.head] = model.TickerRecord{} // release references
		q.head = (q.head + 1) % q.capacity
		q.count--
	}
	return out
}

// Len returns the current number of queued records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the fixed capacity.
func (q *Queue) Cap() int {
	return q.capacity
}

package store

import (
	"context"

	"github.com/aftabjack/options-data-b/internal/model"
)

// Store persists ticker snapshots. WriteBatch submits one pipelined,
// all-or-nothing unit of work: every record's full field set plus the
// global counters move together.
type Store interface {
	WriteBatch(ctx context.Context, records []model.TickerRecord) error
	Ping(ctx context.Context) error
	Close() error
}

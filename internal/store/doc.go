// Package store persists ticker snapshots to Redis.
//
// Layout: one hash per symbol under "<namespace>:<symbol>" holding the
// record's numeric fields as text, with a TTL re-armed on every write so
// instruments that stop updating expire on their own. A "stats:global"
// hash carries the messages-processed counter and last-update timestamp,
// written in the same pipeline as the data.
package store

// Package metrics tracks process-wide pipeline counters.
//
// Key counters:
//   - messages received / processed / dropped
//   - store write errors and feed reconnects
//   - last-message and last-keepalive timestamps
//
// The supervisor consults the last-message timestamp for staleness
// detection; the health surface exposes a Snapshot of everything.
package metrics

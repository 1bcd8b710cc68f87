// Package health serves liveness and readiness endpoints backed by the
// pipeline's metrics, queue depth, connection state, and store reachability.
package health

// Package queue provides the bounded ingestion queue that decouples
// high-frequency feed arrival from persistence latency.
//
// It is the only data structure in the pipeline mutated from more than one
// goroutine, so all operations go through an internal mutex. Producers
// never block; overflow drops the newest arrival and is surfaced through
// the drop counter rather than to the caller.
package queue

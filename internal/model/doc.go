// Package model defines the domain types shared across the pipeline.
//
// TickerRecord is the only type that crosses component boundaries: the
// normalizer produces it, the ingestion queue buffers it, and the batch
// writer persists it as a full-replace hash in the store.
package model

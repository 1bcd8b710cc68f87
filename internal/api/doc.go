// Package api implements the exchange REST client used for instrument
// discovery.
//
// Requests retry with exponential backoff and jitter on retryable errors
// (HTTP 5xx/429 and exchange-level rate-limit codes); listing calls
// paginate via the exchange cursor.
package api

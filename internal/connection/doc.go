// Package connection manages the websocket feed: a Client that speaks the
// feed protocol and a Supervisor that keeps the connection healthy through
// subscribes, keepalives, staleness detection, and bounded reconnects.
package connection

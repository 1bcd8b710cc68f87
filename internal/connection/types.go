package connection

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected       = errors.New("not connected")
	ErrAlreadyClosed      = errors.New("already closed")
	ErrSubscribeTimeout   = errors.New("subscribe timeout")
	ErrSubscribeRejected  = errors.New("subscribe rejected")
	ErrFeedStale          = errors.New("feed stale")
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// RawMessage wraps one inbound frame with its receive timestamp.
type RawMessage struct {
	Data       []byte    // Raw frame bytes from the feed
	ReceivedAt time.Time // Local timestamp when the read returned
}

// command is an outbound feed operation (subscribe, ping).
type command struct {
	ReqID string   `json:"req_id,omitempty"`
	Op    string   `json:"op"`
	Args  []string `json:"args,omitempty"`
}

// commandResponse is the feed's acknowledgment of a command.
type commandResponse struct {
	Success bool   `json:"success"`
	RetMsg  string `json:"ret_msg"`
	ConnID  string `json:"conn_id"`
	ReqID   string `json:"req_id"`
	Op      string `json:"op"`
}

// Transport is one feed connection: subscribe, keepalive, and an inbound
// message stream. *Client is the production implementation; the supervisor
// only sees this interface.
type Transport interface {
	// Connect establishes the connection.
	Connect(ctx context.Context) error

	// Subscribe requests ticker updates for a chunk of symbols and waits
	// for the feed's acknowledgment.
	Subscribe(ctx context.Context, symbols []string) error

	// Ping sends a liveness frame. Fire-and-forget; the inbound side is
	// the liveness signal that matters.
	Ping() error

	// Messages returns the bounded channel of inbound frames.
	Messages() <-chan RawMessage

	// Errors returns a channel of connection-level errors.
	Errors() <-chan error

	// Close tears the connection down.
	Close() error
}

// TransportFactory builds a fresh Transport for each connection attempt.
type TransportFactory func() Transport

// ClientConfig configures a feed websocket client.
type ClientConfig struct {
	URL              string        // Feed URL (e.g., wss://stream.bybit.com/v5/public/option)
	WriteTimeout     time.Duration // Write deadline for sends
	SubscribeTimeout time.Duration // Max wait for a subscribe ack
	BufferSize       int           // Inbound message channel capacity
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		WriteTimeout:     5 * time.Second,
		SubscribeTimeout: 10 * time.Second,
		BufferSize:       4096,
	}
}

// SupervisorConfig configures the connection supervisor.
type SupervisorConfig struct {
	SubscribeChunkSize   int           // Symbols per subscribe command
	SubscribeChunkDelay  time.Duration // Pause between chunks (feed rate limits)
	PingInterval         time.Duration // Keepalive send interval
	StaleAfter           time.Duration // Inbound silence that counts as stale
	PollInterval         time.Duration // Staleness check interval
	ReconnectDelay       time.Duration // Base backoff; grows linearly with attempts
	MaxReconnectAttempts int           // Attempts beyond this are Failed
}

// DefaultSupervisorConfig returns sensible defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		SubscribeChunkSize:   100,
		SubscribeChunkDelay:  500 * time.Millisecond,
		PingInterval:         45 * time.Second,
		StaleAfter:           90 * time.Second,
		PollInterval:         time.Second,
		ReconnectDelay:       10 * time.Second,
		MaxReconnectAttempts: 10,
	}
}

// State is the supervisor's connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribing
	StateStreaming
	StateStale
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateStale:
		return "stale"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

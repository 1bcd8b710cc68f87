package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is a websocket Transport for the options ticker feed. Outbound
// commands carry a req_id; acknowledgments are correlated back through a
// pending map so Subscribe can wait for its own ack while ticker frames
// keep flowing to Messages().
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan commandResponse

	messages chan RawMessage
	errors   chan error
	done     chan struct{}

	mu        sync.Mutex
	connected bool
	closed    bool
}

var _ Transport = (*Client)(nil)

// NewClient creates a feed client. The connection is established by Connect.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultClientConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = def.SubscribeTimeout
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	return &Client{
		cfg:      cfg,
		logger:   logger,
		pending:  make(map[string]chan commandResponse),
		messages: make(chan RawMessage, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Connect dials the feed and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrAlreadyClosed
	}
	if c.connected {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	c.conn = conn
	c.connected = true
	go c.readLoop()

	c.logger.Info("feed connected", "url", c.cfg.URL)
	return nil
}

// Subscribe sends one subscribe command for the given symbols and waits for
// the feed's acknowledgment.
func (c *Client) Subscribe(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}

	args := make([]string, len(symbols))
	for i, sym := range symbols {
		args[i] = "tickers." + sym
	}

	reqID := uuid.NewString()
	respCh := make(chan commandResponse, 1)
	c.addPending(reqID, respCh)
	defer c.removePending(reqID)

	if err := c.send(command{ReqID: reqID, Op: "subscribe", Args: args}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	timer := time.NewTimer(c.cfg.SubscribeTimeout)
	defer timer.Stop()

	select {
	case resp := <-respCh:
		if !resp.Success {
			return fmt.Errorf("%w: %s", ErrSubscribeRejected, resp.RetMsg)
		}
		return nil
	case <-timer.C:
		return ErrSubscribeTimeout
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrNotConnected
	}
}

// Ping sends a keepalive frame. It does not wait for the pong; inbound
// traffic is the liveness signal.
func (c *Client) Ping() error {
	return c.send(command{ReqID: uuid.NewString(), Op: "ping"})
}

// Messages returns the inbound frame channel. It is closed when the
// connection ends.
func (c *Client) Messages() <-chan RawMessage {
	return c.messages
}

// Errors returns connection-level errors from the read loop.
func (c *Client) Errors() <-chan error {
	return c.errors
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		return conn.Close()
	}
	return nil
}

func (c *Client) send(cmd command) error {
	c.mu.Lock()
	conn := c.conn
	ok := c.connected
	c.mu.Unlock()
	if !ok || conn == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	defer close(c.messages)
	defer close(c.done)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.connected = false
			c.mu.Unlock()
			if !closed {
				select {
				case c.errors <- fmt.Errorf("read: %w", err):
				default:
				}
			}
			return
		}

		if c.routeResponse(data) {
			continue
		}

		select {
		case c.messages <- RawMessage{Data: data, ReceivedAt: time.Now()}:
		default:
			c.logger.Warn("inbound buffer full, dropping frame")
		}
	}
}

// routeResponse delivers command acknowledgments to their waiters. Returns
// false for anything that is not a pending ack, which leaves ticker frames
// and unsolicited pongs on the normal message path.
func (c *Client) routeResponse(data []byte) bool {
	var resp commandResponse
	if err := json.Unmarshal(data, &resp); err != nil || resp.ReqID == "" {
		return false
	}

	c.pendingMu.Lock()
	ch, ok := c.pending[resp.ReqID]
	c.pendingMu.Unlock()
	if !ok {
		return false
	}

	select {
	case ch <- resp:
	default:
	}
	return true
}

func (c *Client) addPending(reqID string, ch chan commandResponse) {
	c.pendingMu.Lock()
	c.pending[reqID] = ch
	c.pendingMu.Unlock()
}

func (c *Client) removePending(reqID string) {
	c.pendingMu.Lock()
	delete(c.pending, reqID)
	c.pendingMu.Unlock()
}

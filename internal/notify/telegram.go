package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Condition names a critical pipeline state worth waking an operator for.
type Condition string

const (
	ConditionTransportExhausted Condition = "transport_exhausted"
	ConditionStoreFailing       Condition = "store_failing"
	ConditionCatalogUnavailable Condition = "catalog_unavailable"
)

// Alerter delivers critical-condition notifications. Implementations must
// never block the caller on delivery.
type Alerter interface {
	TransportExhausted(message string, details map[string]string)
	StoreFailing(message string, details map[string]string)
	CatalogUnavailable(message string, details map[string]string)
}

// NopAlerter discards every alert.
type NopAlerter struct{}

func (NopAlerter) TransportExhausted(string, map[string]string) {}
func (NopAlerter) StoreFailing(string, map[string]string)       {}
func (NopAlerter) CatalogUnavailable(string, map[string]string) {}

// Config holds Telegram bot delivery settings.
type Config struct {
	BotToken string
	ChatID   string
	Throttle time.Duration // Minimum gap between alerts of the same condition
	Project  string        // Prefix shown in every alert
}

// Telegram sends critical alerts through the Telegram bot API. Delivery is
// best-effort and fire-and-forget: each send runs on its own goroutine with
// a bounded timeout, and repeats of the same condition inside the throttle
// window are dropped.
type Telegram struct {
	cfg        Config
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	lastSent map[Condition]time.Time
}

var _ Alerter = (*Telegram)(nil)

// NewTelegram creates a Telegram alerter. With no bot token or chat id it
// still works but only logs, so wiring stays uniform.
func NewTelegram(cfg Config, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{
		cfg:        cfg,
		apiURL:     "https://api.telegram.org/bot" + cfg.BotToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		lastSent:   make(map[Condition]time.Time),
	}
}

// enabled reports whether delivery is configured.
func (t *Telegram) enabled() bool {
	return t.cfg.BotToken != "" && t.cfg.ChatID != ""
}

func (t *Telegram) TransportExhausted(message string, details map[string]string) {
	t.critical(ConditionTransportExhausted, "WebSocket Connection", message, details)
}

func (t *Telegram) StoreFailing(message string, details map[string]string) {
	t.critical(ConditionStoreFailing, "Redis Store", message, details)
}

func (t *Telegram) CatalogUnavailable(message string, details map[string]string) {
	t.critical(ConditionCatalogUnavailable, "Symbol Catalog", message, details)
}

// critical applies throttling, then delivers asynchronously.
func (t *Telegram) critical(cond Condition, title, message string, details map[string]string) {
	t.logger.Error("critical condition",
		"condition", string(cond),
		"message", message,
	)

	if !t.enabled() {
		return
	}
	if !t.shouldSend(cond, time.Now()) {
		return
	}

	text := t.format(title, message, details)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.send(ctx, text); err != nil {
			t.logger.Warn("alert delivery failed",
				"condition", string(cond),
				"error", err,
			)
		}
	}()
}

// shouldSend enforces the per-condition throttle window.
func (t *Telegram) shouldSend(cond Condition, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if last, ok := t.lastSent[cond]; ok && now.Sub(last) < t.cfg.Throttle {
		return false
	}
	t.lastSent[cond] = now
	return true
}

// format renders an alert message in HTML parse mode.
func (t *Telegram) format(title, message string, details map[string]string) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<b>🚨 [%s]</b>\n", t.cfg.Project)
	fmt.Fprintf(&b, "<b>CRITICAL: %s</b>\n\n%s\n", title, message)

	if len(details) > 0 {
		b.WriteString("\n<b>Details:</b>\n")
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "• %s: %s\n", k, details[k])
		}
	}

	fmt.Fprintf(&b, "\n<i>Time: %s</i>", time.Now().Format("2006-01-02 15:04:05"))
	return b.String()
}

// send posts one message to the bot API.
func (t *Telegram) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.cfg.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+"/sendMessage", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram api status %d", resp.StatusCode)
	}
	return nil
}

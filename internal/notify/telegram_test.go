package notify

import (
	"strings"
	"testing"
	"time"
)

func TestShouldSend_Throttles(t *testing.T) {
	tg := NewTelegram(Config{
		BotToken: "token",
		ChatID:   "42",
		Throttle: 5 * time.Minute,
		Project:  "Test",
	}, nil)

	now := time.Unix(1700000000, 0)

	if !tg.shouldSend(ConditionStoreFailing, now) {
		t.Fatal("first alert must pass")
	}
	if tg.shouldSend(ConditionStoreFailing, now.Add(time.Minute)) {
		t.Error("repeat inside throttle window must be dropped")
	}
	if !tg.shouldSend(ConditionTransportExhausted, now.Add(time.Minute)) {
		t.Error("a different condition is throttled independently")
	}
	if !tg.shouldSend(ConditionStoreFailing, now.Add(6*time.Minute)) {
		t.Error("alert after the throttle window must pass")
	}
}

func TestFormat(t *testing.T) {
	tg := NewTelegram(Config{Project: "Options Tracker"}, nil)

	text := tg.format("Redis Store", "pipeline writes failing", map[string]string{
		"Errors": "30",
	})

	for _, want := range []string{
		"[Options Tracker]",
		"CRITICAL: Redis Store",
		"pipeline writes failing",
		"• Errors: 30",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted alert missing %q:\n%s", want, text)
		}
	}
}

func TestDisabledNeverSends(t *testing.T) {
	tg := NewTelegram(Config{Throttle: time.Minute}, nil)

	if tg.enabled() {
		t.Fatal("alerter with no credentials must be disabled")
	}
	// Must be safe to call; only logs.
	tg.StoreFailing("boom", nil)
}

package normalize

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/aftabjack/options-data-b/internal/model"
)

// envelope is the outer shape of every feed frame. Operational frames
// (pong, subscribe acks) carry "op"; data frames carry "topic" and "data".
type envelope struct {
	Op    string          `json:"op"`
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// Normalize converts a raw feed frame into a TickerRecord.
//
// It returns false for protocol-level frames (pong, command acks), frames
// without a payload, and payloads without a symbol. A field that is missing
// or fails numeric coercion is left unset; it never fails the record —
// the feed sends partial updates and any field may be absent.
func Normalize(data []byte, at time.Time) (model.TickerRecord, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.TickerRecord{}, false
	}

	// Keepalive acks and subscription responses are not records.
	if env.Op != "" || len(env.Data) == 0 {
		return model.TickerRecord{}, false
	}

	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return model.TickerRecord{}, false
	}

	symbol, _ := payload["symbol"].(string)
	if symbol == "" {
		return model.TickerRecord{}, false
	}

	return model.TickerRecord{
		Symbol:          symbol,
		Timestamp:       at,
		BidPrice:        optFloat(payload["bidPrice"]),
		AskPrice:        optFloat(payload["askPrice"]),
		BidIV:           optFloat(payload["bidIv"]),
		AskIV:           optFloat(payload["askIv"]),
		MarkIV:          optFloat(payload["markPriceIv"]),
		LastPrice:       optFloat(payload["lastPrice"]),
		MarkPrice:       optFloat(payload["markPrice"]),
		IndexPrice:      optFloat(payload["indexPrice"]),
		UnderlyingPrice: optFloat(payload["underlyingPrice"]),
		OpenInterest:    optFloat(payload["openInterest"]),
		Volume24h:       optFloat(payload["volume24h"]),
		Turnover24h:     optFloat(payload["turnover24h"]),
		Delta:           optFloat(payload["delta"]),
		Gamma:           optFloat(payload["gamma"]),
		Vega:            optFloat(payload["vega"]),
		Theta:           optFloat(payload["theta"]),
	}, true
}

// optFloat coerces a semi-structured payload value to a float. The feed
// reports numerics as strings but the coercion tolerates raw numbers too.
// Anything else is unset.
func optFloat(v any) *float64 {
	switch x := v.(type) {
	case string:
		if x == "" {
			return nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil
		}
		return &f
	case float64:
		return &x
	default:
		return nil
	}
}

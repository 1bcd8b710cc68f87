package model

import (
	"strconv"
	"time"
)

// TickerRecord is the latest snapshot for a single option contract.
//
// Numeric fields are pointers so that "not reported" survives the trip to
// the store as a distinct value from "reported as zero". The exchange sends
// partial updates; any field may be absent on a given message.
type TickerRecord struct {
	Symbol    string    // Unique key (e.g., "BTC-27JUN25-60000-C")
	Timestamp time.Time // Local capture time

	// Quotes
	BidPrice *float64
	AskPrice *float64

	// Implied volatility
	BidIV  *float64
	AskIV  *float64
	MarkIV *float64

	// Prices
	LastPrice       *float64
	MarkPrice       *float64
	IndexPrice      *float64
	UnderlyingPrice *float64

	// Activity
	OpenInterest *float64
	Volume24h    *float64
	Turnover24h  *float64

	// Greeks
	Delta *float64
	Gamma *float64
	Vega  *float64
	Theta *float64
}

// Fields returns the complete text field set for the store hash. Every
// field is always present; unset values map to the empty string so a write
// fully replaces the previous snapshot, never merges with it.
func (r *TickerRecord) Fields() map[string]string {
	return map[string]string{
		"symbol":           r.Symbol,
		"timestamp":        strconv.FormatFloat(float64(r.Timestamp.UnixNano())/1e9, 'f', 6, 64),
		"bid_price":        formatOpt(r.BidPrice),
		"ask_price":        formatOpt(r.AskPrice),
		"bid_iv":           formatOpt(r.BidIV),
		"ask_iv":           formatOpt(r.AskIV),
		"mark_iv":          formatOpt(r.MarkIV),
		"last_price":       formatOpt(r.LastPrice),
		"mark_price":       formatOpt(r.MarkPrice),
		"index_price":      formatOpt(r.IndexPrice),
		"underlying_price": formatOpt(r.UnderlyingPrice),
		"open_interest":    formatOpt(r.OpenInterest),
		"volume_24h":       formatOpt(r.Volume24h),
		"turnover_24h":     formatOpt(r.Turnover24h),
		"delta":            formatOpt(r.Delta),
		"gamma":            formatOpt(r.Gamma),
		"vega":             formatOpt(r.Vega),
		"theta":            formatOpt(r.Theta),
	}
}

// formatOpt renders an optional numeric field; nil means unset.
func formatOpt(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Float returns a pointer to v. Convenience for building records.
func Float(v float64) *float64 {
	return &v
}

package api

// InstrumentsResult from GET /v5/market/instruments-info.
type InstrumentsResult struct {
	Category       string       `json:"category"`
	List           []Instrument `json:"list"`
	NextPageCursor string       `json:"nextPageCursor"`
}

// Instrument describes one derivative contract from the listing endpoint.
type Instrument struct {
	Symbol       string `json:"symbol"`
	Status       string `json:"status"` // "Trading", "Delivering", "Closed"
	BaseCoin     string `json:"baseCoin"`
	QuoteCoin    string `json:"quoteCoin"`
	SettleCoin   string `json:"settleCoin"`
	OptionsType  string `json:"optionsType"`  // "Call" or "Put"
	LaunchTime   string `json:"launchTime"`   // Unix millis as string
	DeliveryTime string `json:"deliveryTime"` // Unix millis as string
}

// Tradable reports whether the instrument is currently open for trading.
func (i Instrument) Tradable() bool {
	return i.Status == "Trading"
}

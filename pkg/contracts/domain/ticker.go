package domain

// TickerInfo is one security listed by the market registry.
// Ticker carries the exchange suffix the market-data provider expects (e.g. "2330.TW").
type TickerInfo struct {
	Ticker   string `json:"ticker" validate:"required"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

// Quote is a single-shot last traded price for a ticker
type Quote struct {
	Ticker    string  `json:"ticker"`
	LastPrice float64 `json:"last_price"`
	Currency  string  `json:"currency,omitempty"`
}

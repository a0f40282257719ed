package market

import "context"

// Candle is a single OHLCV bar.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// CandleSource fetches recent history for indicator computation.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

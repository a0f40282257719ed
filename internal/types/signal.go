package types

import (
	"time"
)

type SignalStrength string

const (
	StrengthStrongBuy  SignalStrength = "STRONG_BUY"
	StrengthBuy        SignalStrength = "BUY"
	StrengthHold       SignalStrength = "HOLD"
	StrengthSell       SignalStrength = "SELL"
	StrengthStrongSell SignalStrength = "STRONG_SELL"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
	// DirectionNone accompanies HOLD signals only.
	DirectionNone Direction = ""
)

// AIAnalysis is one provider's opinion on a symbol. Sentiment is 0-100
// (bearish to bullish), Confidence is normalized to [0,1] before the value
// leaves the adapter. Immutable once built.
type AIAnalysis struct {
	Provider       string  `json:"provider"`
	Sentiment      float64 `json:"sentiment"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
	Placeholder    bool    `json:"placeholder,omitempty"`
	TokensUsed     int     `json:"tokens_used,omitempty"`
	ResponseTimeMs int64   `json:"response_time_ms,omitempty"`
}

// TradingSignal is the consensus output for one analysis request.
// Analyses holds only the successful adapter results, in adapter
// declaration order.
type TradingSignal struct {
	Symbol     string         `json:"symbol"`
	Strength   SignalStrength `json:"strength"`
	Direction  Direction      `json:"direction,omitempty"`
	Sentiment  float64        `json:"sentiment"`
	Confidence float64        `json:"confidence"`
	EntryPrice float64        `json:"entry_price"`
	StopLoss   float64        `json:"stop_loss"`
	TakeProfit float64        `json:"take_profit"`
	Reasoning  string         `json:"reasoning"`
	Analyses   []AIAnalysis   `json:"analyses"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Actionable reports whether the signal carries a trade direction.
func (s *TradingSignal) Actionable() bool {
	return s.Strength != StrengthHold && s.Direction != DirectionNone
}

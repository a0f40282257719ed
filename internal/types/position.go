package types

import (
	"time"
)

type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
)

type CloseReason string

const (
	CloseStopLoss   CloseReason = "STOP_LOSS"
	CloseTakeProfit CloseReason = "TAKE_PROFIT"
	CloseManual     CloseReason = "MANUAL"
)

type Outcome string

const (
	OutcomeWin       Outcome = "WIN"
	OutcomeLoss      Outcome = "LOSS"
	OutcomeBreakEven Outcome = "BREAK_EVEN"
)

// Position is a simulated (paper) trade. While OPEN, Pnl/PnlPercent are
// recomputed from the latest observed price on every tick and are not
// authoritative until close.
type Position struct {
	ID            string      `json:"id"`
	SessionID     string      `json:"session_id,omitempty"`
	Symbol        string      `json:"symbol"`
	Direction     Direction   `json:"direction"`
	Status        TradeStatus `json:"status"`
	EntryPrice    float64     `json:"entry_price"`
	StopLoss      float64     `json:"stop_loss"`
	TakeProfit    float64     `json:"take_profit"`
	Quantity      float64     `json:"quantity"`
	PositionValue float64     `json:"position_value"`
	Pnl           float64     `json:"pnl"`
	PnlPercent    float64     `json:"pnl_percent"`
	Fees          float64     `json:"fees"`
	CloseReason   CloseReason `json:"close_reason,omitempty"`
	EntryTime     time.Time   `json:"entry_time"`
	ExitTime      *time.Time  `json:"exit_time,omitempty"`
}

// MarketData is the caller-supplied market snapshot for an analysis request.
type MarketData struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
}

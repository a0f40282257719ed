package store

import (
	"time"

	"gorm.io/datatypes"
)

// SessionModel is one persisted analysis session. Context snapshots and
// the raw provider analyses are stored as JSON columns; the outcome fields
// stay NULL until a trade closes.
type SessionModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;index"`
	Symbol    string    `gorm:"column:symbol;index"`
	Timestamp time.Time `gorm:"column:timestamp"`

	Price     float64 `gorm:"column:price"`
	Volume    float64 `gorm:"column:volume"`
	MarketCap float64 `gorm:"column:market_cap"`

	TechnicalData datatypes.JSON `gorm:"column:technical_data;type:TEXT"`
	MacroData     datatypes.JSON `gorm:"column:macro_data;type:TEXT"`
	NewsData      datatypes.JSON `gorm:"column:news_data;type:TEXT"`
	MarketReport  string         `gorm:"column:market_report;type:TEXT"`

	AIAnalyses datatypes.JSON `gorm:"column:ai_analyses;type:TEXT"`

	SignalStrength      string  `gorm:"column:signal_strength"`
	SignalDirection     string  `gorm:"column:signal_direction"`
	ConsensusSentiment  float64 `gorm:"column:consensus_sentiment"`
	ConsensusConfidence float64 `gorm:"column:consensus_confidence"`

	WasExecuted bool    `gorm:"column:was_executed"`
	TradeID     *string `gorm:"column:trade_id"`

	ActualOutcome     *string    `gorm:"column:actual_outcome"`
	ActualPnl         *float64   `gorm:"column:actual_pnl"`
	ActualPnlPercent  *float64   `gorm:"column:actual_pnl_percent"`
	OutcomeRecordedAt *time.Time `gorm:"column:outcome_recorded_at"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SessionModel) TableName() string { return "analysis_sessions" }

// TradeModel mirrors types.Position for persistence.
type TradeModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	SessionID string `gorm:"column:session_id;index"`
	Symbol    string `gorm:"column:symbol;index"`
	Direction string `gorm:"column:direction"`
	Status    string `gorm:"column:status;index"`

	EntryPrice    float64 `gorm:"column:entry_price"`
	StopLoss      float64 `gorm:"column:stop_loss"`
	TakeProfit    float64 `gorm:"column:take_profit"`
	Quantity      float64 `gorm:"column:quantity"`
	PositionValue float64 `gorm:"column:position_value"`

	Pnl        float64 `gorm:"column:pnl"`
	PnlPercent float64 `gorm:"column:pnl_percent"`
	Fees       float64 `gorm:"column:fees"`

	CloseReason string     `gorm:"column:close_reason"`
	EntryTime   time.Time  `gorm:"column:entry_time"`
	ExitTime    *time.Time `gorm:"column:exit_time"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (TradeModel) TableName() string { return "trades" }

// ModelStatModel accumulates per-provider prediction accuracy. Updated in
// the same transaction that records a session outcome.
type ModelStatModel struct {
	ID          int64   `gorm:"column:id;primaryKey"`
	UserID      string  `gorm:"column:user_id;uniqueIndex:idx_model_stat,priority:1"`
	ModelName   string  `gorm:"column:model_name;uniqueIndex:idx_model_stat,priority:2"`
	Predictions int     `gorm:"column:predictions"`
	Correct     int     `gorm:"column:correct"`
	Accuracy    float64 `gorm:"column:accuracy"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ModelStatModel) TableName() string { return "ai_model_learning" }

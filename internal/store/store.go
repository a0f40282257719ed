package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quorum/internal/market"
	"quorum/internal/sizing"
	"quorum/internal/types"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrSessionNotFound is returned when an operation references a session id
// that was never logged.
var ErrSessionNotFound = errors.New("analysis session not found")

// Store persists analysis sessions, paper trades and per-model accuracy
// using Gorm + SQLite.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store: database path is required")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SessionModel{}, &TradeModel{}, &ModelStatModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a little parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SessionRecord is the domain-level input for CreateSession.
type SessionRecord struct {
	UserID      string
	Symbol      string
	Price       float64
	Volume      float64
	MarketCap   float64
	Context     market.Context
	Report      string
	Signal      types.TradingSignal
	WasExecuted bool
	TradeID     string
}

// CreateSession inserts a new analysis session and returns its id.
func (s *Store) CreateSession(ctx context.Context, rec SessionRecord) (string, error) {
	technicals, err := json.Marshal(rec.Context.Technicals)
	if err != nil {
		return "", err
	}
	macro, err := json.Marshal(rec.Context.Macro)
	if err != nil {
		return "", err
	}
	news, err := json.Marshal(rec.Context.News)
	if err != nil {
		return "", err
	}
	analyses, err := json.Marshal(rec.Signal.Analyses)
	if err != nil {
		return "", err
	}

	model := SessionModel{
		ID:                  uuid.NewString(),
		UserID:              rec.UserID,
		Symbol:              rec.Symbol,
		Timestamp:           time.Now().UTC(),
		Price:               rec.Price,
		Volume:              rec.Volume,
		MarketCap:           rec.MarketCap,
		TechnicalData:       datatypes.JSON(technicals),
		MacroData:           datatypes.JSON(macro),
		NewsData:            datatypes.JSON(news),
		MarketReport:        rec.Report,
		AIAnalyses:          datatypes.JSON(analyses),
		SignalStrength:      string(rec.Signal.Strength),
		SignalDirection:     string(rec.Signal.Direction),
		ConsensusSentiment:  rec.Signal.Sentiment,
		ConsensusConfidence: rec.Signal.Confidence,
		WasExecuted:         rec.WasExecuted,
	}
	if rec.TradeID != "" {
		model.TradeID = &rec.TradeID
	}
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", err
	}
	return model.ID, nil
}

// ExecuteTrade links a session to a newly opened paper position. The trade
// insert and the session update commit together or not at all.
func (s *Store) ExecuteTrade(ctx context.Context, sessionID string, pos types.Position) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session SessionModel
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
			}
			return err
		}
		trade := tradeModelFromPosition(sessionID, pos)
		if err := tx.Create(&trade).Error; err != nil {
			return err
		}
		return tx.Model(&SessionModel{}).
			Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"was_executed": true,
				"trade_id":     pos.ID,
			}).Error
	})
}

// CloseTrade persists a position's terminal state.
func (s *Store) CloseTrade(ctx context.Context, pos types.Position) error {
	return s.db.WithContext(ctx).Model(&TradeModel{}).
		Where("id = ?", pos.ID).
		Updates(map[string]interface{}{
			"status":       string(pos.Status),
			"pnl":          pos.Pnl,
			"pnl_percent":  pos.PnlPercent,
			"fees":         pos.Fees,
			"close_reason": string(pos.CloseReason),
			"exit_time":    pos.ExitTime,
			"stop_loss":    pos.StopLoss,
		}).Error
}

// UpdateTradeStop persists a trailing-stop adjustment.
func (s *Store) UpdateTradeStop(ctx context.Context, tradeID string, stopLoss float64) error {
	return s.db.WithContext(ctx).Model(&TradeModel{}).
		Where("id = ?", tradeID).
		Update("stop_loss", stopLoss).Error
}

// RecordOutcome writes the realized result onto a session, closes the
// linked trade if one exists, and folds each provider's prediction into
// the per-model accuracy table. All of it commits atomically.
func (s *Store) RecordOutcome(ctx context.Context, sessionID string, outcome types.Outcome, pnl, pnlPercent float64, closeReason types.CloseReason) error {
	if closeReason == "" {
		closeReason = types.CloseManual
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session SessionModel
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
			}
			return err
		}
		now := time.Now().UTC()
		if err := tx.Model(&SessionModel{}).
			Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"actual_outcome":      string(outcome),
				"actual_pnl":          pnl,
				"actual_pnl_percent":  pnlPercent,
				"outcome_recorded_at": now,
			}).Error; err != nil {
			return err
		}
		if session.TradeID != nil && *session.TradeID != "" {
			if err := tx.Model(&TradeModel{}).
				Where("id = ? AND status = ?", *session.TradeID, string(types.StatusOpen)).
				Updates(map[string]interface{}{
					"status":       string(types.StatusClosed),
					"pnl":          pnl,
					"pnl_percent":  pnlPercent,
					"close_reason": string(closeReason),
					"exit_time":    now,
				}).Error; err != nil {
				return err
			}
		}
		return updateModelStats(tx, session, outcome)
	})
}

// updateModelStats scores every provider opinion in the session against
// the realized outcome. A bullish call (sentiment > 50) is correct when a
// LONG won or a SHORT lost, and vice versa. Break-even trades teach
// nothing and are skipped.
func updateModelStats(tx *gorm.DB, session SessionModel, outcome types.Outcome) error {
	if outcome == types.OutcomeBreakEven {
		return nil
	}
	wantBullish := (session.SignalDirection == string(types.DirectionLong)) == (outcome == types.OutcomeWin)

	analyses := gjson.ParseBytes(session.AIAnalyses)
	var iterErr error
	analyses.ForEach(func(_, a gjson.Result) bool {
		name := a.Get("provider").String()
		if name == "" {
			return true
		}
		bullish := a.Get("sentiment").Float() > 50
		correct := bullish == wantBullish

		var stat ModelStatModel
		err := tx.Where("user_id = ? AND model_name = ?", session.UserID, name).First(&stat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stat = ModelStatModel{UserID: session.UserID, ModelName: name}
		} else if err != nil {
			iterErr = err
			return false
		}
		stat.Predictions++
		if correct {
			stat.Correct++
		}
		stat.Accuracy = float64(stat.Correct) / float64(stat.Predictions)
		if err := tx.Save(&stat).Error; err != nil {
			iterErr = err
			return false
		}
		return true
	})
	return iterErr
}

// LearningStats is the aggregate view served by the stats endpoint.
type LearningStats struct {
	TotalAnalyses         int     `json:"total_analyses"`
	Executed              int     `json:"executed"`
	WinRate               float64 `json:"win_rate"`
	AvgConfidenceWhenWin  float64 `json:"avg_confidence_when_win"`
	AvgConfidenceWhenLoss float64 `json:"avg_confidence_when_loss"`
	BestPerformingModel   string  `json:"best_performing_model"`
}

// Stats aggregates session history for one user.
func (s *Store) Stats(ctx context.Context, userID string) (LearningStats, error) {
	var sessions []SessionModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&sessions).Error; err != nil {
		return LearningStats{}, err
	}

	stats := LearningStats{TotalAnalyses: len(sessions), BestPerformingModel: "N/A"}
	var completed, wins, losses int
	var winConfSum, lossConfSum float64
	for _, sess := range sessions {
		if sess.WasExecuted {
			stats.Executed++
		}
		if sess.ActualOutcome == nil {
			continue
		}
		completed++
		switch types.Outcome(*sess.ActualOutcome) {
		case types.OutcomeWin:
			wins++
			winConfSum += sess.ConsensusConfidence
		case types.OutcomeLoss:
			losses++
			lossConfSum += sess.ConsensusConfidence
		}
	}
	if completed > 0 {
		stats.WinRate = float64(wins) / float64(completed)
	}
	if wins > 0 {
		stats.AvgConfidenceWhenWin = winConfSum / float64(wins)
	}
	if losses > 0 {
		stats.AvgConfidenceWhenLoss = lossConfSum / float64(losses)
	}

	var best ModelStatModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("accuracy DESC").
		First(&best).Error
	if err == nil {
		stats.BestPerformingModel = fmt.Sprintf("%s (%.1f%%)", best.ModelName, best.Accuracy*100)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return LearningStats{}, err
	}
	return stats, nil
}

// HistoricalStats summarizes closed trades for position sizing. Returns
// nil when the user has no closed trades yet.
func (s *Store) HistoricalStats(ctx context.Context, userID string) (*sizing.HistoricalStats, error) {
	var sessions []SessionModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND actual_outcome IS NOT NULL", userID).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	var wins, total int
	var winSum, lossSum float64
	var winN, lossN int
	for _, sess := range sessions {
		total++
		pct := 0.0
		if sess.ActualPnlPercent != nil {
			pct = *sess.ActualPnlPercent
		}
		switch types.Outcome(deref(sess.ActualOutcome)) {
		case types.OutcomeWin:
			wins++
			winSum += pct
			winN++
		case types.OutcomeLoss:
			lossSum += pct
			lossN++
		}
	}
	out := &sizing.HistoricalStats{TotalTrades: total}
	if total > 0 {
		out.WinRate = float64(wins) / float64(total)
	}
	if winN > 0 {
		out.AvgWin = winSum / float64(winN)
	}
	if lossN > 0 {
		out.AvgLoss = lossSum / float64(lossN)
	}
	return out, nil
}

// TrainingExample is one row of the fine-tuning export: what the system
// saw, what it predicted, and what actually happened.
type TrainingExample struct {
	Input struct {
		Symbol       string          `json:"symbol"`
		Price        float64         `json:"price"`
		Technicals   json.RawMessage `json:"technicals"`
		Macro        json.RawMessage `json:"macro"`
		News         json.RawMessage `json:"news"`
		MarketReport string          `json:"market_report"`
	} `json:"input"`
	Prediction struct {
		Sentiment  float64 `json:"sentiment"`
		Confidence float64 `json:"confidence"`
		Direction  string  `json:"direction"`
	} `json:"prediction"`
	Actual struct {
		Outcome    string  `json:"outcome"`
		Pnl        float64 `json:"pnl"`
		PnlPercent float64 `json:"pnl_percent"`
	} `json:"actual"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportTrainingData returns every session with a recorded outcome.
func (s *Store) ExportTrainingData(ctx context.Context, userID string) ([]TrainingExample, error) {
	var sessions []SessionModel
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND actual_outcome IS NOT NULL", userID).
		Order("timestamp ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}

	out := make([]TrainingExample, 0, len(sessions))
	for _, sess := range sessions {
		var ex TrainingExample
		ex.Input.Symbol = sess.Symbol
		ex.Input.Price = sess.Price
		ex.Input.Technicals = json.RawMessage(sess.TechnicalData)
		ex.Input.Macro = json.RawMessage(sess.MacroData)
		ex.Input.News = json.RawMessage(sess.NewsData)
		ex.Input.MarketReport = sess.MarketReport
		ex.Prediction.Sentiment = sess.ConsensusSentiment
		ex.Prediction.Confidence = sess.ConsensusConfidence
		ex.Prediction.Direction = sess.SignalDirection
		ex.Actual.Outcome = deref(sess.ActualOutcome)
		if sess.ActualPnl != nil {
			ex.Actual.Pnl = *sess.ActualPnl
		}
		if sess.ActualPnlPercent != nil {
			ex.Actual.PnlPercent = *sess.ActualPnlPercent
		}
		ex.Timestamp = sess.Timestamp
		out = append(out, ex)
	}
	return out, nil
}

func tradeModelFromPosition(sessionID string, pos types.Position) TradeModel {
	return TradeModel{
		ID:            pos.ID,
		SessionID:     sessionID,
		Symbol:        pos.Symbol,
		Direction:     string(pos.Direction),
		Status:        string(pos.Status),
		EntryPrice:    pos.EntryPrice,
		StopLoss:      pos.StopLoss,
		TakeProfit:    pos.TakeProfit,
		Quantity:      pos.Quantity,
		PositionValue: pos.PositionValue,
		Pnl:           pos.Pnl,
		PnlPercent:    pos.PnlPercent,
		Fees:          pos.Fees,
		CloseReason:   string(pos.CloseReason),
		EntryTime:     pos.EntryTime,
		ExitTime:      pos.ExitTime,
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

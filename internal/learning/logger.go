// Package learning records every analysis session and its eventual
// outcome so the model mix can be evaluated against reality.
package learning

import (
	"context"

	"quorum/internal/consensus"
	"quorum/internal/logger"
	"quorum/internal/store"
	"quorum/internal/types"

	"github.com/google/uuid"
)

// Logger persists analysis sessions. Logging must never break the
// analysis path: persistence failures are absorbed and a fallback session
// id is handed back so callers can keep correlating.
type Logger struct {
	store  *store.Store
	userID string
}

func NewLogger(st *store.Store, userID string) *Logger {
	return &Logger{store: st, userID: userID}
}

// LogAnalysis saves one completed consensus run. On storage failure the
// returned id carries a "fallback-" prefix and nothing is persisted.
func (l *Logger) LogAnalysis(ctx context.Context, md types.MarketData, res consensus.Result, wasExecuted bool, tradeID string) string {
	id, err := l.store.CreateSession(ctx, store.SessionRecord{
		UserID:      l.userID,
		Symbol:      res.Signal.Symbol,
		Price:       md.Price,
		Volume:      md.Volume,
		MarketCap:   md.MarketCap,
		Context:     res.Context,
		Report:      res.Report,
		Signal:      res.Signal,
		WasExecuted: wasExecuted,
		TradeID:     tradeID,
	})
	if err != nil {
		logger.Errorf("failed to save analysis session for %s: %v", res.Signal.Symbol, err)
		return "fallback-" + uuid.NewString()
	}
	logger.Infof("learning session saved: %s %s %s", res.Signal.Symbol, res.Signal.Strength, res.Signal.Direction)
	return id
}

// Execute links a session to an opened position, atomically.
func (l *Logger) Execute(ctx context.Context, sessionID string, pos types.Position) error {
	return l.store.ExecuteTrade(ctx, sessionID, pos)
}

// RecordOutcome writes the realized result for a session.
func (l *Logger) RecordOutcome(ctx context.Context, sessionID string, outcome types.Outcome, pnl, pnlPercent float64, closeReason types.CloseReason) error {
	err := l.store.RecordOutcome(ctx, sessionID, outcome, pnl, pnlPercent, closeReason)
	if err == nil {
		logger.Infof("outcome recorded for session %s: %s (%.2f%%)", sessionID, outcome, pnlPercent)
	}
	return err
}

// Stats returns the aggregate learning statistics for the logger's user.
func (l *Logger) Stats(ctx context.Context) (store.LearningStats, error) {
	return l.store.Stats(ctx, l.userID)
}

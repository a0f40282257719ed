package learning

import (
	"context"
	"time"

	"quorum/internal/logger"
	"quorum/internal/types"
)

const recorderBuffer = 64

type outcomeRequest struct {
	SessionID   string
	Outcome     types.Outcome
	Pnl         float64
	PnlPercent  float64
	CloseReason types.CloseReason
}

// Recorder decouples outcome persistence from the monitor loop: position
// closes enqueue and move on, a single worker drains the queue. A full
// queue drops the oldest pending entry rather than blocking the monitor.
type Recorder struct {
	log *Logger
	ch  chan outcomeRequest
}

func NewRecorder(log *Logger) *Recorder {
	return &Recorder{log: log, ch: make(chan outcomeRequest, recorderBuffer)}
}

// Enqueue schedules an outcome write. Never blocks.
func (r *Recorder) Enqueue(sessionID string, outcome types.Outcome, pnl, pnlPercent float64, closeReason types.CloseReason) {
	req := outcomeRequest{SessionID: sessionID, Outcome: outcome, Pnl: pnl, PnlPercent: pnlPercent, CloseReason: closeReason}
	for {
		select {
		case r.ch <- req:
			return
		default:
		}
		select {
		case dropped := <-r.ch:
			logger.Warnf("outcome queue full, dropping pending record for session %s", dropped.SessionID)
		default:
		}
	}
}

// Run drains the queue until the context ends.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.ch:
			writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.log.RecordOutcome(writeCtx, req.SessionID, req.Outcome, req.Pnl, req.PnlPercent, req.CloseReason); err != nil {
				logger.Errorf("async outcome record failed for session %s: %v", req.SessionID, err)
			}
			cancel()
		}
	}
}

// ClassifyOutcome maps realized PnL to a learning outcome.
func ClassifyOutcome(pnl float64) types.Outcome {
	switch {
	case pnl > 0:
		return types.OutcomeWin
	case pnl < 0:
		return types.OutcomeLoss
	default:
		return types.OutcomeBreakEven
	}
}

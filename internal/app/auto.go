package app

import (
	"context"
	"time"

	"quorum/internal/logger"
	"quorum/internal/sizing"
)

// autoTick runs a full analysis pass over the configured symbols and
// paper-executes every actionable signal that clears the risk gate. Each
// symbol is independent: one failure never stops the sweep.
func (a *App) autoTick(ctx context.Context) {
	for _, symbol := range a.cfg.Market.Symbols {
		select {
		case <-ctx.Done():
			return
		default:
		}
		a.analyzeAndExecute(ctx, symbol)
	}
}

func (a *App) analyzeAndExecute(ctx context.Context, symbol string) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	quotes := a.prices.FetchPrices(runCtx, []string{symbol})
	md, ok := quotes[a.quoteKey(symbol)]
	if !ok || md.Price <= 0 {
		logger.Warnf("auto: no usable quote for %s, skipping", symbol)
		return
	}

	result, err := a.orch.Analyze(runCtx, symbol, md)
	if err != nil {
		logger.Errorf("auto: analysis for %s failed: %v", symbol, err)
		return
	}
	sessionID := a.learn.LogAnalysis(runCtx, md, result, false, "")

	signal := result.Signal
	if !signal.Actionable() {
		logger.Infof("auto: %s is %s, nothing to do", symbol, signal.Strength)
		return
	}
	decision := a.gate.Evaluate(signal, a.book.Drawdown())
	if !decision.CanTrade {
		for _, check := range decision.Checks {
			if !check.Pass {
				logger.Infof("auto: %s blocked by risk check %s (%s)", symbol, check.Name, check.Detail)
			}
		}
		return
	}

	stats, err := a.store.HistoricalStats(runCtx, a.cfg.Learning.UserID)
	if err != nil {
		logger.Errorf("auto: historical stats lookup failed: %v", err)
		return
	}
	rec, err := sizing.CalculateOptimalSize(a.book.Balance(), signal.Confidence, stats)
	if err != nil {
		logger.Errorf("auto: sizing for %s failed: %v", symbol, err)
		return
	}

	pos, err := a.book.Open(signal, rec.Size, sessionID)
	if err != nil {
		logger.Warnf("auto: could not open %s position on %s: %v", signal.Direction, symbol, err)
		return
	}
	if err := a.learn.Execute(runCtx, sessionID, pos); err != nil {
		logger.Errorf("auto: failed to persist execution of %s: %v", pos.ID, err)
		if _, closeErr := a.book.Close(pos.ID, pos.EntryPrice); closeErr != nil {
			logger.Errorf("auto: failed to unwind position %s: %v", pos.ID, closeErr)
		}
		return
	}
	logger.Infof("auto: executed %s %s via %s (size=%.2f)", signal.Direction, symbol, rec.Method, rec.Size)
}

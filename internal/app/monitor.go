package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quorum/internal/learning"
	"quorum/internal/logger"
)

// monitorTick marks open positions against fresh quotes, persists stop
// adjustments, and settles any position whose stop or target was hit.
func (a *App) monitorTick(ctx context.Context) {
	open := a.book.OpenPositions()
	if len(open) == 0 {
		return
	}

	tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	symbols := make([]string, 0, len(open))
	seen := make(map[string]struct{}, len(open))
	for _, pos := range open {
		if _, ok := seen[pos.Symbol]; ok {
			continue
		}
		seen[pos.Symbol] = struct{}{}
		symbols = append(symbols, pos.Symbol)
	}

	quotes := a.prices.FetchPrices(tickCtx, symbols)
	prices := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		if q, ok := quotes[a.quoteKey(sym)]; ok {
			prices[sym] = q.Price
		}
	}

	stopsBefore := make(map[string]float64, len(open))
	for _, pos := range open {
		stopsBefore[pos.ID] = pos.StopLoss
	}

	closed := a.book.Tick(prices, a.policies.Active().TrailingPercent)

	for _, pos := range a.book.OpenPositions() {
		if before, ok := stopsBefore[pos.ID]; ok && before != pos.StopLoss {
			if err := a.store.UpdateTradeStop(tickCtx, pos.ID, pos.StopLoss); err != nil {
				logger.Warnf("failed to persist trailing stop for %s: %v", pos.ID, err)
			}
		}
	}

	for _, cp := range closed {
		if err := a.store.CloseTrade(tickCtx, cp.Position); err != nil {
			logger.Errorf("failed to persist close of %s: %v", cp.Position.ID, err)
		}
		if cp.Position.SessionID != "" {
			a.recorder.Enqueue(
				cp.Position.SessionID,
				learning.ClassifyOutcome(cp.Position.Pnl),
				cp.Position.Pnl,
				cp.Position.PnlPercent,
				cp.Position.CloseReason,
			)
		}
	}
}

func (a *App) quoteKey(symbol string) string {
	return fmt.Sprintf("%s/%s", strings.ToUpper(symbol), strings.ToUpper(a.cfg.Market.QuoteCurrency))
}

// Package paper simulates trade execution and lifecycle against live
// quotes. No real orders are ever placed.
package paper

import (
	"math"

	"quorum/internal/logger"
	"quorum/internal/types"
)

// PositionUpdate is the monitor's verdict on one open position for one
// price snapshot.
type PositionUpdate struct {
	ID           string            `json:"id"`
	ShouldClose  bool              `json:"should_close"`
	CloseReason  types.CloseReason `json:"close_reason,omitempty"`
	CurrentPrice float64           `json:"current_price"`
	Pnl          float64           `json:"pnl"`
	PnlPercent   float64           `json:"pnl_percent"`
}

// CheckPositions evaluates stop and target triggers for every open
// position against the given price snapshot. Pure function: positions with
// no quote (or a corrupt entry price) yield a neutral update rather than a
// close. Trigger comparisons are inclusive, so a touch counts as a hit.
func CheckPositions(positions []types.Position, prices map[string]float64) []PositionUpdate {
	updates := make([]PositionUpdate, 0, len(positions))
	for _, pos := range positions {
		updates = append(updates, checkPosition(pos, prices))
	}
	return updates
}

func checkPosition(pos types.Position, prices map[string]float64) PositionUpdate {
	price, ok := prices[pos.Symbol]
	if !ok || price <= 0 {
		return PositionUpdate{ID: pos.ID, CurrentPrice: pos.EntryPrice}
	}
	if pos.EntryPrice <= 0 {
		logger.Errorf("position %s has invalid entry price %v, skipping", pos.ID, pos.EntryPrice)
		return PositionUpdate{ID: pos.ID, CurrentPrice: pos.EntryPrice}
	}

	var shouldClose bool
	var reason types.CloseReason

	if pos.Direction == types.DirectionLong {
		if price <= pos.StopLoss {
			shouldClose, reason = true, types.CloseStopLoss
		} else if price >= pos.TakeProfit {
			shouldClose, reason = true, types.CloseTakeProfit
		}
	} else {
		if price >= pos.StopLoss {
			shouldClose, reason = true, types.CloseStopLoss
		} else if price <= pos.TakeProfit {
			shouldClose, reason = true, types.CloseTakeProfit
		}
	}

	priceDiff := price - pos.EntryPrice
	if pos.Direction == types.DirectionShort {
		priceDiff = pos.EntryPrice - price
	}
	pnl := (priceDiff / pos.EntryPrice) * pos.PositionValue
	pnlPercent := (priceDiff / pos.EntryPrice) * 100

	return PositionUpdate{
		ID:           pos.ID,
		ShouldClose:  shouldClose,
		CloseReason:  reason,
		CurrentPrice: price,
		Pnl:          pnl,
		PnlPercent:   pnlPercent,
	}
}

// UpdateTrailingStop ratchets the stop toward price once the position is
// in profit. The stop only ever tightens: a retracing price never moves it
// back. At or below entry (for LONG) the stop is left alone.
func UpdateTrailingStop(pos types.Position, currentPrice, trailingPercent float64) float64 {
	if trailingPercent <= 0 {
		return pos.StopLoss
	}
	if pos.Direction == types.DirectionLong {
		if currentPrice > pos.EntryPrice {
			return math.Max(pos.StopLoss, currentPrice*(1-trailingPercent))
		}
		return pos.StopLoss
	}
	if currentPrice < pos.EntryPrice {
		return math.Min(pos.StopLoss, currentPrice*(1+trailingPercent))
	}
	return pos.StopLoss
}

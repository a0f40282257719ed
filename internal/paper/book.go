package paper

import (
	"fmt"
	"sync"
	"time"

	"quorum/internal/logger"
	"quorum/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Book is the in-memory paper trading account. A single mutex serializes
// every balance mutation so a position's value is debited and credited
// exactly once over its lifetime. Money amounts are held as decimals and
// converted to float64 only at the edges.
type Book struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	feeRate   decimal.Decimal
	peak      decimal.Decimal // highest equity seen, for drawdown
	positions map[string]*types.Position
}

// ClosedPosition pairs a finished position with the fill that closed it.
type ClosedPosition struct {
	Position types.Position
	Update   PositionUpdate
}

func NewBook(initialBalance, feeRate float64) *Book {
	bal := decimal.NewFromFloat(initialBalance)
	return &Book{
		balance:   bal,
		feeRate:   decimal.NewFromFloat(feeRate),
		peak:      bal,
		positions: make(map[string]*types.Position),
	}
}

// Open debits the position value plus entry fee and registers the
// position. The signal must be actionable and the size affordable.
// sessionID links the position back to the analysis that produced it.
func (b *Book) Open(signal types.TradingSignal, size float64, sessionID string) (types.Position, error) {
	if !signal.Actionable() {
		return types.Position{}, fmt.Errorf("signal for %s is not actionable", signal.Symbol)
	}
	if size <= 0 {
		return types.Position{}, fmt.Errorf("position size must be positive, got %v", size)
	}
	if signal.EntryPrice <= 0 {
		return types.Position{}, fmt.Errorf("entry price must be positive, got %v", signal.EntryPrice)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	value := decimal.NewFromFloat(size)
	fee := value.Mul(b.feeRate)
	cost := value.Add(fee)
	if b.balance.LessThan(cost) {
		return types.Position{}, fmt.Errorf("insufficient balance: need %s, have %s", cost.StringFixed(2), b.balance.StringFixed(2))
	}
	b.balance = b.balance.Sub(cost)

	feeF, _ := fee.Float64()
	pos := types.Position{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		Symbol:        signal.Symbol,
		Direction:     signal.Direction,
		Status:        types.StatusOpen,
		EntryPrice:    signal.EntryPrice,
		StopLoss:      signal.StopLoss,
		TakeProfit:    signal.TakeProfit,
		Quantity:      size / signal.EntryPrice,
		PositionValue: size,
		Fees:          feeF,
		EntryTime:     time.Now().UTC(),
	}
	b.positions[pos.ID] = &pos
	logger.Infof("opened %s %s: value=%.2f entry=%.2f stop=%.2f target=%.2f",
		pos.Direction, pos.Symbol, pos.PositionValue, pos.EntryPrice, pos.StopLoss, pos.TakeProfit)

	snapshot := pos
	return snapshot, nil
}

// Tick marks every open position against the price snapshot, ratchets
// trailing stops, and closes positions whose stop or target was hit.
// Returns the positions closed by this tick.
func (b *Book) Tick(prices map[string]float64, trailingPercent float64) []ClosedPosition {
	b.mu.Lock()
	defer b.mu.Unlock()

	open := make([]types.Position, 0, len(b.positions))
	for _, p := range b.positions {
		open = append(open, *p)
	}
	updates := CheckPositions(open, prices)

	var closed []ClosedPosition
	for _, u := range updates {
		pos, ok := b.positions[u.ID]
		if !ok {
			continue
		}
		if u.ShouldClose {
			closed = append(closed, ClosedPosition{
				Position: b.closeLocked(pos, u.CurrentPrice, u.CloseReason),
				Update:   u,
			})
			continue
		}
		pos.Pnl = u.Pnl
		pos.PnlPercent = u.PnlPercent
		if next := UpdateTrailingStop(*pos, u.CurrentPrice, trailingPercent); next != pos.StopLoss {
			logger.Debugf("trailing stop for %s %s: %.2f -> %.2f", pos.Direction, pos.Symbol, pos.StopLoss, next)
			pos.StopLoss = next
		}
	}
	b.markPeakLocked()
	return closed
}

// Close manually exits a position at the given price.
func (b *Book) Close(id string, price float64) (types.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos, ok := b.positions[id]
	if !ok {
		return types.Position{}, fmt.Errorf("position %s not found or already closed", id)
	}
	if price <= 0 {
		return types.Position{}, fmt.Errorf("close price must be positive, got %v", price)
	}
	return b.closeLocked(pos, price, types.CloseManual), nil
}

// closeLocked settles a position: exit fee, final PnL, and a single
// balance credit of value plus PnL minus fee. Caller holds the mutex.
func (b *Book) closeLocked(pos *types.Position, price float64, reason types.CloseReason) types.Position {
	priceDiff := price - pos.EntryPrice
	if pos.Direction == types.DirectionShort {
		priceDiff = pos.EntryPrice - price
	}

	value := decimal.NewFromFloat(pos.PositionValue)
	pnl := decimal.NewFromFloat(priceDiff / pos.EntryPrice).Mul(value)
	exitFee := value.Mul(b.feeRate)
	b.balance = b.balance.Add(value).Add(pnl).Sub(exitFee)

	now := time.Now().UTC()
	pos.Status = types.StatusClosed
	pos.CloseReason = reason
	pos.Pnl, _ = pnl.Float64()
	pos.PnlPercent = (priceDiff / pos.EntryPrice) * 100
	pos.Fees += mustFloat(exitFee)
	pos.ExitTime = &now
	delete(b.positions, pos.ID)

	logger.Infof("closed %s %s (%s): pnl=%.2f balance=%s",
		pos.Direction, pos.Symbol, reason, pos.Pnl, b.balance.StringFixed(2))
	return *pos
}

// Balance returns the free (uncommitted) balance.
func (b *Book) Balance() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return mustFloat(b.balance)
}

// Equity is free balance plus the marked value of open positions.
func (b *Book) Equity() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return mustFloat(b.equityLocked())
}

// Drawdown is the fractional decline from the equity high-water mark.
func (b *Book) Drawdown() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.peak.IsZero() {
		return 0
	}
	dd := b.peak.Sub(b.equityLocked()).Div(b.peak)
	if dd.IsNegative() {
		return 0
	}
	return mustFloat(dd)
}

// OpenPositions returns snapshots of all open positions.
func (b *Book) OpenPositions() []types.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	return out
}

func (b *Book) equityLocked() decimal.Decimal {
	eq := b.balance
	for _, p := range b.positions {
		eq = eq.Add(decimal.NewFromFloat(p.PositionValue)).Add(decimal.NewFromFloat(p.Pnl))
	}
	return eq
}

func (b *Book) markPeakLocked() {
	if eq := b.equityLocked(); eq.GreaterThan(b.peak) {
		b.peak = eq
	}
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

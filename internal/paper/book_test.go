package paper

import (
	"testing"

	"quorum/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buySignal() types.TradingSignal {
	return types.TradingSignal{
		Symbol:     "BTC",
		Strength:   types.StrengthBuy,
		Direction:  types.DirectionLong,
		Sentiment:  65,
		Confidence: 0.72,
		EntryPrice: 100,
		StopLoss:   97,
		TakeProfit: 105,
	}
}

func TestBookOpen(t *testing.T) {
	t.Run("debits value plus entry fee", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		pos, err := book.Open(buySignal(), 1000, "sess-1")
		require.NoError(t, err)

		assert.Equal(t, "sess-1", pos.SessionID)
		assert.Equal(t, types.StatusOpen, pos.Status)
		assert.InDelta(t, 10, pos.Quantity, 1e-9)
		assert.InDelta(t, 1, pos.Fees, 1e-9)
		assert.InDelta(t, 8999, book.Balance(), 1e-9)
		require.Len(t, book.OpenPositions(), 1)
	})

	t.Run("rejects hold signals", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		sig := buySignal()
		sig.Strength = types.StrengthHold
		sig.Direction = types.DirectionNone
		_, err := book.Open(sig, 1000, "sess-1")
		assert.Error(t, err)
	})

	t.Run("rejects unaffordable size", func(t *testing.T) {
		book := NewBook(500, 0.001)
		_, err := book.Open(buySignal(), 1000, "sess-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance")
		assert.InDelta(t, 500, book.Balance(), 1e-9)
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		_, err := book.Open(buySignal(), 0, "sess-1")
		assert.Error(t, err)
	})
}

func TestBookCloseSettlesOnce(t *testing.T) {
	t.Run("flat close loses only the fees", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		pos, err := book.Open(buySignal(), 1000, "sess-1")
		require.NoError(t, err)

		closed, err := book.Close(pos.ID, 100)
		require.NoError(t, err)
		assert.Equal(t, types.StatusClosed, closed.Status)
		assert.Equal(t, types.CloseManual, closed.CloseReason)
		assert.Zero(t, closed.Pnl)
		assert.InDelta(t, 2, closed.Fees, 1e-9)
		// 10000 - 1000 - 1 (entry fee) + 1000 + 0 - 1 (exit fee)
		assert.InDelta(t, 9998, book.Balance(), 1e-9)
		assert.Empty(t, book.OpenPositions())
	})

	t.Run("profitable close credits pnl", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		pos, err := book.Open(buySignal(), 1000, "sess-1")
		require.NoError(t, err)

		closed, err := book.Close(pos.ID, 110)
		require.NoError(t, err)
		assert.InDelta(t, 100, closed.Pnl, 1e-9)
		assert.InDelta(t, 10, closed.PnlPercent, 1e-9)
		assert.InDelta(t, 10098, book.Balance(), 1e-9)
	})

	t.Run("closing twice fails", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		pos, err := book.Open(buySignal(), 1000, "sess-1")
		require.NoError(t, err)

		_, err = book.Close(pos.ID, 100)
		require.NoError(t, err)
		_, err = book.Close(pos.ID, 100)
		assert.Error(t, err)
	})
}

func TestBookTick(t *testing.T) {
	t.Run("closes positions whose target was hit", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		pos, err := book.Open(buySignal(), 1000, "sess-1")
		require.NoError(t, err)

		closed := book.Tick(map[string]float64{"BTC": 106}, 0.02)
		require.Len(t, closed, 1)
		assert.Equal(t, pos.ID, closed[0].Position.ID)
		assert.Equal(t, types.CloseTakeProfit, closed[0].Position.CloseReason)
		assert.Empty(t, book.OpenPositions())
	})

	t.Run("ratchets the trailing stop while open", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		_, err := book.Open(buySignal(), 1000, "sess-1")
		require.NoError(t, err)

		closed := book.Tick(map[string]float64{"BTC": 104}, 0.02)
		assert.Empty(t, closed)
		open := book.OpenPositions()
		require.Len(t, open, 1)
		assert.InDelta(t, 101.92, open[0].StopLoss, 1e-9)
		assert.InDelta(t, 40, open[0].Pnl, 1e-9)
	})

	t.Run("missing quote is a no-op for the position", func(t *testing.T) {
		book := NewBook(10000, 0.001)
		_, err := book.Open(buySignal(), 1000, "sess-1")
		require.NoError(t, err)

		closed := book.Tick(map[string]float64{}, 0.02)
		assert.Empty(t, closed)
		open := book.OpenPositions()
		require.Len(t, open, 1)
		assert.Equal(t, 97.0, open[0].StopLoss)
	})
}

func TestBookDrawdown(t *testing.T) {
	book := NewBook(10000, 0.001)
	assert.Zero(t, book.Drawdown())

	pos, err := book.Open(buySignal(), 1000, "sess-1")
	require.NoError(t, err)
	_, err = book.Close(pos.ID, 80) // -200 pnl plus fees
	require.NoError(t, err)

	dd := book.Drawdown()
	assert.Greater(t, dd, 0.019)
	assert.Less(t, dd, 0.025)
	assert.InDelta(t, book.Balance(), book.Equity(), 1e-9)
}

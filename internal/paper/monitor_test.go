package paper

import (
	"testing"

	"quorum/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longPosition() types.Position {
	return types.Position{
		ID:            "pos-1",
		Symbol:        "BTC",
		Direction:     types.DirectionLong,
		Status:        types.StatusOpen,
		EntryPrice:    100,
		StopLoss:      97,
		TakeProfit:    105,
		PositionValue: 1000,
	}
}

func shortPosition() types.Position {
	return types.Position{
		ID:            "pos-2",
		Symbol:        "ETH",
		Direction:     types.DirectionShort,
		Status:        types.StatusOpen,
		EntryPrice:    100,
		StopLoss:      103,
		TakeProfit:    95,
		PositionValue: 1000,
	}
}

func TestCheckPositionsLong(t *testing.T) {
	t.Run("stop loss trigger is inclusive", func(t *testing.T) {
		updates := CheckPositions([]types.Position{longPosition()}, map[string]float64{"BTC": 97})
		require.Len(t, updates, 1)
		assert.True(t, updates[0].ShouldClose)
		assert.Equal(t, types.CloseStopLoss, updates[0].CloseReason)
	})

	t.Run("take profit trigger is inclusive", func(t *testing.T) {
		updates := CheckPositions([]types.Position{longPosition()}, map[string]float64{"BTC": 105})
		require.Len(t, updates, 1)
		assert.True(t, updates[0].ShouldClose)
		assert.Equal(t, types.CloseTakeProfit, updates[0].CloseReason)
	})

	t.Run("in range stays open with marked pnl", func(t *testing.T) {
		updates := CheckPositions([]types.Position{longPosition()}, map[string]float64{"BTC": 102})
		require.Len(t, updates, 1)
		assert.False(t, updates[0].ShouldClose)
		assert.InDelta(t, 20, updates[0].Pnl, 1e-9)       // (2/100)*1000
		assert.InDelta(t, 2, updates[0].PnlPercent, 1e-9) // 2%
	})
}

func TestCheckPositionsShort(t *testing.T) {
	t.Run("price rise hits stop", func(t *testing.T) {
		updates := CheckPositions([]types.Position{shortPosition()}, map[string]float64{"ETH": 103})
		require.Len(t, updates, 1)
		assert.True(t, updates[0].ShouldClose)
		assert.Equal(t, types.CloseStopLoss, updates[0].CloseReason)
	})

	t.Run("price drop hits target with positive pnl", func(t *testing.T) {
		updates := CheckPositions([]types.Position{shortPosition()}, map[string]float64{"ETH": 95})
		require.Len(t, updates, 1)
		assert.True(t, updates[0].ShouldClose)
		assert.Equal(t, types.CloseTakeProfit, updates[0].CloseReason)
		assert.InDelta(t, 50, updates[0].Pnl, 1e-9) // (5/100)*1000
	})
}

func TestCheckPositionsGuards(t *testing.T) {
	t.Run("missing quote leaves position untouched", func(t *testing.T) {
		updates := CheckPositions([]types.Position{longPosition()}, map[string]float64{})
		require.Len(t, updates, 1)
		assert.False(t, updates[0].ShouldClose)
		assert.Zero(t, updates[0].Pnl)
		assert.Equal(t, 100.0, updates[0].CurrentPrice)
	})

	t.Run("corrupt entry price never divides by zero", func(t *testing.T) {
		pos := longPosition()
		pos.EntryPrice = 0
		updates := CheckPositions([]types.Position{pos}, map[string]float64{"BTC": 102})
		require.Len(t, updates, 1)
		assert.False(t, updates[0].ShouldClose)
		assert.Zero(t, updates[0].Pnl)
	})

	t.Run("idempotent for the same snapshot", func(t *testing.T) {
		pos := []types.Position{longPosition(), shortPosition()}
		prices := map[string]float64{"BTC": 101.5, "ETH": 99.25}
		first := CheckPositions(pos, prices)
		second := CheckPositions(pos, prices)
		assert.Equal(t, first, second)
	})
}

func TestUpdateTrailingStop(t *testing.T) {
	t.Run("long in profit tightens stop", func(t *testing.T) {
		pos := longPosition()
		stop := UpdateTrailingStop(pos, 110, 0.02)
		assert.InDelta(t, 107.8, stop, 1e-9)
	})

	t.Run("long never loosens on retrace", func(t *testing.T) {
		pos := longPosition()
		pos.StopLoss = 107.8
		stop := UpdateTrailingStop(pos, 105, 0.02)
		assert.InDelta(t, 107.8, stop, 1e-9)
	})

	t.Run("long at or below entry untouched", func(t *testing.T) {
		pos := longPosition()
		assert.Equal(t, 97.0, UpdateTrailingStop(pos, 100, 0.02))
		assert.Equal(t, 97.0, UpdateTrailingStop(pos, 95, 0.02))
	})

	t.Run("short in profit tightens downward", func(t *testing.T) {
		pos := shortPosition()
		stop := UpdateTrailingStop(pos, 90, 0.02)
		assert.InDelta(t, 91.8, stop, 1e-9)
	})

	t.Run("short never loosens", func(t *testing.T) {
		pos := shortPosition()
		pos.StopLoss = 91.8
		stop := UpdateTrailingStop(pos, 94, 0.02)
		assert.InDelta(t, 91.8, stop, 1e-9)
	})
}

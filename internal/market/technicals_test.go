package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticCandles(n int, start float64, step float64) []Candle {
	candles := make([]Candle, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	hour := time.Hour.Milliseconds()
	price := start
	for i := range candles {
		price += step
		candles[i] = Candle{
			OpenTime:  base + int64(i)*hour,
			CloseTime: base + int64(i+1)*hour,
			Open:      price - step,
			High:      price * 1.01,
			Low:       price * 0.99,
			Close:     price,
			Volume:    1000,
		}
	}
	return candles
}

func TestComputeTechnicals(t *testing.T) {
	t.Run("uptrend produces coherent indicators", func(t *testing.T) {
		ind, err := ComputeTechnicals(syntheticCandles(250, 100, 0.5))
		require.NoError(t, err)

		assert.False(t, ind.Simulated)
		assert.Greater(t, ind.RSI, 50.0, "steady uptrend should not read oversold")
		assert.Greater(t, ind.EMA.EMA50, ind.EMA.EMA200, "recent prices are higher")
		assert.Greater(t, ind.BollingerBands.Upper, ind.BollingerBands.Middle)
		assert.Greater(t, ind.BollingerBands.Middle, ind.BollingerBands.Lower)
	})

	t.Run("short history is rejected", func(t *testing.T) {
		_, err := ComputeTechnicals(syntheticCandles(100, 100, 0.5))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "need at least 210 candles")
	})

	t.Run("invalid close is rejected", func(t *testing.T) {
		candles := syntheticCandles(250, 100, 0.5)
		candles[42].Close = math.NaN()
		_, err := ComputeTechnicals(candles)
		assert.Error(t, err)
	})
}

func TestSimulateTechnicals(t *testing.T) {
	for i := 0; i < 20; i++ {
		ind := SimulateTechnicals(100)
		assert.True(t, ind.Simulated)
		assert.GreaterOrEqual(t, ind.RSI, 30.0)
		assert.LessOrEqual(t, ind.RSI, 70.0)
		assert.Greater(t, ind.BollingerBands.Upper, ind.BollingerBands.Lower)
		assert.InDelta(t, ind.MACD.Value-ind.MACD.Signal, ind.MACD.Histogram, 1e-9)
	}
}

func TestInterpretTechnicals(t *testing.T) {
	t.Run("golden cross with positive momentum reads bullish", func(t *testing.T) {
		reading := InterpretTechnicals(TechnicalIndicators{
			RSI:            55,
			MACD:           MACD{Histogram: 1.2},
			EMA:            EMA{EMA50: 110, EMA200: 100},
			BollingerBands: BollingerBands{Upper: 120, Middle: 110, Lower: 100},
		})
		assert.Equal(t, TrendBullish, reading.Trend)
		assert.Equal(t, 50.0, reading.Strength)
		assert.Contains(t, reading.Signals, "Golden cross (EMA50 > EMA200)")
	})

	t.Run("death cross with negative momentum reads bearish", func(t *testing.T) {
		reading := InterpretTechnicals(TechnicalIndicators{
			RSI:            75,
			MACD:           MACD{Histogram: -0.4},
			EMA:            EMA{EMA50: 90, EMA200: 100},
			BollingerBands: BollingerBands{Upper: 110, Middle: 100, Lower: 90},
		})
		assert.Equal(t, TrendBearish, reading.Trend)
		assert.Contains(t, reading.Signals, "RSI overbought (potential reversal down)")
	})

	t.Run("mixed signals read neutral", func(t *testing.T) {
		reading := InterpretTechnicals(TechnicalIndicators{
			RSI:            50,
			MACD:           MACD{Histogram: 0.5},
			EMA:            EMA{EMA50: 90, EMA200: 100},
			BollingerBands: BollingerBands{Upper: 110, Middle: 100, Lower: 90},
		})
		assert.Equal(t, TrendNeutral, reading.Trend)
	})

	t.Run("oversold rsi near lower band stacks bullish weight", func(t *testing.T) {
		reading := InterpretTechnicals(TechnicalIndicators{
			RSI:            25,
			MACD:           MACD{Histogram: 0.1},
			EMA:            EMA{EMA50: 105, EMA200: 100},
			BollingerBands: BollingerBands{Upper: 110, Middle: 100.5, Lower: 100},
		})
		assert.Equal(t, TrendBullish, reading.Trend)
		assert.Equal(t, 100.0, reading.Strength)
	})
}

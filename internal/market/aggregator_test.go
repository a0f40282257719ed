package market

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedCandleSource struct {
	candles []Candle
	err     error
}

func (f fixedCandleSource) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	return f.candles, f.err
}

func TestAggregatorGather(t *testing.T) {
	t.Run("nil candle source degrades technicals", func(t *testing.T) {
		agg := NewAggregator(nil, "1h", 250)
		mc := agg.Gather(context.Background(), "BTC", 78235.50)
		assert.True(t, mc.Technicals.Simulated)
		assert.Equal(t, []string{"technicals"}, mc.Degraded)
		assert.NotZero(t, mc.Macro.DXY)
		assert.NotEmpty(t, mc.News.KeyTopics)
	})

	t.Run("failing candle source degrades instead of erroring", func(t *testing.T) {
		agg := NewAggregator(fixedCandleSource{err: errors.New("exchange down")}, "1h", 250)
		mc := agg.Gather(context.Background(), "BTC", 100)
		assert.True(t, mc.Technicals.Simulated)
		assert.Equal(t, []string{"technicals"}, mc.Degraded)
	})

	t.Run("real candles produce computed indicators", func(t *testing.T) {
		agg := NewAggregator(fixedCandleSource{candles: syntheticCandles(250, 100, 0.5)}, "1h", 250)
		mc := agg.Gather(context.Background(), "BTC", 225)
		assert.False(t, mc.Technicals.Simulated)
		assert.Empty(t, mc.Degraded)
		assert.Greater(t, mc.Technicals.EMA.EMA50, mc.Technicals.EMA.EMA200)
	})

	t.Run("short history falls back to simulation", func(t *testing.T) {
		agg := NewAggregator(fixedCandleSource{candles: syntheticCandles(50, 100, 0.5)}, "1h", 250)
		mc := agg.Gather(context.Background(), "BTC", 100)
		assert.True(t, mc.Technicals.Simulated)
	})
}

func TestBuildReport(t *testing.T) {
	mc := Context{
		Technicals: TechnicalIndicators{
			RSI:            55.5,
			MACD:           MACD{Value: 1.2, Signal: 1.0, Histogram: 0.2},
			EMA:            EMA{EMA50: 98, EMA200: 95},
			BollingerBands: BollingerBands{Upper: 105, Middle: 100, Lower: 95},
		},
		Macro: MacroData{
			InterestRates:   InterestRates{US: 5.50, EU: 4.25, JP: 0.25},
			DXY:             104.2,
			VIX:             18.3,
			GlobalLiquidity: LiquidityNeutral,
		},
		News: NewsSentiment{
			Score:     35.0,
			Summary:   "Positive sentiment around BTC.",
			KeyTopics: []string{"Institutional adoption", "ETF inflows"},
			Sources:   42,
		},
	}

	report := BuildReport("BTC", 100, mc)

	t.Run("contains every section", func(t *testing.T) {
		assert.Contains(t, report, "=== COMPREHENSIVE MARKET ANALYSIS FOR BTC ===")
		assert.Contains(t, report, "TECHNICAL ANALYSIS:")
		assert.Contains(t, report, "MACROECONOMIC ENVIRONMENT:")
		assert.Contains(t, report, "NEWS & SENTIMENT:")
		assert.Contains(t, report, "=== END OF REPORT ===")
	})

	t.Run("interprets the numbers", func(t *testing.T) {
		assert.Contains(t, report, "RSI: 55.5 (Neutral)")
		assert.Contains(t, report, "MACD: Bullish")
		assert.Contains(t, report, "Price vs EMA50: Above (Bullish)")
		assert.Contains(t, report, "VIX (Fear Index): 18.30 (Low fear)")
		assert.Contains(t, report, "Sentiment Score: 35.0/100 (Positive)")
		assert.Contains(t, report, "Sources Analyzed: 42")
	})

	t.Run("deterministic for the same context", func(t *testing.T) {
		assert.Equal(t, report, BuildReport("BTC", 100, mc))
	})

	t.Run("simulated technicals are flagged", func(t *testing.T) {
		degraded := mc
		degraded.Technicals.Simulated = true
		out := BuildReport("BTC", 100, degraded)
		assert.Contains(t, out, "indicators simulated")
	})

	t.Run("stays plain text", func(t *testing.T) {
		for _, line := range strings.Split(report, "\n") {
			for _, r := range line {
				assert.Less(t, int(r), 128, "report should stay plain ASCII")
			}
		}
	})
}

func TestAnalyzeMacroImpact(t *testing.T) {
	t.Run("hostile conditions read high risk", func(t *testing.T) {
		reading := AnalyzeMacroImpact(MacroData{
			InterestRates:   InterestRates{US: 5.7, JP: 0.1},
			DXY:             106,
			VIX:             30,
			GlobalLiquidity: LiquidityContracting,
		})
		assert.False(t, reading.CryptoFriendly)
		assert.Equal(t, RiskHigh, reading.Risk)
		assert.NotEmpty(t, reading.Warnings)
	})

	t.Run("benign conditions read crypto friendly", func(t *testing.T) {
		reading := AnalyzeMacroImpact(MacroData{
			InterestRates:   InterestRates{US: 4.0, JP: 0.5},
			DXY:             99,
			VIX:             12,
			GlobalLiquidity: LiquidityExpanding,
		})
		assert.True(t, reading.CryptoFriendly)
		assert.Equal(t, RiskLow, reading.Risk)
	})
}

func TestFetchNewsSentiment(t *testing.T) {
	for i := 0; i < 20; i++ {
		news := FetchNewsSentiment("BTC/EUR")
		assert.GreaterOrEqual(t, news.Score, -50.0)
		assert.LessOrEqual(t, news.Score, 50.0)
		assert.GreaterOrEqual(t, news.Sources, 20)
		assert.LessOrEqual(t, news.Sources, 70)
		assert.Len(t, news.KeyTopics, 3)
		assert.Contains(t, news.Summary, "BTC")
		assert.NotContains(t, news.Summary, "/EUR")
	}
}

package market

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/markcheno/go-talib"
)

// Indicator periods follow common charting defaults.
const (
	rsiPeriod    = 14
	macdFast     = 12
	macdSlow     = 26
	macdSignal   = 9
	emaFastSpan  = 50
	emaSlowSpan  = 200
	bbandsPeriod = 20
	bbandsDev    = 2.0
)

// minCandlesForIndicators is the slow EMA span plus a little warmup.
const minCandlesForIndicators = emaSlowSpan + 10

// ComputeTechnicals derives the indicator set from candle history. When the
// history is too short the caller should fall back to SimulateTechnicals.
func ComputeTechnicals(candles []Candle) (TechnicalIndicators, error) {
	if len(candles) < minCandlesForIndicators {
		return TechnicalIndicators{}, fmt.Errorf("need at least %d candles, got %d", minCandlesForIndicators, len(candles))
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		if c.Close <= 0 || math.IsNaN(c.Close) || math.IsInf(c.Close, 0) {
			return TechnicalIndicators{}, fmt.Errorf("candle %d has invalid close %v", i, c.Close)
		}
		closes[i] = c.Close
	}

	rsi := talib.Rsi(closes, rsiPeriod)
	macdLine, signalLine, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	emaFast := talib.Ema(closes, emaFastSpan)
	emaSlow := talib.Ema(closes, emaSlowSpan)
	upper, middle, lower := talib.BBands(closes, bbandsPeriod, bbandsDev, bbandsDev, talib.SMA)

	last := len(closes) - 1
	return TechnicalIndicators{
		RSI: rsi[last],
		MACD: MACD{
			Value:     macdLine[last],
			Signal:    signalLine[last],
			Histogram: hist[last],
		},
		EMA: EMA{
			EMA50:  emaFast[last],
			EMA200: emaSlow[last],
		},
		BollingerBands: BollingerBands{
			Upper:  upper[last],
			Middle: middle[last],
			Lower:  lower[last],
		},
	}, nil
}

// SimulateTechnicals synthesizes plausible indicator values around the
// current price. Used when no candle source is available so analysis can
// still proceed, clearly marked as simulated.
func SimulateTechnicals(currentPrice float64) TechnicalIndicators {
	volatility := rand.Float64()*0.3 + 0.7

	rsi := 30 + rand.Float64()*40
	macdValue := (rand.Float64() - 0.5) * currentPrice * 0.02
	macdSig := macdValue * (0.8 + rand.Float64()*0.4)

	ema50 := currentPrice * (0.95 + rand.Float64()*0.1)
	ema200 := currentPrice * (0.90 + rand.Float64()*0.2)

	bbWidth := currentPrice * 0.04 * volatility
	middle := currentPrice * (0.98 + rand.Float64()*0.04)

	return TechnicalIndicators{
		RSI: rsi,
		MACD: MACD{
			Value:     macdValue,
			Signal:    macdSig,
			Histogram: macdValue - macdSig,
		},
		EMA: EMA{
			EMA50:  ema50,
			EMA200: ema200,
		},
		BollingerBands: BollingerBands{
			Upper:  middle + bbWidth,
			Middle: middle,
			Lower:  middle - bbWidth,
		},
		Simulated: true,
	}
}

type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

type TechReading struct {
	Trend    Trend
	Strength float64 // 0-100
	Signals  []string
}

// InterpretTechnicals scores the indicator set into a readable trend call.
func InterpretTechnicals(ind TechnicalIndicators) TechReading {
	var signals []string
	var bullish, bearish float64

	switch {
	case ind.RSI < 30:
		signals = append(signals, "RSI oversold (potential reversal up)")
		bullish += 30
	case ind.RSI > 70:
		signals = append(signals, "RSI overbought (potential reversal down)")
		bearish += 30
	default:
		signals = append(signals, fmt.Sprintf("RSI neutral at %.1f", ind.RSI))
	}

	if ind.MACD.Histogram > 0 {
		signals = append(signals, "MACD bullish (histogram positive)")
		bullish += 25
	} else {
		signals = append(signals, "MACD bearish (histogram negative)")
		bearish += 25
	}

	if ind.EMA.EMA50 > ind.EMA.EMA200 {
		signals = append(signals, "Golden cross (EMA50 > EMA200)")
		bullish += 25
	} else {
		signals = append(signals, "Death cross (EMA50 < EMA200)")
		bearish += 25
	}

	bandWidth := ind.BollingerBands.Upper - ind.BollingerBands.Lower
	if bandWidth > 0 {
		position := (ind.BollingerBands.Middle - ind.BollingerBands.Lower) / bandWidth
		if position < 0.2 {
			signals = append(signals, "Price near lower BB (oversold)")
			bullish += 20
		} else if position > 0.8 {
			signals = append(signals, "Price near upper BB (overbought)")
			bearish += 20
		}
	}

	net := bullish - bearish
	trend := TrendNeutral
	if net > 20 {
		trend = TrendBullish
	} else if net < -20 {
		trend = TrendBearish
	}
	return TechReading{Trend: trend, Strength: math.Abs(net), Signals: signals}
}

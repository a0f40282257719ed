package market

import (
	"context"
	"fmt"
	"strings"

	"quorum/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Aggregator assembles the full market context for a symbol. Sub-source
// failures degrade to simulated data and are recorded in Context.Degraded;
// Gather itself never fails.
type Aggregator struct {
	candles  CandleSource // nil means always simulate technicals
	interval string
	limit    int
}

func NewAggregator(candles CandleSource, interval string, limit int) *Aggregator {
	if strings.TrimSpace(interval) == "" {
		interval = "1h"
	}
	if limit <= 0 {
		limit = 250
	}
	return &Aggregator{candles: candles, interval: interval, limit: limit}
}

// Gather collects technicals, macro and news concurrently.
func (a *Aggregator) Gather(ctx context.Context, symbol string, currentPrice float64) Context {
	var (
		technicals TechnicalIndicators
		macro      MacroData
		news       NewsSentiment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		technicals = a.gatherTechnicals(gctx, symbol, currentPrice)
		return nil
	})
	g.Go(func() error {
		macro = FetchMacro()
		return nil
	})
	g.Go(func() error {
		news = FetchNewsSentiment(symbol)
		return nil
	})
	_ = g.Wait() // sub-sources degrade instead of erroring

	mc := Context{Technicals: technicals, Macro: macro, News: news}
	if technicals.Simulated {
		mc.Degraded = append(mc.Degraded, "technicals")
	}
	return mc
}

func (a *Aggregator) gatherTechnicals(ctx context.Context, symbol string, currentPrice float64) TechnicalIndicators {
	if a.candles == nil {
		return SimulateTechnicals(currentPrice)
	}
	candles, err := a.candles.FetchCandles(ctx, symbol, a.interval, a.limit)
	if err != nil {
		logger.Warnf("candle fetch for %s failed, simulating technicals: %v", symbol, err)
		return SimulateTechnicals(currentPrice)
	}
	ind, err := ComputeTechnicals(candles)
	if err != nil {
		logger.Warnf("indicator computation for %s failed, simulating: %v", symbol, err)
		return SimulateTechnicals(currentPrice)
	}
	return ind
}

// BuildReport renders the context into the text block sent to every
// provider. Deterministic for a given context and price.
func BuildReport(symbol string, currentPrice float64, mc Context) string {
	tech := InterpretTechnicals(mc.Technicals)
	macro := AnalyzeMacroImpact(mc.Macro)

	var b strings.Builder
	fmt.Fprintf(&b, "=== COMPREHENSIVE MARKET ANALYSIS FOR %s ===\n\n", symbol)

	b.WriteString("TECHNICAL ANALYSIS:\n")
	fmt.Fprintf(&b, "- Current Price: %.2f\n", currentPrice)
	fmt.Fprintf(&b, "- Trend: %s (Strength: %.0f%%)\n", tech.Trend, tech.Strength)
	fmt.Fprintf(&b, "- RSI: %.1f %s\n", mc.Technicals.RSI, rsiLabel(mc.Technicals.RSI))
	fmt.Fprintf(&b, "- MACD: %s (Histogram: %.4f)\n", macdLabel(mc.Technicals.MACD.Histogram), mc.Technicals.MACD.Histogram)
	fmt.Fprintf(&b, "- EMA50: %.2f\n", mc.Technicals.EMA.EMA50)
	fmt.Fprintf(&b, "- EMA200: %.2f\n", mc.Technicals.EMA.EMA200)
	fmt.Fprintf(&b, "- Price vs EMA50: %s\n", emaLabel(currentPrice, mc.Technicals.EMA.EMA50))
	fmt.Fprintf(&b, "- Bollinger Bands: Lower %.2f | Middle %.2f | Upper %.2f\n",
		mc.Technicals.BollingerBands.Lower, mc.Technicals.BollingerBands.Middle, mc.Technicals.BollingerBands.Upper)
	if mc.Technicals.Simulated {
		b.WriteString("- Note: indicators simulated (no candle history available)\n")
	}

	b.WriteString("\nTechnical Signals:\n")
	for _, s := range tech.Signals {
		fmt.Fprintf(&b, "  * %s\n", s)
	}

	b.WriteString("\nMACROECONOMIC ENVIRONMENT:\n")
	fmt.Fprintf(&b, "- US Interest Rate: %.2f%%\n", mc.Macro.InterestRates.US)
	fmt.Fprintf(&b, "- EU Interest Rate: %.2f%%\n", mc.Macro.InterestRates.EU)
	fmt.Fprintf(&b, "- Japan Interest Rate: %.2f%%%s\n", mc.Macro.InterestRates.JP, carryTradeFlag(mc.Macro.InterestRates))
	fmt.Fprintf(&b, "- US Dollar Index (DXY): %.2f %s\n", mc.Macro.DXY, dxyLabel(mc.Macro.DXY))
	fmt.Fprintf(&b, "- VIX (Fear Index): %.2f %s\n", mc.Macro.VIX, vixLabel(mc.Macro.VIX))
	fmt.Fprintf(&b, "- Global Liquidity: %s\n", mc.Macro.GlobalLiquidity)

	b.WriteString("\nMacro Assessment:\n")
	fmt.Fprintf(&b, "- Crypto Friendly: %s\n", yesNo(macro.CryptoFriendly))
	fmt.Fprintf(&b, "- Risk Level: %s\n", macro.Risk)
	if len(macro.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range macro.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	b.WriteString("\nNEWS & SENTIMENT:\n")
	fmt.Fprintf(&b, "- Sentiment Score: %.1f/100 %s\n", mc.News.Score, newsLabel(mc.News.Score))
	fmt.Fprintf(&b, "- Sources Analyzed: %d\n", mc.News.Sources)
	fmt.Fprintf(&b, "- Summary: %s\n", mc.News.Summary)
	fmt.Fprintf(&b, "- Key Topics: %s\n", strings.Join(mc.News.KeyTopics, ", "))

	b.WriteString("\n=== END OF REPORT ===\n")
	return b.String()
}

func rsiLabel(rsi float64) string {
	switch {
	case rsi < 30:
		return "(Oversold)"
	case rsi > 70:
		return "(Overbought)"
	default:
		return "(Neutral)"
	}
}

func macdLabel(histogram float64) string {
	if histogram > 0 {
		return "Bullish"
	}
	return "Bearish"
}

func emaLabel(price, ema50 float64) string {
	if price > ema50 {
		return "Above (Bullish)"
	}
	return "Below (Bearish)"
}

func carryTradeFlag(rates InterestRates) string {
	if rates.US-rates.JP > 5 {
		return " HIGH CARRY TRADE RISK"
	}
	return ""
}

func dxyLabel(dxy float64) string {
	if dxy > 105 {
		return "(Strong USD - Bearish for crypto)"
	}
	return "(Weak USD - Bullish for crypto)"
}

func vixLabel(vix float64) string {
	if vix > 25 {
		return "(High fear)"
	}
	return "(Low fear)"
}

func newsLabel(score float64) string {
	switch {
	case score > 20:
		return "(Positive)"
	case score < -20:
		return "(Negative)"
	default:
		return "(Neutral)"
	}
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

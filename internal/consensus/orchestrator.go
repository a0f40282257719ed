package consensus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"quorum/internal/logger"
	"quorum/internal/market"
	"quorum/internal/pkg/circuit"
	"quorum/internal/pkg/text"
	"quorum/internal/policy"
	"quorum/internal/provider"
	"quorum/internal/types"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrAllProvidersFailed means not a single adapter produced a valid
	// analysis. The consensus has nothing to average over.
	ErrAllProvidersFailed = errors.New("all provider analyses failed")
	// ErrInvalidPrice rejects non-positive or non-finite entry prices
	// before any provider is contacted.
	ErrInvalidPrice = errors.New("invalid current price")
)

const (
	breakerThreshold = 3
	breakerCooldown  = 60 * time.Second
	excerptLen       = 100
)

// PolicySource yields the current risk policy. The hot-reloading registry
// in internal/policy satisfies it.
type PolicySource interface {
	Active() *policy.Risk
}

// Result bundles everything one analysis run produced: the consensus
// signal, the market context it was based on, and the exact report text
// the providers saw.
type Result struct {
	Signal  types.TradingSignal
	Context market.Context
	Report  string
}

// Orchestrator fans a market report out to every configured provider,
// tolerates partial failure, and folds the surviving opinions into one
// trading signal. Adapters are consulted in declaration order and each is
// guarded by its own circuit breaker.
type Orchestrator struct {
	adapters []provider.Adapter
	breakers []*circuit.CircuitBreaker
	policies PolicySource
	agg      *market.Aggregator
	timeout  time.Duration
}

func New(adapters []provider.Adapter, policies PolicySource, agg *market.Aggregator, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	breakers := make([]*circuit.CircuitBreaker, len(adapters))
	for i, a := range adapters {
		breakers[i] = circuit.NewCircuitBreaker(a.Name(), breakerThreshold, breakerCooldown)
	}
	return &Orchestrator{
		adapters: adapters,
		breakers: breakers,
		policies: policies,
		agg:      agg,
		timeout:  timeout,
	}
}

// Analyze runs the full consensus pipeline for one symbol. The market
// context is gathered exactly once and both the report and the returned
// context derive from that single snapshot.
func (o *Orchestrator) Analyze(ctx context.Context, symbol string, md types.MarketData) (Result, error) {
	price := md.Price
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}

	mc := o.agg.Gather(ctx, symbol, price)
	report := market.BuildReport(symbol, price, mc)

	analyses, err := o.fanOut(ctx, symbol, report)
	if err != nil {
		return Result{}, err
	}

	var sentimentSum, confidenceSum float64
	for _, a := range analyses {
		sentimentSum += a.Sentiment
		confidenceSum += a.Confidence
	}
	n := float64(len(analyses))
	avgSentiment := sentimentSum / n
	avgConfidence := confidenceSum / n

	risk := o.policies.Active()
	strength, direction := risk.Classify(avgSentiment, avgConfidence)

	stopLoss, takeProfit, err := deriveLevels(price, direction, risk)
	if err != nil {
		return Result{}, err
	}

	signal := types.TradingSignal{
		Symbol:     symbol,
		Strength:   strength,
		Direction:  direction,
		Sentiment:  avgSentiment,
		Confidence: avgConfidence,
		EntryPrice: price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Reasoning:  synthesizeReasoning(analyses, avgSentiment, avgConfidence, strength, direction),
		Analyses:   analyses,
		Timestamp:  time.Now().UTC(),
	}
	logger.Infof("consensus for %s: %s %s (sentiment=%.1f confidence=%.2f, %d/%d providers)",
		symbol, strength, directionLabel(direction), avgSentiment, avgConfidence, len(analyses), len(o.adapters))

	return Result{Signal: signal, Context: mc, Report: report}, nil
}

// fanOut queries every adapter concurrently. A fixed-index results slice
// preserves declaration order; goroutines always return nil so one failure
// never cancels the siblings.
func (o *Orchestrator) fanOut(ctx context.Context, symbol, report string) ([]types.AIAnalysis, error) {
	results := make([]*types.AIAnalysis, len(o.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range o.adapters {
		i, adapter := i, adapter
		if !o.breakers[i].Allow() {
			logger.Warnf("provider %s circuit open, skipping", adapter.Name())
			continue
		}
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, o.timeout)
			defer cancel()

			analysis, err := adapter.Analyze(callCtx, symbol, report)
			if err != nil {
				o.breakers[i].RecordFailure()
				logger.Warnf("provider %s failed for %s: %v", adapter.Name(), symbol, err)
				return nil
			}
			o.breakers[i].RecordSuccess()
			results[i] = &analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	analyses := make([]types.AIAnalysis, 0, len(results))
	for _, r := range results {
		if r != nil {
			analyses = append(analyses, *r)
		}
	}
	if len(analyses) == 0 {
		return nil, ErrAllProvidersFailed
	}
	return analyses, nil
}

// deriveLevels computes stop and target from the policy percentages and
// enforces the ordering invariants for each side. HOLD carries no levels.
func deriveLevels(price float64, direction types.Direction, risk *policy.Risk) (stopLoss, takeProfit float64, err error) {
	switch direction {
	case types.DirectionLong:
		stopLoss = price * (1 - risk.LongStopPercent)
		takeProfit = price * (1 + risk.LongTargetPercent)
		if stopLoss <= 0 || stopLoss >= price || takeProfit <= price {
			return 0, 0, fmt.Errorf("invalid LONG levels: stop=%v target=%v price=%v", stopLoss, takeProfit, price)
		}
	case types.DirectionShort:
		stopLoss = price * (1 + risk.ShortStopPercent)
		takeProfit = price * (1 - risk.ShortTargetPercent)
		if takeProfit <= 0 || stopLoss <= price || takeProfit >= price {
			return 0, 0, fmt.Errorf("invalid SHORT levels: stop=%v target=%v price=%v", stopLoss, takeProfit, price)
		}
	}
	return stopLoss, takeProfit, nil
}

func synthesizeReasoning(analyses []types.AIAnalysis, avgSentiment, avgConfidence float64, strength types.SignalStrength, direction types.Direction) string {
	agreement := 0
	for _, a := range analyses {
		if (a.Sentiment > 50 && avgSentiment > 50) || (a.Sentiment < 50 && avgSentiment < 50) {
			agreement++
		}
	}

	out := fmt.Sprintf("Multi-factor consensus analysis based on %d AI models with comprehensive market context:\n\n", len(analyses))
	out += fmt.Sprintf("AI Consensus: %.1f%% sentiment, %.1f%% confidence\n", avgSentiment, avgConfidence*100)
	out += fmt.Sprintf("Models in agreement: %d/%d\n\n", agreement, len(analyses))
	out += "Analysis includes:\n"
	out += "  - Technical indicators (RSI, MACD, EMAs, Bollinger Bands)\n"
	out += "  - Macroeconomic factors (interest rates, USD strength, VIX, global liquidity)\n"
	out += "  - News sentiment from multiple sources\n\n"
	out += "Key insights from AI models:\n"
	for _, a := range analyses {
		out += fmt.Sprintf("  - %s: %s\n", a.Provider, text.Truncate(a.Reasoning, excerptLen))
	}
	out += fmt.Sprintf("\nSignal: %s %s", strength, directionLabel(direction))
	return out
}

func directionLabel(d types.Direction) string {
	if d == types.DirectionNone {
		return "NEUTRAL"
	}
	return string(d)
}

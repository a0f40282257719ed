package consensus

import (
	"context"
	"errors"
	"testing"
	"time"

	"quorum/internal/market"
	"quorum/internal/policy"
	"quorum/internal/provider"
	"quorum/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	name       string
	sentiment  float64
	confidence float64
	err        error
	delay      time.Duration
}

func (s *stubAdapter) Name() string     { return s.name }
func (s *stubAdapter) Configured() bool { return true }

func (s *stubAdapter) Analyze(ctx context.Context, symbol, report string) (types.AIAnalysis, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return types.AIAnalysis{}, ctx.Err()
		}
	}
	if s.err != nil {
		return types.AIAnalysis{}, s.err
	}
	return types.AIAnalysis{
		Provider:   s.name,
		Sentiment:  s.sentiment,
		Confidence: s.confidence,
		Reasoning:  s.name + " view on " + symbol,
	}, nil
}

type stubPolicies struct{ risk *policy.Risk }

func (s stubPolicies) Active() *policy.Risk { return s.risk }

func newTestOrchestrator(adapters ...provider.Adapter) *Orchestrator {
	agg := market.NewAggregator(nil, "1h", 250)
	return New(adapters, stubPolicies{risk: policy.Default()}, agg, 2*time.Second)
}

func TestAnalyzeConsensus(t *testing.T) {
	t.Run("averages all providers into a strong buy", func(t *testing.T) {
		orch := newTestOrchestrator(
			&stubAdapter{name: "alpha", sentiment: 80, confidence: 0.8},
			&stubAdapter{name: "beta", sentiment: 80, confidence: 0.8},
		)
		res, err := orch.Analyze(context.Background(), "BTC", types.MarketData{Price: 100})
		require.NoError(t, err)

		sig := res.Signal
		assert.Equal(t, types.StrengthStrongBuy, sig.Strength)
		assert.Equal(t, types.DirectionLong, sig.Direction)
		assert.InDelta(t, 80, sig.Sentiment, 1e-9)
		assert.InDelta(t, 0.8, sig.Confidence, 1e-9)
		assert.InDelta(t, 97, sig.StopLoss, 1e-9)
		assert.InDelta(t, 105, sig.TakeProfit, 1e-9)
		assert.NotEmpty(t, res.Report)
		assert.False(t, sig.Timestamp.IsZero())
	})

	t.Run("survives partial provider failure", func(t *testing.T) {
		orch := newTestOrchestrator(
			&stubAdapter{name: "alpha", sentiment: 20, confidence: 0.9},
			&stubAdapter{name: "broken", err: errors.New("upstream 500")},
			&stubAdapter{name: "gamma", sentiment: 20, confidence: 0.7},
		)
		res, err := orch.Analyze(context.Background(), "ETH", types.MarketData{Price: 100})
		require.NoError(t, err)

		sig := res.Signal
		require.Len(t, sig.Analyses, 2)
		assert.Equal(t, "alpha", sig.Analyses[0].Provider)
		assert.Equal(t, "gamma", sig.Analyses[1].Provider)
		assert.Equal(t, types.StrengthStrongSell, sig.Strength)
		assert.Equal(t, types.DirectionShort, sig.Direction)
		assert.InDelta(t, 103, sig.StopLoss, 1e-9)
		assert.InDelta(t, 95, sig.TakeProfit, 1e-9)
	})

	t.Run("preserves declaration order despite uneven latency", func(t *testing.T) {
		orch := newTestOrchestrator(
			&stubAdapter{name: "slow", sentiment: 55, confidence: 0.7, delay: 50 * time.Millisecond},
			&stubAdapter{name: "fast", sentiment: 55, confidence: 0.7},
		)
		res, err := orch.Analyze(context.Background(), "SOL", types.MarketData{Price: 100})
		require.NoError(t, err)
		require.Len(t, res.Signal.Analyses, 2)
		assert.Equal(t, "slow", res.Signal.Analyses[0].Provider)
		assert.Equal(t, "fast", res.Signal.Analyses[1].Provider)
	})

	t.Run("all providers failing is an error", func(t *testing.T) {
		orch := newTestOrchestrator(
			&stubAdapter{name: "a", err: errors.New("down")},
			&stubAdapter{name: "b", err: errors.New("down")},
		)
		_, err := orch.Analyze(context.Background(), "BTC", types.MarketData{Price: 100})
		assert.ErrorIs(t, err, ErrAllProvidersFailed)
	})

	t.Run("mid sentiment holds without levels", func(t *testing.T) {
		orch := newTestOrchestrator(&stubAdapter{name: "a", sentiment: 50, confidence: 0.9})
		res, err := orch.Analyze(context.Background(), "BTC", types.MarketData{Price: 100})
		require.NoError(t, err)
		assert.Equal(t, types.StrengthHold, res.Signal.Strength)
		assert.Equal(t, types.DirectionNone, res.Signal.Direction)
		assert.Zero(t, res.Signal.StopLoss)
		assert.Zero(t, res.Signal.TakeProfit)
		assert.False(t, res.Signal.Actionable())
	})
}

func TestAnalyzeRejectsBadPrices(t *testing.T) {
	orch := newTestOrchestrator(&stubAdapter{name: "a", sentiment: 80, confidence: 0.8})
	for _, price := range []float64{0, -10} {
		_, err := orch.Analyze(context.Background(), "BTC", types.MarketData{Price: price})
		assert.ErrorIs(t, err, ErrInvalidPrice)
	}
}

func TestLevelOrderingAcrossPriceScales(t *testing.T) {
	for _, price := range []float64{0.01, 1, 78235.50, 100000} {
		orch := newTestOrchestrator(&stubAdapter{name: "a", sentiment: 85, confidence: 0.9})
		res, err := orch.Analyze(context.Background(), "BTC", types.MarketData{Price: price})
		require.NoError(t, err)
		sig := res.Signal
		assert.Less(t, sig.StopLoss, sig.EntryPrice)
		assert.Greater(t, sig.TakeProfit, sig.EntryPrice)
		assert.Greater(t, sig.StopLoss, 0.0)
	}
}

func TestReasoningMentionsEveryProvider(t *testing.T) {
	orch := newTestOrchestrator(
		&stubAdapter{name: "alpha", sentiment: 70, confidence: 0.8},
		&stubAdapter{name: "beta", sentiment: 62, confidence: 0.7},
	)
	res, err := orch.Analyze(context.Background(), "LINK", types.MarketData{Price: 11.45})
	require.NoError(t, err)
	assert.Contains(t, res.Signal.Reasoning, "alpha")
	assert.Contains(t, res.Signal.Reasoning, "beta")
	assert.Contains(t, res.Signal.Reasoning, "Models in agreement: 2/2")
	assert.Contains(t, res.Signal.Reasoning, "Signal: BUY LONG")
}

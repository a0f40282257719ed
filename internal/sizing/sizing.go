// Package sizing computes position sizes from account balance, signal
// confidence and historical performance. All functions are pure.
package sizing

import (
	"fmt"
	"math"
)

// minTradesForKelly gates the Kelly path: below this sample size the win
// rate estimate is too noisy to lever.
const minTradesForKelly = 30

const (
	defaultRiskPerTrade = 0.02
	kellyBalanceCap     = 0.10
	fixedBalanceCap     = 0.05
)

// KellyParams feeds the Kelly Criterion calculation.
type KellyParams struct {
	Balance        float64
	WinRate        float64 // 0-1
	AvgWinPercent  float64
	AvgLossPercent float64
	RiskPerTrade   float64 // fraction of balance, e.g. 0.02
	Confidence     float64 // 0-1
}

// HistoricalStats summarizes closed-trade performance.
type HistoricalStats struct {
	WinRate     float64
	AvgWin      float64
	AvgLoss     float64
	TotalTrades int
}

// Recommendation is the chosen size plus the method and rationale, kept
// for the learning log.
type Recommendation struct {
	Size      float64 `json:"size"`
	Method    string  `json:"method"`
	Reasoning string  `json:"reasoning"`
}

// KellyPositionSize applies the Kelly Criterion f = (b*p - q) / b with a
// half-Kelly haircut, scales by confidence and caps at twice the per-trade
// risk budget. Negative Kelly clamps to zero.
func KellyPositionSize(p KellyParams) (float64, error) {
	if p.Balance <= 0 || !isFinite(p.Balance) {
		return 0, fmt.Errorf("invalid balance %v: must be positive and finite", p.Balance)
	}
	if p.AvgLossPercent == 0 || !isFinite(p.AvgLossPercent) {
		return 0, fmt.Errorf("invalid avg loss %v: cannot be zero or infinite", p.AvgLossPercent)
	}
	if !isFinite(p.AvgWinPercent) {
		return 0, fmt.Errorf("invalid avg win %v: must be finite", p.AvgWinPercent)
	}
	if p.WinRate < 0 || p.WinRate > 1 || !isFinite(p.WinRate) {
		return 0, fmt.Errorf("invalid win rate %v: must be in [0,1]", p.WinRate)
	}
	if p.Confidence < 0 || p.Confidence > 1 || !isFinite(p.Confidence) {
		return 0, fmt.Errorf("invalid confidence %v: must be in [0,1]", p.Confidence)
	}

	payoffRatio := math.Abs(p.AvgWinPercent / p.AvgLossPercent)
	kellyFraction := (payoffRatio*p.WinRate - (1 - p.WinRate)) / payoffRatio

	// Half-Kelly, then confidence scaling.
	fraction := math.Max(0, kellyFraction*0.5) * p.Confidence
	fraction = math.Min(fraction, p.RiskPerTrade*2)

	return p.Balance * fraction, nil
}

// FixedFractionalSize risks a flat fraction of balance scaled by
// confidence.
func FixedFractionalSize(balance, riskPercent, confidence float64) (float64, error) {
	if balance <= 0 || !isFinite(balance) {
		return 0, fmt.Errorf("invalid balance %v: must be positive and finite", balance)
	}
	if riskPercent < 0 || riskPercent > 1 || !isFinite(riskPercent) {
		return 0, fmt.Errorf("invalid risk percent %v: must be in [0,1]", riskPercent)
	}
	if confidence < 0 || confidence > 1 || !isFinite(confidence) {
		return 0, fmt.Errorf("invalid confidence %v: must be in [0,1]", confidence)
	}
	return balance * riskPercent * confidence, nil
}

// VolatilityAdjustedSize shrinks the base risk as volatility rises.
func VolatilityAdjustedSize(balance, baseRisk, volatility float64) (float64, error) {
	if balance <= 0 || !isFinite(balance) {
		return 0, fmt.Errorf("invalid balance %v: must be positive and finite", balance)
	}
	if baseRisk < 0 || baseRisk > 1 || !isFinite(baseRisk) {
		return 0, fmt.Errorf("invalid base risk %v: must be in [0,1]", baseRisk)
	}
	if volatility < 0 || !isFinite(volatility) {
		return 0, fmt.Errorf("invalid volatility %v: must be non-negative and finite", volatility)
	}
	return balance * baseRisk / (1 + volatility), nil
}

// CalculateOptimalSize picks Kelly when the historical sample is large
// enough and its loss data is usable, otherwise fixed fractional. Kelly
// output is capped at 10% of balance, fixed fractional at 5%.
func CalculateOptimalSize(balance, confidence float64, stats *HistoricalStats) (Recommendation, error) {
	if balance <= 0 || !isFinite(balance) {
		return Recommendation{}, fmt.Errorf("invalid balance %v: must be positive and finite", balance)
	}
	if confidence < 0 || confidence > 1 || !isFinite(confidence) {
		return Recommendation{}, fmt.Errorf("invalid confidence %v: must be in [0,1]", confidence)
	}

	if stats != nil && stats.TotalTrades >= minTradesForKelly {
		if stats.AvgLoss == 0 || !isFinite(stats.AvgLoss) {
			size, err := FixedFractionalSize(balance, defaultRiskPerTrade, confidence)
			if err != nil {
				return Recommendation{}, err
			}
			return Recommendation{
				Size:      math.Min(size, balance*fixedBalanceCap),
				Method:    "Fixed Fractional",
				Reasoning: "Falling back to fixed fractional due to invalid historical loss data",
			}, nil
		}

		size, err := KellyPositionSize(KellyParams{
			Balance:        balance,
			WinRate:        stats.WinRate,
			AvgWinPercent:  stats.AvgWin,
			AvgLossPercent: stats.AvgLoss,
			RiskPerTrade:   defaultRiskPerTrade,
			Confidence:     confidence,
		})
		if err != nil {
			return Recommendation{}, err
		}
		return Recommendation{
			Size:      math.Min(size, balance*kellyBalanceCap),
			Method:    "Kelly Criterion",
			Reasoning: fmt.Sprintf("Optimal size based on %d historical trades", stats.TotalTrades),
		}, nil
	}

	size, err := FixedFractionalSize(balance, defaultRiskPerTrade, confidence)
	if err != nil {
		return Recommendation{}, err
	}
	return Recommendation{
		Size:      math.Min(size, balance*fixedBalanceCap),
		Method:    "Fixed Fractional",
		Reasoning: "Conservative sizing due to limited historical data",
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

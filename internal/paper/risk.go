package paper

import (
	"fmt"

	"quorum/internal/types"
)

// RiskCheck is one named pass/fail line of the pre-trade checklist.
type RiskCheck struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail"`
}

// RiskDecision is the checklist verdict. CanTrade is true only when every
// check passed.
type RiskDecision struct {
	CanTrade bool        `json:"can_trade"`
	Checks   []RiskCheck `json:"checks"`
}

// RiskGate holds the thresholds applied before any automatic execution.
type RiskGate struct {
	MinConfidence float64
	MaxDrawdown   float64
}

// Evaluate runs the full checklist against a signal and the current
// account drawdown. All checks are always evaluated so the caller can log
// every failure, not just the first.
func (g RiskGate) Evaluate(signal types.TradingSignal, drawdown float64) RiskDecision {
	confidencePass := signal.Confidence >= g.MinConfidence
	drawdownPass := drawdown < g.MaxDrawdown
	strengthPass := signal.Strength != types.StrengthHold

	checks := []RiskCheck{
		{
			Name:   "AI Confidence",
			Pass:   confidencePass,
			Detail: fmt.Sprintf("Confidence %.2f %s %.2f", signal.Confidence, cmpLabel(confidencePass, ">=", "<"), g.MinConfidence),
		},
		{
			Name:   "Max Drawdown",
			Pass:   drawdownPass,
			Detail: fmt.Sprintf("Drawdown %.2f%% %s %.2f%%", drawdown*100, cmpLabel(drawdownPass, "<", ">="), g.MaxDrawdown*100),
		},
		{
			Name:   "Signal Strength",
			Pass:   strengthPass,
			Detail: fmt.Sprintf("Signal is %s", signal.Strength),
		},
	}

	canTrade := true
	for _, c := range checks {
		if !c.Pass {
			canTrade = false
		}
	}
	return RiskDecision{CanTrade: canTrade, Checks: checks}
}

func cmpLabel(pass bool, passOp, failOp string) string {
	if pass {
		return passOp
	}
	return failOp
}

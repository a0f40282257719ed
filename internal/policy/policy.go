package policy

import (
	"quorum/internal/types"
)

// Rule is one ordered row of the signal classification table. Sentiment
// bounds are inclusive, the confidence bound is strict; the first matching
// rule wins and no match means HOLD.
type Rule struct {
	Strength      types.SignalStrength `mapstructure:"strength" yaml:"strength"`
	Direction     types.Direction      `mapstructure:"direction" yaml:"direction"`
	MinSentiment  *float64             `mapstructure:"min_sentiment" yaml:"min_sentiment,omitempty"`
	MaxSentiment  *float64             `mapstructure:"max_sentiment" yaml:"max_sentiment,omitempty"`
	MinConfidence float64              `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// Matches reports whether the aggregate pair falls into this rule's bucket.
func (r Rule) Matches(sentiment, confidence float64) bool {
	if r.MinSentiment != nil && sentiment < *r.MinSentiment {
		return false
	}
	if r.MaxSentiment != nil && sentiment > *r.MaxSentiment {
		return false
	}
	return confidence > r.MinConfidence
}

// Risk bundles every tunable used by signal construction, sizing and
// monitoring. The shipped defaults reproduce the calibrated production
// values; the asymmetric/overlapping thresholds are deliberate
// conservatism and must not be "fixed".
type Risk struct {
	Rules []Rule `mapstructure:"rules" yaml:"rules"`

	LongStopPercent    float64 `mapstructure:"long_stop_percent" yaml:"long_stop_percent"`
	LongTargetPercent  float64 `mapstructure:"long_target_percent" yaml:"long_target_percent"`
	ShortStopPercent   float64 `mapstructure:"short_stop_percent" yaml:"short_stop_percent"`
	ShortTargetPercent float64 `mapstructure:"short_target_percent" yaml:"short_target_percent"`

	TrailingPercent float64 `mapstructure:"trailing_percent" yaml:"trailing_percent"`
	RiskPerTrade    float64 `mapstructure:"risk_per_trade" yaml:"risk_per_trade"`
}

func f(v float64) *float64 { return &v }

// Default returns the built-in risk policy.
func Default() *Risk {
	return &Risk{
		Rules: []Rule{
			{Strength: types.StrengthStrongBuy, Direction: types.DirectionLong, MinSentiment: f(75), MinConfidence: 0.75},
			{Strength: types.StrengthBuy, Direction: types.DirectionLong, MinSentiment: f(60), MinConfidence: 0.65},
			{Strength: types.StrengthStrongSell, Direction: types.DirectionShort, MaxSentiment: f(25), MinConfidence: 0.75},
			{Strength: types.StrengthSell, Direction: types.DirectionShort, MaxSentiment: f(40), MinConfidence: 0.65},
		},
		LongStopPercent:    0.03,
		LongTargetPercent:  0.05,
		ShortStopPercent:   0.03,
		ShortTargetPercent: 0.05,
		TrailingPercent:    0.02,
		RiskPerTrade:       0.02,
	}
}

// Classify walks the rule table in order and returns the first match, or
// HOLD with no direction.
func (p *Risk) Classify(sentiment, confidence float64) (types.SignalStrength, types.Direction) {
	for _, rule := range p.Rules {
		if rule.Matches(sentiment, confidence) {
			return rule.Strength, rule.Direction
		}
	}
	return types.StrengthHold, types.DirectionNone
}

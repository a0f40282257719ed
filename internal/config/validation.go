package config

import (
	"fmt"
	"strings"
)

func validate(cfg *Config) error {
	enabled := 0
	seen := map[string]bool{}
	for i, m := range cfg.AI.Models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return fmt.Errorf("ai.models[%d]: id is required", i)
		}
		if seen[id] {
			return fmt.Errorf("ai.models: duplicate id %q", id)
		}
		seen[id] = true
		if m.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("ai.models: at least one enabled model is required")
	}
	if cfg.Trading.MinConfidence < 0 || cfg.Trading.MinConfidence > 1 {
		return fmt.Errorf("trading.min_confidence must be in [0,1], got %v", cfg.Trading.MinConfidence)
	}
	if cfg.Trading.MaxDrawdown < 0 || cfg.Trading.MaxDrawdown > 1 {
		return fmt.Errorf("trading.max_drawdown must be in [0,1], got %v", cfg.Trading.MaxDrawdown)
	}
	if cfg.Trading.FeeRate < 0 || cfg.Trading.FeeRate > 0.1 {
		return fmt.Errorf("trading.fee_rate must be in [0,0.1], got %v", cfg.Trading.FeeRate)
	}
	return nil
}

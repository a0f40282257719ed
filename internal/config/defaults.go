package config

import "strings"

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.App.Env) == "" {
		cfg.App.Env = "development"
	}
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.App.HTTPAddr) == "" {
		cfg.App.HTTPAddr = ":8080"
	}
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 15
	}
	if len(cfg.Market.Symbols) == 0 {
		cfg.Market.Symbols = []string{"BTC", "ETH", "SOL", "LINK", "ARB"}
	}
	if strings.TrimSpace(cfg.Market.QuoteCurrency) == "" {
		cfg.Market.QuoteCurrency = "eur"
	}
	if strings.TrimSpace(cfg.Market.CandleInterval) == "" {
		cfg.Market.CandleInterval = "1h"
	}
	if cfg.Market.CandleLimit <= 0 {
		cfg.Market.CandleLimit = 250
	}
	if cfg.Trading.InitialBalance <= 0 {
		cfg.Trading.InitialBalance = 10000
	}
	if cfg.Trading.FeeRate <= 0 {
		cfg.Trading.FeeRate = 0.001
	}
	if strings.TrimSpace(cfg.Trading.MonitorInterval) == "" {
		cfg.Trading.MonitorInterval = "30s"
	}
	if cfg.Trading.MinConfidence <= 0 {
		cfg.Trading.MinConfidence = 0.70
	}
	if cfg.Trading.MaxDrawdown <= 0 {
		cfg.Trading.MaxDrawdown = 0.15
	}
	if strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = "data/quorum.db"
	}
	if strings.TrimSpace(cfg.Learning.UserID) == "" {
		cfg.Learning.UserID = "user-1"
	}
}

// Package app wires configuration into running services: the HTTP API,
// the position monitor, the outcome recorder and the optional auto
// execution loop.
package app

import (
	"context"
	"fmt"
	"time"

	"quorum/internal/config"
	"quorum/internal/consensus"
	"quorum/internal/learning"
	"quorum/internal/logger"
	"quorum/internal/market"
	"quorum/internal/paper"
	"quorum/internal/policy"
	"quorum/internal/prompt"
	"quorum/internal/provider"
	"quorum/internal/scheduler"
	"quorum/internal/store"
	httpapi "quorum/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg *config.Config

	store    *store.Store
	policies *policy.Registry
	prompts  *prompt.Manager
	orch     *consensus.Orchestrator
	prices   *market.PriceService
	book     *paper.Book
	learn    *learning.Logger
	recorder *learning.Recorder
	gate     paper.RiskGate
	server   *httpapi.Server

	monitorEvery time.Duration
	analyzeEvery time.Duration
}

// New builds the full dependency graph from config. Nothing starts
// running until Run.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("store init: %w", err)
	}
	policies, err := policy.NewRegistry(cfg.Policy.Path)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("policy registry: %w", err)
	}
	prompts, err := prompt.NewManager(cfg.Prompt.Path)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("prompt manager: %w", err)
	}

	timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	adapters := provider.BuildAdaptersFromConfig(cfg.AI.Models, prompts, timeout)

	var candles market.CandleSource
	if cfg.Market.UseBinance {
		candles = market.NewBinanceSource(cfg.Market.QuoteCurrency, timeout)
	}
	agg := market.NewAggregator(candles, cfg.Market.CandleInterval, cfg.Market.CandleLimit)
	orch := consensus.New(adapters, policies, agg, timeout)
	prices := market.NewPriceService(cfg.Market.QuoteCurrency, 10*time.Second)

	book := paper.NewBook(cfg.Trading.InitialBalance, cfg.Trading.FeeRate)
	learn := learning.NewLogger(st, cfg.Learning.UserID)
	gate := paper.RiskGate{
		MinConfidence: cfg.Trading.MinConfidence,
		MaxDrawdown:   cfg.Trading.MaxDrawdown,
	}

	handlers := &httpapi.Handlers{
		Analyzer:    orch,
		Prices:      prices,
		Book:        book,
		Learning:    learn,
		Store:       st,
		Gate:        gate,
		Symbols:     cfg.Market.Symbols,
		UserID:      cfg.Learning.UserID,
		Development: cfg.App.Development(),
	}
	server := httpapi.NewServer(cfg.App.HTTPAddr, handlers, cfg.App.Development())

	monitorEvery, ok := scheduler.ParseIntervalDuration(cfg.Trading.MonitorInterval)
	if !ok {
		logger.Warnf("invalid monitor_interval %q, using 30s", cfg.Trading.MonitorInterval)
		monitorEvery = 30 * time.Second
	}
	analyzeEvery, ok := scheduler.ParseIntervalDuration(cfg.Market.CandleInterval)
	if !ok {
		analyzeEvery = time.Hour
	}

	return &App{
		cfg:          cfg,
		store:        st,
		policies:     policies,
		prompts:      prompts,
		orch:         orch,
		prices:       prices,
		book:         book,
		learn:        learn,
		recorder:     learning.NewRecorder(learn),
		gate:         gate,
		server:       server,
		monitorEvery: monitorEvery,
		analyzeEvery: analyzeEvery,
	}, nil
}

// Run starts every service and blocks until ctx cancels or one of them
// fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		a.recorder.Run(ctx)
		return nil
	})
	group.Go(func() error {
		scheduler.NewIntervalScheduler(ctx, a.monitorEvery).Start(func() { a.monitorTick(ctx) })
		return nil
	})
	if a.cfg.Trading.AutoExecute {
		logger.Infof("auto execution enabled: analyzing %v every %s", a.cfg.Market.Symbols, a.analyzeEvery)
		group.Go(func() error {
			s := scheduler.NewIntervalScheduler(ctx, a.analyzeEvery)
			s.RunImmediately = true
			s.Start(func() { a.autoTick(ctx) })
			return nil
		})
	}

	return group.Wait()
}

func (a *App) close() {
	if err := a.prompts.Close(); err != nil {
		logger.Warnf("prompt manager close: %v", err)
	}
	if err := a.store.Close(); err != nil {
		logger.Warnf("store close: %v", err)
	}
}

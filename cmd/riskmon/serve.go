package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"riskmonitor/internal/agents"
	"riskmonitor/internal/config"
	"riskmonitor/internal/embedding"
	"riskmonitor/internal/feeds"
	"riskmonitor/internal/llm"
	"riskmonitor/internal/logging"
	"riskmonitor/internal/monitoring"
	"riskmonitor/internal/scheduler"
	"riskmonitor/internal/server"
	"riskmonitor/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.Get(logging.CategoryBoot)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	apiKey := cfg.LLM.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		logger.Warn("no Gemini API key configured, event analysis will fail until one is set")
	}

	completer := llm.NewGeminiClientWithConfig(llm.GeminiConfig{
		APIKey:  apiKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.GetLLMTimeout(),
	})
	orchestrator := agents.NewOrchestrator(st, completer)

	var embedder embedding.Engine
	if apiKey != "" {
		engine, err := embedding.NewGenAIEngine(apiKey, cfg.LLM.EmbeddingModel)
		if err != nil {
			logger.Warn("embedding engine unavailable, historical similarity disabled", zap.Error(err))
		} else {
			embedder = engine
		}
	}

	// Every threshold consumer reads this holder, so a config reload
	// reaches the scan loops and handlers without a restart.
	rules := config.NewThresholds(cfg.Alerts)

	feedTimeout := cfg.GetFeedTimeout()
	gdelt := feeds.NewGDELTClient(cfg.Feeds.GDELTBaseURL, feedTimeout)
	noaa := feeds.NewNOAAClient(cfg.Feeds.NOAABaseURL, feedTimeout)
	weather := feeds.NewWeatherClient(cfg.Feeds.WeatherAPIKey, "", feedTimeout)
	financial := feeds.NewFinancialService("", feedTimeout, rules)
	shipping := feeds.NewShippingService()
	geopolitical := feeds.NewGeopoliticalService("", feedTimeout)
	trends := feeds.NewTrendsService()
	detector := feeds.NewAlertDetector(st, gdelt, noaa, rules)

	sched := scheduler.New(scheduler.Config{
		AlertScanInterval:  cfg.GetAlertScanInterval(),
		MarketScanInterval: cfg.GetMarketScanInterval(),
		WeatherInterval:    cfg.GetWeatherPollInterval(),
		WeatherSpacing:     500 * time.Millisecond,
		Rules:              rules,
	}, st, detector, financial, shipping, geopolitical, weather, orchestrator)

	srv := server.New(server.Deps{
		Config:       cfg,
		Rules:        rules,
		Store:        st,
		Monitor:      monitoring.New(),
		Pipeline:     orchestrator,
		Scheduler:    sched,
		GDELT:        gdelt,
		Weather:      weather,
		Financial:    financial,
		Shipping:     shipping,
		Geopolitical: geopolitical,
		Trends:       trends,
		Embedder:     embedder,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Alert thresholds follow the config file without a restart.
	watcher, err := config.NewWatcher(configPath, logging.Get(logging.CategoryBoot), func(updated *config.Config) {
		rules.Store(updated.Alerts)
	})
	if err == nil {
		if werr := watcher.Start(ctx); werr != nil {
			logger.Warn("config watcher failed to start", zap.Error(werr))
		} else {
			defer watcher.Stop()
		}
	} else {
		logger.Warn("config watcher unavailable", zap.Error(err))
	}

	if cfg.Workers.AutoStart {
		sched.Start(ctx)
		defer sched.Stop()
	}

	logger.Info("riskmon starting",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db", cfg.Database.Path),
		zap.Bool("workers", cfg.Workers.AutoStart))

	return srv.Run(ctx)
}

func openStore() (*store.Store, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// Package server exposes the HTTP API: CRUD over the supply chain model,
// the analysis pipeline triggers, live feed queries, and monitoring.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"riskmonitor/internal/config"
	"riskmonitor/internal/embedding"
	"riskmonitor/internal/feeds"
	"riskmonitor/internal/logging"
	"riskmonitor/internal/monitoring"
	"riskmonitor/internal/scheduler"
	"riskmonitor/internal/store"
	"riskmonitor/internal/types"
)

// Pipeline is the analysis entry point the event and prediction endpoints
// dispatch to. Satisfied by agents.Orchestrator.
type Pipeline interface {
	Run(ctx context.Context, eventID int64) error
	PredictFutureRisks(ctx context.Context, orgID int64, periodDays int) (*types.FuturePrediction, error)
}

// Deps bundles everything the server needs. Config, Store, and Monitor are
// required; the rest may be nil, and their endpoints return 503.
type Deps struct {
	Config       *config.Config
	Rules        *config.Thresholds
	Store        *store.Store
	Monitor      *monitoring.Monitor
	Pipeline     Pipeline
	Scheduler    *scheduler.Scheduler
	GDELT        *feeds.GDELTClient
	Weather      *feeds.WeatherClient
	Financial    *feeds.FinancialService
	Shipping     *feeds.ShippingService
	Geopolitical *feeds.GeopoliticalService
	Trends       *feeds.TrendsService
	Embedder     embedding.Engine
}

// Server is the HTTP API.
type Server struct {
	cfg          *config.Config
	rules        *config.Thresholds
	store        *store.Store
	monitor      *monitoring.Monitor
	pipeline     Pipeline
	sched        *scheduler.Scheduler
	gdelt        *feeds.GDELTClient
	weather      *feeds.WeatherClient
	financial    *feeds.FinancialService
	shipping     *feeds.ShippingService
	geopolitical *feeds.GeopoliticalService
	trends       *feeds.TrendsService
	aggregator   *feeds.Aggregator
	embedder     embedding.Engine
	logger       *zap.Logger

	compareMu   sync.Mutex
	comparisons map[string]*EventComparison

	// background is the parent context for work that outlives a request,
	// such as async pipeline runs.
	background context.Context
}

// New assembles the server.
func New(d Deps) *Server {
	s := &Server{
		cfg:          d.Config,
		rules:        d.Rules,
		store:        d.Store,
		monitor:      d.Monitor,
		pipeline:     d.Pipeline,
		sched:        d.Scheduler,
		gdelt:        d.GDELT,
		weather:      d.Weather,
		financial:    d.Financial,
		shipping:     d.Shipping,
		geopolitical: d.Geopolitical,
		trends:       d.Trends,
		embedder:     d.Embedder,
		logger:       logging.Get(logging.CategoryServer),
		comparisons:  make(map[string]*EventComparison),
		background:   context.Background(),
	}
	if d.Financial != nil && d.Shipping != nil && d.Geopolitical != nil && d.Trends != nil {
		s.aggregator = feeds.NewAggregator(d.Financial, d.Shipping, d.Geopolitical, d.Trends)
	}
	return s
}

// Router builds the chi route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/organizations", func(r chi.Router) {
		r.Post("/", s.handleCreateOrganization)
		r.Get("/", s.handleListOrganizations)
		r.Get("/{id}", s.handleGetOrganization)
		r.Put("/{id}", s.handleUpdateOrganization)
		r.Delete("/{id}", s.handleDeleteOrganization)
	})

	r.Route("/api/suppliers", func(r chi.Router) {
		r.Post("/", s.handleCreateSupplier)
		r.Get("/organization/{orgID}", s.handleListSuppliers)
		r.Get("/organization/{orgID}/dependencies", s.handleListOrgDependencies)
		r.Get("/{id}", s.handleGetSupplier)
		r.Put("/{id}", s.handleUpdateSupplier)
		r.Delete("/{id}", s.handleDeleteSupplier)
		r.Post("/{id}/dependencies", s.handleAddDependency)
		r.Get("/{id}/dependencies", s.handleListDependencies)
		r.Delete("/dependencies/{depID}", s.handleRemoveDependency)
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Post("/", s.handleCreateEvent)
		r.Post("/compare", s.handleCompareEvents)
		r.Get("/compare/{compareID}", s.handleGetComparison)
		r.Get("/organization/{orgID}", s.handleListEvents)
		r.Get("/{id}", s.handleGetEvent)
	})

	r.Route("/api/predictions", func(r chi.Router) {
		r.Post("/", s.handleCreatePrediction)
		r.Get("/organization/{orgID}/latest", s.handleLatestPrediction)
	})

	r.Route("/api/risk-history", func(r chi.Router) {
		r.Post("/", s.handleAppendRiskHistory)
		r.Get("/organization/{orgID}", s.handleListRiskHistory)
	})

	r.Route("/api/alerts", func(r chi.Router) {
		r.Post("/scan", s.handleAlertScan)
		r.Get("/recent", s.handleRecentAlerts)
		r.Get("/events", s.handleFeedEvents)
		r.Get("/dashboard", s.handleAlertDashboard)
		r.Post("/scheduler/start", s.handleSchedulerStart)
		r.Post("/scheduler/stop", s.handleSchedulerStop)
		r.Get("/scheduler/status", s.handleSchedulerStatus)
		r.Get("/test/gdelt", s.handleTestGDELT)
		r.Get("/test/weather", s.handleTestWeather)
	})

	r.Route("/api/enhanced", func(r chi.Router) {
		r.Get("/financial/commodities", s.handleCommodities)
		r.Get("/financial/exchange-rates", s.handleExchangeRates)
		r.Get("/financial/stock/{ticker}", s.handleStock)
		r.Get("/shipping/port-status", s.handlePortStatus)
		r.Get("/shipping/route-estimate", s.handleRouteEstimate)
		r.Get("/shipping/major-ports", s.handleMajorPorts)
		r.Get("/geopolitical/sanctions", s.handleSanctions)
		r.Get("/geopolitical/conflict", s.handleConflict)
		r.Get("/geopolitical/high-risk-countries", s.handleHighRiskCountries)
		r.Get("/social/trends", s.handleTrends)
		r.Get("/risk/comprehensive", s.handleComprehensiveRisk)
	})

	r.Route("/api/weather", func(r chi.Router) {
		r.Get("/organization/{orgID}", s.handleOrganizationWeather)
		r.Get("/supplier/{id}", s.handleSupplierWeather)
		r.Post("/organization/{orgID}/analyze", s.handleAnalyzeWeather)
		r.Get("/worker/status", s.handleSchedulerStatus)
		r.Post("/worker/start", s.handleSchedulerStart)
		r.Post("/worker/stop", s.handleSchedulerStop)
	})

	r.Route("/api/monitoring", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
		r.Get("/health", s.handleMonitoringHealth)
		r.Get("/events", s.handleSystemEvents)
	})

	r.Post("/api/historical/similar", s.handleSimilarEvents)

	return r
}

// Run serves until ctx is cancelled, then drains with the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	s.background = ctx

	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  parseDurationOr(s.cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: parseDurationOr(s.cfg.Server.WriteTimeout, 60*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"name":    s.cfg.Name,
		"version": s.cfg.Version,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"counts": stats,
	})
}

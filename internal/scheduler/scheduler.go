// Package scheduler runs the background monitoring loops: the 15-minute
// alert scan, the 5-minute market scan, and the per-minute weather watch
// that auto-creates events for severe conditions at supplier sites.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"riskmonitor/internal/config"
	"riskmonitor/internal/feeds"
	"riskmonitor/internal/logging"
	"riskmonitor/internal/store"
	"riskmonitor/internal/types"
)

// EventRunner executes the analysis pipeline for a stored event. Satisfied
// by agents.Orchestrator.
type EventRunner interface {
	Run(ctx context.Context, eventID int64) error
}

// Config carries the loop cadences and the shared alert threshold rules.
// Rules may be hot-reloaded while the loops run; a nil holder reads as the
// defaults.
type Config struct {
	AlertScanInterval  time.Duration
	MarketScanInterval time.Duration
	WeatherInterval    time.Duration
	// WeatherSpacing is the pause between per-supplier weather requests.
	WeatherSpacing time.Duration
	Rules          *config.Thresholds
}

// DefaultConfig returns the production cadences.
func DefaultConfig() Config {
	return Config{
		AlertScanInterval:  15 * time.Minute,
		MarketScanInterval: 5 * time.Minute,
		WeatherInterval:    60 * time.Second,
		WeatherSpacing:     500 * time.Millisecond,
	}
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	Running            bool      `json:"running"`
	AlertScanInterval  string    `json:"alert_scan_interval"`
	MarketScanInterval string    `json:"market_scan_interval"`
	WeatherInterval    string    `json:"weather_interval"`
	LastAlertScan      time.Time `json:"last_alert_scan,omitzero"`
	LastMarketScan     time.Time `json:"last_market_scan,omitzero"`
	LastWeatherScan    time.Time `json:"last_weather_scan,omitzero"`
	AlertsGenerated    int       `json:"alerts_generated"`
	WeatherEvents      int       `json:"weather_events_created"`
}

// Scheduler owns the three background loops. Start and Stop are safe to
// call repeatedly.
type Scheduler struct {
	cfg          Config
	store        *store.Store
	detector     *feeds.AlertDetector
	financial    *feeds.FinancialService
	shipping     *feeds.ShippingService
	geopolitical *feeds.GeopoliticalService
	weather      *feeds.WeatherClient
	pipeline     EventRunner
	logger       *zap.Logger

	mu              sync.Mutex
	running         bool
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	lastAlertScan   time.Time
	lastMarketScan  time.Time
	lastWeatherScan time.Time
	alertsGenerated int
	weatherEvents   int
	// org id -> alert signatures already turned into events.
	processedAlerts map[int64]map[string]bool
}

// New creates a stopped scheduler.
func New(cfg Config, st *store.Store, detector *feeds.AlertDetector,
	financial *feeds.FinancialService, shipping *feeds.ShippingService,
	geopolitical *feeds.GeopoliticalService, weather *feeds.WeatherClient,
	pipeline EventRunner) *Scheduler {
	if cfg.AlertScanInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		cfg:             cfg,
		store:           st,
		detector:        detector,
		financial:       financial,
		shipping:        shipping,
		geopolitical:    geopolitical,
		weather:         weather,
		pipeline:        pipeline,
		logger:          logging.Get(logging.CategoryScheduler),
		processedAlerts: make(map[int64]map[string]bool),
	}
}

// Start launches the loops. A second Start while running is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(3)
	go s.loop(ctx, s.cfg.AlertScanInterval, s.runAlertScan)
	go s.loop(ctx, s.cfg.MarketScanInterval, s.runMarketScan)
	go s.loop(ctx, s.cfg.WeatherInterval, s.runWeatherScan)

	s.logger.Info("scheduler started",
		zap.Duration("alert_scan", s.cfg.AlertScanInterval),
		zap.Duration("market_scan", s.cfg.MarketScanInterval),
		zap.Duration("weather_watch", s.cfg.WeatherInterval))
}

// Stop cancels the loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Running reports whether the loops are live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns a snapshot for the dashboard.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:            s.running,
		AlertScanInterval:  s.cfg.AlertScanInterval.String(),
		MarketScanInterval: s.cfg.MarketScanInterval.String(),
		WeatherInterval:    s.cfg.WeatherInterval.String(),
		LastAlertScan:      s.lastAlertScan,
		LastMarketScan:     s.lastMarketScan,
		LastWeatherScan:    s.lastWeatherScan,
		AlertsGenerated:    s.alertsGenerated,
		WeatherEvents:      s.weatherEvents,
	}
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// RunAlertScanNow triggers an immediate alert scan, used by the manual scan
// endpoint.
func (s *Scheduler) RunAlertScanNow(ctx context.Context) ([]feeds.Alert, error) {
	alerts, err := s.detector.Scan(ctx)

	s.mu.Lock()
	s.lastAlertScan = time.Now()
	s.alertsGenerated += len(alerts)
	s.mu.Unlock()

	return alerts, err
}

func (s *Scheduler) runAlertScan(ctx context.Context) {
	alerts, err := s.RunAlertScanNow(ctx)
	if err != nil {
		s.logger.Error("alert scan failed", zap.Error(err))
		return
	}
	if len(alerts) == 0 {
		s.logger.Info("alert scan clean")
		return
	}
	for _, a := range alerts {
		s.logger.Warn("supply chain alert",
			zap.String("title", a.Title),
			zap.String("severity", a.Severity),
			zap.Int("affected_suppliers", a.AffectedCount))
	}
}

func (s *Scheduler) runMarketScan(ctx context.Context) {
	s.mu.Lock()
	s.lastMarketScan = time.Now()
	s.mu.Unlock()

	rules := s.cfg.Rules.Current()

	quotes := s.financial.CommodityQuotes([]string{"oil", "gold", "copper", "lithium"})
	for name, q := range quotes {
		if q.Alert {
			s.logger.Warn("commodity price alert",
				zap.String("commodity", name),
				zap.Float64("change_30d", q.Change30d))
		}
	}

	for _, port := range feeds.MajorPorts {
		status := s.shipping.PortStatus(port)
		if status.CongestionLevel >= rules.PortCongestionLevel {
			s.logger.Warn("port congestion alert",
				zap.String("port", port),
				zap.Int("congestion_level", status.CongestionLevel))
		}
	}

	for _, country := range feeds.HighRiskCountries {
		conflict := s.geopolitical.Conflict(country)
		if conflict.ConflictLevel >= rules.ConflictLevel {
			s.logger.Warn("geopolitical risk alert",
				zap.String("country", country),
				zap.Int("conflict_level", conflict.ConflictLevel))
		}
	}

	rates, err := s.financial.Rates(ctx, "USD")
	if err != nil {
		s.logger.Error("exchange rate check failed", zap.Error(err))
		return
	}
	s.logger.Debug("exchange rates", zap.Int("currencies", len(rates.Rates)))
}

func (s *Scheduler) runWeatherScan(ctx context.Context) {
	s.mu.Lock()
	s.lastWeatherScan = time.Now()
	s.mu.Unlock()

	if s.weather == nil || !s.weather.Enabled() {
		return
	}

	orgs, err := s.store.ListOrganizations(ctx, 0, 1000)
	if err != nil {
		s.logger.Error("weather scan: list organizations failed", zap.Error(err))
		return
	}
	for _, org := range orgs {
		if ctx.Err() != nil {
			return
		}
		if err := s.scanOrganizationWeather(ctx, org.ID); err != nil {
			s.logger.Error("weather scan failed",
				zap.Int64("organization_id", org.ID), zap.Error(err))
		}
	}
}

func (s *Scheduler) scanOrganizationWeather(ctx context.Context, orgID int64) error {
	suppliers, err := s.store.ListSuppliers(ctx, orgID)
	if err != nil {
		return err
	}

	for i := range suppliers {
		sup := &suppliers[i]
		if !sup.HasCoordinates() {
			continue
		}

		report, err := s.weather.CurrentForSupplier(ctx, sup)
		if err != nil {
			s.logger.Warn("weather fetch failed",
				zap.String("supplier", sup.Name), zap.Error(err))
		} else if report != nil {
			s.handleWeatherReport(ctx, orgID, sup, report)
		}

		// Spacing keeps the weather API under its rate limit.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.WeatherSpacing):
		}
	}
	return nil
}

func (s *Scheduler) handleWeatherReport(ctx context.Context, orgID int64, sup *types.Supplier, report *feeds.WeatherReport) {
	minSeverity := s.cfg.Rules.Current().WeatherMinSeverity

	var primary *feeds.WeatherAlert
	for i := range report.Alerts {
		a := &report.Alerts[i]
		if a.Severity < minSeverity {
			continue
		}
		if primary == nil || a.Severity > primary.Severity {
			primary = a
		}
	}
	if primary == nil {
		return
	}

	signature := fmt.Sprintf("%d_%s_%s", sup.ID, primary.Type,
		time.Now().UTC().Format("2006-01-02-15"))

	s.mu.Lock()
	seen := s.processedAlerts[orgID]
	if seen == nil {
		seen = make(map[string]bool)
		s.processedAlerts[orgID] = seen
	}
	if seen[signature] {
		s.mu.Unlock()
		return
	}
	seen[signature] = true
	// Bound the signature set; old hours never repeat anyway.
	if len(seen) > 100 {
		for k := range seen {
			if len(seen) <= 50 {
				break
			}
			delete(seen, k)
		}
	}
	s.mu.Unlock()

	description := feeds.EventDescription(*primary, sup)
	ev, err := s.store.CreateEvent(ctx, orgID, description, primary.Severity)
	if err != nil {
		s.logger.Error("weather event create failed",
			zap.String("supplier", sup.Name), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.weatherEvents++
	s.mu.Unlock()

	s.logger.Info("weather event auto-created",
		zap.Int64("event_id", ev.ID),
		zap.String("supplier", sup.Name),
		zap.String("alert_type", primary.Type),
		zap.Int("severity", primary.Severity))

	if s.pipeline != nil {
		if err := s.pipeline.Run(ctx, ev.ID); err != nil {
			s.logger.Error("weather event analysis failed",
				zap.Int64("event_id", ev.ID), zap.Error(err))
		}
	}
}

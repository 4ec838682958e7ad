package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"riskmonitor/internal/config"
	"riskmonitor/internal/logging"
	"riskmonitor/internal/store"
	"riskmonitor/internal/types"
)

// Alert is a threshold breach worth human attention, persisted as an ALERT
// feed row.
type Alert struct {
	AlertID            string        `json:"alert_id"`
	Timestamp          string        `json:"timestamp"`
	Severity           string        `json:"severity"`
	EventType          string        `json:"event_type"`
	Title              string        `json:"title"`
	Description        string        `json:"description,omitempty"`
	Source             string        `json:"source"`
	Location           *Location     `json:"location,omitempty"`
	ImpactScore        float64       `json:"impact_score"`
	AffectedSuppliers  []SupplierHit `json:"affected_suppliers"`
	AffectedCount      int           `json:"affected_count"`
	RecommendedActions []string      `json:"recommended_actions"`
	SourceURL          string        `json:"source_url,omitempty"`
}

// feedRowsPerSource caps the retained live_feeds rows per source.
const feedRowsPerSource = 1000

// AlertDetector runs the full scan: fetch events from all sources, match
// them to suppliers, and persist alerts for the ones that clear the
// thresholds.
type AlertDetector struct {
	store  *store.Store
	gdelt  *GDELTClient
	noaa   *NOAAClient
	rules  *config.Thresholds
	logger *zap.Logger
}

// NewAlertDetector wires the detector to its feed sources. A nil rules
// holder reads as the default thresholds.
func NewAlertDetector(st *store.Store, gdelt *GDELTClient, noaa *NOAAClient, rules *config.Thresholds) *AlertDetector {
	return &AlertDetector{
		store:  st,
		gdelt:  gdelt,
		noaa:   noaa,
		rules:  rules,
		logger: logging.Get(logging.CategoryFeeds),
	}
}

// US state codes for supplier cities, used to scope NOAA alert areas.
var usStateByCity = map[string]string{
	"Los Angeles": "CA",
	"Portland":    "OR",
	"Atlanta":     "GA",
	"Houston":     "TX",
	"Chicago":     "IL",
}

// Scan fetches all sources, matches events to suppliers, and returns the
// alerts generated. Individual source failures are logged and skipped.
func (d *AlertDetector) Scan(ctx context.Context) ([]Alert, error) {
	suppliers, err := d.store.ListAllSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load suppliers: %w", err)
	}

	var events []Event

	gdeltEvents, err := d.gdelt.FetchEvents(ctx, "")
	if err != nil {
		d.logger.Warn("gdelt scan failed", zap.Error(err))
	} else {
		events = append(events, gdeltEvents...)
	}

	if areas := supplierStateAreas(suppliers); len(areas) > 0 {
		noaaEvents, err := d.noaa.FetchAlerts(ctx, areas)
		if err != nil {
			d.logger.Warn("noaa scan failed", zap.Error(err))
		} else {
			events = append(events, noaaEvents...)
		}
	}

	d.logger.Info("feed scan fetched", zap.Int("events", len(events)))

	sources := make(map[string]bool, 2)
	for _, ev := range events {
		d.persistFeedRow(ctx, ev.Source, types.FeedEvent, ev.Severity, ev)
		sources[ev.Source] = true
	}
	// Keep the feed table bounded per source.
	for source := range sources {
		if err := d.store.PruneFeedItems(ctx, source, feedRowsPerSource); err != nil {
			d.logger.Warn("feed prune failed", zap.String("source", source), zap.Error(err))
		}
	}

	matched := MatchEvents(events, suppliers)
	d.logger.Info("feed scan matched", zap.Int("events", len(matched)))

	minAffected := d.rules.Current().MinAffectedSuppliers

	var alerts []Alert
	for _, ev := range matched {
		if !ShouldTrigger(&ev, minAffected) {
			continue
		}
		alert := buildAlert(&ev)
		d.persistFeedRow(ctx, alert.Source, types.FeedAlert, alert.Severity, alert)
		alerts = append(alerts, alert)
	}

	d.logger.Info("feed scan complete", zap.Int("alerts", len(alerts)))
	return alerts, nil
}

func (d *AlertDetector) persistFeedRow(ctx context.Context, source string, kind types.FeedKind, severity string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("feed row encode failed", zap.Error(err))
		return
	}
	if _, err := d.store.InsertFeedItem(ctx, &types.LiveFeedItem{
		Source:   source,
		Kind:     kind,
		Severity: severity,
		Payload:  raw,
	}); err != nil {
		d.logger.Error("feed row insert failed", zap.String("source", source), zap.Error(err))
	}
}

// supplierStateAreas maps US supplier cities to the state codes NOAA
// accepts.
func supplierStateAreas(suppliers []types.Supplier) []string {
	seen := make(map[string]bool)
	var areas []string
	for _, sup := range suppliers {
		if sup.Country != "United States" && sup.Country != "USA" {
			continue
		}
		state, ok := usStateByCity[sup.City]
		if !ok || seen[state] {
			continue
		}
		seen[state] = true
		areas = append(areas, state)
	}
	return areas
}

// ShouldTrigger reports whether a matched event warrants an alert: severity
// HIGH or CRITICAL, any critical supplier affected, or at least minAffected
// suppliers affected. A non-positive minAffected falls back to 3.
func ShouldTrigger(ev *Event, minAffected int) bool {
	if minAffected <= 0 {
		minAffected = 3
	}
	if ev.Severity == SeverityHigh || ev.Severity == SeverityCritical {
		return true
	}
	for _, hit := range ev.AffectedSuppliers {
		if hit.Criticality == SeverityCritical {
			return true
		}
	}
	return ev.AffectedCount >= minAffected
}

func buildAlert(ev *Event) Alert {
	return Alert{
		AlertID:            "ALERT-" + uuid.NewString(),
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		Severity:           ev.Severity,
		EventType:          ev.EventType,
		Title:              ev.Title,
		Description:        ev.Description,
		Source:             ev.Source,
		Location:           ev.Location,
		ImpactScore:        ImpactScore(ev),
		AffectedSuppliers:  ev.AffectedSuppliers,
		AffectedCount:      ev.AffectedCount,
		RecommendedActions: RecommendedActions(ev),
		SourceURL:          ev.URL,
	}
}

// ImpactScore rates a matched event 0-100 from severity, reach, and the
// criticality of the suppliers hit.
func ImpactScore(ev *Event) float64 {
	score := 20.0
	switch ev.Severity {
	case SeverityCritical:
		score = 40
	case SeverityHigh:
		score = 30
	case SeverityMedium:
		score = 20
	case SeverityLow:
		score = 10
	}

	score += min(float64(ev.AffectedCount)*5, 30)

	var critical int
	for _, hit := range ev.AffectedSuppliers {
		if hit.Criticality == SeverityCritical {
			critical++
		}
	}
	score += min(float64(critical)*10, 30)

	return min(score, 100)
}

// RecommendedActions builds the immediate action list for an alert.
func RecommendedActions(ev *Event) []string {
	actions := []string{
		"Review affected supplier contracts and SLAs",
		"Contact affected suppliers for status updates",
	}

	switch ev.EventType {
	case TypeNaturalDisaster:
		actions = append(actions,
			"Activate disaster recovery protocols",
			"Assess alternative supplier capacity",
			"Review insurance coverage for affected regions")
	case TypeLaborDispute:
		actions = append(actions,
			"Identify backup suppliers in different regions",
			"Negotiate expedited shipping if needed")
	case TypeWeatherEvent:
		actions = append(actions,
			"Monitor weather forecasts for duration",
			"Adjust inventory levels as precaution")
	case TypeLogisticsDisruption:
		actions = append(actions,
			"Explore alternative shipping routes",
			"Consider air freight for critical components")
	}

	if ev.Severity == SeverityHigh || ev.Severity == SeverityCritical {
		actions = append(actions,
			"Escalate to executive team immediately",
			"Initiate emergency supplier sourcing")
	}
	return actions
}

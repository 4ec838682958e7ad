package server

import (
	"encoding/json"
	"net/http"

	"riskmonitor/internal/feeds"
	"riskmonitor/internal/scheduler"
	"riskmonitor/internal/types"
)

func (s *Server) handleAlertScan(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	alerts, err := s.sched.RunAlertScanNow(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	if alerts == nil {
		alerts = []feeds.Alert{}
	}
	s.monitor.RecordEvent("scan", "manual alert scan completed")
	s.respond(w, http.StatusOK, map[string]any{
		"alerts_found": len(alerts),
		"alerts":       alerts,
	})
}

func (s *Server) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	severity := r.URL.Query().Get("severity")

	items, err := s.store.RecentFeedItems(r.Context(), hours, types.FeedAlert, severity, 100)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, items)
}

func (s *Server) handleFeedEvents(w http.ResponseWriter, r *http.Request) {
	hours := queryInt(r, "hours", 24)
	source := r.URL.Query().Get("source")

	var (
		items []types.LiveFeedItem
		err   error
	)
	if source != "" {
		items, err = s.store.FeedItemsBySource(r.Context(), source, hours, 100)
	} else {
		items, err = s.store.RecentFeedItems(r.Context(), hours, types.FeedEvent, "", 100)
	}
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, items)
}

// AlertDashboard is the 7-day alert overview.
type AlertDashboard struct {
	TotalAlerts     int              `json:"total_alerts"`
	BySeverity      map[string]int   `json:"by_severity"`
	ByEventType     map[string]int   `json:"by_event_type"`
	RecentCritical  []feeds.Alert    `json:"recent_critical"`
	SchedulerStatus scheduler.Status `json:"scheduler_status"`
}

func (s *Server) handleAlertDashboard(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.RecentFeedItems(r.Context(), 7*24, types.FeedAlert, "", 500)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	dash := AlertDashboard{
		TotalAlerts:    len(items),
		BySeverity:     make(map[string]int),
		ByEventType:    make(map[string]int),
		RecentCritical: []feeds.Alert{},
	}
	for _, item := range items {
		var alert feeds.Alert
		if err := json.Unmarshal(item.Payload, &alert); err != nil {
			continue
		}
		dash.BySeverity[alert.Severity]++
		dash.ByEventType[alert.EventType]++
		if alert.Severity == feeds.SeverityCritical && len(dash.RecentCritical) < 5 {
			dash.RecentCritical = append(dash.RecentCritical, alert)
		}
	}
	if s.sched != nil {
		dash.SchedulerStatus = s.sched.Status()
	}
	s.respond(w, http.StatusOK, dash)
}

func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	s.sched.Start(s.background)
	s.monitor.RecordEvent("scheduler", "background workers started")
	s.respond(w, http.StatusOK, s.sched.Status())
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	s.sched.Stop()
	s.monitor.RecordEvent("scheduler", "background workers stopped")
	s.respond(w, http.StatusOK, s.sched.Status())
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	s.respond(w, http.StatusOK, s.sched.Status())
}

func (s *Server) handleTestGDELT(w http.ResponseWriter, r *http.Request) {
	if s.gdelt == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "GDELT client not configured")
		return
	}
	events, err := s.gdelt.FetchEvents(r.Context(), "")
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	sample := events
	if len(sample) > 5 {
		sample = sample[:5]
	}
	s.respond(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"events_found": len(events),
		"sample":       sample,
	})
}

func (s *Server) handleTestWeather(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil || !s.weather.Enabled() {
		s.respondError(w, r, http.StatusServiceUnavailable, "weather API key not configured")
		return
	}

	// Probe with a fixed reference point.
	lat, lon := 34.05, -118.24
	probe := &types.Supplier{
		Name:      "connectivity probe",
		Country:   "USA",
		City:      "Los Angeles",
		Latitude:  &lat,
		Longitude: &lon,
	}
	report, err := s.weather.CurrentForSupplier(r.Context(), probe)
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"status": "ok",
		"report": report,
	})
}

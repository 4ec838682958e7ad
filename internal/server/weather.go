package server

import (
	"net/http"

	"go.uber.org/zap"

	"riskmonitor/internal/feeds"
)

func (s *Server) weatherReady(w http.ResponseWriter, r *http.Request) bool {
	if s.weather == nil || !s.weather.Enabled() {
		s.respondError(w, r, http.StatusServiceUnavailable, "weather API key not configured")
		return false
	}
	return true
}

func (s *Server) handleOrganizationWeather(w http.ResponseWriter, r *http.Request) {
	if !s.weatherReady(w, r) {
		return
	}
	orgID, ok := s.pathID(w, r, "orgID")
	if !ok {
		return
	}
	suppliers, err := s.store.ListSuppliers(r.Context(), orgID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	reports := make([]feeds.WeatherReport, 0, len(suppliers))
	skipped := 0
	for i := range suppliers {
		sup := &suppliers[i]
		if !sup.HasCoordinates() {
			skipped++
			continue
		}
		report, err := s.weather.CurrentForSupplier(r.Context(), sup)
		if err != nil {
			s.logger.Warn("weather fetch failed",
				zap.String("supplier", sup.Name), zap.Error(err))
			skipped++
			continue
		}
		reports = append(reports, *report)
	}
	s.respond(w, http.StatusOK, map[string]any{
		"organization_id": orgID,
		"reports":         reports,
		"skipped":         skipped,
	})
}

func (s *Server) handleSupplierWeather(w http.ResponseWriter, r *http.Request) {
	if !s.weatherReady(w, r) {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	sup, err := s.store.GetSupplier(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	if !sup.HasCoordinates() {
		s.respondError(w, r, http.StatusBadRequest, "supplier has no coordinates")
		return
	}
	report, err := s.weather.CurrentForSupplier(r.Context(), sup)
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	s.respond(w, http.StatusOK, report)
}

// handleAnalyzeWeather checks current conditions at every supplier site and
// creates a disruption event for each severe alert, feeding it to the
// analysis pipeline.
func (s *Server) handleAnalyzeWeather(w http.ResponseWriter, r *http.Request) {
	if !s.weatherReady(w, r) {
		return
	}
	orgID, ok := s.pathID(w, r, "orgID")
	if !ok {
		return
	}
	suppliers, err := s.store.ListSuppliers(r.Context(), orgID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	minSeverity := s.rules.Current().WeatherMinSeverity
	if minSeverity <= 0 {
		minSeverity = 4
	}

	createdIDs := make([]int64, 0)
	for i := range suppliers {
		sup := &suppliers[i]
		if !sup.HasCoordinates() {
			continue
		}
		report, err := s.weather.CurrentForSupplier(r.Context(), sup)
		if err != nil {
			s.logger.Warn("weather fetch failed",
				zap.String("supplier", sup.Name), zap.Error(err))
			continue
		}

		var primary *feeds.WeatherAlert
		for j := range report.Alerts {
			a := &report.Alerts[j]
			if a.Severity >= minSeverity && (primary == nil || a.Severity > primary.Severity) {
				primary = a
			}
		}
		if primary == nil {
			continue
		}

		ev, err := s.store.CreateEvent(r.Context(), orgID,
			feeds.EventDescription(*primary, sup), primary.Severity)
		if err != nil {
			s.respondStoreError(w, r, err)
			return
		}
		createdIDs = append(createdIDs, ev.ID)
		s.dispatchPipeline(ev.ID)
	}

	s.respond(w, http.StatusOK, map[string]any{
		"organization_id":   orgID,
		"events_created":    len(createdIDs),
		"created_event_ids": createdIDs,
	})
}

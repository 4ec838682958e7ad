package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"riskmonitor/internal/feeds"
)

func (s *Server) handleCommodities(w http.ResponseWriter, r *http.Request) {
	if s.financial == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "financial service not configured")
		return
	}
	names := []string{"oil", "gold", "copper", "lithium"}
	if raw := r.URL.Query().Get("commodities"); raw != "" {
		names = strings.Split(raw, ",")
	}
	s.respond(w, http.StatusOK, s.financial.CommodityQuotes(names))
}

func (s *Server) handleExchangeRates(w http.ResponseWriter, r *http.Request) {
	if s.financial == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "financial service not configured")
		return
	}
	base := r.URL.Query().Get("base")
	if base == "" {
		base = "USD"
	}
	rates, err := s.financial.Rates(r.Context(), base)
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	s.respond(w, http.StatusOK, rates)
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if s.financial == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "financial service not configured")
		return
	}
	ticker := chi.URLParam(r, "ticker")
	s.respond(w, http.StatusOK, s.financial.Stock(ticker))
}

func (s *Server) handlePortStatus(w http.ResponseWriter, r *http.Request) {
	if s.shipping == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "shipping service not configured")
		return
	}
	port := r.URL.Query().Get("port")
	if port == "" {
		s.respondError(w, r, http.StatusBadRequest, "port query parameter is required")
		return
	}
	s.respond(w, http.StatusOK, s.shipping.PortStatus(port))
}

func (s *Server) handleRouteEstimate(w http.ResponseWriter, r *http.Request) {
	if s.shipping == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "shipping service not configured")
		return
	}
	origin := r.URL.Query().Get("origin")
	destination := r.URL.Query().Get("destination")
	if origin == "" || destination == "" {
		s.respondError(w, r, http.StatusBadRequest, "origin and destination query parameters are required")
		return
	}
	s.respond(w, http.StatusOK, s.shipping.RouteEstimate(origin, destination))
}

func (s *Server) handleMajorPorts(w http.ResponseWriter, r *http.Request) {
	if s.shipping == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "shipping service not configured")
		return
	}
	statuses := make([]feeds.PortStatus, 0, len(feeds.MajorPorts))
	for _, port := range feeds.MajorPorts {
		statuses = append(statuses, s.shipping.PortStatus(port))
	}
	s.respond(w, http.StatusOK, statuses)
}

func (s *Server) handleSanctions(w http.ResponseWriter, r *http.Request) {
	if s.geopolitical == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "geopolitical service not configured")
		return
	}
	entity := r.URL.Query().Get("entity")
	if entity == "" {
		s.respondError(w, r, http.StatusBadRequest, "entity query parameter is required")
		return
	}
	s.respond(w, http.StatusOK, s.geopolitical.CheckSanctions(r.Context(), entity))
}

func (s *Server) handleConflict(w http.ResponseWriter, r *http.Request) {
	if s.geopolitical == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "geopolitical service not configured")
		return
	}
	country := r.URL.Query().Get("country")
	if country == "" {
		s.respondError(w, r, http.StatusBadRequest, "country query parameter is required")
		return
	}
	s.respond(w, http.StatusOK, s.geopolitical.Conflict(country))
}

func (s *Server) handleHighRiskCountries(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{
		"countries": feeds.HighRiskCountries,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "trends service not configured")
		return
	}
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		s.respondError(w, r, http.StatusBadRequest, "keyword query parameter is required")
		return
	}
	s.respond(w, http.StatusOK, s.trends.Interest(keyword))
}

func (s *Server) handleComprehensiveRisk(w http.ResponseWriter, r *http.Request) {
	if s.aggregator == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "risk aggregator not configured")
		return
	}
	supplierID := int64(queryInt(r, "supplier_id", 0))
	if supplierID <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "supplier_id query parameter is required")
		return
	}
	sup, err := s.store.GetSupplier(r.Context(), supplierID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	opts := feeds.SnapshotOptions{
		StockTicker: r.URL.Query().Get("ticker"),
		PrimaryPort: r.URL.Query().Get("port"),
	}
	snap, err := s.aggregator.Snapshot(r.Context(), sup, opts)
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	s.respond(w, http.StatusOK, snap)
}

package server

import "net/http"

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.monitor.Endpoints())
}

func (s *Server) handleMonitoringHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.monitor.Health())
}

func (s *Server) handleSystemEvents(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.monitor.Events())
}

package server

import (
	"net/http"

	"riskmonitor/internal/types"
)

type riskHistoryRequest struct {
	OrganizationID int64   `json:"organization_id"`
	RiskScore      float64 `json:"risk_score"`
	EventID        *int64  `json:"event_id"`
	Notes          string  `json:"notes"`
}

func (s *Server) handleAppendRiskHistory(w http.ResponseWriter, r *http.Request) {
	var req riskHistoryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.OrganizationID <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "organization_id is required")
		return
	}
	if req.RiskScore < 0 || req.RiskScore > 100 {
		s.respondError(w, r, http.StatusBadRequest, "risk_score must be in [0,100]")
		return
	}
	if _, err := s.store.GetOrganization(r.Context(), req.OrganizationID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	entry, err := s.store.AppendRiskHistory(r.Context(), &types.RiskHistoryEntry{
		OrganizationID: req.OrganizationID,
		RiskScore:      req.RiskScore,
		EventID:        req.EventID,
		Notes:          req.Notes,
	})
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, entry)
}

func (s *Server) handleListRiskHistory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.pathID(w, r, "orgID")
	if !ok {
		return
	}
	days := queryInt(r, "days", 30)

	entries, err := s.store.ListRiskHistory(r.Context(), orgID, days)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, entries)
}

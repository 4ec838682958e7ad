package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"riskmonitor/internal/store"
)

type predictionRequest struct {
	OrganizationID int64 `json:"organization_id"`
	PeriodDays     int   `json:"prediction_period_days"`
}

func (s *Server) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.OrganizationID <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "organization_id is required")
		return
	}
	switch req.PeriodDays {
	case 30, 60, 90:
	default:
		s.respondError(w, r, http.StatusBadRequest, "prediction_period_days must be 30, 60, or 90")
		return
	}
	if s.pipeline == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "prediction pipeline not configured")
		return
	}
	if _, err := s.store.GetOrganization(r.Context(), req.OrganizationID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(s.background, pipelineTimeout)
		defer cancel()
		if _, err := s.pipeline.PredictFutureRisks(ctx, req.OrganizationID, req.PeriodDays); err != nil {
			s.logger.Error("prediction failed",
				zap.Int64("organization_id", req.OrganizationID),
				zap.Int("period_days", req.PeriodDays),
				zap.Error(err))
		}
	}()

	s.respond(w, http.StatusAccepted, map[string]any{
		"status":                 "accepted",
		"organization_id":        req.OrganizationID,
		"prediction_period_days": req.PeriodDays,
	})
}

func (s *Server) handleLatestPrediction(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.pathID(w, r, "orgID")
	if !ok {
		return
	}
	period := queryInt(r, "period", 30)

	pred, err := s.store.LatestPrediction(r.Context(), orgID, period)
	if err != nil {
		if store.IsNotFound(err) {
			s.respondError(w, r, http.StatusNotFound, "no prediction for this organization and period yet")
			return
		}
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, pred)
}

package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"riskmonitor/internal/types"
)

// pipelineTimeout bounds a single async analysis run.
const pipelineTimeout = 5 * time.Minute

type eventRequest struct {
	OrganizationID int64  `json:"organization_id"`
	EventInput     string `json:"event_input"`
	SeverityLevel  int    `json:"severity_level"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.OrganizationID <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "organization_id is required")
		return
	}
	if req.EventInput == "" {
		s.respondError(w, r, http.StatusBadRequest, "event_input is required")
		return
	}
	if req.SeverityLevel < 1 || req.SeverityLevel > 5 {
		s.respondError(w, r, http.StatusBadRequest, "severity_level must be 1-5")
		return
	}
	if _, err := s.store.GetOrganization(r.Context(), req.OrganizationID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	ev, err := s.store.CreateEvent(r.Context(), req.OrganizationID, req.EventInput, req.SeverityLevel)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	s.dispatchPipeline(ev.ID)
	s.respond(w, http.StatusCreated, ev)
}

// dispatchPipeline runs the analysis in the background so event creation
// returns immediately with a pending record.
func (s *Server) dispatchPipeline(eventID int64) {
	if s.pipeline == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.background, pipelineTimeout)
		defer cancel()
		if err := s.pipeline.Run(ctx, eventID); err != nil {
			s.logger.Error("event analysis failed",
				zap.Int64("event_id", eventID), zap.Error(err))
		}
	}()
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	ev, err := s.store.GetEvent(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, ev)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.pathID(w, r, "orgID")
	if !ok {
		return
	}
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	events, err := s.store.ListEvents(r.Context(), orgID, skip, limit)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, events)
}

// ComparedEvent is one event's summary inside a comparison.
type ComparedEvent struct {
	EventID          int64           `json:"event_id"`
	Title            string          `json:"title"`
	EventType        types.EventType `json:"event_type"`
	OverallRiskScore float64         `json:"overall_risk_score"`
	AffectedCount    int             `json:"affected_supplier_count"`
	Priority         int             `json:"priority"`
}

// EventComparison ranks completed events against each other.
type EventComparison struct {
	ComparisonID       string          `json:"comparison_id"`
	CreatedAt          time.Time       `json:"created_at"`
	Events             []ComparedEvent `json:"events"`
	HighestRiskEventID int64           `json:"highest_risk_event_id"`
}

type compareRequest struct {
	EventIDs []int64 `json:"event_ids"`
}

func (s *Server) handleCompareEvents(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.EventIDs) < 2 || len(req.EventIDs) > 5 {
		s.respondError(w, r, http.StatusBadRequest, "event_ids must list 2 to 5 events")
		return
	}

	compared := make([]ComparedEvent, 0, len(req.EventIDs))
	for _, id := range req.EventIDs {
		ev, err := s.store.GetEvent(r.Context(), id)
		if err != nil {
			s.respondStoreError(w, r, err)
			return
		}
		if ev.ProcessingStatus != types.StatusCompleted {
			s.respondError(w, r, http.StatusBadRequest,
				"all events must be fully analyzed before comparison")
			return
		}
		compared = append(compared, ComparedEvent{
			EventID:          ev.ID,
			Title:            ev.Title,
			EventType:        ev.EventType,
			OverallRiskScore: ev.OverallRiskScore,
			AffectedCount:    ev.AffectedSupplierCount,
		})
	}

	sort.Slice(compared, func(i, j int) bool {
		return compared[i].OverallRiskScore > compared[j].OverallRiskScore
	})
	for i := range compared {
		compared[i].Priority = i + 1
	}

	cmp := &EventComparison{
		ComparisonID:       uuid.NewString(),
		CreatedAt:          time.Now(),
		Events:             compared,
		HighestRiskEventID: compared[0].EventID,
	}

	s.compareMu.Lock()
	s.comparisons[cmp.ComparisonID] = cmp
	s.compareMu.Unlock()

	s.respond(w, http.StatusOK, cmp)
}

func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "compareID")

	s.compareMu.Lock()
	cmp := s.comparisons[id]
	s.compareMu.Unlock()

	if cmp == nil {
		s.respondError(w, r, http.StatusNotFound, "comparison not found")
		return
	}
	s.respond(w, http.StatusOK, cmp)
}

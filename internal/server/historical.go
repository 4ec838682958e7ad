package server

import (
	"net/http"

	"riskmonitor/internal/embedding"
	"riskmonitor/internal/types"
)

type similarEventsRequest struct {
	OrganizationID int64  `json:"organization_id"`
	Description    string `json:"description"`
	Limit          int    `json:"limit"`
}

// SimilarEvent pairs a past event with its similarity to the query.
type SimilarEvent struct {
	Event      types.Event `json:"event"`
	Similarity float64     `json:"similarity"`
}

// handleSimilarEvents ranks past completed events by embedding similarity
// to a new disruption description.
func (s *Server) handleSimilarEvents(w http.ResponseWriter, r *http.Request) {
	if s.embedder == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "embedding engine not configured")
		return
	}

	var req similarEventsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.OrganizationID <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "organization_id is required")
		return
	}
	if req.Description == "" {
		s.respondError(w, r, http.StatusBadRequest, "description is required")
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	events, err := s.store.ListEvents(r.Context(), req.OrganizationID, 0, 500)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	completed := make([]types.Event, 0, len(events))
	candidates := make([]string, 0, len(events))
	for _, ev := range events {
		if ev.ProcessingStatus != types.StatusCompleted {
			continue
		}
		text := ev.Description
		if text == "" {
			text = ev.EventInput
		}
		completed = append(completed, ev)
		candidates = append(candidates, text)
	}
	if len(completed) == 0 {
		s.respond(w, http.StatusOK, []SimilarEvent{})
		return
	}

	matches, err := embedding.RankBySimilarity(r.Context(), s.embedder, req.Description, candidates)
	if err != nil {
		s.respondError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]SimilarEvent, 0, len(matches))
	for _, m := range matches {
		out = append(out, SimilarEvent{
			Event:      completed[m.Index],
			Similarity: m.Similarity,
		})
	}
	s.respond(w, http.StatusOK, out)
}

package server

import (
	"net/http"

	"riskmonitor/internal/types"
)

type organizationRequest struct {
	Name          string   `json:"name"`
	Industry      string   `json:"industry"`
	Headquarters  string   `json:"headquarters_location"`
	Description   string   `json:"description"`
	ShippingRoute []string `json:"shipping_route"`
}

func (req *organizationRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if !types.Industry(req.Industry).Valid() {
		return "invalid industry"
	}
	return ""
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		s.respondError(w, r, http.StatusBadRequest, msg)
		return
	}

	org, err := s.store.CreateOrganization(r.Context(), &types.Organization{
		Name:          req.Name,
		Industry:      types.Industry(req.Industry),
		Headquarters:  req.Headquarters,
		Description:   req.Description,
		ShippingRoute: req.ShippingRoute,
	})
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, org)
}

func (s *Server) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	orgs, err := s.store.ListOrganizations(r.Context(), skip, limit)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, orgs)
}

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	org, err := s.store.GetOrganizationWithSuppliers(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, org)
}

func (s *Server) handleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req organizationRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		s.respondError(w, r, http.StatusBadRequest, msg)
		return
	}

	org, err := s.store.UpdateOrganization(r.Context(), &types.Organization{
		ID:            id,
		Name:          req.Name,
		Industry:      types.Industry(req.Industry),
		Headquarters:  req.Headquarters,
		Description:   req.Description,
		ShippingRoute: req.ShippingRoute,
	})
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, org)
}

func (s *Server) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteOrganization(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

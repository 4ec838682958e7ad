package server

import (
	"net/http"

	"riskmonitor/internal/types"
)

type supplierRequest struct {
	OrganizationID      int64    `json:"organization_id"`
	Name                string   `json:"name"`
	Country             string   `json:"country"`
	City                string   `json:"city"`
	Category            string   `json:"category"`
	Criticality         string   `json:"criticality"`
	Tier                int      `json:"tier"`
	LeadTimeDays        int      `json:"lead_time_days"`
	ReliabilityScore    float64  `json:"reliability_score"`
	CapacityUtilization float64  `json:"capacity_utilization"`
	ContactInfo         string   `json:"contact_info"`
	Latitude            *float64 `json:"latitude"`
	Longitude           *float64 `json:"longitude"`
}

func (req *supplierRequest) validate() string {
	switch {
	case req.Name == "":
		return "name is required"
	case req.Country == "":
		return "country is required"
	case !types.SupplierCategory(req.Category).Valid():
		return "invalid category"
	case !types.Criticality(req.Criticality).Valid():
		return "invalid criticality"
	case !types.Tier(req.Tier).Valid():
		return "tier must be 1, 2, or 3"
	}
	return ""
}

func (req *supplierRequest) toSupplier(id int64) *types.Supplier {
	return &types.Supplier{
		ID:                  id,
		OrganizationID:      req.OrganizationID,
		Name:                req.Name,
		Country:             req.Country,
		City:                req.City,
		Category:            types.SupplierCategory(req.Category),
		Criticality:         types.Criticality(req.Criticality),
		Tier:                types.Tier(req.Tier),
		LeadTimeDays:        req.LeadTimeDays,
		ReliabilityScore:    req.ReliabilityScore,
		CapacityUtilization: req.CapacityUtilization,
		ContactInfo:         req.ContactInfo,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
	}
}

func (s *Server) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		s.respondError(w, r, http.StatusBadRequest, msg)
		return
	}
	if req.OrganizationID <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "organization_id is required")
		return
	}
	if _, err := s.store.GetOrganization(r.Context(), req.OrganizationID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	sup, err := s.store.CreateSupplier(r.Context(), req.toSupplier(0))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, sup)
}

func (s *Server) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.pathID(w, r, "orgID")
	if !ok {
		return
	}
	suppliers, err := s.store.ListSuppliers(r.Context(), orgID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, suppliers)
}

func (s *Server) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	sup, err := s.store.GetSupplier(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, sup)
}

func (s *Server) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req supplierRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		s.respondError(w, r, http.StatusBadRequest, msg)
		return
	}

	sup, err := s.store.UpdateSupplier(r.Context(), req.toSupplier(id))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, sup)
}

func (s *Server) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteSupplier(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dependencyRequest struct {
	DependsOnID    int64  `json:"depends_on_supplier_id"`
	DependencyType string `json:"dependency_type"`
}

func (s *Server) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dependencyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.DependsOnID <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "depends_on_supplier_id is required")
		return
	}
	if req.DependsOnID == id {
		s.respondError(w, r, http.StatusBadRequest, "a supplier cannot depend on itself")
		return
	}

	dep, err := s.store.AddDependency(r.Context(), id, req.DependsOnID, req.DependencyType)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, dep)
}

func (s *Server) handleListDependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	deps, err := s.store.ListDependencies(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, deps)
}

func (s *Server) handleListOrgDependencies(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.pathID(w, r, "orgID")
	if !ok {
		return
	}
	deps, err := s.store.ListOrganizationDependencies(r.Context(), orgID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, deps)
}

func (s *Server) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	depID, ok := s.pathID(w, r, "depID")
	if !ok {
		return
	}
	if err := s.store.RemoveDependency(r.Context(), depID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

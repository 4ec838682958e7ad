package agents

import (
	"fmt"

	"riskmonitor/internal/deps"
	"riskmonitor/internal/types"
)

// cascadeDampening reduces proximity per dependency hop.
const cascadeDampening = 0.6

// CascadeAnalyzer traces disruption through the dependency graph: suppliers
// that depend on a directly affected supplier are indirectly affected.
type CascadeAnalyzer struct{}

// NewCascadeAnalyzer creates the cascade agent.
func NewCascadeAnalyzer() *CascadeAnalyzer {
	return &CascadeAnalyzer{}
}

// Trace returns indirectly affected suppliers reachable downstream of the
// directly affected set, excluding suppliers already in it.
func (c *CascadeAnalyzer) Trace(direct []AffectedSupplier, suppliers []types.Supplier, edges []types.SupplierDependency) []AffectedSupplier {
	if len(direct) == 0 || len(edges) == 0 {
		return nil
	}

	graph := deps.Build(suppliers, edges)

	directIDs := make([]int64, 0, len(direct))
	maxProximity := make(map[int64]float64, len(direct))
	for _, a := range direct {
		directIDs = append(directIDs, a.SupplierID)
		if a.ProximityScore > maxProximity[a.SupplierID] {
			maxProximity[a.SupplierID] = a.ProximityScore
		}
	}

	var baseline float64
	for _, p := range maxProximity {
		if p > baseline {
			baseline = p
		}
	}

	hits := graph.Downstream(directIDs)
	indirect := make([]AffectedSupplier, 0, len(hits))
	for _, hit := range hits {
		proximity := baseline
		for i := 0; i < hit.Hops; i++ {
			proximity *= cascadeDampening
		}
		if proximity < 0.05 {
			continue
		}
		sup := hit.Supplier
		indirect = append(indirect, AffectedSupplier{
			SupplierID:       sup.ID,
			Name:             sup.Name,
			Country:          sup.Country,
			City:             sup.City,
			Category:         sup.Category,
			Criticality:      sup.Criticality,
			Tier:             sup.Tier,
			ProximityScore:   round2(proximity),
			ImpactReason:     fmt.Sprintf("Depends on disrupted supplier (%d hop(s) removed)", hit.Hops),
			LeadTimeDays:     sup.LeadTimeDays,
			ReliabilityScore: sup.ReliabilityScore,
			Indirect:         true,
		})
	}
	return indirect
}

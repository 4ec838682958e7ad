package agents

import (
	"fmt"
	"math"
	"strings"

	"riskmonitor/internal/geo"
	"riskmonitor/internal/types"
)

// SupplierMatcher finds which suppliers an event touches. Fully
// deterministic: country, city, radius, then industry keywords.
type SupplierMatcher struct{}

// NewSupplierMatcher creates the matcher agent.
func NewSupplierMatcher() *SupplierMatcher {
	return &SupplierMatcher{}
}

// Match returns the suppliers affected by the parsed event, each with a
// proximity score in (0,1] and the reason it matched.
func (m *SupplierMatcher) Match(parsed *ParsedEvent, suppliers []types.Supplier) []AffectedSupplier {
	var affected []AffectedSupplier

	country := strings.TrimSpace(parsed.Location.Country)
	city := strings.TrimSpace(parsed.Location.City)
	radius := parsed.SeverityAssessment.AffectedRadiusKm
	if radius <= 0 {
		radius = defaultAffectedRadiusKm
	}

	for i := range suppliers {
		sup := &suppliers[i]
		proximity := 0.0
		reason := ""

		if country != "" && strings.EqualFold(sup.Country, country) {
			proximity = 0.8
			reason = fmt.Sprintf("Located in affected country: %s", sup.Country)
		}
		if city != "" && strings.EqualFold(sup.City, city) {
			proximity = 1.0
			reason = fmt.Sprintf("Located in affected city: %s", sup.City)
		}
		if sup.HasCoordinates() &&
			parsed.Location.EstimatedLatitude != nil && parsed.Location.EstimatedLongitude != nil {
			dist := geo.HaversineKm(*parsed.Location.EstimatedLatitude, *parsed.Location.EstimatedLongitude,
				*sup.Latitude, *sup.Longitude)
			if dist <= radius {
				byDistance := 1 - dist/radius
				if byDistance > proximity {
					proximity = byDistance
					reason = fmt.Sprintf("Within %.0f km of event epicenter", dist)
				}
			}
		}
		if proximity == 0 && matchesIndustry(parsed, sup) {
			proximity = 0.5
			reason = fmt.Sprintf("Industry exposure: %s", sup.Category)
		}

		if proximity == 0 {
			continue
		}

		affected = append(affected, AffectedSupplier{
			SupplierID:       sup.ID,
			Name:             sup.Name,
			Country:          sup.Country,
			City:             sup.City,
			Category:         sup.Category,
			Criticality:      sup.Criticality,
			Tier:             sup.Tier,
			ProximityScore:   round2(proximity),
			ImpactReason:     reason,
			LeadTimeDays:     sup.LeadTimeDays,
			ReliabilityScore: sup.ReliabilityScore,
		})
	}

	return affected
}

func matchesIndustry(parsed *ParsedEvent, sup *types.Supplier) bool {
	category := strings.ToLower(string(sup.Category))
	for _, kw := range parsed.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(category, kw) {
			return true
		}
	}
	for _, industry := range parsed.KeyIndustries {
		industry = strings.ToLower(strings.TrimSpace(industry))
		if industry != "" && (strings.Contains(category, industry) || strings.Contains(industry, category)) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

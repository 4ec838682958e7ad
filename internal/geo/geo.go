// Package geo provides distance math and alternative-supplier scoring.
package geo

import (
	"math"

	"riskmonitor/internal/types"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLon := deg2rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

// Scoring weights for ranking alternative suppliers. They sum to 1.
const (
	weightDistance    = 0.25
	weightCapacity    = 0.20
	weightReliability = 0.25
	weightLeadTime    = 0.20
	weightTierMatch   = 0.10
)

// AlternativeScore is the weighted suitability of a candidate replacement
// for an affected supplier, with its component breakdown.
type AlternativeScore struct {
	Total       float64 `json:"total_score"`
	Distance    float64 `json:"geographic_distance_score"`
	Capacity    float64 `json:"capacity_availability_score"`
	Reliability float64 `json:"reliability_score"`
	LeadTime    float64 `json:"lead_time_score"`
	TierMatch   float64 `json:"tier_match_score"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
}

// ScoreAlternative ranks candidate as a replacement for affected.
// Higher is better; all component scores are 0..100.
func ScoreAlternative(affected, candidate *types.Supplier) AlternativeScore {
	var score AlternativeScore

	// Geographic: closer is better. Without coordinates, fall back on
	// same-country heuristics.
	if affected.HasCoordinates() && candidate.HasCoordinates() {
		d := HaversineKm(*affected.Latitude, *affected.Longitude,
			*candidate.Latitude, *candidate.Longitude)
		score.DistanceKm = round2(d)
		penalty := math.Min(100, (d/2000)*100)
		score.Distance = 100 - penalty
	} else if affected.Country != candidate.Country {
		score.Distance = 70
	} else {
		score.Distance = 30
	}

	score.Capacity = clamp(100-candidate.CapacityUtilization, 0, 100)
	score.Reliability = clamp(candidate.ReliabilityScore, 0, 100)
	score.LeadTime = math.Max(0, 100-(float64(candidate.LeadTimeDays)/90)*100)

	switch diff := absInt(int(affected.Tier) - int(candidate.Tier)); diff {
	case 0:
		score.TierMatch = 100
	case 1:
		score.TierMatch = 50
	default:
		score.TierMatch = 20
	}

	score.Total = round2(score.Distance*weightDistance +
		score.Capacity*weightCapacity +
		score.Reliability*weightReliability +
		score.LeadTime*weightLeadTime +
		score.TierMatch*weightTierMatch)
	return score
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

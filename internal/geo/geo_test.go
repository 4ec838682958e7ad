package geo

import (
	"math"
	"testing"

	"riskmonitor/internal/types"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"Same point", 48.85, 2.35, 48.85, 2.35, 0, 0.01},
		{"Paris to London", 48.8566, 2.3522, 51.5074, -0.1278, 344, 5},
		{"Shanghai to Rotterdam", 31.2304, 121.4737, 51.9244, 4.4777, 8850, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKm() = %v, want %v ±%v", got, tt.want, tt.tolerance)
			}
		})
	}
}

func coord(v float64) *float64 { return &v }

func TestScoreAlternative_WithCoordinates(t *testing.T) {
	affected := &types.Supplier{
		Country: "China", Tier: types.Tier1,
		Latitude: coord(31.23), Longitude: coord(121.47),
	}
	candidate := &types.Supplier{
		Country: "China", Tier: types.Tier1,
		LeadTimeDays: 30, ReliabilityScore: 90, CapacityUtilization: 60,
		Latitude: coord(31.23), Longitude: coord(121.47),
	}

	score := ScoreAlternative(affected, candidate)
	if score.Distance != 100 {
		t.Errorf("expected perfect distance score for same location, got %v", score.Distance)
	}
	if score.TierMatch != 100 {
		t.Errorf("expected tier match 100, got %v", score.TierMatch)
	}
	if score.Capacity != 40 {
		t.Errorf("expected capacity 40, got %v", score.Capacity)
	}
	// 100*.25 + 40*.20 + 90*.25 + (100-100/3)*.20 + 100*.10
	want := 100*0.25 + 40*0.20 + 90*0.25 + (100-(30.0/90)*100)*0.20 + 100*0.10
	if math.Abs(score.Total-want) > 0.01 {
		t.Errorf("expected total %v, got %v", want, score.Total)
	}
}

func TestScoreAlternative_NoCoordinates(t *testing.T) {
	affected := &types.Supplier{Country: "China", Tier: types.Tier1}

	foreign := &types.Supplier{Country: "Vietnam", Tier: types.Tier2, ReliabilityScore: 80}
	domestic := &types.Supplier{Country: "China", Tier: types.Tier3, ReliabilityScore: 80}

	fs := ScoreAlternative(affected, foreign)
	ds := ScoreAlternative(affected, domestic)

	if fs.Distance != 70 {
		t.Errorf("expected 70 for different country, got %v", fs.Distance)
	}
	if ds.Distance != 30 {
		t.Errorf("expected 30 for same country, got %v", ds.Distance)
	}
	if fs.TierMatch != 50 {
		t.Errorf("expected 50 for adjacent tier, got %v", fs.TierMatch)
	}
	if ds.TierMatch != 20 {
		t.Errorf("expected 20 for distant tier, got %v", ds.TierMatch)
	}
}

func TestScoreAlternative_LongLeadTimeFloorsAtZero(t *testing.T) {
	affected := &types.Supplier{Country: "US", Tier: types.Tier1}
	slow := &types.Supplier{Country: "US", Tier: types.Tier1, LeadTimeDays: 200}

	if s := ScoreAlternative(affected, slow); s.LeadTime != 0 {
		t.Errorf("expected lead time score 0, got %v", s.LeadTime)
	}
}

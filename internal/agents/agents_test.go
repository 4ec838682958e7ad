package agents

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskmonitor/internal/types"
)

// stubCompleter serves canned responses in order. When the queue is empty it
// returns err, or a generic error if err is nil.
type stubCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (s *stubCompleter) next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.responses) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", fmt.Errorf("no stubbed response")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.next()
}

func (s *stubCompleter) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.next()
}

func (s *stubCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, schema map[string]any) (string, error) {
	return s.next()
}

func coordPtr(v float64) *float64 { return &v }

const parserResponse = `{
	"event_type": "Natural Disaster",
	"location": {"country": "Japan", "city": "Osaka", "estimated_latitude": 34.69, "estimated_longitude": 135.5},
	"severity_assessment": {"level": 4, "description": "Major earthquake", "estimated_duration": "2-3 weeks", "affected_radius_km": 300},
	"key_industries_affected": ["Electronics"],
	"summary": "Major earthquake near Osaka disrupting manufacturing",
	"keywords": ["earthquake"]
}`

func TestEventParser_Parse(t *testing.T) {
	parser := NewEventParser(&stubCompleter{responses: []string{parserResponse}})

	parsed, err := parser.Parse(context.Background(), "7.2 magnitude earthquake near Osaka")
	require.NoError(t, err)
	assert.Equal(t, "Natural Disaster", parsed.EventType)
	assert.Equal(t, "Japan", parsed.Location.Country)
	assert.Equal(t, 4, parsed.SeverityAssessment.Level)
	assert.Equal(t, 300.0, parsed.SeverityAssessment.AffectedRadiusKm)
}

func TestEventParser_Parse_Defaults(t *testing.T) {
	resp := `{"event_type": "Other", "location": {"country": "France"}, "severity_assessment": {"level": 9}, "summary": ""}`
	parser := NewEventParser(&stubCompleter{responses: []string{resp}})

	parsed, err := parser.Parse(context.Background(), "something happened in France")
	require.NoError(t, err)
	assert.Equal(t, 5, parsed.SeverityAssessment.Level)
	assert.Equal(t, float64(defaultAffectedRadiusKm), parsed.SeverityAssessment.AffectedRadiusKm)
	assert.Equal(t, "something happened in France", parsed.Summary)
}

func TestEventParser_Parse_Errors(t *testing.T) {
	parser := NewEventParser(&stubCompleter{})

	_, err := parser.Parse(context.Background(), "   ")
	assert.Error(t, err)

	_, err = parser.Parse(context.Background(), "valid input")
	assert.Error(t, err)
}

func testParsedEvent() *ParsedEvent {
	return &ParsedEvent{
		EventType: string(types.EventNaturalDisaster),
		Location: ParsedLocation{
			Country:            "Japan",
			City:               "Osaka",
			EstimatedLatitude:  coordPtr(34.69),
			EstimatedLongitude: coordPtr(135.50),
		},
		SeverityAssessment: SeverityAssessment{Level: 4, AffectedRadiusKm: 300},
		KeyIndustries:      []string{"Electronics"},
		Summary:            "Major earthquake near Osaka",
		Keywords:           []string{"earthquake"},
	}
}

func testSuppliers() []types.Supplier {
	return []types.Supplier{
		{ID: 1, Name: "Osaka Precision", Country: "Japan", City: "Osaka",
			Category: types.CategoryComponents, Criticality: types.CriticalityCritical,
			Tier: types.Tier1, LeadTimeDays: 30, ReliabilityScore: 90},
		{ID: 2, Name: "Tokyo Metals", Country: "Japan", City: "Tokyo",
			Category: types.CategoryRawMaterials, Criticality: types.CriticalityHigh,
			Tier: types.Tier2, LeadTimeDays: 45, ReliabilityScore: 85},
		{ID: 3, Name: "Lyon Chemicals", Country: "France", City: "Lyon",
			Category: types.CategoryRawMaterials, Criticality: types.CriticalityLow,
			Tier: types.Tier3, LeadTimeDays: 20, ReliabilityScore: 80},
		{ID: 4, Name: "Berlin Components", Country: "Germany", City: "Berlin",
			Category: types.CategoryComponents, Criticality: types.CriticalityMedium,
			Tier: types.Tier2, LeadTimeDays: 25, ReliabilityScore: 88},
	}
}

func TestSupplierMatcher_Match(t *testing.T) {
	matcher := NewSupplierMatcher()
	affected := matcher.Match(testParsedEvent(), testSuppliers())

	require.Len(t, affected, 2)

	byID := make(map[int64]AffectedSupplier)
	for _, a := range affected {
		byID[a.SupplierID] = a
	}

	// City match wins over country match.
	assert.Equal(t, 1.0, byID[1].ProximityScore)
	assert.Contains(t, byID[1].ImpactReason, "Osaka")

	// Country match only.
	assert.Equal(t, 0.8, byID[2].ProximityScore)
	assert.Contains(t, byID[2].ImpactReason, "Japan")
}

func TestSupplierMatcher_IndustryMatch(t *testing.T) {
	parsed := testParsedEvent()
	parsed.Location = ParsedLocation{Country: "Taiwan"}
	parsed.Keywords = []string{"components"}

	matcher := NewSupplierMatcher()
	affected := matcher.Match(parsed, testSuppliers())

	require.NotEmpty(t, affected)
	for _, a := range affected {
		assert.Equal(t, 0.5, a.ProximityScore)
		assert.Contains(t, a.ImpactReason, "Industry exposure")
	}
}

func TestSupplierMatcher_RadiusMatch(t *testing.T) {
	parsed := testParsedEvent()
	parsed.Location = ParsedLocation{
		Country:            "Nowhere",
		EstimatedLatitude:  coordPtr(34.69),
		EstimatedLongitude: coordPtr(135.50),
	}
	parsed.Keywords = nil
	parsed.KeyIndustries = nil

	suppliers := []types.Supplier{
		{ID: 10, Name: "Nearby", Country: "Japan", Category: types.CategoryComponents,
			Criticality: types.CriticalityHigh, Tier: types.Tier1,
			Latitude: coordPtr(34.70), Longitude: coordPtr(135.52)},
	}

	affected := NewSupplierMatcher().Match(parsed, suppliers)
	require.Len(t, affected, 1)
	assert.Greater(t, affected[0].ProximityScore, 0.9)
	assert.Contains(t, affected[0].ImpactReason, "km of event epicenter")
}

func TestCascadeAnalyzer_Trace(t *testing.T) {
	suppliers := testSuppliers()
	edges := []types.SupplierDependency{
		{ID: 1, SupplierID: 4, DependsOnID: 1, DependencyType: "sole_source"},
	}
	direct := []AffectedSupplier{
		{SupplierID: 1, Name: "Osaka Precision", ProximityScore: 1.0},
	}

	indirect := NewCascadeAnalyzer().Trace(direct, suppliers, edges)
	require.Len(t, indirect, 1)
	assert.Equal(t, int64(4), indirect[0].SupplierID)
	assert.True(t, indirect[0].Indirect)
	assert.InDelta(t, 0.6, indirect[0].ProximityScore, 0.001)
	assert.Contains(t, indirect[0].ImpactReason, "1 hop")
}

func TestCascadeAnalyzer_Trace_NoEdges(t *testing.T) {
	direct := []AffectedSupplier{{SupplierID: 1, ProximityScore: 1.0}}
	assert.Nil(t, NewCascadeAnalyzer().Trace(direct, testSuppliers(), nil))
}

func TestRiskAnalyzer_Analyze_FallbackSummary(t *testing.T) {
	analyzer := NewRiskAnalyzer(&stubCompleter{err: fmt.Errorf("model unavailable")})

	affected := []AffectedSupplier{
		{SupplierID: 1, Name: "Osaka Precision", Criticality: types.CriticalityCritical,
			Tier: types.Tier1, ProximityScore: 1.0},
		{SupplierID: 2, Name: "Tokyo Metals", Criticality: types.CriticalityHigh,
			Tier: types.Tier2, ProximityScore: 0.8},
	}

	analysis, err := analyzer.Analyze(context.Background(), testParsedEvent(), affected, 4)
	require.NoError(t, err)

	// severity 4: base (4/5)*50 = 40; critical tier-1 at proximity 1.0
	// adds 40 + 15 + 10 = 105 total, capped at 100.
	assert.Equal(t, 100.0, analysis.SupplierImpacts[0].ImpactScore)
	// high tier-2: 40 + 30 + 10 + 8 = 88.
	assert.Equal(t, 88.0, analysis.SupplierImpacts[1].ImpactScore)

	// avg 94 * (0.7 + 0.3*0.5) = 79.9.
	assert.InDelta(t, 79.9, analysis.OverallRiskScore, 0.01)
	assert.Equal(t, "HIGH", analysis.RiskLevel)

	assert.Equal(t, 1, analysis.KeyMetrics.CriticalAffected)
	assert.Equal(t, 1, analysis.KeyMetrics.Tier1Affected)

	// 2 affected, 1 critical: 7+3 = 10 days at $20k/day.
	assert.Equal(t, 10, analysis.FinancialImpact.EstimatedResolutionDays)
	assert.Equal(t, 200000.0, analysis.FinancialImpact.TotalRevenueLoss)
	assert.Equal(t, 170000.0, analysis.FinancialImpact.NetFinancialImpact)

	assert.NotEmpty(t, analysis.RiskSummary.ExecutiveSummary)
	assert.NotEmpty(t, analysis.RiskSummary.TopConcerns)
}

func TestRiskAnalyzer_Analyze_NoAffected(t *testing.T) {
	analyzer := NewRiskAnalyzer(&stubCompleter{err: fmt.Errorf("model unavailable")})

	analysis, err := analyzer.Analyze(context.Background(), testParsedEvent(), nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.0, analysis.OverallRiskScore)
	assert.Equal(t, "MINIMAL", analysis.RiskLevel)
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, "CRITICAL"},
		{80, "CRITICAL"},
		{79.9, "HIGH"},
		{60, "HIGH"},
		{45, "MEDIUM"},
		{25, "LOW"},
		{10, "MINIMAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevel(tt.score), "score %.1f", tt.score)
	}
}

func TestRecommendationGenerator_Alternatives(t *testing.T) {
	gen := NewRecommendationGenerator(&stubCompleter{})

	affected := []AffectedSupplier{
		{SupplierID: 1, Name: "Osaka Precision", Category: types.CategoryComponents},
		{SupplierID: 4, Name: "Berlin Components", Category: types.CategoryComponents, Indirect: true},
	}

	sets := gen.Alternatives(affected, testSuppliers())
	// Indirectly affected suppliers get no alternative search.
	require.Len(t, sets, 1)
	assert.Equal(t, int64(1), sets[0].ForSupplierID)
	// Berlin is same category but itself affected, so excluded.
	assert.Empty(t, sets[0].Options)
}

func TestRecommendationGenerator_Alternatives_Ranked(t *testing.T) {
	gen := NewRecommendationGenerator(&stubCompleter{})

	suppliers := testSuppliers()
	suppliers = append(suppliers, types.Supplier{
		ID: 5, Name: "Seoul Components", Country: "South Korea",
		Category: types.CategoryComponents, Criticality: types.CriticalityMedium,
		Tier: types.Tier1, LeadTimeDays: 15, ReliabilityScore: 95,
	})

	affected := []AffectedSupplier{
		{SupplierID: 1, Name: "Osaka Precision", Category: types.CategoryComponents},
	}

	sets := gen.Alternatives(affected, suppliers)
	require.Len(t, sets, 1)
	require.Len(t, sets[0].Options, 2)
	// Tier-1 Seoul with better lead time and reliability outranks Berlin.
	assert.Equal(t, int64(5), sets[0].Options[0].SupplierID)
	assert.Greater(t, sets[0].Options[0].TotalScore, sets[0].Options[1].TotalScore)
}

func TestRecommendationGenerator_Recommend_Fallback(t *testing.T) {
	gen := NewRecommendationGenerator(&stubCompleter{err: fmt.Errorf("model unavailable")})

	analysis := &RiskAnalysis{
		OverallRiskScore: 75,
		RiskLevel:        "HIGH",
		KeyMetrics:       KeyMetrics{AffectedSuppliers: 2, TotalSuppliers: 4, CriticalAffected: 1, Tier1Affected: 1},
	}

	recs, err := gen.Recommend(context.Background(), testParsedEvent(), analysis, nil)
	require.NoError(t, err)

	require.NotEmpty(t, recs.ImmediateActions)
	assert.Contains(t, recs.ImmediateActions[0].Action, "URGENT:")
	assert.NotEmpty(t, recs.LongTermImprovements)
	assert.NotEmpty(t, recs.ContingencyPlans)

	var tierAction bool
	for _, a := range recs.ImmediateActions {
		if a.Action == "Activate alternative sourcing for affected tier-1 suppliers" {
			tierAction = true
		}
	}
	assert.True(t, tierAction)
}

func TestRecommendationGenerator_Recommend_ModelActionsAppended(t *testing.T) {
	resp := `{"immediate_actions": [{"action": "Check port status", "priority": "MEDIUM", "timeline": "1-2 days"}],
		"short_term_strategies": ["Shift volume to Korean suppliers"]}`
	gen := NewRecommendationGenerator(&stubCompleter{responses: []string{resp}})

	analysis := &RiskAnalysis{RiskLevel: "MEDIUM", KeyMetrics: KeyMetrics{AffectedSuppliers: 1, TotalSuppliers: 4}}
	recs, err := gen.Recommend(context.Background(), testParsedEvent(), analysis, nil)
	require.NoError(t, err)

	// Deterministic actions come first, model actions after.
	assert.NotContains(t, recs.ImmediateActions[0].Action, "URGENT:")
	last := recs.ImmediateActions[len(recs.ImmediateActions)-1]
	assert.Equal(t, "Check port status", last.Action)
	assert.Equal(t, []string{"Shift volume to Korean suppliers"}, recs.ShortTermStrategies)
}

func TestPlaybookGenerator_Generate(t *testing.T) {
	analysis := &RiskAnalysis{OverallRiskScore: 85, RiskLevel: "CRITICAL"}
	recs := &Recommendations{
		ImmediateActions:     []RecommendedAction{{Action: "Call the supplier"}},
		ShortTermStrategies:  []string{"Use air freight"},
		LongTermImprovements: []string{"Dual source", "Nearshore", "Never consulted"},
	}

	pb := NewPlaybookGenerator().Generate(testParsedEvent(), analysis, recs)

	assert.Equal(t, "PB-Major-earthquake-nea", pb.PlaybookID)
	require.Len(t, pb.Phases, 3)
	assert.Contains(t, pb.Phases[0].Actions, "Call the supplier")
	assert.Contains(t, pb.Phases[1].Actions, "Use air freight")
	assert.Contains(t, pb.Phases[2].Actions, "Dual source")
	assert.NotContains(t, pb.Phases[2].Actions, "Never consulted")

	assert.Contains(t, pb.EscalationCriteria[0], "IMMEDIATE ESCALATION")
	assert.Contains(t, pb.SuccessMetrics, "Organization risk score reduced below 65 within 30 days")
	assert.NotEmpty(t, pb.CommunicationPlan.Templates)
}

func TestPlaybookGenerator_TargetFloor(t *testing.T) {
	analysis := &RiskAnalysis{OverallRiskScore: 25, RiskLevel: "LOW"}
	pb := NewPlaybookGenerator().Generate(testParsedEvent(), analysis, &Recommendations{})
	assert.Contains(t, pb.SuccessMetrics, "Organization risk score reduced below 20 within 30 days")
}

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"riskmonitor/internal/geo"
	"riskmonitor/internal/llm"
	"riskmonitor/internal/logging"
	"riskmonitor/internal/types"
)

// maxAlternativesPerSupplier caps the ranked replacement list.
const maxAlternativesPerSupplier = 3

// RecommendationGenerator proposes alternative suppliers and response
// strategy. Alternatives are ranked deterministically; the strategic
// recommendations come from the model with a deterministic fallback.
type RecommendationGenerator struct {
	llm llm.Completer
}

// NewRecommendationGenerator creates the recommender agent.
func NewRecommendationGenerator(completer llm.Completer) *RecommendationGenerator {
	return &RecommendationGenerator{llm: completer}
}

// Alternatives ranks unaffected same-category suppliers as replacements for
// each directly affected supplier.
func (r *RecommendationGenerator) Alternatives(affected []AffectedSupplier, suppliers []types.Supplier) []AlternativeSet {
	affectedIDs := make(map[int64]bool, len(affected))
	for _, a := range affected {
		affectedIDs[a.SupplierID] = true
	}
	byID := make(map[int64]*types.Supplier, len(suppliers))
	for i := range suppliers {
		byID[suppliers[i].ID] = &suppliers[i]
	}

	var sets []AlternativeSet
	for _, a := range affected {
		if a.Indirect {
			continue
		}
		affectedSup, ok := byID[a.SupplierID]
		if !ok {
			continue
		}

		type scored struct {
			sup   *types.Supplier
			score geo.AlternativeScore
		}
		var candidates []scored
		for i := range suppliers {
			cand := &suppliers[i]
			if cand.ID == a.SupplierID || affectedIDs[cand.ID] {
				continue
			}
			if cand.Category != a.Category {
				continue
			}
			candidates = append(candidates, scored{
				sup:   cand,
				score: geo.ScoreAlternative(affectedSup, cand),
			})
		}
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].score.Total > candidates[j].score.Total
		})

		set := AlternativeSet{ForSupplierID: a.SupplierID, ForSupplierName: a.Name}
		for i, c := range candidates {
			if i == maxAlternativesPerSupplier {
				break
			}
			set.Options = append(set.Options, AlternativeOption{
				SupplierID:   c.sup.ID,
				Name:         c.sup.Name,
				Country:      c.sup.Country,
				TotalScore:   c.score.Total,
				DistanceKm:   c.score.DistanceKm,
				LeadTimeDays: c.sup.LeadTimeDays,
				Reliability:  c.sup.ReliabilityScore,
			})
		}
		sets = append(sets, set)
	}
	return sets
}

const recommenderSystemPrompt = `You are a supply chain resilience consultant.
Respond with JSON only.`

func recommendationsSchema() map[string]any {
	action := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":   map[string]any{"type": "string"},
			"priority": map[string]any{"type": "string"},
			"timeline": map[string]any{"type": "string"},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"immediate_actions":      map[string]any{"type": "array", "items": action},
			"short_term_strategies":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"long_term_improvements": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"contingency_plans":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"immediate_actions"},
	}
}

// Recommend produces the full recommendation set for an analyzed event.
func (r *RecommendationGenerator) Recommend(ctx context.Context, parsed *ParsedEvent, analysis *RiskAnalysis, alternatives []AlternativeSet) (*Recommendations, error) {
	recs, err := r.generateStrategic(ctx, parsed, analysis, alternatives)
	if err != nil {
		logging.Get(logging.CategoryAgents).Warn("strategic recommendations failed, using fallback", zap.Error(err))
		recs = &Recommendations{}
	}

	// Deterministic immediate actions lead the list regardless of what the
	// model produced.
	recs.ImmediateActions = append(immediateActions(analysis), recs.ImmediateActions...)

	if len(recs.LongTermImprovements) == 0 {
		recs.LongTermImprovements = defaultLongTermImprovements()
	}
	if len(recs.ContingencyPlans) == 0 {
		recs.ContingencyPlans = []string{
			"Maintain pre-qualified alternative suppliers for all critical categories",
			"Establish emergency inventory reserves for long-lead components",
		}
	}
	return recs, nil
}

func (r *RecommendationGenerator) generateStrategic(ctx context.Context, parsed *ParsedEvent, analysis *RiskAnalysis, alternatives []AlternativeSet) (*Recommendations, error) {
	altSummary := "none identified"
	if n := len(alternatives); n > 0 {
		altSummary = fmt.Sprintf("%d affected suppliers have ranked alternatives available", n)
	}

	userPrompt := fmt.Sprintf(`Event: %s (%s, severity %d/5)
Overall risk: %.1f (%s); %d of %d suppliers affected, %d critical.
Alternative sourcing: %s.

Produce strategic recommendations: immediate actions (with priority HIGH/MEDIUM/LOW and timeline), short term strategies, long term improvements, and contingency plans.`,
		parsed.Summary, parsed.EventType, parsed.SeverityAssessment.Level,
		analysis.OverallRiskScore, analysis.RiskLevel,
		analysis.KeyMetrics.AffectedSuppliers, analysis.KeyMetrics.TotalSuppliers,
		analysis.KeyMetrics.CriticalAffected, altSummary)

	raw, err := r.llm.CompleteJSON(ctx, recommenderSystemPrompt, userPrompt, recommendationsSchema())
	if err != nil {
		return nil, err
	}

	var recs Recommendations
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &recs); err != nil {
		return nil, fmt.Errorf("recommendations response invalid: %w", err)
	}
	return &recs, nil
}

func immediateActions(analysis *RiskAnalysis) []RecommendedAction {
	var actions []RecommendedAction

	contact := RecommendedAction{
		Action:   "Contact all affected suppliers to confirm operational status and revised delivery schedules",
		Priority: "HIGH",
		Timeline: "0-24 hours",
	}
	if analysis.KeyMetrics.CriticalAffected > 0 {
		contact.Action = "URGENT: " + contact.Action
	}
	actions = append(actions, contact)

	actions = append(actions, RecommendedAction{
		Action:   "Assess current inventory coverage for all affected categories",
		Priority: "HIGH",
		Timeline: "0-24 hours",
	})
	if analysis.KeyMetrics.Tier1Affected > 0 {
		actions = append(actions, RecommendedAction{
			Action:   "Activate alternative sourcing for affected tier-1 suppliers",
			Priority: "HIGH",
			Timeline: "1-3 days",
		})
	}
	return actions
}

func defaultLongTermImprovements() []string {
	return []string{
		"Diversify the supplier base across geographic regions",
		"Develop dual sourcing for all critical components",
		"Invest in supply chain visibility and early warning tooling",
		"Build strategic inventory buffers for high-risk categories",
		"Review supplier contracts for disruption clauses and penalties",
	}
}

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"go.uber.org/zap"

	"riskmonitor/internal/llm"
	"riskmonitor/internal/logging"
	"riskmonitor/internal/types"
)

// baselinePredictedScore applies when the portfolio shows no structural
// weaknesses.
const baselinePredictedScore = 20.0

// FuturePredictor projects forward-looking risk from the current supplier
// portfolio: deterministic factor scan, model-generated scenarios with a
// deterministic fallback.
type FuturePredictor struct {
	llm llm.Completer
}

// NewFuturePredictor creates the predictor agent.
func NewFuturePredictor(completer llm.Completer) *FuturePredictor {
	return &FuturePredictor{llm: completer}
}

// Predict assesses an organization's portfolio over the given horizon
// (30, 60, or 90 days).
func (p *FuturePredictor) Predict(ctx context.Context, org *types.Organization, suppliers []types.Supplier, periodDays int) (*PredictionResult, error) {
	if periodDays != 30 && periodDays != 60 && periodDays != 90 {
		return nil, fmt.Errorf("prediction period must be 30, 60, or 90 days, got %d", periodDays)
	}
	if len(suppliers) == 0 {
		return nil, fmt.Errorf("organization has no suppliers to assess")
	}

	factors := portfolioRiskFactors(suppliers)

	score := baselinePredictedScore
	if len(factors) > 0 {
		var sum float64
		for _, f := range factors {
			sum += f.Likelihood * f.PotentialImpact
		}
		score = math.Round(sum/float64(len(factors))*100) / 100
	}

	scenarios, err := p.generateScenarios(ctx, org, factors, periodDays)
	if err != nil {
		logging.Get(logging.CategoryAgents).Warn("scenario generation failed, using fallback", zap.Error(err))
		scenarios = fallbackScenarios(factors, periodDays)
	}

	return &PredictionResult{
		PredictedRiskScore: math.Min(100, score),
		RiskFactors:        factors,
		Scenarios:          scenarios,
		Recommendations:    proactiveRecommendations(factors),
		ConfidenceLevel:    confidenceLevel(suppliers),
	}, nil
}

// portfolioRiskFactors scans the supplier portfolio for structural
// weaknesses.
func portfolioRiskFactors(suppliers []types.Supplier) []RiskFactor {
	var factors []RiskFactor
	total := float64(len(suppliers))

	// Geographic concentration.
	byCountry := make(map[string]int)
	for _, s := range suppliers {
		byCountry[s.Country]++
	}
	for country, count := range byCountry {
		share := float64(count) / total
		if share > 0.5 {
			likelihood := 0.5
			if share > 0.7 {
				likelihood = 0.7
			}
			factors = append(factors, RiskFactor{
				RiskType: "geographic_concentration",
				Description: fmt.Sprintf("%.0f%% of suppliers are located in %s",
					share*100, country),
				Likelihood:      likelihood,
				PotentialImpact: 75,
			})
		}
	}

	// Critical dependency share.
	var criticalCount int
	for _, s := range suppliers {
		if s.Criticality == types.CriticalityCritical {
			criticalCount++
		}
	}
	if share := float64(criticalCount) / total; share > 0.2 {
		factors = append(factors, RiskFactor{
			RiskType: "critical_dependency",
			Description: fmt.Sprintf("%.0f%% of suppliers are rated Critical",
				share*100),
			Likelihood:      0.45,
			PotentialImpact: 85,
		})
	}

	// Tier-1 concentration.
	var tier1Count int
	for _, s := range suppliers {
		if s.Tier == types.Tier1 {
			tier1Count++
		}
	}
	if share := float64(tier1Count) / total; share > 0.6 {
		factors = append(factors, RiskFactor{
			RiskType: "tier1_concentration",
			Description: fmt.Sprintf("%.0f%% of suppliers are tier-1 with no buffering layers",
				share*100),
			Likelihood:      0.4,
			PotentialImpact: 70,
		})
	}

	// Low average reliability.
	var reliabilitySum float64
	for _, s := range suppliers {
		reliabilitySum += s.ReliabilityScore
	}
	if avg := reliabilitySum / total; avg < 70 {
		factors = append(factors, RiskFactor{
			RiskType:        "low_reliability",
			Description:     fmt.Sprintf("Average supplier reliability is %.1f", avg),
			Likelihood:      0.55,
			PotentialImpact: 65,
		})
	}

	// Capacity saturation.
	var capacitySum float64
	for _, s := range suppliers {
		capacitySum += s.CapacityUtilization
	}
	if avg := capacitySum / total; avg > 85 {
		factors = append(factors, RiskFactor{
			RiskType:        "capacity_saturation",
			Description:     fmt.Sprintf("Average capacity utilization is %.1f%%, leaving little surge headroom", avg),
			Likelihood:      0.5,
			PotentialImpact: 60,
		})
	}

	// Long lead times.
	var leadSum int
	for _, s := range suppliers {
		leadSum += s.LeadTimeDays
	}
	if avg := float64(leadSum) / total; avg > 60 {
		factors = append(factors, RiskFactor{
			RiskType:        "long_lead_times",
			Description:     fmt.Sprintf("Average lead time is %.0f days, slowing any recovery", avg),
			Likelihood:      0.45,
			PotentialImpact: 55,
		})
	}

	return factors
}

const predictorSystemPrompt = `You are a supply chain risk forecaster.
Respond with JSON only.`

func scenariosSchema() map[string]any {
	scenario := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timeframe":           map[string]any{"type": "string"},
			"risk_scenario":       map[string]any{"type": "string"},
			"probability":         map[string]any{"type": "string"},
			"estimated_impact":    map[string]any{"type": "string"},
			"early_warning_signs": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"preventive_actions":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"predictions": map[string]any{"type": "array", "items": scenario},
		},
		"required": []string{"predictions"},
	}
}

func (p *FuturePredictor) generateScenarios(ctx context.Context, org *types.Organization, factors []RiskFactor, periodDays int) ([]FutureScenario, error) {
	factorLines := "none detected"
	if len(factors) > 0 {
		factorLines = ""
		for _, f := range factors {
			factorLines += fmt.Sprintf("- %s: %s (likelihood %.0f%%, impact %.0f/100)\n",
				f.RiskType, f.Description, f.Likelihood*100, f.PotentialImpact)
		}
	}

	userPrompt := fmt.Sprintf(`Organization: %s (%s industry)
Prediction horizon: %d days
Portfolio risk factors:
%s
Predict 2-4 plausible risk scenarios for this horizon. For each give a timeframe, the scenario, probability (low/medium/high), estimated impact, early warning signs, and preventive actions.`,
		org.Name, org.Industry, periodDays, factorLines)

	raw, err := p.llm.CompleteJSON(ctx, predictorSystemPrompt, userPrompt, scenariosSchema())
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Predictions []FutureScenario `json:"predictions"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &wrapper); err != nil {
		return nil, fmt.Errorf("scenario response invalid: %w", err)
	}
	if len(wrapper.Predictions) == 0 {
		return nil, fmt.Errorf("scenario response empty")
	}
	return wrapper.Predictions, nil
}

func fallbackScenarios(factors []RiskFactor, periodDays int) []FutureScenario {
	scenario := FutureScenario{
		Timeframe:       fmt.Sprintf("next %d days", periodDays),
		RiskScenario:    "Disruption at a concentrated or critical supplier cluster",
		Probability:     "medium",
		EstimatedImpact: "Delays across dependent product lines",
		EarlyWarningSigns: []string{
			"Supplier delivery performance degradation",
			"Regional news events near supplier clusters",
		},
		PreventiveActions: []string{
			"Qualify alternative suppliers in unaffected regions",
			"Increase inventory buffers for critical components",
		},
	}
	if len(factors) > 0 {
		scenario.RiskScenario = factors[0].Description
	}
	return []FutureScenario{scenario}
}

// proactiveRecommendations maps detected factor types onto concrete steps,
// capped at five.
func proactiveRecommendations(factors []RiskFactor) []string {
	byType := map[string]string{
		"geographic_concentration": "Diversify sourcing into at least one additional region",
		"critical_dependency":      "Establish dual sourcing for every supplier rated Critical",
		"tier1_concentration":      "Develop tier-2 visibility and backup agreements",
		"low_reliability":          "Launch supplier development programs for underperforming vendors",
		"capacity_saturation":      "Negotiate reserved capacity or add overflow suppliers",
		"long_lead_times":          "Nearshore long-lead components or pre-position inventory",
	}

	var recs []string
	seen := make(map[string]bool)
	for _, f := range factors {
		if rec, ok := byType[f.RiskType]; ok && !seen[f.RiskType] {
			seen[f.RiskType] = true
			recs = append(recs, rec)
		}
		if len(recs) == 5 {
			break
		}
	}
	if len(recs) == 0 {
		recs = append(recs, "Maintain current monitoring cadence; portfolio shows no structural weaknesses")
	}
	return recs
}

// confidenceLevel grows with portfolio size and data completeness.
func confidenceLevel(suppliers []types.Supplier) float64 {
	confidence := 50.0

	switch n := len(suppliers); {
	case n >= 20:
		confidence += 15
	case n >= 10:
		confidence += 10
	case n >= 5:
		confidence += 5
	}

	var withCoords, withReliability int
	for _, s := range suppliers {
		if s.HasCoordinates() {
			withCoords++
		}
		if s.ReliabilityScore > 0 {
			withReliability++
		}
	}
	confidence += float64(withCoords) / float64(len(suppliers)) * 20
	if withReliability > 0 {
		confidence += 15
	}

	return math.Round(math.Min(100, confidence)*100) / 100
}

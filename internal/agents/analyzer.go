package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"riskmonitor/internal/llm"
	"riskmonitor/internal/logging"
	"riskmonitor/internal/types"
)

// Per-supplier cost assumptions for the financial estimate.
const (
	dailyRevenuePerSupplier      = 10000
	expeditedShippingPerSupplier = 5000
	altSourcingPerSupplier       = 10000
	mitigationPerSupplier        = 15000
	baseResolutionDays           = 7
	extraDaysPerCritical         = 3
)

// RiskAnalyzer scores the matched suppliers and produces the overall
// assessment. Scoring is deterministic; the narrative summary comes from
// the model with a deterministic fallback.
type RiskAnalyzer struct {
	llm llm.Completer
}

// NewRiskAnalyzer creates the analyzer agent.
func NewRiskAnalyzer(completer llm.Completer) *RiskAnalyzer {
	return &RiskAnalyzer{llm: completer}
}

// Analyze computes per-supplier impact, the overall risk score, financial
// estimates, and the narrative summary.
func (a *RiskAnalyzer) Analyze(ctx context.Context, parsed *ParsedEvent, affected []AffectedSupplier, totalSuppliers int) (*RiskAnalysis, error) {
	severity := parsed.SeverityAssessment.Level
	if severity < 1 {
		severity = 1
	}
	if severity > 5 {
		severity = 5
	}

	impacts := make([]AffectedSupplier, len(affected))
	copy(impacts, affected)
	for i := range impacts {
		impacts[i].ImpactScore = supplierImpactScore(severity, &impacts[i])
	}
	sort.Slice(impacts, func(i, j int) bool {
		return impacts[i].ImpactScore > impacts[j].ImpactScore
	})

	overall := overallRiskScore(impacts, totalSuppliers)

	metrics := KeyMetrics{
		TotalSuppliers:    totalSuppliers,
		AffectedSuppliers: len(impacts),
	}
	for _, s := range impacts {
		if s.Criticality == types.CriticalityCritical {
			metrics.CriticalAffected++
		}
		if s.Tier == types.Tier1 {
			metrics.Tier1Affected++
		}
		if s.Indirect {
			metrics.IndirectlyAffected++
		}
	}

	analysis := &RiskAnalysis{
		OverallRiskScore: overall,
		RiskLevel:        RiskLevel(overall),
		SupplierImpacts:  impacts,
		FinancialImpact:  estimateFinancialImpact(len(impacts), metrics.CriticalAffected),
		KeyMetrics:       metrics,
	}

	summary, err := a.generateSummary(ctx, parsed, analysis)
	if err != nil {
		logging.Get(logging.CategoryAgents).Warn("summary generation failed, using fallback", zap.Error(err))
		summary = fallbackSummary(parsed, analysis)
	}
	analysis.RiskSummary = *summary

	return analysis, nil
}

// supplierImpactScore combines severity, criticality, tier, and proximity
// into a 0-100 impact score.
func supplierImpactScore(severity int, s *AffectedSupplier) float64 {
	score := (float64(severity)/5)*50 +
		s.Criticality.RiskBonus() +
		s.Tier.RiskBonus() +
		s.ProximityScore*10
	return math.Round(math.Min(100, score)*100) / 100
}

// overallRiskScore is the average impact weighted by the affected fraction
// of the portfolio.
func overallRiskScore(impacts []AffectedSupplier, totalSuppliers int) float64 {
	if len(impacts) == 0 {
		return 0
	}
	var sum float64
	for _, s := range impacts {
		sum += s.ImpactScore
	}
	avg := sum / float64(len(impacts))

	affectedFraction := 1.0
	if totalSuppliers > 0 {
		affectedFraction = float64(len(impacts)) / float64(totalSuppliers)
		if affectedFraction > 1 {
			affectedFraction = 1
		}
	}
	overall := avg * (0.7 + 0.3*affectedFraction)
	return math.Round(math.Min(100, overall)*100) / 100
}

// RiskLevel maps a 0-100 score onto the five-level scale.
func RiskLevel(score float64) string {
	switch {
	case score >= 80:
		return "CRITICAL"
	case score >= 60:
		return "HIGH"
	case score >= 40:
		return "MEDIUM"
	case score >= 20:
		return "LOW"
	default:
		return "MINIMAL"
	}
}

func estimateFinancialImpact(affectedCount, criticalCount int) FinancialImpact {
	n := float64(affectedCount)
	days := baseResolutionDays + extraDaysPerCritical*criticalCount
	daily := n * dailyRevenuePerSupplier
	totalLoss := daily * float64(days)
	mitigation := n * mitigationPerSupplier
	return FinancialImpact{
		EstimatedDailyRevenueLoss: daily,
		EstimatedResolutionDays:   days,
		TotalRevenueLoss:          totalLoss,
		ExpeditedShippingCost:     n * expeditedShippingPerSupplier,
		AlternativeSourcingCost:   n * altSourcingPerSupplier,
		TotalMitigationCost:       mitigation,
		NetFinancialImpact:        totalLoss - mitigation,
	}
}

const analyzerSystemPrompt = `You are a supply chain risk officer writing for executives.
Respond with JSON only.`

func summarySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"executive_summary":    map[string]any{"type": "string"},
			"top_3_concerns":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"immediate_priorities": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"estimated_timeline":   map[string]any{"type": "string"},
		},
		"required": []string{"executive_summary"},
	}
}

func (a *RiskAnalyzer) generateSummary(ctx context.Context, parsed *ParsedEvent, analysis *RiskAnalysis) (*RiskSummary, error) {
	var top []string
	for i, s := range analysis.SupplierImpacts {
		if i == 3 {
			break
		}
		top = append(top, fmt.Sprintf("%s (%s, tier %d, impact %.1f)", s.Name, s.Criticality, s.Tier, s.ImpactScore))
	}

	userPrompt := fmt.Sprintf(`Event: %s
Type: %s
Severity: %d/5
Overall risk score: %.1f (%s)
Affected suppliers: %d of %d (%d critical, %d tier-1)
Most impacted: %s
Estimated resolution: %d days, net financial impact $%.0f

Write an executive summary (2-3 sentences), the top 3 concerns, the immediate priorities, and an estimated disruption timeline.`,
		parsed.Summary, parsed.EventType, parsed.SeverityAssessment.Level,
		analysis.OverallRiskScore, analysis.RiskLevel,
		analysis.KeyMetrics.AffectedSuppliers, analysis.KeyMetrics.TotalSuppliers,
		analysis.KeyMetrics.CriticalAffected, analysis.KeyMetrics.Tier1Affected,
		strings.Join(top, "; "),
		analysis.FinancialImpact.EstimatedResolutionDays,
		analysis.FinancialImpact.NetFinancialImpact)

	raw, err := a.llm.CompleteJSON(ctx, analyzerSystemPrompt, userPrompt, summarySchema())
	if err != nil {
		return nil, err
	}

	var summary RiskSummary
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &summary); err != nil {
		return nil, fmt.Errorf("summary response invalid: %w", err)
	}
	if summary.ExecutiveSummary == "" {
		return nil, fmt.Errorf("summary response empty")
	}
	return &summary, nil
}

func fallbackSummary(parsed *ParsedEvent, analysis *RiskAnalysis) *RiskSummary {
	m := analysis.KeyMetrics
	summary := &RiskSummary{
		ExecutiveSummary: fmt.Sprintf(
			"%s event affecting %d of %d suppliers with an overall risk score of %.1f (%s).",
			parsed.EventType, m.AffectedSuppliers, m.TotalSuppliers,
			analysis.OverallRiskScore, analysis.RiskLevel),
		EstimatedTimeline: fmt.Sprintf("Approximately %d days to resolution",
			analysis.FinancialImpact.EstimatedResolutionDays),
	}
	if m.CriticalAffected > 0 {
		summary.TopConcerns = append(summary.TopConcerns,
			fmt.Sprintf("%d critical suppliers affected", m.CriticalAffected))
	}
	if m.Tier1Affected > 0 {
		summary.TopConcerns = append(summary.TopConcerns,
			fmt.Sprintf("%d tier-1 suppliers affected", m.Tier1Affected))
	}
	summary.TopConcerns = append(summary.TopConcerns,
		fmt.Sprintf("Estimated net financial impact of $%.0f", analysis.FinancialImpact.NetFinancialImpact))
	summary.ImmediatePriorities = []string{
		"Contact affected suppliers to confirm operational status",
		"Review inventory buffers for affected categories",
	}
	return summary
}

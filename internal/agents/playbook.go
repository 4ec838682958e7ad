package agents

import (
	"fmt"
	"strings"
)

// PlaybookGenerator assembles the phased response plan. Fully templated:
// content merges the analysis and recommendations, no model call.
type PlaybookGenerator struct{}

// NewPlaybookGenerator creates the playbook agent.
func NewPlaybookGenerator() *PlaybookGenerator {
	return &PlaybookGenerator{}
}

// Generate builds the playbook for an analyzed event.
func (g *PlaybookGenerator) Generate(parsed *ParsedEvent, analysis *RiskAnalysis, recs *Recommendations) *Playbook {
	pb := &Playbook{
		PlaybookID: playbookID(parsed.Summary),
	}

	day1 := PlaybookPhase{
		Name:      "Day 1: Immediate Response",
		Timeframe: "0-24 hours",
		Actions: []string{
			"Convene the supply chain crisis team",
			"Confirm operational status of every affected supplier",
			"Freeze non-essential outbound commitments against affected inventory",
		},
	}
	for i, a := range recs.ImmediateActions {
		if i == 3 {
			break
		}
		day1.Actions = append(day1.Actions, a.Action)
	}

	week1 := PlaybookPhase{
		Name:      "Week 1: Stabilization",
		Timeframe: "1-7 days",
		Actions: []string{
			"Qualify and engage ranked alternative suppliers",
			"Re-plan production schedules around confirmed supply",
			"Establish daily status reporting with affected suppliers",
		},
	}
	for i, s := range recs.ShortTermStrategies {
		if i == 3 {
			break
		}
		week1.Actions = append(week1.Actions, s)
	}

	month1 := PlaybookPhase{
		Name:      "Month 1: Recovery and Hardening",
		Timeframe: "1-4 weeks",
		Actions: []string{
			"Restore normal order flow and verify supplier recovery",
			"Run a post-incident review and update risk thresholds",
		},
	}
	for i, s := range recs.LongTermImprovements {
		if i == 2 {
			break
		}
		month1.Actions = append(month1.Actions, s)
	}

	pb.Phases = []PlaybookPhase{day1, week1, month1}

	pb.SuccessMetrics = []string{
		"All affected suppliers contacted within 24 hours",
		"Alternative sourcing secured for every critical supplier within 7 days",
		"No production stoppage exceeding 48 hours",
		fmt.Sprintf("Organization risk score reduced below %.0f within 30 days", targetRiskScore(analysis.OverallRiskScore)),
		"Customer commitments met or renegotiated within the first week",
	}

	pb.EscalationCriteria = []string{
		"Any critical supplier confirms an outage longer than 72 hours",
		"Inventory coverage for an affected category drops below 7 days",
		"Estimated financial impact grows beyond twice the initial projection",
	}
	if analysis.RiskLevel == "CRITICAL" {
		pb.EscalationCriteria = append(
			[]string{"IMMEDIATE ESCALATION: overall risk is CRITICAL; notify the executive team now"},
			pb.EscalationCriteria...)
	}

	pb.CommunicationPlan = CommunicationPlan{
		InternalStakeholders: []string{
			"Chief Operating Officer",
			"Supply chain management team",
			"Production planning",
			"Sales and account management",
		},
		ExternalStakeholders: []string{
			"Affected suppliers",
			"Alternative suppliers under evaluation",
			"Key customers with at-risk orders",
			"Logistics partners",
		},
		Templates: map[string]string{
			"supplier_status_request": "We are assessing the impact of a recent disruption. Please confirm your current operational status and any expected delays to open orders.",
			"customer_notice":         "We are actively managing a supply chain disruption that may affect delivery schedules. We will provide a firm update within 48 hours.",
		},
	}

	return pb
}

func playbookID(summary string) string {
	s := strings.TrimSpace(summary)
	if len(s) > 20 {
		s = s[:20]
	}
	s = strings.ReplaceAll(s, " ", "-")
	return "PB-" + s
}

func targetRiskScore(current float64) float64 {
	target := current - 20
	if target < 20 {
		target = 20
	}
	return target
}

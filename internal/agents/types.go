// Package agents implements the event analysis pipeline: parse, match,
// cascade, analyze, recommend, playbook, plus forward risk prediction.
package agents

import (
	"riskmonitor/internal/types"
)

// ParsedEvent is the structured form of a free-text event report.
type ParsedEvent struct {
	EventType          string             `json:"event_type"`
	Location           ParsedLocation     `json:"location"`
	SeverityAssessment SeverityAssessment `json:"severity_assessment"`
	KeyIndustries      []string           `json:"key_industries_affected"`
	Summary            string             `json:"summary"`
	Keywords           []string           `json:"keywords"`
}

// ParsedLocation is the geographic extraction from an event report.
type ParsedLocation struct {
	Country            string   `json:"country"`
	City               string   `json:"city"`
	Region             string   `json:"region"`
	EstimatedLatitude  *float64 `json:"estimated_latitude"`
	EstimatedLongitude *float64 `json:"estimated_longitude"`
}

// SeverityAssessment grades the event.
type SeverityAssessment struct {
	Level             int     `json:"level"` // 1-5
	Description       string  `json:"description"`
	EstimatedDuration string  `json:"estimated_duration"`
	AffectedRadiusKm  float64 `json:"affected_radius_km"`
}

// AffectedSupplier is one supplier matched to an event, with exposure detail.
type AffectedSupplier struct {
	SupplierID       int64                  `json:"supplier_id"`
	Name             string                 `json:"name"`
	Country          string                 `json:"country"`
	City             string                 `json:"city,omitempty"`
	Category         types.SupplierCategory `json:"category"`
	Criticality      types.Criticality      `json:"criticality"`
	Tier             types.Tier             `json:"tier"`
	ProximityScore   float64                `json:"proximity_score"`
	ImpactReason     string                 `json:"impact_reason"`
	LeadTimeDays     int                    `json:"lead_time_days"`
	ReliabilityScore float64                `json:"reliability_score"`
	ImpactScore      float64                `json:"impact_score,omitempty"`
	Indirect         bool                   `json:"indirect,omitempty"`
}

// RiskAnalysis is the scored assessment of an event's supply chain impact.
type RiskAnalysis struct {
	OverallRiskScore float64            `json:"overall_risk_score"`
	RiskLevel        string             `json:"risk_level"` // MINIMAL..CRITICAL
	SupplierImpacts  []AffectedSupplier `json:"supplier_impacts"`
	FinancialImpact  FinancialImpact    `json:"financial_impact"`
	RiskSummary      RiskSummary        `json:"risk_summary"`
	KeyMetrics       KeyMetrics         `json:"key_metrics"`
}

// FinancialImpact estimates disruption cost in rough dollar figures.
type FinancialImpact struct {
	EstimatedDailyRevenueLoss float64 `json:"estimated_daily_revenue_loss"`
	EstimatedResolutionDays   int     `json:"estimated_resolution_days"`
	TotalRevenueLoss          float64 `json:"total_revenue_loss"`
	ExpeditedShippingCost     float64 `json:"expedited_shipping_cost"`
	AlternativeSourcingCost   float64 `json:"alternative_sourcing_cost"`
	TotalMitigationCost       float64 `json:"total_mitigation_cost"`
	NetFinancialImpact        float64 `json:"net_financial_impact"`
}

// RiskSummary is the narrative portion of the analysis.
type RiskSummary struct {
	ExecutiveSummary    string   `json:"executive_summary"`
	TopConcerns         []string `json:"top_3_concerns"`
	ImmediatePriorities []string `json:"immediate_priorities"`
	EstimatedTimeline   string   `json:"estimated_timeline"`
}

// KeyMetrics summarizes the affected portfolio.
type KeyMetrics struct {
	TotalSuppliers     int `json:"total_suppliers"`
	AffectedSuppliers  int `json:"affected_suppliers"`
	CriticalAffected   int `json:"critical_suppliers_affected"`
	Tier1Affected      int `json:"tier_1_affected"`
	IndirectlyAffected int `json:"indirectly_affected"`
}

// RecommendedAction is one concrete step with priority and timing.
type RecommendedAction struct {
	Action   string `json:"action"`
	Priority string `json:"priority"` // HIGH, MEDIUM, LOW
	Timeline string `json:"timeline"`
}

// Recommendations bundles immediate actions and strategy.
type Recommendations struct {
	ImmediateActions     []RecommendedAction `json:"immediate_actions"`
	ShortTermStrategies  []string            `json:"short_term_strategies"`
	LongTermImprovements []string            `json:"long_term_improvements"`
	ContingencyPlans     []string            `json:"contingency_plans"`
}

// AlternativeOption is one ranked replacement candidate.
type AlternativeOption struct {
	SupplierID   int64   `json:"supplier_id"`
	Name         string  `json:"name"`
	Country      string  `json:"country"`
	TotalScore   float64 `json:"total_score"`
	DistanceKm   float64 `json:"distance_km,omitempty"`
	LeadTimeDays int     `json:"lead_time_days"`
	Reliability  float64 `json:"reliability_score"`
}

// AlternativeSet groups ranked alternatives for one affected supplier.
type AlternativeSet struct {
	ForSupplierID   int64               `json:"for_supplier_id"`
	ForSupplierName string              `json:"for_supplier_name"`
	Options         []AlternativeOption `json:"options"`
}

// Playbook is the phased response plan for an event.
type Playbook struct {
	PlaybookID         string            `json:"playbook_id"`
	Phases             []PlaybookPhase   `json:"phases"`
	SuccessMetrics     []string          `json:"success_metrics"`
	EscalationCriteria []string          `json:"escalation_criteria"`
	CommunicationPlan  CommunicationPlan `json:"communication_plan"`
}

// PlaybookPhase is one time-boxed slice of the response.
type PlaybookPhase struct {
	Name      string   `json:"name"`
	Timeframe string   `json:"timeframe"`
	Actions   []string `json:"actions"`
}

// CommunicationPlan lists stakeholders and message templates.
type CommunicationPlan struct {
	InternalStakeholders []string          `json:"internal_stakeholders"`
	ExternalStakeholders []string          `json:"external_stakeholders"`
	Templates            map[string]string `json:"templates"`
}

// RiskFactor is one portfolio weakness feeding future predictions.
type RiskFactor struct {
	RiskType        string  `json:"risk_type"`
	Description     string  `json:"description"`
	Likelihood      float64 `json:"likelihood"`       // 0-1
	PotentialImpact float64 `json:"potential_impact"` // 0-100
}

// FutureScenario is one model-predicted risk scenario.
type FutureScenario struct {
	Timeframe         string   `json:"timeframe"`
	RiskScenario      string   `json:"risk_scenario"`
	Probability       string   `json:"probability"`
	EstimatedImpact   string   `json:"estimated_impact"`
	EarlyWarningSigns []string `json:"early_warning_signs"`
	PreventiveActions []string `json:"preventive_actions"`
}

// PredictionResult is the full output of the future risk predictor.
type PredictionResult struct {
	PredictedRiskScore float64          `json:"predicted_risk_score"`
	RiskFactors        []RiskFactor     `json:"risk_factors"`
	Scenarios          []FutureScenario `json:"scenarios"`
	Recommendations    []string         `json:"recommendations"`
	ConfidenceLevel    float64          `json:"confidence_level"`
}

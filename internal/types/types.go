// Package types provides shared domain type definitions used across
// riskmonitor packages. Types in this package are foundational data
// structures with no complex dependencies.
package types

import (
	"encoding/json"
	"time"
)

// =============================================================================
// ENUMS
// =============================================================================

// Industry classifies an organization's sector.
type Industry string

const (
	IndustryPharmaceutical Industry = "Pharmaceutical"
	IndustryAutomotive     Industry = "Automotive"
	IndustryElectronics    Industry = "Electronics"
	IndustryFoodBeverage   Industry = "Food & Beverage"
	IndustryOther          Industry = "Other"
)

// Valid reports whether the industry is a known value.
func (i Industry) Valid() bool {
	switch i {
	case IndustryPharmaceutical, IndustryAutomotive, IndustryElectronics,
		IndustryFoodBeverage, IndustryOther:
		return true
	}
	return false
}

// Criticality ranks how essential a supplier is to operations.
type Criticality string

const (
	CriticalityLow      Criticality = "Low"
	CriticalityMedium   Criticality = "Medium"
	CriticalityHigh     Criticality = "High"
	CriticalityCritical Criticality = "Critical"
)

// RiskBonus returns the additive impact contribution for the criticality.
func (c Criticality) RiskBonus() float64 {
	switch c {
	case CriticalityLow:
		return 10
	case CriticalityMedium:
		return 20
	case CriticalityHigh:
		return 30
	case CriticalityCritical:
		return 40
	}
	return 20
}

// Weight returns the normalized criticality weight in [0,1].
func (c Criticality) Weight() float64 {
	switch c {
	case CriticalityLow:
		return 0.25
	case CriticalityMedium:
		return 0.50
	case CriticalityHigh:
		return 0.75
	case CriticalityCritical:
		return 1.0
	}
	return 0.50
}

// Valid reports whether the criticality is a known value.
func (c Criticality) Valid() bool {
	switch c {
	case CriticalityLow, CriticalityMedium, CriticalityHigh, CriticalityCritical:
		return true
	}
	return false
}

// Tier is the supplier tier (1 = direct, 2 = second level, 3 = third level).
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

// RiskBonus returns the additive impact contribution for the tier.
// Closer tiers carry more direct exposure.
func (t Tier) RiskBonus() float64 {
	switch t {
	case Tier1:
		return 15
	case Tier2:
		return 10
	case Tier3:
		return 5
	}
	return 5
}

// Multiplier returns the cascade dampening factor for the tier.
func (t Tier) Multiplier() float64 {
	switch t {
	case Tier1:
		return 1.0
	case Tier2:
		return 0.7
	case Tier3:
		return 0.4
	}
	return 0.4
}

// Valid reports whether the tier is in range.
func (t Tier) Valid() bool { return t >= Tier1 && t <= Tier3 }

// SupplierCategory classifies what a supplier provides.
type SupplierCategory string

const (
	CategoryRawMaterials  SupplierCategory = "Raw Materials"
	CategoryComponents    SupplierCategory = "Components"
	CategoryFinishedGoods SupplierCategory = "Finished Goods"
	CategoryLogistics     SupplierCategory = "Logistics"
	CategoryServices      SupplierCategory = "Services"
)

// Valid reports whether the category is a known value.
func (c SupplierCategory) Valid() bool {
	switch c {
	case CategoryRawMaterials, CategoryComponents, CategoryFinishedGoods,
		CategoryLogistics, CategoryServices:
		return true
	}
	return false
}

// EventType classifies a disruption event.
type EventType string

const (
	EventNaturalDisaster EventType = "Natural Disaster"
	EventGeopolitical    EventType = "Geopolitical"
	EventLaborStrike     EventType = "Labor Strike"
	EventLogistics       EventType = "Logistics"
	EventEconomic        EventType = "Economic"
	EventCyberSecurity   EventType = "Cyber Security"
	EventRegulatory      EventType = "Regulatory"
	EventOther           EventType = "Other"
)

// ProcessingStatus tracks an event through the analysis pipeline.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// FeedKind distinguishes raw feed events from triggered alerts.
type FeedKind string

const (
	FeedEvent FeedKind = "EVENT"
	FeedAlert FeedKind = "ALERT"
)

// =============================================================================
// DOMAIN MODELS
// =============================================================================

// Organization is a company whose supply chain is being monitored.
type Organization struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Industry         Industry  `json:"industry"`
	Headquarters     string    `json:"headquarters_location"`
	Description      string    `json:"description,omitempty"`
	ShippingRoute    []string  `json:"shipping_route,omitempty"`
	CurrentRiskScore float64   `json:"current_risk_score"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Populated on detail reads only.
	Suppliers []Supplier `json:"suppliers,omitempty"`
}

// Supplier is a single node in an organization's supply chain.
type Supplier struct {
	ID                  int64            `json:"id"`
	OrganizationID      int64            `json:"organization_id"`
	Name                string           `json:"name"`
	Country             string           `json:"country"`
	City                string           `json:"city,omitempty"`
	Category            SupplierCategory `json:"category"`
	Criticality         Criticality      `json:"criticality"`
	Tier                Tier             `json:"tier"`
	LeadTimeDays        int              `json:"lead_time_days"`
	ReliabilityScore    float64          `json:"reliability_score"`
	CapacityUtilization float64          `json:"capacity_utilization"`
	ContactInfo         string           `json:"contact_info,omitempty"`
	Latitude            *float64         `json:"latitude,omitempty"`
	Longitude           *float64         `json:"longitude,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (s *Supplier) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// SupplierDependency is a directed edge: SupplierID depends on DependsOnID.
type SupplierDependency struct {
	ID             int64     `json:"id"`
	SupplierID     int64     `json:"supplier_id"`
	DependsOnID    int64     `json:"depends_on_supplier_id"`
	DependencyType string    `json:"dependency_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// AgentLogEntry records one pipeline stage's outcome on an event.
type AgentLogEntry struct {
	Agent     string          `json:"agent"`
	Status    string          `json:"status"` // processing, completed, failed
	Timestamp time.Time       `json:"timestamp"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Event is a disruption report and the accumulated pipeline outputs.
type Event struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organization_id"`
	EventInput     string `json:"event_input"`
	SeverityLevel  int    `json:"severity_level"`

	// Populated by the parsing stage.
	Title            string    `json:"title,omitempty"`
	EventType        EventType `json:"event_type,omitempty"`
	Location         string    `json:"location,omitempty"`
	Description      string    `json:"description,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	ImpactAssessment string    `json:"impact_assessment,omitempty"`

	AffectedSupplierCount int     `json:"affected_supplier_count"`
	OverallRiskScore      float64 `json:"overall_risk_score"`

	// Structured pipeline outputs, stored as JSON.
	ParsedEvent          json.RawMessage `json:"parsed_event,omitempty"`
	AffectedSuppliers    json.RawMessage `json:"affected_suppliers,omitempty"`
	RiskAnalysis         json.RawMessage `json:"risk_analysis,omitempty"`
	Recommendations      json.RawMessage `json:"recommendations,omitempty"`
	AlternativeSuppliers json.RawMessage `json:"alternative_suppliers,omitempty"`
	Playbook             json.RawMessage `json:"playbook,omitempty"`
	AgentLogs            []AgentLogEntry `json:"agent_logs,omitempty"`

	ProcessingStatus      ProcessingStatus `json:"processing_status"`
	ProcessingTimeSeconds float64          `json:"processing_time_seconds,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	CompletedAt           *time.Time       `json:"completed_at,omitempty"`
}

// RiskHistoryEntry is one point on an organization's risk timeline.
type RiskHistoryEntry struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	RiskScore      float64   `json:"risk_score"`
	RecordedAt     time.Time `json:"recorded_at"`
	EventID        *int64    `json:"event_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

// FuturePrediction is a stored forward-looking risk assessment.
type FuturePrediction struct {
	ID                 int64           `json:"id"`
	OrganizationID     int64           `json:"organization_id"`
	PeriodDays         int             `json:"prediction_period_days"` // 30, 60, 90
	PredictedRiskScore float64         `json:"predicted_risk_score"`
	RiskFactors        json.RawMessage `json:"risk_factors,omitempty"`
	Recommendations    json.RawMessage `json:"recommendations,omitempty"`
	ConfidenceLevel    float64         `json:"confidence_level"`
	CreatedAt          time.Time       `json:"created_at"`
}

// LiveFeedItem is one persisted row from a live feed poll or alert trigger.
type LiveFeedItem struct {
	ID        int64           `json:"id"`
	Source    string          `json:"source"` // gdelt, noaa, weatherapi, ...
	Kind      FeedKind        `json:"data_type"`
	Severity  string          `json:"severity,omitempty"` // LOW, MEDIUM, HIGH, CRITICAL
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

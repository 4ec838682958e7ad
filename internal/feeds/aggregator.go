package feeds

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"riskmonitor/internal/logging"
	"riskmonitor/internal/types"
)

// SnapshotOptions carries the optional identifiers a supplier record does
// not store.
type SnapshotOptions struct {
	StockTicker string
	PrimaryPort string
}

// RiskSnapshot is the combined view of one supplier across every enhanced
// source.
type RiskSnapshot struct {
	Supplier           string           `json:"supplier"`
	Timestamp          string           `json:"timestamp"`
	Financial          *StockQuote      `json:"financial,omitempty"`
	Shipping           *PortStatus      `json:"shipping,omitempty"`
	Sanctions          *SanctionsResult `json:"sanctions,omitempty"`
	Geopolitical       *ConflictData    `json:"geopolitical,omitempty"`
	Trends             *TrendData       `json:"trends,omitempty"`
	AggregateRiskScore float64          `json:"aggregate_risk_score"`
}

// Aggregator fans out to every enhanced source and combines the results
// into one risk score.
type Aggregator struct {
	financial    *FinancialService
	shipping     *ShippingService
	geopolitical *GeopoliticalService
	trends       *TrendsService
}

// NewAggregator wires the aggregator to its sources.
func NewAggregator(fin *FinancialService, ship *ShippingService, geo *GeopoliticalService, trends *TrendsService) *Aggregator {
	return &Aggregator{financial: fin, shipping: ship, geopolitical: geo, trends: trends}
}

// Snapshot collects all available risk data for one supplier concurrently.
func (a *Aggregator) Snapshot(ctx context.Context, sup *types.Supplier, opts SnapshotOptions) (*RiskSnapshot, error) {
	timer := logging.StartTimer(logging.CategoryFeeds, "risk snapshot")
	defer timer.StopWithThreshold(10 * time.Second)

	snap := &RiskSnapshot{
		Supplier:  sup.Name,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	g, gctx := errgroup.WithContext(ctx)

	if opts.StockTicker != "" {
		g.Go(func() error {
			q := a.financial.Stock(opts.StockTicker)
			snap.Financial = &q
			return nil
		})
	}
	if opts.PrimaryPort != "" {
		g.Go(func() error {
			p := a.shipping.PortStatus(opts.PrimaryPort)
			snap.Shipping = &p
			return nil
		})
	}
	g.Go(func() error {
		r := a.geopolitical.CheckSanctions(gctx, sup.Name)
		snap.Sanctions = &r
		return nil
	})
	if sup.Country != "" {
		g.Go(func() error {
			c := a.geopolitical.Conflict(sup.Country)
			snap.Geopolitical = &c
			return nil
		})
	}
	g.Go(func() error {
		t := a.trends.Interest(sup.Name)
		snap.Trends = &t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.AggregateRiskScore = aggregateRisk(snap)
	return snap, nil
}

// aggregateRisk combines the source signals into a 0-100 score.
func aggregateRisk(snap *RiskSnapshot) float64 {
	score := 0.0

	if snap.Financial != nil {
		switch snap.Financial.AlertLevel {
		case SeverityHigh:
			score += 25
		case SeverityMedium:
			score += 15
		}
	}
	if snap.Shipping != nil {
		score += min(float64(snap.Shipping.CongestionLevel)*2, 20)
	}
	if snap.Sanctions != nil && snap.Sanctions.Sanctioned {
		score += 40
	}
	if snap.Geopolitical != nil {
		score += min(float64(snap.Geopolitical.ConflictLevel)*3, 30)
	}

	return min(score, 100)
}

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"riskmonitor/internal/llm"
	"riskmonitor/internal/logging"
	"riskmonitor/internal/store"
	"riskmonitor/internal/types"
)

// Stage names recorded in the per-event agent log.
const (
	StageParser      = "event_parser"
	StageMatcher     = "supplier_matcher"
	StageCascade     = "cascade_analyzer"
	StageAnalyzer    = "risk_analyzer"
	StageRecommender = "recommendation_generator"
	StagePlaybook    = "playbook_generator"
	StagePredictor   = "future_predictor"
)

// Orchestrator runs the event analysis pipeline: parse, match, cascade,
// analyze, recommend, playbook. Each stage appends to the event's agent log;
// a stage failure marks the event failed and stops the run.
type Orchestrator struct {
	store     *store.Store
	parser    *EventParser
	matcher   *SupplierMatcher
	cascade   *CascadeAnalyzer
	analyzer  *RiskAnalyzer
	recommend *RecommendationGenerator
	playbook  *PlaybookGenerator
	predictor *FuturePredictor
	logger    *zap.Logger
}

// NewOrchestrator wires all pipeline agents to a shared model client and
// store.
func NewOrchestrator(st *store.Store, completer llm.Completer) *Orchestrator {
	return &Orchestrator{
		store:     st,
		parser:    NewEventParser(completer),
		matcher:   &SupplierMatcher{},
		cascade:   &CascadeAnalyzer{},
		analyzer:  NewRiskAnalyzer(completer),
		recommend: NewRecommendationGenerator(completer),
		playbook:  &PlaybookGenerator{},
		predictor: NewFuturePredictor(completer),
		logger:    logging.Get(logging.CategoryAgents),
	}
}

type stageRecorder struct {
	logs []types.AgentLogEntry
}

func (r *stageRecorder) start(agent string) {
	r.logs = append(r.logs, types.AgentLogEntry{
		Agent:     agent,
		Status:    "processing",
		Timestamp: time.Now().UTC(),
	})
}

func (r *stageRecorder) complete(agent string, output any) {
	entry := types.AgentLogEntry{
		Agent:     agent,
		Status:    "completed",
		Timestamp: time.Now().UTC(),
	}
	if output != nil {
		if raw, err := json.Marshal(output); err == nil {
			entry.Output = raw
		}
	}
	r.logs = append(r.logs, entry)
}

func (r *stageRecorder) fail(agent string, err error) {
	r.logs = append(r.logs, types.AgentLogEntry{
		Agent:     agent,
		Status:    "failed",
		Timestamp: time.Now().UTC(),
		Error:     err.Error(),
	})
}

// Run executes the full pipeline for a pending event. The event must already
// exist; Run loads the organization's suppliers and dependency edges, walks
// every stage, and persists the outcome.
func (o *Orchestrator) Run(ctx context.Context, eventID int64) error {
	started := time.Now()
	rec := &stageRecorder{}

	ev, err := o.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event %d: %w", eventID, err)
	}
	org, err := o.store.GetOrganization(ctx, ev.OrganizationID)
	if err != nil {
		return fmt.Errorf("load organization %d: %w", ev.OrganizationID, err)
	}
	suppliers, err := o.store.ListSuppliers(ctx, org.ID)
	if err != nil {
		return fmt.Errorf("load suppliers: %w", err)
	}
	edges, err := o.store.ListOrganizationDependencies(ctx, org.ID)
	if err != nil {
		return fmt.Errorf("load dependencies: %w", err)
	}

	if err := o.store.MarkEventProcessing(ctx, eventID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	o.logger.Info("pipeline started",
		zap.Int64("event_id", eventID),
		zap.Int64("organization_id", org.ID),
		zap.Int("suppliers", len(suppliers)))

	// Stage 1: parse.
	rec.start(StageParser)
	parsed, err := o.parser.Parse(ctx, ev.EventInput)
	if err != nil {
		rec.fail(StageParser, err)
		return o.failRun(ctx, eventID, rec, StageParser, err)
	}
	rec.complete(StageParser, parsed)

	// Stage 2: match suppliers against the parsed event.
	rec.start(StageMatcher)
	affected := o.matcher.Match(parsed, suppliers)
	rec.complete(StageMatcher, map[string]any{"affected_count": len(affected)})

	// Stage 3: cascade through the dependency graph. Non-fatal; direct
	// matches stand on their own if tracing is impossible.
	rec.start(StageCascade)
	affected = append(affected, o.cascade.Trace(affected, suppliers, edges)...)
	rec.complete(StageCascade, map[string]any{"total_affected": len(affected)})

	// Stage 4: risk analysis.
	rec.start(StageAnalyzer)
	analysis, err := o.analyzer.Analyze(ctx, parsed, affected, len(suppliers))
	if err != nil {
		rec.fail(StageAnalyzer, err)
		return o.failRun(ctx, eventID, rec, StageAnalyzer, err)
	}
	rec.complete(StageAnalyzer, map[string]any{
		"overall_risk_score": analysis.OverallRiskScore,
		"risk_level":         analysis.RiskLevel,
	})

	// Stage 5: recommendations and alternative suppliers.
	rec.start(StageRecommender)
	alternatives := o.recommend.Alternatives(affected, suppliers)
	recs, err := o.recommend.Recommend(ctx, parsed, analysis, alternatives)
	if err != nil {
		rec.fail(StageRecommender, err)
		return o.failRun(ctx, eventID, rec, StageRecommender, err)
	}
	rec.complete(StageRecommender, map[string]any{
		"immediate_actions": len(recs.ImmediateActions),
		"alternative_sets":  len(alternatives),
	})

	// Stage 6: response playbook.
	rec.start(StagePlaybook)
	playbook := o.playbook.Generate(parsed, analysis, recs)
	rec.complete(StagePlaybook, map[string]any{"playbook_id": playbook.PlaybookID})

	if err := o.persistCompleted(ctx, ev, org, parsed, affected, analysis, recs, alternatives, playbook, rec, started); err != nil {
		return err
	}

	o.logger.Info("pipeline completed",
		zap.Int64("event_id", eventID),
		zap.Float64("overall_risk_score", analysis.OverallRiskScore),
		zap.String("risk_level", analysis.RiskLevel),
		zap.Duration("elapsed", time.Since(started)))
	return nil
}

func (o *Orchestrator) failRun(ctx context.Context, eventID int64, rec *stageRecorder, stage string, cause error) error {
	o.logger.Error("pipeline stage failed",
		zap.Int64("event_id", eventID),
		zap.String("stage", stage),
		zap.Error(cause))
	if err := o.store.FailEvent(ctx, eventID, rec.logs); err != nil {
		o.logger.Error("failed to record event failure", zap.Int64("event_id", eventID), zap.Error(err))
	}
	return fmt.Errorf("%s stage: %w", stage, cause)
}

func (o *Orchestrator) persistCompleted(ctx context.Context, ev *types.Event, org *types.Organization,
	parsed *ParsedEvent, affected []AffectedSupplier, analysis *RiskAnalysis,
	recs *Recommendations, alternatives []AlternativeSet, playbook *Playbook,
	rec *stageRecorder, started time.Time) error {

	ev.Title = parsed.Summary
	ev.EventType = types.EventType(parsed.EventType)
	ev.Location = parsed.Location.Country
	if parsed.Location.City != "" {
		ev.Location = parsed.Location.City + ", " + parsed.Location.Country
	}
	ev.Description = parsed.Summary
	ev.SeverityLevel = parsed.SeverityAssessment.Level
	ev.Latitude = parsed.Location.EstimatedLatitude
	ev.Longitude = parsed.Location.EstimatedLongitude
	ev.ImpactAssessment = analysis.RiskSummary.ExecutiveSummary
	ev.AffectedSupplierCount = len(affected)
	ev.OverallRiskScore = analysis.OverallRiskScore
	ev.AgentLogs = rec.logs
	ev.ProcessingTimeSeconds = math.Round(time.Since(started).Seconds()*100) / 100

	var err error
	if ev.ParsedEvent, err = json.Marshal(parsed); err != nil {
		return fmt.Errorf("encode parsed event: %w", err)
	}
	if ev.AffectedSuppliers, err = json.Marshal(affected); err != nil {
		return fmt.Errorf("encode affected suppliers: %w", err)
	}
	if ev.RiskAnalysis, err = json.Marshal(analysis); err != nil {
		return fmt.Errorf("encode risk analysis: %w", err)
	}
	if ev.Recommendations, err = json.Marshal(recs); err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	if ev.AlternativeSuppliers, err = json.Marshal(alternatives); err != nil {
		return fmt.Errorf("encode alternatives: %w", err)
	}
	if ev.Playbook, err = json.Marshal(playbook); err != nil {
		return fmt.Errorf("encode playbook: %w", err)
	}

	if err := o.store.CompleteEvent(ctx, ev); err != nil {
		return fmt.Errorf("complete event: %w", err)
	}
	if err := o.store.UpdateOrganizationRiskScore(ctx, org.ID, analysis.OverallRiskScore); err != nil {
		return fmt.Errorf("update organization risk score: %w", err)
	}

	notes := "Risk analysis for: " + truncate(ev.EventInput, 100)
	if _, err := o.store.AppendRiskHistory(ctx, &types.RiskHistoryEntry{
		OrganizationID: org.ID,
		RiskScore:      analysis.OverallRiskScore,
		EventID:        &ev.ID,
		Notes:          notes,
	}); err != nil {
		return fmt.Errorf("append risk history: %w", err)
	}
	return nil
}

// PredictFutureRisks runs the forward-looking predictor for an organization
// and persists the result.
func (o *Orchestrator) PredictFutureRisks(ctx context.Context, orgID int64, periodDays int) (*types.FuturePrediction, error) {
	timer := logging.StartTimer(logging.CategoryAgents, "future prediction")
	defer timer.Stop()

	org, err := o.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization %d: %w", orgID, err)
	}
	suppliers, err := o.store.ListSuppliers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load suppliers: %w", err)
	}

	result, err := o.predictor.Predict(ctx, org, suppliers, periodDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StagePredictor, err)
	}

	factors, err := json.Marshal(result.RiskFactors)
	if err != nil {
		return nil, fmt.Errorf("encode risk factors: %w", err)
	}
	recs, err := json.Marshal(map[string]any{
		"scenarios":       result.Scenarios,
		"recommendations": result.Recommendations,
	})
	if err != nil {
		return nil, fmt.Errorf("encode recommendations: %w", err)
	}

	saved, err := o.store.SavePrediction(ctx, &types.FuturePrediction{
		OrganizationID:     orgID,
		PeriodDays:         periodDays,
		PredictedRiskScore: result.PredictedRiskScore,
		RiskFactors:        factors,
		Recommendations:    recs,
		ConfidenceLevel:    result.ConfidenceLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}

	o.logger.Info("prediction saved",
		zap.Int64("organization_id", orgID),
		zap.Int("period_days", periodDays),
		zap.Float64("predicted_risk_score", result.PredictedRiskScore))
	return saved, nil
}

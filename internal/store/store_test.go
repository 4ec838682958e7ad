package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"riskmonitor/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestOrg(t *testing.T, s *Store) *types.Organization {
	t.Helper()
	org, err := s.CreateOrganization(context.Background(), &types.Organization{
		Name:          "Acme Pharma " + t.Name(),
		Industry:      types.IndustryPharmaceutical,
		Headquarters:  "Basel, Switzerland",
		ShippingRoute: []string{"Basel", "Rotterdam", "Newark"},
	})
	if err != nil {
		t.Fatalf("Failed to create organization: %v", err)
	}
	return org
}

func TestNew_SchemaInitialized(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	required := []string{"organizations", "suppliers", "events", "risk_history", "live_feeds"}
	for _, table := range required {
		if _, ok := stats[table]; !ok {
			t.Errorf("Stats missing table: %s", table)
		}
	}
}

func TestOrganizationCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org := createTestOrg(t, s)
	if org.ID == 0 {
		t.Fatal("expected non-zero id")
	}

	got, err := s.GetOrganization(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetOrganization failed: %v", err)
	}
	if got.Name != org.Name {
		t.Errorf("expected name %q, got %q", org.Name, got.Name)
	}
	if len(got.ShippingRoute) != 3 {
		t.Errorf("expected 3 route stops, got %d", len(got.ShippingRoute))
	}

	// Unique name constraint.
	if _, err := s.CreateOrganization(ctx, &types.Organization{
		Name: org.Name, Industry: types.IndustryOther,
	}); err == nil {
		t.Error("expected error for duplicate name")
	}

	got.Description = "updated"
	updated, err := s.UpdateOrganization(ctx, got)
	if err != nil {
		t.Fatalf("UpdateOrganization failed: %v", err)
	}
	if updated.Description != "updated" {
		t.Errorf("expected updated description, got %q", updated.Description)
	}

	if err := s.UpdateOrganizationRiskScore(ctx, org.ID, 42.5); err != nil {
		t.Fatalf("UpdateOrganizationRiskScore failed: %v", err)
	}
	got, _ = s.GetOrganization(ctx, org.ID)
	if got.CurrentRiskScore != 42.5 {
		t.Errorf("expected risk 42.5, got %v", got.CurrentRiskScore)
	}

	if err := s.DeleteOrganization(ctx, org.ID); err != nil {
		t.Fatalf("DeleteOrganization failed: %v", err)
	}
	if _, err := s.GetOrganization(ctx, org.ID); !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestListOrganizations_Paging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.CreateOrganization(ctx, &types.Organization{
			Name:     string(rune('A'+i)) + " Corp",
			Industry: types.IndustryElectronics,
		}); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	page, err := s.ListOrganizations(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListOrganizations failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 orgs, got %d", len(page))
	}
	if page[0].Name != "C Corp" {
		t.Errorf("expected C Corp first on page, got %s", page[0].Name)
	}
}

func TestSupplierCRUDAndDependencies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := createTestOrg(t, s)

	lat, lon := 31.23, 121.47
	sup, err := s.CreateSupplier(ctx, &types.Supplier{
		OrganizationID:      org.ID,
		Name:                "Shanghai Components",
		Country:             "China",
		City:                "Shanghai",
		Category:            types.CategoryComponents,
		Criticality:         types.CriticalityHigh,
		Tier:                types.Tier1,
		LeadTimeDays:        45,
		ReliabilityScore:    92,
		CapacityUtilization: 80,
		Latitude:            &lat,
		Longitude:           &lon,
	})
	if err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}

	got, err := s.GetSupplier(ctx, sup.ID)
	if err != nil {
		t.Fatalf("GetSupplier failed: %v", err)
	}
	if !got.HasCoordinates() {
		t.Error("expected coordinates to round-trip")
	}
	if got.Criticality != types.CriticalityHigh {
		t.Errorf("expected High criticality, got %s", got.Criticality)
	}

	raw, err := s.CreateSupplier(ctx, &types.Supplier{
		OrganizationID: org.ID,
		Name:           "Inner Mongolia Raw",
		Country:        "China",
		Category:       types.CategoryRawMaterials,
		Criticality:    types.CriticalityMedium,
		Tier:           types.Tier2,
	})
	if err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}

	dep, err := s.AddDependency(ctx, sup.ID, raw.ID, "critical")
	if err != nil {
		t.Fatalf("AddDependency failed: %v", err)
	}
	if dep.DependencyType != "critical" {
		t.Errorf("expected critical type, got %s", dep.DependencyType)
	}

	if _, err := s.AddDependency(ctx, sup.ID, sup.ID, ""); err == nil {
		t.Error("expected error for self-dependency")
	}

	deps, err := s.ListDependencies(ctx, sup.ID)
	if err != nil {
		t.Fatalf("ListDependencies failed: %v", err)
	}
	if len(deps) != 1 || deps[0].DependsOnID != raw.ID {
		t.Errorf("unexpected deps: %+v", deps)
	}

	orgDeps, err := s.ListOrganizationDependencies(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListOrganizationDependencies failed: %v", err)
	}
	if len(orgDeps) != 1 {
		t.Errorf("expected 1 org dep, got %d", len(orgDeps))
	}

	if err := s.RemoveDependency(ctx, dep.ID); err != nil {
		t.Fatalf("RemoveDependency failed: %v", err)
	}

	if err := s.DeleteSupplier(ctx, sup.ID); err != nil {
		t.Fatalf("DeleteSupplier failed: %v", err)
	}
	if _, err := s.GetSupplier(ctx, sup.ID); !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestEventLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := createTestOrg(t, s)

	ev, err := s.CreateEvent(ctx, org.ID, "Earthquake near Taiwan", 4)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if ev.ProcessingStatus != types.StatusPending {
		t.Errorf("expected pending, got %s", ev.ProcessingStatus)
	}

	if err := s.MarkEventProcessing(ctx, ev.ID); err != nil {
		t.Fatalf("MarkEventProcessing failed: %v", err)
	}

	lat, lon := 23.7, 120.9
	ev.Title = "Taiwan Earthquake"
	ev.EventType = types.EventNaturalDisaster
	ev.Location = "Taiwan"
	ev.Latitude = &lat
	ev.Longitude = &lon
	ev.AffectedSupplierCount = 2
	ev.OverallRiskScore = 73.4
	ev.ParsedEvent = json.RawMessage(`{"summary":"quake"}`)
	ev.RiskAnalysis = json.RawMessage(`{"risk_level":"HIGH"}`)
	ev.ProcessingTimeSeconds = 4.2
	ev.AgentLogs = []types.AgentLogEntry{
		{Agent: "EventParser", Status: "completed", Timestamp: time.Now()},
	}

	if err := s.CompleteEvent(ctx, ev); err != nil {
		t.Fatalf("CompleteEvent failed: %v", err)
	}

	got, err := s.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got.ProcessingStatus != types.StatusCompleted {
		t.Errorf("expected completed, got %s", got.ProcessingStatus)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if got.OverallRiskScore != 73.4 {
		t.Errorf("expected risk 73.4, got %v", got.OverallRiskScore)
	}
	if len(got.AgentLogs) != 1 || got.AgentLogs[0].Agent != "EventParser" {
		t.Errorf("unexpected agent logs: %+v", got.AgentLogs)
	}

	var analysis map[string]string
	if err := json.Unmarshal(got.RiskAnalysis, &analysis); err != nil {
		t.Fatalf("risk analysis did not round-trip: %v", err)
	}
	if analysis["risk_level"] != "HIGH" {
		t.Errorf("unexpected analysis: %v", analysis)
	}
}

func TestFailEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := createTestOrg(t, s)

	ev, err := s.CreateEvent(ctx, org.ID, "garbled input", 0)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if ev.SeverityLevel != 3 {
		t.Errorf("expected severity clamp to 3, got %d", ev.SeverityLevel)
	}

	logs := []types.AgentLogEntry{
		{Agent: "EventParser", Status: "failed", Timestamp: time.Now(), Error: "bad json"},
	}
	if err := s.FailEvent(ctx, ev.ID, logs); err != nil {
		t.Fatalf("FailEvent failed: %v", err)
	}

	got, _ := s.GetEvent(ctx, ev.ID)
	if got.ProcessingStatus != types.StatusFailed {
		t.Errorf("expected failed, got %s", got.ProcessingStatus)
	}
	if len(got.AgentLogs) != 1 || got.AgentLogs[0].Error != "bad json" {
		t.Errorf("unexpected logs: %+v", got.AgentLogs)
	}
}

func TestRiskHistoryWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := createTestOrg(t, s)

	old := &types.RiskHistoryEntry{
		OrganizationID: org.ID,
		RiskScore:      10,
		RecordedAt:     time.Now().AddDate(0, 0, -60),
		Notes:          "old entry",
	}
	if _, err := s.AppendRiskHistory(ctx, old); err != nil {
		t.Fatalf("AppendRiskHistory failed: %v", err)
	}

	recent := &types.RiskHistoryEntry{OrganizationID: org.ID, RiskScore: 55}
	if _, err := s.AppendRiskHistory(ctx, recent); err != nil {
		t.Fatalf("AppendRiskHistory failed: %v", err)
	}

	entries, err := s.ListRiskHistory(ctx, org.ID, 30)
	if err != nil {
		t.Fatalf("ListRiskHistory failed: %v", err)
	}
	if len(entries) != 1 || entries[0].RiskScore != 55 {
		t.Errorf("expected only the recent entry, got %+v", entries)
	}

	entries, err = s.ListRiskHistory(ctx, org.ID, 90)
	if err != nil {
		t.Fatalf("ListRiskHistory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries over 90 days, got %d", len(entries))
	}
}

func TestPredictions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := createTestOrg(t, s)

	if _, err := s.LatestPrediction(ctx, org.ID, 30); !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	first := &types.FuturePrediction{
		OrganizationID:     org.ID,
		PeriodDays:         30,
		PredictedRiskScore: 40,
		ConfidenceLevel:    65,
		RiskFactors:        json.RawMessage(`[{"risk_type":"geographic_concentration"}]`),
	}
	if _, err := s.SavePrediction(ctx, first); err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}

	second := &types.FuturePrediction{
		OrganizationID:     org.ID,
		PeriodDays:         30,
		PredictedRiskScore: 52,
		ConfidenceLevel:    70,
	}
	if _, err := s.SavePrediction(ctx, second); err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}

	latest, err := s.LatestPrediction(ctx, org.ID, 30)
	if err != nil {
		t.Fatalf("LatestPrediction failed: %v", err)
	}
	if latest.PredictedRiskScore != 52 {
		t.Errorf("expected latest score 52, got %v", latest.PredictedRiskScore)
	}
}

func TestLiveFeeds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.InsertFeedItem(ctx, &types.LiveFeedItem{
			Source:   "gdelt",
			Kind:     types.FeedEvent,
			Severity: "HIGH",
			Payload:  json.RawMessage(`{"title":"port strike"}`),
		}); err != nil {
			t.Fatalf("InsertFeedItem failed: %v", err)
		}
	}
	if _, err := s.InsertFeedItem(ctx, &types.LiveFeedItem{
		Source:   "detector",
		Kind:     types.FeedAlert,
		Severity: "CRITICAL",
	}); err != nil {
		t.Fatalf("InsertFeedItem failed: %v", err)
	}

	items, err := s.RecentFeedItems(ctx, 24, "", "", 0)
	if err != nil {
		t.Fatalf("RecentFeedItems failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}

	alerts, err := s.RecentFeedItems(ctx, 24, types.FeedAlert, "", 0)
	if err != nil {
		t.Fatalf("RecentFeedItems failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Severity != "CRITICAL" {
		t.Errorf("unexpected alerts: %+v", alerts)
	}

	bySource, err := s.FeedItemsBySource(ctx, "gdelt", 24, 0)
	if err != nil {
		t.Fatalf("FeedItemsBySource failed: %v", err)
	}
	if len(bySource) != 3 {
		t.Errorf("expected 3 gdelt items, got %d", len(bySource))
	}

	if err := s.PruneFeedItems(ctx, "gdelt", 1); err != nil {
		t.Fatalf("PruneFeedItems failed: %v", err)
	}
	bySource, _ = s.FeedItemsBySource(ctx, "gdelt", 24, 0)
	if len(bySource) != 1 {
		t.Errorf("expected 1 gdelt item after prune, got %d", len(bySource))
	}
}

func TestDeleteOrganizationCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	org := createTestOrg(t, s)

	sup, err := s.CreateSupplier(ctx, &types.Supplier{
		OrganizationID: org.ID, Name: "S1", Country: "Japan",
		Category: types.CategoryComponents, Criticality: types.CriticalityLow, Tier: types.Tier1,
	})
	if err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}
	if _, err := s.CreateEvent(ctx, org.ID, "typhoon", 3); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	if err := s.DeleteOrganization(ctx, org.ID); err != nil {
		t.Fatalf("DeleteOrganization failed: %v", err)
	}

	if _, err := s.GetSupplier(ctx, sup.ID); !IsNotFound(err) {
		t.Errorf("expected supplier cascade delete, got %v", err)
	}
	events, err := s.ListEvents(ctx, org.ID, 0, 10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events after cascade, got %d", len(events))
	}
}

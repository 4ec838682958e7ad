package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"riskmonitor/internal/logging"
)

// DefaultSanctionsBaseURL is the OpenSanctions API root.
const DefaultSanctionsBaseURL = "https://api.opensanctions.org"

// HighRiskCountries are the geographies the market scan watches.
var HighRiskCountries = []string{"Ukraine", "Israel", "Taiwan", "Iran"}

// SanctionsResult is the outcome of an entity screening.
type SanctionsResult struct {
	Entity     string            `json:"entity"`
	Sanctioned bool              `json:"sanctioned"`
	Matches    []json.RawMessage `json:"matches,omitempty"`
	RiskLevel  string            `json:"risk_level"` // CRITICAL, CLEAR, UNKNOWN
	Timestamp  string            `json:"timestamp"`
}

// ConflictData is a country's political instability snapshot.
type ConflictData struct {
	Country        string `json:"country"`
	ConflictLevel  int    `json:"conflict_level"` // 0-10
	EventsLast30d  int    `json:"events_last_30_days"`
	Status         string `json:"status"`
	RiskAssessment string `json:"risk_assessment"`
	Timestamp      string `json:"timestamp"`
}

type conflictRecord struct {
	level  int
	events int
	status string
}

// Reference conflict levels standing in for an ACLED subscription.
var referenceConflicts = map[string]conflictRecord{
	"Ukraine": {level: 9, events: 145, status: "Active Conflict"},
	"Israel":  {level: 8, events: 89, status: "Active Conflict"},
	"Taiwan":  {level: 4, events: 12, status: "Heightened Tensions"},
	"China":   {level: 2, events: 5, status: "Stable"},
	"USA":     {level: 1, events: 2, status: "Stable"},
}

// GeopoliticalService screens entities against sanctions lists and reports
// country instability.
type GeopoliticalService struct {
	sanctionsBaseURL string
	httpClient       *http.Client
	logger           *zap.Logger
}

// NewGeopoliticalService creates the service. An empty baseURL uses the
// public OpenSanctions API.
func NewGeopoliticalService(sanctionsBaseURL string, timeout time.Duration) *GeopoliticalService {
	if sanctionsBaseURL == "" {
		sanctionsBaseURL = DefaultSanctionsBaseURL
	}
	return &GeopoliticalService{
		sanctionsBaseURL: strings.TrimRight(sanctionsBaseURL, "/"),
		httpClient:       newHTTPClient(timeout),
		logger:           logging.Get(logging.CategoryFeeds),
	}
}

// CheckSanctions screens an entity name against OpenSanctions. API failures
// return an UNKNOWN result rather than an error so a screening outage never
// blocks a risk snapshot.
func (s *GeopoliticalService) CheckSanctions(ctx context.Context, entity string) SanctionsResult {
	result := SanctionsResult{
		Entity:    entity,
		RiskLevel: "UNKNOWN",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	params := url.Values{}
	params.Set("q", entity)
	params.Set("limit", "5")

	reqURL := fmt.Sprintf("%s/search/default?%s", s.sanctionsBaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		s.logger.Warn("sanctions request failed", zap.Error(err))
		return result
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("sanctions fetch failed", zap.String("entity", entity), zap.Error(err))
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("sanctions API error",
			zap.String("entity", entity), zap.Int("status", resp.StatusCode))
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return result
	}

	var parsed struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		s.logger.Warn("sanctions decode failed", zap.Error(err))
		return result
	}

	result.Sanctioned = len(parsed.Results) > 0
	result.Matches = parsed.Results
	if result.Sanctioned {
		result.RiskLevel = SeverityCritical
	} else {
		result.RiskLevel = "CLEAR"
	}
	return result
}

// Conflict reports the instability snapshot for a country. Unlisted
// countries read as moderate.
func (s *GeopoliticalService) Conflict(country string) ConflictData {
	rec, ok := referenceConflicts[country]
	if !ok {
		rec = conflictRecord{level: 3, events: 8, status: "Moderate"}
	}
	return ConflictData{
		Country:        country,
		ConflictLevel:  rec.level,
		EventsLast30d:  rec.events,
		Status:         rec.status,
		RiskAssessment: assessGeopoliticalRisk(rec.level),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
}

func assessGeopoliticalRisk(level int) string {
	switch {
	case level >= 8:
		return "CRITICAL - Active conflict, immediate supply chain impact"
	case level >= 6:
		return "HIGH - Significant political instability"
	case level >= 4:
		return "MODERATE - Tensions present, monitor closely"
	default:
		return "LOW - Stable political environment"
	}
}

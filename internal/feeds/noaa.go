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

// DefaultNOAABaseURL is the National Weather Service API root.
const DefaultNOAABaseURL = "https://api.weather.gov"

// NOAAClient fetches active weather alerts for US areas.
type NOAAClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNOAAClient creates a client. An empty baseURL uses the public API.
func NewNOAAClient(baseURL string, timeout time.Duration) *NOAAClient {
	if baseURL == "" {
		baseURL = DefaultNOAABaseURL
	}
	return &NOAAClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logging.Get(logging.CategoryFeeds),
	}
}

type noaaResponse struct {
	Features []struct {
		Properties struct {
			Headline    string `json:"headline"`
			Severity    string `json:"severity"`
			AreaDesc    string `json:"areaDesc"`
			Effective   string `json:"effective"`
			Ends        string `json:"ends"`
			Description string `json:"description"`
		} `json:"properties"`
	} `json:"features"`
}

// FetchAlerts returns active alerts for the given area codes (US states).
// Areas that fail are skipped; the method only errors when every area does.
func (c *NOAAClient) FetchAlerts(ctx context.Context, areas []string) ([]Event, error) {
	var events []Event
	var lastErr error

	for _, area := range areas {
		alerts, err := c.fetchArea(ctx, area)
		if err != nil {
			c.logger.Warn("noaa area fetch failed", zap.String("area", area), zap.Error(err))
			lastErr = err
			continue
		}
		events = append(events, alerts...)
	}

	if len(events) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return events, nil
}

func (c *NOAAClient) fetchArea(ctx context.Context, area string) ([]Event, error) {
	reqURL := fmt.Sprintf("%s/alerts/active?area=%s", c.baseURL, url.QueryEscape(area))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("noaa returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}

	var parsed noaaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("noaa decode: %w", err)
	}

	events := make([]Event, 0, len(parsed.Features))
	for _, f := range parsed.Features {
		p := f.Properties
		events = append(events, Event{
			Source:      "NOAA",
			Title:       p.Headline,
			Description: p.Description,
			EventType:   TypeWeatherEvent,
			Severity:    mapNOAASeverity(p.Severity),
			Location:    &Location{Region: p.AreaDesc, Country: "USA"},
			StartsAt:    p.Effective,
			EndsAt:      p.Ends,
		})
	}
	return events, nil
}

func mapNOAASeverity(s string) string {
	switch s {
	case "Extreme":
		return SeverityCritical
	case "Severe":
		return SeverityHigh
	case "Moderate":
		return SeverityMedium
	case "Minor":
		return SeverityLow
	default:
		return SeverityMedium
	}
}

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

// DefaultGDELTBaseURL is the public GDELT v2 API root.
const DefaultGDELTBaseURL = "https://api.gdeltproject.org/api/v2"

// DefaultGDELTQuery covers the disruption keywords worth a 15-minute scan.
const DefaultGDELTQuery = "supply chain OR earthquake OR strike OR flood"

// GDELTClient fetches global news events from the GDELT document API.
type GDELTClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGDELTClient creates a client. An empty baseURL uses the public API.
func NewGDELTClient(baseURL string, timeout time.Duration) *GDELTClient {
	if baseURL == "" {
		baseURL = DefaultGDELTBaseURL
	}
	return &GDELTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logging.Get(logging.CategoryFeeds),
	}
}

type gdeltArticle struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	SeenDate  string  `json:"seendate"`
	Tone      float64 `json:"tone"`
	Locations []struct {
		Country string  `json:"country"`
		Name    string  `json:"name"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	} `json:"locations"`
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

// FetchEvents returns events from the last 24 hours matching the query.
func (c *GDELTClient) FetchEvents(ctx context.Context, query string) ([]Event, error) {
	if query == "" {
		query = DefaultGDELTQuery
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "artlist")
	params.Set("format", "json")
	params.Set("maxrecords", "50")
	params.Set("timespan", "24h")

	reqURL := fmt.Sprintf("%s/doc/doc?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gdelt request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdelt fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gdelt returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("gdelt read: %w", err)
	}

	var parsed gdeltResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("gdelt decode: %w", err)
	}

	events := make([]Event, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		title := ExtractText(a.Title)
		ev := Event{
			Source:      "GDELT",
			Title:       title,
			URL:         a.URL,
			PublishedAt: a.SeenDate,
			Tone:        a.Tone,
			EventType:   ClassifyEventType(title),
			Severity:    toneSeverity(a.Tone, title),
		}
		if len(a.Locations) > 0 {
			loc := a.Locations[0]
			ev.Location = &Location{
				Country: loc.Country,
				Region:  loc.Name,
				Lat:     loc.Lat,
				Lon:     loc.Lon,
			}
		}
		events = append(events, ev)
	}

	c.logger.Debug("gdelt fetch complete", zap.Int("events", len(events)))
	return events, nil
}

// ClassifyEventType buckets a headline by disruption keywords.
func ClassifyEventType(title string) string {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, "earthquake", "quake", "seismic"):
		return TypeNaturalDisaster
	case containsAny(t, "strike", "protest", "walkout"):
		return TypeLaborDispute
	case containsAny(t, "flood", "hurricane", "typhoon", "storm"):
		return TypeWeatherEvent
	case containsAny(t, "fire", "explosion", "accident"):
		return TypeIndustrialAccident
	case containsAny(t, "port", "shipping", "logistics"):
		return TypeLogisticsDisruption
	default:
		return TypeOther
	}
}

// toneSeverity grades an article by GDELT tone, escalating on catastrophe
// keywords regardless of tone.
func toneSeverity(tone float64, title string) string {
	t := strings.ToLower(title)
	switch {
	case tone < -5 || containsAny(t, "major", "severe", "catastrophic", "disaster"):
		return SeverityCritical
	case tone < -2:
		return SeverityHigh
	case tone < 0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

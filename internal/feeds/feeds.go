// Package feeds ingests external risk signals: global news events, weather,
// financial and shipping indicators, geopolitical data. Clients take
// injectable base URLs so tests can point them at local servers; the sources
// without stable free APIs ship deterministic reference data.
package feeds

import (
	"net/http"
	"time"
)

// Severity buckets used across all feed sources.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Feed event classifications.
const (
	TypeNaturalDisaster     = "NATURAL_DISASTER"
	TypeLaborDispute        = "LABOR_DISPUTE"
	TypeWeatherEvent        = "WEATHER_EVENT"
	TypeIndustrialAccident  = "INDUSTRIAL_ACCIDENT"
	TypeLogisticsDisruption = "LOGISTICS_DISRUPTION"
	TypeOther               = "OTHER"
)

// Location is a feed event's geographic origin. Lat/Lon are zero when the
// source provided none.
type Location struct {
	Country string  `json:"country,omitempty"`
	Region  string  `json:"region,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// SupplierHit records one supplier matched to a feed event.
type SupplierHit struct {
	SupplierID   int64   `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	DistanceKm   float64 `json:"distance_km,omitempty"`
	Criticality  string  `json:"criticality"`
}

// Event is the normalized form every feed source produces.
type Event struct {
	Source            string        `json:"source"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	URL               string        `json:"url,omitempty"`
	PublishedAt       string        `json:"published_at,omitempty"`
	Tone              float64       `json:"tone,omitempty"`
	EventType         string        `json:"event_type"`
	Severity          string        `json:"severity"`
	Location          *Location     `json:"location,omitempty"`
	StartsAt          string        `json:"starts_at,omitempty"`
	EndsAt            string        `json:"ends_at,omitempty"`
	AffectedSuppliers []SupplierHit `json:"affected_suppliers,omitempty"`
	AffectedCount     int           `json:"affected_count,omitempty"`
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

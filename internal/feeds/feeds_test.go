package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskmonitor/internal/config"
	"riskmonitor/internal/types"
)

func coordPtr(v float64) *float64 { return &v }

func TestExtractText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>Port strike</b> halts shipping", "Port strike halts shipping"},
		{"plain text", "plain text"},
		{"<p>line one</p><p>line two</p>", "line one line two"},
		{"<script>alert(1)</script>visible", "visible"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractText(tt.in))
	}
}

func TestClassifyEventType(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Major earthquake strikes coastal region", TypeNaturalDisaster},
		{"Dock workers walkout enters second week", TypeLaborDispute},
		{"Typhoon approaching manufacturing hub", TypeWeatherEvent},
		{"Factory fire shuts production line", TypeIndustrialAccident},
		{"Port congestion worsens at major hub", TypeLogisticsDisruption},
		{"Quarterly earnings beat expectations", TypeOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyEventType(tt.title), tt.title)
	}
}

func TestGDELTClient_FetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/doc/doc", r.URL.Path)
		assert.Equal(t, "artlist", r.URL.Query().Get("mode"))
		assert.Equal(t, "50", r.URL.Query().Get("maxrecords"))
		assert.Equal(t, "24h", r.URL.Query().Get("timespan"))
		w.Write([]byte(`{"articles": [
			{"title": "<b>Severe flood</b> hits region", "url": "http://example.com/1",
			 "seendate": "20260829T120000Z", "tone": -6.2,
			 "locations": [{"country": "Japan", "name": "Osaka", "lat": 34.69, "lon": 135.5}]},
			{"title": "Minor delay at depot", "url": "http://example.com/2", "tone": -0.5}
		]}`))
	}))
	defer srv.Close()

	client := NewGDELTClient(srv.URL, time.Second)
	events, err := client.FetchEvents(context.Background(), "flood")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Severe flood hits region", events[0].Title)
	assert.Equal(t, TypeWeatherEvent, events[0].EventType)
	assert.Equal(t, SeverityCritical, events[0].Severity)
	require.NotNil(t, events[0].Location)
	assert.Equal(t, "Japan", events[0].Location.Country)

	assert.Equal(t, SeverityMedium, events[1].Severity)
	assert.Nil(t, events[1].Location)
}

func TestGDELTClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGDELTClient(srv.URL, time.Second).FetchEvents(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNOAAClient_FetchAlerts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/active", r.URL.Path)
		area := r.URL.Query().Get("area")
		if area == "CA" {
			w.Write([]byte(`{"features": [{"properties": {
				"headline": "Extreme Heat Warning", "severity": "Extreme",
				"areaDesc": "Los Angeles County", "effective": "2026-08-29T10:00:00Z",
				"description": "Dangerous heat expected"}}]}`))
			return
		}
		w.Write([]byte(`{"features": []}`))
	}))
	defer srv.Close()

	client := NewNOAAClient(srv.URL, time.Second)
	events, err := client.FetchAlerts(context.Background(), []string{"CA", "OR"})
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "NOAA", events[0].Source)
	assert.Equal(t, SeverityCritical, events[0].Severity)
	assert.Equal(t, TypeWeatherEvent, events[0].EventType)
	assert.Equal(t, "USA", events[0].Location.Country)
}

func TestMapNOAASeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, mapNOAASeverity("Extreme"))
	assert.Equal(t, SeverityHigh, mapNOAASeverity("Severe"))
	assert.Equal(t, SeverityMedium, mapNOAASeverity("Moderate"))
	assert.Equal(t, SeverityLow, mapNOAASeverity("Minor"))
	assert.Equal(t, SeverityMedium, mapNOAASeverity(""))
}

func testSupplierWithCoords() *types.Supplier {
	return &types.Supplier{
		ID: 1, Name: "Osaka Precision", Country: "Japan", City: "Osaka",
		Criticality: types.CriticalityCritical,
		Latitude:    coordPtr(34.69), Longitude: coordPtr(135.50),
	}
}

func TestWeatherClient_CurrentForSupplier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"current": {
			"temp_c": 41.5, "feelslike_c": 45.0, "precip_mm": 0, "humidity": 30,
			"wind_kph": 20, "gust_kph": 35, "wind_dir": "SW", "pressure_mb": 1005,
			"vis_km": 10, "uv": 9, "is_day": 1, "last_updated": "2026-08-29 12:00",
			"condition": {"text": "Sunny", "code": 1000}}}`))
	}))
	defer srv.Close()

	client := NewWeatherClient("test-key", srv.URL, time.Second)
	report, err := client.CurrentForSupplier(context.Background(), testSupplierWithCoords())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 41.5, report.TemperatureC)
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, "extreme_heat", report.Alerts[0].Type)
	assert.Equal(t, 4, report.Alerts[0].Severity)
}

func TestWeatherClient_NoCoordinates(t *testing.T) {
	client := NewWeatherClient("test-key", "http://unused", time.Second)
	report, err := client.CurrentForSupplier(context.Background(), &types.Supplier{Name: "No Coords"})
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestDetectWeatherAlerts_Thresholds(t *testing.T) {
	sup := testSupplierWithCoords()

	tests := []struct {
		name     string
		report   WeatherReport
		wantType string
		wantSev  int
	}{
		{"blizzard", WeatherReport{ConditionCode: 1117}, "blizzard", 5},
		{"severe wind", WeatherReport{GustKph: 110}, "severe_wind", 5},
		{"strong wind", WeatherReport{WindKph: 80}, "strong_wind", 3},
		{"thunderstorm", WeatherReport{ConditionCode: 1276}, "thunderstorm", 4},
		{"heavy snow", WeatherReport{ConditionCode: 1225}, "heavy_snow", 4},
		{"extreme cold", WeatherReport{TemperatureC: -25}, "extreme_cold", 4},
		{"heavy rain", WeatherReport{PrecipMM: 120}, "heavy_rain", 4},
	}
	for _, tt := range tests {
		alerts := detectWeatherAlerts(&tt.report, sup)
		require.Len(t, alerts, 1, tt.name)
		assert.Equal(t, tt.wantType, alerts[0].Type, tt.name)
		assert.Equal(t, tt.wantSev, alerts[0].Severity, tt.name)
	}

	calm := WeatherReport{TemperatureC: 20, WindKph: 10, ConditionCode: 1000}
	assert.Empty(t, detectWeatherAlerts(&calm, sup))
}

func TestEventDescription(t *testing.T) {
	sup := testSupplierWithCoords()
	desc := EventDescription(WeatherAlert{Type: "heavy_snow"}, sup)
	assert.Contains(t, desc, "Osaka, Japan")
	assert.Contains(t, desc, "snowfall")

	fallback := EventDescription(WeatherAlert{Type: "unknown_type"}, sup)
	assert.Contains(t, fallback, "Severe weather affecting")
}

func TestFinancialService_CommodityQuotes(t *testing.T) {
	svc := NewFinancialService("", time.Second, nil)
	quotes := svc.CommodityQuotes([]string{"oil", "lithium", "unobtainium"})

	require.Len(t, quotes, 2)
	assert.False(t, quotes["oil"].Alert)
	assert.Equal(t, "STABLE", quotes["oil"].Trend)
	assert.True(t, quotes["lithium"].Alert)
	assert.Equal(t, "DOWN", quotes["lithium"].Trend)
}

func TestFinancialService_CommodityQuotes_ConfiguredBand(t *testing.T) {
	rules := config.NewThresholds(config.AlertsConfig{
		MinAffectedSuppliers: 3,
		CommodityMovePercent: 5,
		PortCongestionLevel:  7,
		ConflictLevel:        7,
		WeatherMinSeverity:   4,
	})
	svc := NewFinancialService("", time.Second, rules)

	// Copper moved -8.7 in 30 days, outside the tightened band.
	quotes := svc.CommodityQuotes([]string{"copper", "gold"})
	assert.True(t, quotes["copper"].Alert)
	assert.False(t, quotes["gold"].Alert)

	// A reloaded rule set takes effect on the next call.
	loosened := rules.Current()
	loosened.CommodityMovePercent = 50
	rules.Store(loosened)

	quotes = svc.CommodityQuotes([]string{"copper", "lithium"})
	assert.False(t, quotes["copper"].Alert)
	assert.False(t, quotes["lithium"].Alert)
}

func TestFinancialService_Stock(t *testing.T) {
	svc := NewFinancialService("", time.Second, nil)

	q := svc.Stock("stla")
	assert.Equal(t, "STLA", q.Ticker)
	assert.Equal(t, SeverityMedium, q.AlertLevel)
	assert.Contains(t, q.FinancialHealth, "CAUTION")

	stable := svc.Stock("ZZZZ")
	assert.Equal(t, SeverityLow, stable.AlertLevel)
}

func TestFinancialService_Rates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/latest/USD", r.URL.Path)
		w.Write([]byte(`{"rates": {"EUR": 0.91, "JPY": 148.2}}`))
	}))
	defer srv.Close()

	svc := NewFinancialService(srv.URL, time.Second, nil)
	rates, err := svc.Rates(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "USD", rates.Base)
	assert.Equal(t, 0.91, rates.Rates["EUR"])
}

func TestShippingService_PortStatus(t *testing.T) {
	svc := NewShippingService()

	la := svc.PortStatus("Los Angeles")
	assert.Equal(t, 8, la.CongestionLevel)
	assert.Equal(t, 3, la.EstDelayDays)
	assert.Contains(t, la.Status, "CRITICAL")

	sg := svc.PortStatus("Singapore")
	assert.Contains(t, sg.Status, "NORMAL")

	unknown := svc.PortStatus("Atlantis")
	assert.Equal(t, 5, unknown.CongestionLevel)
	assert.Contains(t, unknown.Status, "MODERATE")
}

func TestShippingService_RouteEstimate(t *testing.T) {
	svc := NewShippingService()
	route := svc.RouteEstimate("Shanghai", "Los Angeles")
	assert.Equal(t, 14, route.EstimatedDays)
	assert.Equal(t, "ON_TIME", route.Status)

	unknown := svc.RouteEstimate("Nowhere", "Elsewhere")
	assert.Equal(t, 15, unknown.EstimatedDays)
}

func TestGeopoliticalService_CheckSanctions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/default", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		if r.URL.Query().Get("q") == "Bad Actor Corp" {
			w.Write([]byte(`{"results": [{"id": "x1", "caption": "Bad Actor Corp"}]}`))
			return
		}
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	svc := NewGeopoliticalService(srv.URL, time.Second)

	hit := svc.CheckSanctions(context.Background(), "Bad Actor Corp")
	assert.True(t, hit.Sanctioned)
	assert.Equal(t, SeverityCritical, hit.RiskLevel)

	clear := svc.CheckSanctions(context.Background(), "Honest Widgets")
	assert.False(t, clear.Sanctioned)
	assert.Equal(t, "CLEAR", clear.RiskLevel)
}

func TestGeopoliticalService_CheckSanctions_APIDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewGeopoliticalService(srv.URL, time.Second)
	result := svc.CheckSanctions(context.Background(), "Anyone")
	assert.False(t, result.Sanctioned)
	assert.Equal(t, "UNKNOWN", result.RiskLevel)
}

func TestGeopoliticalService_Conflict(t *testing.T) {
	svc := NewGeopoliticalService("", time.Second)

	ua := svc.Conflict("Ukraine")
	assert.Equal(t, 9, ua.ConflictLevel)
	assert.Contains(t, ua.RiskAssessment, "CRITICAL")

	tw := svc.Conflict("Taiwan")
	assert.Equal(t, 4, tw.ConflictLevel)
	assert.Contains(t, tw.RiskAssessment, "MODERATE")

	assert.Equal(t, 3, svc.Conflict("Elbonia").ConflictLevel)
}

func TestTrendsService_Deterministic(t *testing.T) {
	svc := NewTrendsService()

	a := svc.Interest("Osaka Precision")
	b := svc.Interest("Osaka Precision")
	assert.Equal(t, a.CurrentInterest, b.CurrentInterest)
	assert.Equal(t, a.Trending, b.Trending)

	assert.GreaterOrEqual(t, a.CurrentInterest, 40)
	assert.LessOrEqual(t, a.CurrentInterest, 100)
	assert.GreaterOrEqual(t, a.AvgInterest, 30)
	assert.LessOrEqual(t, a.AvgInterest, 70)
}

func TestMatchEvents(t *testing.T) {
	suppliers := []types.Supplier{
		*testSupplierWithCoords(),
		{ID: 2, Name: "Berlin Components", Country: "Germany", City: "Berlin",
			Criticality: types.CriticalityMedium,
			Latitude:    coordPtr(52.52), Longitude: coordPtr(13.40)},
	}

	events := []Event{
		{Title: "Earthquake near Osaka", EventType: TypeNaturalDisaster, Severity: SeverityLow,
			Location: &Location{Country: "Unknownland", Lat: 34.70, Lon: 135.52}},
		{Title: "Strike in Japan", EventType: TypeLaborDispute, Severity: SeverityLow,
			Location: &Location{Country: "Japan"}},
		{Title: "Flood in Brazil", EventType: TypeWeatherEvent, Severity: SeverityLow,
			Location: &Location{Country: "Brazil"}},
		{Title: "No location", EventType: TypeOther, Severity: SeverityLow},
	}

	matched := MatchEvents(events, suppliers)
	require.Len(t, matched, 2)
	assert.Equal(t, "Earthquake near Osaka", matched[0].Title)
	assert.Equal(t, 1, matched[0].AffectedCount)
	assert.Greater(t, matched[0].AffectedSuppliers[0].DistanceKm, 0.0)
	assert.Equal(t, "Strike in Japan", matched[1].Title)
	assert.Equal(t, 0.0, matched[1].AffectedSuppliers[0].DistanceKm)
}

func TestMatchEvents_RadiusPerType(t *testing.T) {
	suppliers := []types.Supplier{*testSupplierWithCoords()}

	// ~180km away from the supplier.
	far := Location{Country: "X", Lat: 36.2, Lon: 136.2}

	disaster := []Event{{EventType: TypeNaturalDisaster, Location: &far}}
	assert.Len(t, MatchEvents(disaster, suppliers), 1)

	strike := []Event{{EventType: TypeLaborDispute, Location: &far}}
	assert.Empty(t, MatchEvents(strike, suppliers))
}

func TestShouldTrigger(t *testing.T) {
	assert.True(t, ShouldTrigger(&Event{Severity: SeverityCritical}, 3))
	assert.True(t, ShouldTrigger(&Event{Severity: SeverityHigh}, 3))
	assert.True(t, ShouldTrigger(&Event{Severity: SeverityLow,
		AffectedSuppliers: []SupplierHit{{Criticality: "CRITICAL"}}}, 3))
	assert.True(t, ShouldTrigger(&Event{Severity: SeverityLow, AffectedCount: 3}, 3))
	assert.False(t, ShouldTrigger(&Event{Severity: SeverityLow, AffectedCount: 2,
		AffectedSuppliers: []SupplierHit{{Criticality: "LOW"}, {Criticality: "MEDIUM"}}}, 3))

	// The same event flips with the configured minimum.
	wide := &Event{Severity: SeverityLow, AffectedCount: 3}
	assert.True(t, ShouldTrigger(wide, 2))
	assert.False(t, ShouldTrigger(wide, 5))

	// Non-positive minimums fall back to the default of 3.
	assert.True(t, ShouldTrigger(wide, 0))
	assert.False(t, ShouldTrigger(&Event{Severity: SeverityLow, AffectedCount: 2}, 0))
}

func TestImpactScore(t *testing.T) {
	ev := &Event{
		Severity:      SeverityCritical,
		AffectedCount: 4,
		AffectedSuppliers: []SupplierHit{
			{Criticality: "CRITICAL"}, {Criticality: "CRITICAL"},
			{Criticality: "LOW"}, {Criticality: "MEDIUM"},
		},
	}
	// 40 severity + 20 reach + 20 critical suppliers.
	assert.Equal(t, 80.0, ImpactScore(ev))

	mild := &Event{Severity: SeverityLow, AffectedCount: 1,
		AffectedSuppliers: []SupplierHit{{Criticality: "LOW"}}}
	assert.Equal(t, 15.0, ImpactScore(mild))
}

func TestRecommendedActions(t *testing.T) {
	actions := RecommendedActions(&Event{EventType: TypeNaturalDisaster, Severity: SeverityCritical})
	assert.Contains(t, actions, "Activate disaster recovery protocols")
	assert.Contains(t, actions, "Escalate to executive team immediately")

	mild := RecommendedActions(&Event{EventType: TypeOther, Severity: SeverityLow})
	assert.Len(t, mild, 2)
}

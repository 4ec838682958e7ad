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
	"riskmonitor/internal/types"
)

// DefaultWeatherBaseURL is the WeatherAPI.com root.
const DefaultWeatherBaseURL = "https://api.weatherapi.com/v1"

// Weather alert thresholds.
const (
	extremeHeatC  = 35.0
	extremeColdC  = -10.0
	heavyRainMM   = 50.0
	strongWindKph = 70.0
	severeWindKph = 100.0
)

// WeatherAlert is one severe condition detected at a supplier site.
// Severity uses the 1-5 event scale.
type WeatherAlert struct {
	Type        string `json:"type"`
	Severity    int    `json:"severity"`
	Message     string `json:"message"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// WeatherReport is the current conditions at one supplier location.
type WeatherReport struct {
	SupplierID    int64          `json:"supplier_id"`
	SupplierName  string         `json:"supplier_name"`
	Location      string         `json:"location"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	TemperatureC  float64        `json:"temperature"`
	FeelsLikeC    float64        `json:"feels_like"`
	PrecipMM      float64        `json:"precipitation"`
	Humidity      int            `json:"humidity"`
	WindKph       float64        `json:"wind_speed"`
	GustKph       float64        `json:"wind_gusts"`
	WindDir       string         `json:"wind_direction"`
	PressureMb    float64        `json:"pressure"`
	VisibilityKm  float64        `json:"visibility"`
	UVIndex       float64        `json:"uv_index"`
	Condition     string         `json:"condition"`
	ConditionCode int            `json:"condition_code"`
	IsDay         bool           `json:"is_day"`
	ObservedAt    string         `json:"timestamp"`
	Alerts        []WeatherAlert `json:"alerts"`
}

// WeatherClient fetches current conditions from WeatherAPI.com.
type WeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWeatherClient creates a client. An empty baseURL uses the public API.
func NewWeatherClient(apiKey, baseURL string, timeout time.Duration) *WeatherClient {
	if baseURL == "" {
		baseURL = DefaultWeatherBaseURL
	}
	return &WeatherClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		logger:     logging.Get(logging.CategoryWeather),
	}
}

// Enabled reports whether an API key is configured.
func (c *WeatherClient) Enabled() bool { return c.apiKey != "" }

type weatherAPIResponse struct {
	Current struct {
		TempC      float64 `json:"temp_c"`
		FeelsLikeC float64 `json:"feelslike_c"`
		PrecipMM   float64 `json:"precip_mm"`
		Humidity   int     `json:"humidity"`
		WindKph    float64 `json:"wind_kph"`
		GustKph    float64 `json:"gust_kph"`
		WindDir    string  `json:"wind_dir"`
		PressureMb float64 `json:"pressure_mb"`
		VisKm      float64 `json:"vis_km"`
		UV         float64 `json:"uv"`
		IsDay      int     `json:"is_day"`
		LastUpdate string  `json:"last_updated"`
		Condition  struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
	} `json:"current"`
}

// CurrentForSupplier fetches conditions at the supplier's coordinates and
// attaches any threshold alerts. Suppliers without coordinates return nil.
func (c *WeatherClient) CurrentForSupplier(ctx context.Context, sup *types.Supplier) (*WeatherReport, error) {
	if !sup.HasCoordinates() {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("weather API key not configured")
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", fmt.Sprintf("%f,%f", *sup.Latitude, *sup.Longitude))
	params.Set("aqi", "no")

	reqURL := fmt.Sprintf("%s/current.json?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("weather read: %w", err)
	}

	var parsed weatherAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("weather decode: %w", err)
	}

	cur := parsed.Current
	report := &WeatherReport{
		SupplierID:    sup.ID,
		SupplierName:  sup.Name,
		Location:      fmt.Sprintf("%s, %s", sup.City, sup.Country),
		Latitude:      *sup.Latitude,
		Longitude:     *sup.Longitude,
		TemperatureC:  cur.TempC,
		FeelsLikeC:    cur.FeelsLikeC,
		PrecipMM:      cur.PrecipMM,
		Humidity:      cur.Humidity,
		WindKph:       cur.WindKph,
		GustKph:       cur.GustKph,
		WindDir:       cur.WindDir,
		PressureMb:    cur.PressureMb,
		VisibilityKm:  cur.VisKm,
		UVIndex:       cur.UV,
		Condition:     cur.Condition.Text,
		ConditionCode: cur.Condition.Code,
		IsDay:         cur.IsDay == 1,
		ObservedAt:    cur.LastUpdate,
	}
	report.Alerts = detectWeatherAlerts(report, sup)

	if len(report.Alerts) > 0 {
		c.logger.Info("weather alerts detected",
			zap.String("supplier", sup.Name),
			zap.Int("alerts", len(report.Alerts)))
	}
	return report, nil
}

func detectWeatherAlerts(w *WeatherReport, sup *types.Supplier) []WeatherAlert {
	var alerts []WeatherAlert

	if w.TemperatureC >= extremeHeatC {
		sev := 3
		if w.TemperatureC >= 40 {
			sev = 4
		}
		alerts = append(alerts, WeatherAlert{
			Type:        "extreme_heat",
			Severity:    sev,
			Message:     fmt.Sprintf("Extreme heat warning: %.1f°C", w.TemperatureC),
			Description: fmt.Sprintf("High temperatures affecting operations at %s", sup.City),
			Impact:      "Potential equipment failure, worker safety concerns, production delays",
		})
	}
	if w.TemperatureC <= extremeColdC {
		sev := 3
		if w.TemperatureC <= -20 {
			sev = 4
		}
		alerts = append(alerts, WeatherAlert{
			Type:        "extreme_cold",
			Severity:    sev,
			Message:     fmt.Sprintf("Extreme cold warning: %.1f°C", w.TemperatureC),
			Description: fmt.Sprintf("Freezing conditions affecting operations at %s", sup.City),
			Impact:      "Equipment freezing, transportation delays, production issues",
		})
	}
	if w.PrecipMM >= heavyRainMM {
		sev := 3
		if w.PrecipMM >= 100 {
			sev = 4
		}
		alerts = append(alerts, WeatherAlert{
			Type:        "heavy_rain",
			Severity:    sev,
			Message:     fmt.Sprintf("Heavy rainfall: %.0fmm", w.PrecipMM),
			Description: fmt.Sprintf("Severe rainfall affecting %s", sup.City),
			Impact:      "Flooding risk, transportation disruption, facility damage",
		})
	}

	if w.GustKph >= severeWindKph {
		alerts = append(alerts, WeatherAlert{
			Type:        "severe_wind",
			Severity:    5,
			Message:     fmt.Sprintf("Severe wind gusts: %.0fkm/h", w.GustKph),
			Description: fmt.Sprintf("Dangerous wind conditions at %s", sup.City),
			Impact:      "Facility damage, transportation halted, safety shutdown required",
		})
	} else if w.WindKph >= strongWindKph {
		alerts = append(alerts, WeatherAlert{
			Type:        "strong_wind",
			Severity:    3,
			Message:     fmt.Sprintf("Strong winds: %.0fkm/h", w.WindKph),
			Description: fmt.Sprintf("High wind conditions at %s", sup.City),
			Impact:      "Transportation delays, outdoor operations affected",
		})
	}

	if alert := conditionCodeAlert(w.ConditionCode, sup.City); alert != nil {
		alerts = append(alerts, *alert)
	}
	return alerts
}

// conditionCodeAlert maps WeatherAPI condition codes to alerts for storms
// and snow, which the numeric thresholds above miss.
func conditionCodeAlert(code int, city string) *WeatherAlert {
	switch code {
	case 1117:
		return &WeatherAlert{
			Type:        "blizzard",
			Severity:    5,
			Message:     "Blizzard warning",
			Description: fmt.Sprintf("Severe blizzard conditions at %s", city),
			Impact:      "All operations halted, extreme danger, facility closure",
		}
	case 1087, 1273, 1276, 1279, 1282:
		return &WeatherAlert{
			Type:        "thunderstorm",
			Severity:    4,
			Message:     "Thunderstorm detected",
			Description: fmt.Sprintf("Severe thunderstorm activity near %s", city),
			Impact:      "Power outages, equipment damage, operations suspended",
		}
	case 1225, 1258:
		return &WeatherAlert{
			Type:        "heavy_snow",
			Severity:    4,
			Message:     "Heavy snow detected",
			Description: fmt.Sprintf("Heavy snowfall affecting %s", city),
			Impact:      "Transportation blocked, facility access limited, production delays",
		}
	case 1210, 1213, 1216, 1219, 1222, 1255:
		return &WeatherAlert{
			Type:        "snow",
			Severity:    3,
			Message:     "Snowfall detected",
			Description: fmt.Sprintf("Snow conditions at %s", city),
			Impact:      "Transportation delays, reduced operations",
		}
	}
	return nil
}

// EventDescription turns a weather alert into the free-text report fed to
// the analysis pipeline.
func EventDescription(alert WeatherAlert, sup *types.Supplier) string {
	place := fmt.Sprintf("%s, %s", sup.City, sup.Country)
	templates := map[string]string{
		"extreme_heat": "Extreme heat wave affecting %s with temperatures reaching critical levels",
		"extreme_cold": "Severe cold snap impacting operations in %s with freezing conditions",
		"heavy_rain":   "Heavy rainfall and flooding risk at %s affecting logistics and operations",
		"severe_wind":  "Severe wind storm hitting %s causing operational disruptions",
		"strong_wind":  "Strong winds affecting %s with potential transportation delays",
		"thunderstorm": "Severe thunderstorm activity near %s threatening power and operations",
		"heavy_snow":   "Heavy snowfall disrupting operations and transportation in %s",
		"snow":         "Snowfall affecting logistics and operations in %s",
		"blizzard":     "Blizzard shutting down all operations and transport in %s",
	}
	if tmpl, ok := templates[alert.Type]; ok {
		return fmt.Sprintf(tmpl, place)
	}
	return fmt.Sprintf("Severe weather affecting %s", place)
}

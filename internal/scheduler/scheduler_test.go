package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"riskmonitor/internal/config"
	"riskmonitor/internal/feeds"
	"riskmonitor/internal/store"
	"riskmonitor/internal/types"
)

type recordingRunner struct {
	mu       sync.Mutex
	eventIDs []int64
}

func (r *recordingRunner) Run(_ context.Context, eventID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eventIDs = append(r.eventIDs, eventID)
	return nil
}

func (r *recordingRunner) runs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.eventIDs...)
}

func coordPtr(v float64) *float64 { return &v }

const severeWeatherBody = `{"current": {
	"temp_c": 42.5, "feelslike_c": 45.0, "precip_mm": 0,
	"humidity": 20, "wind_kph": 15, "gust_kph": 22, "wind_dir": "N",
	"pressure_mb": 1010, "vis_km": 10, "uv": 9, "is_day": 1,
	"last_updated": "2026-08-29 12:00",
	"condition": {"text": "Sunny", "code": 1000}
}}`

const calmWeatherBody = `{"current": {
	"temp_c": 18.0, "feelslike_c": 18.0, "precip_mm": 0.2,
	"humidity": 55, "wind_kph": 10, "gust_kph": 14, "wind_dir": "W",
	"pressure_mb": 1015, "vis_km": 10, "uv": 3, "is_day": 1,
	"last_updated": "2026-08-29 12:00",
	"condition": {"text": "Partly cloudy", "code": 1003}
}}`

func newSchedulerFixture(t *testing.T, weatherBody string) (*Scheduler, *store.Store, *recordingRunner) {
	t.Helper()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	org, err := st.CreateOrganization(ctx, &types.Organization{
		Name:     "Acme Devices",
		Industry: types.IndustryElectronics,
	})
	require.NoError(t, err)

	_, err = st.CreateSupplier(ctx, &types.Supplier{
		OrganizationID: org.ID,
		Name:           "Osaka Precision",
		Country:        "Japan",
		City:           "Osaka",
		Criticality:    types.CriticalityCritical,
		Latitude:       coordPtr(34.69),
		Longitude:      coordPtr(135.50),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/current.json"):
			w.Write([]byte(weatherBody))
		case strings.HasPrefix(r.URL.Path, "/doc/doc"):
			w.Write([]byte(`{"articles": []}`))
		case strings.HasPrefix(r.URL.Path, "/alerts/active"):
			w.Write([]byte(`{"features": []}`))
		case strings.HasPrefix(r.URL.Path, "/v4/latest/"):
			w.Write([]byte(`{"base": "USD", "rates": {"EUR": 0.91, "JPY": 148.2}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	runner := &recordingRunner{}
	rules := config.NewThresholds(config.DefaultConfig().Alerts)
	cfg := Config{
		AlertScanInterval:  time.Hour,
		MarketScanInterval: time.Hour,
		WeatherInterval:    time.Hour,
		WeatherSpacing:     time.Millisecond,
		Rules:              rules,
	}
	sched := New(cfg, st,
		feeds.NewAlertDetector(st,
			feeds.NewGDELTClient(srv.URL, time.Second),
			feeds.NewNOAAClient(srv.URL, time.Second), rules),
		feeds.NewFinancialService(srv.URL, time.Second, rules),
		feeds.NewShippingService(),
		feeds.NewGeopoliticalService(srv.URL, time.Second),
		feeds.NewWeatherClient("test-key", srv.URL, time.Second),
		runner)
	return sched, st, runner
}

func TestScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	st, err := store.New(":memory:")
	require.NoError(t, err)
	defer st.Close()

	// Hour-long tickers never fire during the test, so the stub endpoints
	// are never contacted.
	cfg := Config{
		AlertScanInterval:  time.Hour,
		MarketScanInterval: time.Hour,
		WeatherInterval:    time.Hour,
		WeatherSpacing:     time.Millisecond,
	}
	sched := New(cfg, st,
		feeds.NewAlertDetector(st,
			feeds.NewGDELTClient("http://127.0.0.1:1", time.Second),
			feeds.NewNOAAClient("http://127.0.0.1:1", time.Second), nil),
		feeds.NewFinancialService("http://127.0.0.1:1", time.Second, nil),
		feeds.NewShippingService(),
		feeds.NewGeopoliticalService("http://127.0.0.1:1", time.Second),
		feeds.NewWeatherClient("", "", time.Second),
		&recordingRunner{})

	sched.Start(context.Background())
	assert.True(t, sched.Running())

	// Repeated Start while running is a no-op.
	sched.Start(context.Background())

	sched.Stop()
	assert.False(t, sched.Running())

	// Repeated Stop is safe.
	sched.Stop()
}

func TestScheduler_Status(t *testing.T) {
	sched, _, _ := newSchedulerFixture(t, calmWeatherBody)

	status := sched.Status()
	assert.False(t, status.Running)
	assert.Equal(t, "1h0m0s", status.AlertScanInterval)
	assert.Zero(t, status.AlertsGenerated)
	assert.True(t, status.LastAlertScan.IsZero())
}

func TestScheduler_RunAlertScanNow(t *testing.T) {
	sched, _, _ := newSchedulerFixture(t, calmWeatherBody)

	alerts, err := sched.RunAlertScanNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)

	status := sched.Status()
	assert.False(t, status.LastAlertScan.IsZero())
}

func TestScheduler_WeatherScan_CreatesEvent(t *testing.T) {
	sched, st, runner := newSchedulerFixture(t, severeWeatherBody)

	ctx := context.Background()
	sched.runWeatherScan(ctx)

	runs := runner.runs()
	require.Len(t, runs, 1)

	ev, err := st.GetEvent(ctx, runs[0])
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, ev.ProcessingStatus)
	assert.Contains(t, ev.EventInput, "Osaka, Japan")
	assert.Contains(t, ev.EventInput, "heat")
	assert.Equal(t, 4, ev.SeverityLevel)

	status := sched.Status()
	assert.Equal(t, 1, status.WeatherEvents)
}

func TestScheduler_WeatherScan_DeduplicatesWithinHour(t *testing.T) {
	sched, _, runner := newSchedulerFixture(t, severeWeatherBody)

	ctx := context.Background()
	sched.runWeatherScan(ctx)
	sched.runWeatherScan(ctx)

	// Same supplier, same alert type, same hour: one event only.
	assert.Len(t, runner.runs(), 1)
}

func TestScheduler_WeatherScan_ReloadedThresholdApplies(t *testing.T) {
	sched, _, runner := newSchedulerFixture(t, severeWeatherBody)

	// Raise the minimum severity above the extreme-heat alert level.
	raised := sched.cfg.Rules.Current()
	raised.WeatherMinSeverity = 5
	sched.cfg.Rules.Store(raised)

	ctx := context.Background()
	sched.runWeatherScan(ctx)
	assert.Empty(t, runner.runs())

	// Lowering it back takes effect on the next scan.
	raised.WeatherMinSeverity = 4
	sched.cfg.Rules.Store(raised)

	sched.runWeatherScan(ctx)
	assert.Len(t, runner.runs(), 1)
}

func TestScheduler_WeatherScan_BelowThresholdIgnored(t *testing.T) {
	sched, _, runner := newSchedulerFixture(t, calmWeatherBody)

	sched.runWeatherScan(context.Background())
	assert.Empty(t, runner.runs())
}

func TestScheduler_WeatherScan_DisabledWithoutKey(t *testing.T) {
	sched, _, runner := newSchedulerFixture(t, severeWeatherBody)
	sched.weather = feeds.NewWeatherClient("", "", time.Second)

	sched.runWeatherScan(context.Background())
	assert.Empty(t, runner.runs())
}

func TestScheduler_MarketScan(t *testing.T) {
	sched, _, _ := newSchedulerFixture(t, calmWeatherBody)

	// Exercises the commodity, port, geopolitical, and exchange-rate checks.
	sched.runMarketScan(context.Background())

	status := sched.Status()
	assert.False(t, status.LastMarketScan.IsZero())
}

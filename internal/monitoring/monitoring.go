// Package monitoring tracks per-endpoint API metrics and a bounded log of
// system events, and derives a coarse health status from the error rate.
package monitoring

import (
	"sort"
	"sync"
	"time"
)

// HealthState is the coarse service condition derived from error rates.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// Error-rate thresholds for the health states.
const (
	degradedErrorRate  = 0.05
	unhealthyErrorRate = 0.10
)

// systemEventCap bounds the retained event log.
const systemEventCap = 100

// EndpointMetrics is the aggregate for one route.
type EndpointMetrics struct {
	Endpoint     string  `json:"endpoint"`
	Calls        int64   `json:"calls"`
	Errors       int64   `json:"errors"`
	ErrorRate    float64 `json:"error_rate"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
	MaxLatencyMS float64 `json:"max_latency_ms"`
}

// SystemEvent is one entry in the bounded event log.
type SystemEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
}

// Health is the summary returned by the health endpoint.
type Health struct {
	Status        HealthState `json:"status"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	TotalCalls    int64       `json:"total_calls"`
	TotalErrors   int64       `json:"total_errors"`
	ErrorRate     float64     `json:"error_rate"`
}

type endpointStats struct {
	calls   int64
	errors  int64
	totalMS float64
	maxMS   float64
}

// Monitor accumulates metrics. Safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	startedAt time.Time
	endpoints map[string]*endpointStats
	events    []SystemEvent
	next      int
	wrapped   bool
}

// New creates an empty monitor.
func New() *Monitor {
	return &Monitor{
		startedAt: time.Now(),
		endpoints: make(map[string]*endpointStats),
		events:    make([]SystemEvent, 0, systemEventCap),
	}
}

// RecordCall records one request against an endpoint.
func (m *Monitor) RecordCall(endpoint string, latency time.Duration, isError bool) {
	ms := float64(latency) / float64(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.endpoints[endpoint]
	if stats == nil {
		stats = &endpointStats{}
		m.endpoints[endpoint] = stats
	}
	stats.calls++
	if isError {
		stats.errors++
	}
	stats.totalMS += ms
	if ms > stats.maxMS {
		stats.maxMS = ms
	}
}

// RecordEvent appends to the event log, evicting the oldest entry once the
// cap is reached.
func (m *Monitor) RecordEvent(kind, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev := SystemEvent{Timestamp: time.Now(), Kind: kind, Message: message}
	if len(m.events) < systemEventCap {
		m.events = append(m.events, ev)
		return
	}
	m.events[m.next] = ev
	m.next = (m.next + 1) % systemEventCap
	m.wrapped = true
}

// Endpoints returns per-endpoint aggregates sorted by call count descending.
func (m *Monitor) Endpoints() []EndpointMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]EndpointMetrics, 0, len(m.endpoints))
	for name, stats := range m.endpoints {
		em := EndpointMetrics{
			Endpoint:     name,
			Calls:        stats.calls,
			Errors:       stats.errors,
			MaxLatencyMS: stats.maxMS,
		}
		if stats.calls > 0 {
			em.ErrorRate = float64(stats.errors) / float64(stats.calls)
			em.AvgLatencyMS = stats.totalMS / float64(stats.calls)
		}
		out = append(out, em)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	return out
}

// Events returns the logged system events, oldest first.
func (m *Monitor) Events() []SystemEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.wrapped {
		return append([]SystemEvent(nil), m.events...)
	}
	out := make([]SystemEvent, 0, systemEventCap)
	out = append(out, m.events[m.next:]...)
	out = append(out, m.events[:m.next]...)
	return out
}

// Health derives the service condition from the cumulative error rate.
func (m *Monitor) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	var calls, errors int64
	for _, stats := range m.endpoints {
		calls += stats.calls
		errors += stats.errors
	}

	h := Health{
		Status:        HealthHealthy,
		UptimeSeconds: time.Since(m.startedAt).Seconds(),
		TotalCalls:    calls,
		TotalErrors:   errors,
	}
	if calls > 0 {
		h.ErrorRate = float64(errors) / float64(calls)
	}
	switch {
	case h.ErrorRate > unhealthyErrorRate:
		h.Status = HealthUnhealthy
	case h.ErrorRate > degradedErrorRate:
		h.Status = HealthDegraded
	}
	return h
}

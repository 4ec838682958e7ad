package monitoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_RecordCall(t *testing.T) {
	m := New()

	m.RecordCall("GET /api/suppliers", 10*time.Millisecond, false)
	m.RecordCall("GET /api/suppliers", 30*time.Millisecond, true)
	m.RecordCall("POST /api/events", 5*time.Millisecond, false)

	endpoints := m.Endpoints()
	require.Len(t, endpoints, 2)

	// Sorted by call count descending.
	top := endpoints[0]
	assert.Equal(t, "GET /api/suppliers", top.Endpoint)
	assert.Equal(t, int64(2), top.Calls)
	assert.Equal(t, int64(1), top.Errors)
	assert.InDelta(t, 0.5, top.ErrorRate, 1e-9)
	assert.InDelta(t, 20.0, top.AvgLatencyMS, 1e-9)
	assert.InDelta(t, 30.0, top.MaxLatencyMS, 1e-9)
}

func TestMonitor_Health(t *testing.T) {
	m := New()
	assert.Equal(t, HealthHealthy, m.Health().Status)

	for i := 0; i < 100; i++ {
		m.RecordCall("GET /api/events", time.Millisecond, i < 7)
	}
	h := m.Health()
	assert.Equal(t, HealthDegraded, h.Status)
	assert.InDelta(t, 0.07, h.ErrorRate, 1e-9)

	for i := 0; i < 20; i++ {
		m.RecordCall("GET /api/events", time.Millisecond, true)
	}
	assert.Equal(t, HealthUnhealthy, m.Health().Status)
	assert.Equal(t, int64(120), m.Health().TotalCalls)
}

func TestMonitor_Events_RingBuffer(t *testing.T) {
	m := New()

	for i := 0; i < 150; i++ {
		m.RecordEvent("scan", fmt.Sprintf("event %d", i))
	}

	events := m.Events()
	require.Len(t, events, 100)
	// Oldest 50 evicted; order preserved oldest-first.
	assert.Equal(t, "event 50", events[0].Message)
	assert.Equal(t, "event 149", events[99].Message)
}

func TestMonitor_Events_BelowCap(t *testing.T) {
	m := New()
	m.RecordEvent("startup", "listening on :8000")
	m.RecordEvent("scan", "alert scan clean")

	events := m.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "startup", events[0].Kind)
	assert.False(t, events[0].Timestamp.IsZero())
}

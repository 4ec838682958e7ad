package config

import "sync/atomic"

// Thresholds publishes the alert threshold rules to concurrent readers.
// The hot-reload watcher swaps the whole rule set in one store, so scan
// loops and request handlers never observe a half-updated set.
type Thresholds struct {
	rules atomic.Pointer[AlertsConfig]
}

// NewThresholds returns a holder seeded with the given rules.
func NewThresholds(a AlertsConfig) *Thresholds {
	t := &Thresholds{}
	t.Store(a)
	return t
}

// Store publishes a new rule set.
func (t *Thresholds) Store(a AlertsConfig) {
	t.rules.Store(&a)
}

// Current returns the rule set in effect. A nil or unseeded holder reads
// as the defaults, so components without explicit wiring still get sane
// thresholds.
func (t *Thresholds) Current() AlertsConfig {
	if t == nil {
		return DefaultConfig().Alerts
	}
	if a := t.rules.Load(); a != nil {
		return *a
	}
	return DefaultConfig().Alerts
}

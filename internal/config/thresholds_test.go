package config

import (
	"sync"
	"testing"
)

func TestThresholds_StoreAndCurrent(t *testing.T) {
	rules := NewThresholds(DefaultConfig().Alerts)

	if got := rules.Current().MinAffectedSuppliers; got != 3 {
		t.Errorf("expected seeded MinAffectedSuppliers=3, got %d", got)
	}

	updated := rules.Current()
	updated.MinAffectedSuppliers = 5
	updated.CommodityMovePercent = 10
	rules.Store(updated)

	got := rules.Current()
	if got.MinAffectedSuppliers != 5 {
		t.Errorf("expected MinAffectedSuppliers=5 after store, got %d", got.MinAffectedSuppliers)
	}
	if got.CommodityMovePercent != 10 {
		t.Errorf("expected CommodityMovePercent=10 after store, got %v", got.CommodityMovePercent)
	}
}

func TestThresholds_NilReadsAsDefaults(t *testing.T) {
	var rules *Thresholds

	got := rules.Current()
	if got.MinAffectedSuppliers != 3 || got.WeatherMinSeverity != 4 {
		t.Errorf("nil holder should read as defaults, got %+v", got)
	}

	unseeded := &Thresholds{}
	if got := unseeded.Current().WeatherMinSeverity; got != 4 {
		t.Errorf("unseeded holder should read as defaults, got severity %d", got)
	}
}

func TestThresholds_ConcurrentReload(t *testing.T) {
	rules := NewThresholds(DefaultConfig().Alerts)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			a := DefaultConfig().Alerts
			a.WeatherMinSeverity = 1 + i%5
			rules.Store(a)
		}
	}()

	for i := 0; i < 1000; i++ {
		got := rules.Current()
		if got.WeatherMinSeverity < 1 || got.WeatherMinSeverity > 5 {
			t.Fatalf("torn read: WeatherMinSeverity=%d", got.WeatherMinSeverity)
		}
	}
	wg.Wait()
}

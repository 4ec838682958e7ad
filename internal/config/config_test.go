package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "riskmonitor" {
		t.Errorf("expected Name=riskmonitor, got %s", cfg.Name)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("expected Addr=:8000, got %s", cfg.Server.Addr)
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("expected Model=gemini-2.0-flash, got %s", cfg.LLM.Model)
	}
	if cfg.Alerts.MinAffectedSuppliers != 3 {
		t.Errorf("expected MinAffectedSuppliers=3, got %d", cfg.Alerts.MinAffectedSuppliers)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RISKMON_DB_PATH", "")
	t.Setenv("RISKMON_ADDR", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":9090"
	cfg.Database.Path = "custom.db"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Server.Addr != ":9090" {
		t.Errorf("expected Addr=:9090, got %s", loaded.Server.Addr)
	}
	if loaded.Database.Path != "custom.db" {
		t.Errorf("expected Path=custom.db, got %s", loaded.Database.Path)
	}
}

func TestConfig_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "riskmonitor" {
		t.Errorf("expected defaults, got Name=%s", cfg.Name)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-gemini-key")
	t.Setenv("RISKMON_DB_PATH", "/tmp/env.db")
	t.Setenv("RISKMON_ADDR", ":7777")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.APIKey != "env-gemini-key" {
		t.Errorf("expected APIKey from env, got %s", cfg.LLM.APIKey)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("expected db path from env, got %s", cfg.Database.Path)
	}
	if cfg.Server.Addr != ":7777" {
		t.Errorf("expected addr from env, got %s", cfg.Server.Addr)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	cfg.Alerts.WeatherMinSeverity = 9
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range weather severity")
	}

	cfg = DefaultConfig()
	cfg.Database.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty database path")
	}
}

func TestConfig_DurationGetters(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.GetAlertScanInterval().Minutes(); got != 15 {
		t.Errorf("expected 15m alert scan, got %v", got)
	}

	cfg.LLM.Timeout = "not-a-duration"
	if got := cfg.GetLLMTimeout().Seconds(); got != 120 {
		t.Errorf("expected 120s fallback, got %v", got)
	}
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.WorkDays != 20 || cfg.TimeZone != "Asia/Tokyo" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TEIKIPASS_PORT", "9090")
	t.Setenv("TEIKIPASS_WORK_DAYS", "22")
	t.Setenv("TEIKIPASS_CACHE_TTL", "5m")
	t.Setenv("TEIKIPASS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TEIKIPASS_TEST_MODE", "true")
	t.Setenv("TEIKIPASS_REFRESH_HOUR", "not a number")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 || cfg.WorkDays != 22 || cfg.CacheTTL != 5*time.Minute || !cfg.TestMode {
		t.Errorf("env not applied: %+v", cfg)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	if cfg.RefreshHour != 4 {
		t.Errorf("RefreshHour = %d, want default 4 for unparsable value", cfg.RefreshHour)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teikipass.yaml")
	yml := `port: 7000
dataURL: https://example.com/data
alertsInterval: 2m
logLevel: debug
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEIKIPASS_CONFIG", path)
	t.Setenv("TEIKIPASS_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7001 {
		t.Errorf("Port = %d, want env to win over file", cfg.Port)
	}
	if cfg.DataURL != "https://example.com/data" || cfg.AlertsInterval != 2*time.Minute {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
	if cfg.WorkDays != 20 {
		t.Errorf("WorkDays = %d, want default kept for absent key", cfg.WorkDays)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"work days", func(c *Config) { c.WorkDays = 32 }},
		{"refresh hour", func(c *Config) { c.RefreshHour = 24 }},
		{"bad url", func(c *Config) { c.DataURL = "not a url" }},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"time zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }},
		{"cache ttl", func(c *Config) { c.CacheTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLocation(t *testing.T) {
	cfg := Default()
	if cfg.Location().String() != "Asia/Tokyo" {
		t.Errorf("Location() = %v", cfg.Location())
	}
	cfg.TimeZone = "Nowhere/Special"
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC fallback", cfg.Location())
	}
}

func TestLoadPath_ExplicitFileWins(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "env.yaml")
	flagFile := filepath.Join(dir, "flag.yaml")
	os.WriteFile(envFile, []byte("workDays: 10\n"), 0o644)
	os.WriteFile(flagFile, []byte("workDays: 25\n"), 0o644)
	t.Setenv("TEIKIPASS_CONFIG", envFile)

	cfg, err := LoadPath(flagFile)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WorkDays != 25 {
		t.Errorf("WorkDays = %d, want 25 from the explicit file", cfg.WorkDays)
	}
}

func TestLoadPath_MissingFile(t *testing.T) {
	if _, err := LoadPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

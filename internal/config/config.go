package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from defaults, then an
// optional YAML file, then environment variables, then CLI flags.
type Config struct {
	Port    int    `yaml:"port" validate:"gt=0,lte=65535"`
	DBPath  string `yaml:"dbPath" validate:"required"`
	DataDir string `yaml:"dataDir"`
	DataURL string `yaml:"dataURL" validate:"omitempty,url"`

	AlertsURL      string        `yaml:"alertsURL" validate:"omitempty,url"`
	AlertsInterval time.Duration `yaml:"alertsInterval" validate:"min=1s"`
	AlertsLanguage string        `yaml:"alertsLanguage"`

	RefreshHour int    `yaml:"refreshHour" validate:"min=0,max=23"` // daily dataset check, local time
	TimeZone    string `yaml:"timeZone" validate:"required"`

	WorkDays       int           `yaml:"workDays" validate:"min=1,max=31"` // default for /api/route
	CacheTTL       time.Duration `yaml:"cacheTTL" validate:"min=1s"`
	AllowedOrigins []string      `yaml:"allowedOrigins" validate:"dive,required"`

	TestMode bool   `yaml:"testMode"` // serve the bundled sample dataset
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:           8080,
		DBPath:         "./teikipass.db",
		DataDir:        "",
		DataURL:        "",
		AlertsInterval: 60 * time.Second,
		AlertsLanguage: "ja",
		RefreshHour:    4,
		TimeZone:       "Asia/Tokyo",
		WorkDays:       20,
		CacheTTL:       time.Hour,
		LogLevel:       "info",
	}
}

// Load reads configuration from TEIKIPASS_CONFIG (if set) and environment
// variables over the defaults, and validates the result.
func Load() (*Config, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit YAML file, which takes the place of
// TEIKIPASS_CONFIG when non-empty.
func LoadPath(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("TEIKIPASS_CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the keys present in a YAML file onto cfg.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envInt("TEIKIPASS_PORT", c.Port)
	c.DBPath = envStr("TEIKIPASS_DB_PATH", c.DBPath)
	c.DataDir = envStr("TEIKIPASS_DATA_DIR", c.DataDir)
	c.DataURL = envStr("TEIKIPASS_DATA_URL", c.DataURL)
	c.AlertsURL = envStr("TEIKIPASS_ALERTS_URL", c.AlertsURL)
	c.AlertsInterval = envDuration("TEIKIPASS_ALERTS_INTERVAL", c.AlertsInterval)
	c.AlertsLanguage = envStr("TEIKIPASS_ALERTS_LANGUAGE", c.AlertsLanguage)
	c.RefreshHour = envInt("TEIKIPASS_REFRESH_HOUR", c.RefreshHour)
	c.TimeZone = envStr("TEIKIPASS_TIMEZONE", c.TimeZone)
	c.WorkDays = envInt("TEIKIPASS_WORK_DAYS", c.WorkDays)
	c.CacheTTL = envDuration("TEIKIPASS_CACHE_TTL", c.CacheTTL)
	c.AllowedOrigins = envList("TEIKIPASS_ALLOWED_ORIGINS", c.AllowedOrigins)
	c.TestMode = envBool("TEIKIPASS_TEST_MODE", c.TestMode)
	c.LogLevel = envStr("TEIKIPASS_LOG_LEVEL", c.LogLevel)
}

// Validate checks field constraints and that the time zone can be loaded.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid config: time zone %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

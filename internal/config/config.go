package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	RedisURL               string `env:"REDIS_URL,required"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone               string `env:"TIMEZONE" envDefault:"Europe/Moscow"`
	PollIntervalSeconds    int    `env:"POLL_INTERVAL_SECONDS" envDefault:"15"`
	MaintenanceWindowStart string `env:"MAINTENANCE_WINDOW_START" envDefault:"03:30"`
	MaintenanceWindowEnd   string `env:"MAINTENANCE_WINDOW_END" envDefault:"06:00"`
	IngestToken            string `env:"INGEST_TOKEN"`
	IngestTokenHash        string `env:"INGEST_TOKEN_HASH"`
	IngestRateLimitPerMin  int    `env:"INGEST_RATE_LIMIT_PER_MIN" envDefault:"120"`
	QueueSize              int    `env:"QUEUE_SIZE" envDefault:"64"`
	EnableHSTS             bool   `env:"ENABLE_HSTS"`

	DashboardURL        string `env:"DASHBOARD_URL"`
	DashboardSummaryURL string `env:"DASHBOARD_SUMMARY_URL"`
	OriginURL           string `env:"ORIGIN_URL"`
	UserAgent           string `env:"USER_AGENT" envDefault:"Mozilla/5.0"`
	DashboardAuthToken  string `env:"DASHBOARD_AUTH_TOKEN"`
	DashboardSPID       string `env:"DASHBOARD_SPID"`
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SummaryEnabled reports whether the poll loop should ping the dashboard summary API.
func (c *Config) SummaryEnabled() bool {
	return strings.TrimSpace(c.DashboardSummaryURL) != ""
}

func (c *Config) Validate() error {
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive, got %d", c.PollIntervalSeconds)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("QUEUE_SIZE must be positive, got %d", c.QueueSize)
	}
	if _, err := ParseClock(c.MaintenanceWindowStart); err != nil {
		return fmt.Errorf("MAINTENANCE_WINDOW_START: %w", err)
	}
	if _, err := ParseClock(c.MaintenanceWindowEnd); err != nil {
		return fmt.Errorf("MAINTENANCE_WINDOW_END: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.IngestToken == "" && c.IngestTokenHash == "" {
		log.Warn().Msg("INGEST_TOKEN and INGEST_TOKEN_HASH are empty: observation ingest endpoint is unauthenticated")
	}

	return nil
}

// ParseClock parses an "HH:MM" wall clock value into minutes after midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q (want HH:MM)", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

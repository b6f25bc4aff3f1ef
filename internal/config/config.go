package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoPrimaryQuery means the configuration defines no primary query.
// Diffing is meaningless without one, so runs abort before touching data.
var ErrNoPrimaryQuery = errors.New("config: no query is marked primary")

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Queries   []QueryConfig   `yaml:"queries"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Email     EmailConfig     `yaml:"email"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// FetcherConfig contains marketplace API client settings
type FetcherConfig struct {
	BaseURL        string   `yaml:"base_url"`
	Layouts        []string `yaml:"layouts"`
	MinPriceJPY    int      `yaml:"min_price_jpy"`
	MaxPriceJPY    int      `yaml:"max_price_jpy"`
	MinSizeSqm     *float64 `yaml:"min_size_sqm"`
	MaxSizeSqm     *float64 `yaml:"max_size_sqm"`
	GccID          int      `yaml:"gcc_id"`
	PageLimit      int      `yaml:"page_limit"`
	MaxPages       int      `yaml:"max_pages"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MinDelayMillis int      `yaml:"min_delay_millis"`
	MaxDelayMillis int      `yaml:"max_delay_millis"`
	UserAgent      string   `yaml:"user_agent"`
}

// RateLimitConfig contains rate limiting settings for outbound requests
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// QueryConfig defines one date-range query. Dates use YYYY-MM-DD.
type QueryConfig struct {
	Name     string `yaml:"name"`
	CheckIn  string `yaml:"check_in"`
	CheckOut string `yaml:"check_out"`
	Primary  bool   `yaml:"primary"`
}

// AlertsConfig controls change detection and notification behaviour
type AlertsConfig struct {
	ExcludeFirstFloor bool   `yaml:"exclude_first_floor"`
	ListingBaseURL    string `yaml:"listing_base_url"`
}

// EmailConfig contains SMTP settings for outbound notifications
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	User     string   `yaml:"user"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// SchedulerConfig contains the daily pipeline schedule
type SchedulerConfig struct {
	DailyRunEnabled  bool   `yaml:"daily_run_enabled"`
	DailyRunTime     string `yaml:"daily_run_time"`
	WeeklyRoundupDay string `yaml:"weekly_roundup_day"`
	CleanupEnabled   bool   `yaml:"cleanup_enabled"`
	RetentionDays    int    `yaml:"retention_days"`
	MaxDeletionCount int    `yaml:"max_deletion_count"`
}

// ExportConfig contains CSV export settings
type ExportConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level        string `yaml:"level"`
	LogRequests  bool   `yaml:"log_requests"`
	LogResponses bool   `yaml:"log_responses"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			BaseURL:        "https://hmlet.com/v1/units",
			Layouts:        []string{"1DK", "1LDK", "2K", "2DK", "2LDK"},
			MinPriceJPY:    95000,
			MaxPriceJPY:    380000,
			GccID:          101,
			PageLimit:      12,
			MaxPages:       50,
			TimeoutSeconds: 30,
			MinDelayMillis: 1000,
			MaxDelayMillis: 2500,
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			RequestsPerHour:   600,
			RequestsPerDay:    2000,
		},
		Queries: []QueryConfig{
			{Name: "primary", CheckIn: "2026-09-29", CheckOut: "2027-03-28", Primary: true},
			{Name: "minus-3d", CheckIn: "2026-09-26", CheckOut: "2027-03-28"},
			{Name: "minus-7d", CheckIn: "2026-09-22", CheckOut: "2027-03-28"},
			{Name: "minus-14d", CheckIn: "2026-09-15", CheckOut: "2027-03-28"},
		},
		Alerts: AlertsConfig{
			ExcludeFirstFloor: false,
			ListingBaseURL:    "https://hmlet.com",
		},
		Scheduler: SchedulerConfig{
			DailyRunEnabled:  false,
			DailyRunTime:     "02:00",
			WeeklyRoundupDay: "SUN",
			CleanupEnabled:   false,
			RetentionDays:    90,
			MaxDeletionCount: 100000,
		},
		Export: ExportConfig{
			Enabled:   true,
			Directory: "out",
		},
		Logging: LoggingConfig{
			Level:       "info",
			LogRequests: true,
		},
		Timezone: "Asia/Tokyo",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// PrimaryQuery returns the one query marked primary
func (c *Config) PrimaryQuery() (QueryConfig, error) {
	var found *QueryConfig
	for i := range c.Queries {
		if !c.Queries[i].Primary {
			continue
		}
		if found != nil {
			return QueryConfig{}, fmt.Errorf("config: %q and %q are both marked primary", found.Name, c.Queries[i].Name)
		}
		found = &c.Queries[i]
	}
	if found == nil {
		return QueryConfig{}, ErrNoPrimaryQuery
	}
	return *found, nil
}

// CheckInDate parses the query's check-in date
func (q QueryConfig) CheckInDate() (time.Time, error) {
	return time.Parse("2006-01-02", q.CheckIn)
}

// CheckOutDate parses the query's check-out date
func (q QueryConfig) CheckOutDate() (time.Time, error) {
	return time.Parse("2006-01-02", q.CheckOut)
}

// GetTimeout returns the fetcher timeout as a duration
func (c *FetcherConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetMinDelay returns the minimum inter-page delay as a duration
func (c *FetcherConfig) GetMinDelay() time.Duration {
	return time.Duration(c.MinDelayMillis) * time.Millisecond
}

// GetMaxDelay returns the maximum inter-page delay as a duration
func (c *FetcherConfig) GetMaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMillis) * time.Millisecond
}

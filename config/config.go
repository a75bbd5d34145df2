package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall console configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	API        APIConfig        `yaml:"api"`
	Polling    PollingConfig    `yaml:"polling"`
	Console    ConsoleConfig    `yaml:"console"`
	Display    DisplayConfig    `yaml:"display"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the console HTTP surface configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// APIConfig describes how to reach the custody API of record.
type APIConfig struct {
	BaseURL         string            `yaml:"base_url"`
	TimeoutSeconds  int               `yaml:"timeout_seconds"`
	Timeout         time.Duration     `yaml:"-"`
	HTTPProxy       string            `yaml:"http_proxy"`
	Headers         map[string]string `yaml:"headers"`
	RequestsPerSec  float64           `yaml:"requests_per_sec"`
	RequestBurst    int               `yaml:"request_burst"`
	AlertsLimit     int               `yaml:"alerts_limit"`
	AlertsStatus    string            `yaml:"alerts_status"`
	AssetsLimit     int               `yaml:"assets_limit"`
	HistoryLimit    int               `yaml:"history_limit"`
	StationWorkerID string            `yaml:"station_worker_id"`
}

// PollingConfig holds the refresh cadence of every polled resource, in milliseconds.
type PollingConfig struct {
	ShellSummaryMs     int `yaml:"shell_summary_ms"`
	DashboardSummaryMs int `yaml:"dashboard_summary_ms"`
	DashboardCustodyMs int `yaml:"dashboard_custody_ms"`
	DashboardAlertsMs  int `yaml:"dashboard_alerts_ms"`
	ActiveCustodyMs    int `yaml:"active_custody_ms"`
	HistoryMs          int `yaml:"history_ms"`
	AlertsMs           int `yaml:"alerts_ms"`
	InventoryMs        int `yaml:"inventory_ms"`
	WorkersMs          int `yaml:"workers_ms"`
	PushAlertsMs       int `yaml:"push_alerts_ms"`
}

// ConsoleConfig holds scan-station behaviour.
type ConsoleConfig struct {
	SuccessDismissMs int              `yaml:"success_dismiss_ms"`
	ErrorDismissMs   int              `yaml:"error_dismiss_ms"`
	NoticeDismissMs  int              `yaml:"notice_dismiss_ms"`
	JournalSize      int              `yaml:"journal_size"`
	QuickReference   []QuickReference `yaml:"quick_reference"`
}

// QuickReference is one tappable code shown next to the scan form.
type QuickReference struct {
	Label string `yaml:"label" json:"label"`
	Code  string `yaml:"code" json:"code"`
}

// DisplayConfig controls how server timestamps are rendered.
type DisplayConfig struct {
	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`
}

// DatabaseConfig holds the station database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field with the console's stock value.
func (cfg *Config) ApplyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8088
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 20
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 10
	}
	cfg.API.Timeout = time.Duration(cfg.API.TimeoutSeconds) * time.Second
	if cfg.API.RequestsPerSec <= 0 {
		cfg.API.RequestsPerSec = 25
	}
	if cfg.API.RequestBurst <= 0 {
		cfg.API.RequestBurst = 10
	}
	if cfg.API.AlertsLimit <= 0 {
		cfg.API.AlertsLimit = 30
	}
	if cfg.API.AlertsStatus == "" {
		cfg.API.AlertsStatus = "OPEN"
	}
	if cfg.API.AssetsLimit <= 0 {
		cfg.API.AssetsLimit = 200
	}
	if cfg.API.HistoryLimit <= 0 {
		cfg.API.HistoryLimit = 100
	}
	if cfg.API.StationWorkerID == "" {
		cfg.API.StationWorkerID = "00000000-0000-0000-0000-000000000000"
	}

	p := &cfg.Polling
	defaultMs(&p.ShellSummaryMs, 15000)
	defaultMs(&p.DashboardSummaryMs, 10000)
	defaultMs(&p.DashboardCustodyMs, 10000)
	defaultMs(&p.DashboardAlertsMs, 12000)
	defaultMs(&p.ActiveCustodyMs, 10000)
	defaultMs(&p.HistoryMs, 30000)
	defaultMs(&p.AlertsMs, 15000)
	defaultMs(&p.InventoryMs, 60000)
	defaultMs(&p.WorkersMs, 60000)
	defaultMs(&p.PushAlertsMs, 15000)

	defaultMs(&cfg.Console.SuccessDismissMs, 5000)
	defaultMs(&cfg.Console.ErrorDismissMs, 6000)
	defaultMs(&cfg.Console.NoticeDismissMs, 6000)
	if cfg.Console.JournalSize <= 0 {
		cfg.Console.JournalSize = 10
	}

	if cfg.Display.Timezone == "" {
		cfg.Display.Timezone = "Local"
	}
	loc, err := time.LoadLocation(cfg.Display.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Display.Timezone, err)
	}
	cfg.Display.Location = loc

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "sqlite:toolroom-console.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
	return nil
}

func defaultMs(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

// Every converts a millisecond cadence into a duration.
func Every(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

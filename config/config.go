package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g. ROOMD_DATABASE_DSN.
const EnvPrefix = "ROOMD"

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Database   DatabaseConfig   `yaml:"database" envconfig:"DATABASE"`
	Booking    BookingConfig    `yaml:"booking" envconfig:"BOOKING"`
	Auth       AuthConfig       `yaml:"auth" envconfig:"AUTH"`
	Push       PushConfig       `yaml:"push" envconfig:"PUSH"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool" envconfig:"WORKER_POOL"`
	Events     EventsConfig     `yaml:"events" envconfig:"EVENTS"`
	Tracing    TracingConfig    `yaml:"tracing" envconfig:"TRACING"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size" envconfig:"SIZE"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key" envconfig:"VAPID_PUBLIC_KEY"`
	PrivateKey string `yaml:"vapid_private_key" envconfig:"VAPID_PRIVATE_KEY"`
	Subject    string `yaml:"subject" envconfig:"SUBJECT"`
	TTL        int    `yaml:"ttl" envconfig:"TTL"`
}

// Enabled reports whether both VAPID keys are configured.
func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port" envconfig:"PORT"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" envconfig:"RATE_LIMIT_PER_SEC"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" envconfig:"CACHE_TTL_SECONDS"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" envconfig:"DRIVER"` // postgres | sqlite
	DSN                    string `yaml:"dsn" envconfig:"DSN"`
	MaxOpenConns           int    `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns           int    `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" envconfig:"CONN_MAX_LIFETIME_MINUTES"`
	LogLevel               string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	EnableConstraints      bool   `yaml:"enable_constraints" envconfig:"ENABLE_CONSTRAINTS"`
}

// BookingConfig holds the timing policy of the reservation core.
type BookingConfig struct {
	Timezone            string `yaml:"timezone" envconfig:"TIMEZONE"`
	LaunchYear          int    `yaml:"launch_year" envconfig:"LAUNCH_YEAR"`
	MaxYearsAhead       int    `yaml:"max_years_ahead" envconfig:"MAX_YEARS_AHEAD"`
	OpenHour            int    `yaml:"open_hour" envconfig:"OPEN_HOUR"`
	CloseHour           int    `yaml:"close_hour" envconfig:"CLOSE_HOUR"`
	SlotMinutes         int    `yaml:"slot_minutes" envconfig:"SLOT_MINUTES"`
	LeadTimeMinutes     int    `yaml:"lead_time_minutes" envconfig:"LEAD_TIME_MINUTES"`
	CancelGraceHours    int    `yaml:"cancel_grace_hours" envconfig:"CANCEL_GRACE_HOURS"`
	EarlyCheckInMinutes int    `yaml:"early_checkin_minutes" envconfig:"EARLY_CHECKIN_MINUTES"`
	SearchLimit         int    `yaml:"search_limit" envconfig:"SEARCH_LIMIT"`
	MaxSearchLimit      int    `yaml:"max_search_limit" envconfig:"MAX_SEARCH_LIMIT"`

	Location    *time.Location `yaml:"-" ignored:"true"`
	LeadTime    time.Duration  `yaml:"-" ignored:"true"`
	CancelGrace time.Duration  `yaml:"-" ignored:"true"`
	EarlyCheck  time.Duration  `yaml:"-" ignored:"true"`
}

// AuthConfig holds the bearer token settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
}

// EventsConfig holds the RabbitMQ publisher settings for lifecycle events.
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	URL      string `yaml:"url" envconfig:"URL"`
	Exchange string `yaml:"exchange" envconfig:"EXCHANGE"`
}

// TracingConfig holds the OpenTelemetry exporter settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED"`
	Endpoint    string `yaml:"endpoint" envconfig:"ENDPOINT"`
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment string `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Load reads the configuration from the given path and applies environment overrides.
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

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset values and derives the duration fields.
func (cfg *Config) ApplyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	b := &cfg.Booking
	if b.Timezone == "" {
		b.Timezone = "Local"
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", b.Timezone, err)
	}
	b.Location = loc

	if b.LaunchYear <= 0 {
		b.LaunchYear = 2024
	}
	if b.MaxYearsAhead <= 0 {
		b.MaxYearsAhead = 1
	}
	if b.OpenHour <= 0 && b.CloseHour <= 0 {
		b.OpenHour, b.CloseHour = 7, 20
	}
	if b.OpenHour < 0 || b.CloseHour > 24 || b.OpenHour >= b.CloseHour {
		return fmt.Errorf("invalid operating hours %d-%d", b.OpenHour, b.CloseHour)
	}
	if b.SlotMinutes <= 0 {
		b.SlotMinutes = 30
	}
	if b.LeadTimeMinutes <= 0 {
		b.LeadTimeMinutes = 50
	}
	if b.CancelGraceHours <= 0 {
		b.CancelGraceHours = 48
	}
	if b.EarlyCheckInMinutes <= 0 {
		b.EarlyCheckInMinutes = 15
	}
	if b.MaxSearchLimit <= 0 {
		b.MaxSearchLimit = 20
	}
	if b.SearchLimit <= 0 || b.SearchLimit > b.MaxSearchLimit {
		b.SearchLimit = min(10, b.MaxSearchLimit)
	}
	b.LeadTime = time.Duration(b.LeadTimeMinutes) * time.Minute
	b.CancelGrace = time.Duration(b.CancelGraceHours) * time.Hour
	b.EarlyCheck = time.Duration(b.EarlyCheckInMinutes) * time.Minute

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "booking.exchange"
	}

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "roomd"
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
	if cfg.Tracing.Environment == "" {
		cfg.Tracing.Environment = "dev"
	}
	return nil
}

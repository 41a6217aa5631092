package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// CronParser parses the six-field (with seconds) specs the scheduler runs on.
var CronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Storage   StorageConfig   `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	AMQP      AMQPConfig      `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type StorageConfig struct {
	Driver string `mapstructure:"STORAGE_DRIVER"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"REDIS_ENABLED"`
	Host         string        `mapstructure:"REDIS_HOST"`
	Port         string        `mapstructure:"REDIS_PORT"`
	Password     string        `mapstructure:"REDIS_PASSWORD"`
	DB           int           `mapstructure:"REDIS_DB"`
	ReferenceTTL time.Duration `mapstructure:"PAYMENT_REFERENCE_TTL"`
}

type AMQPConfig struct {
	URL      string `mapstructure:"AMQP_URL"`
	Exchange string `mapstructure:"AMQP_EXCHANGE"`
}

type SchedulerConfig struct {
	OverdueCron  string `mapstructure:"SCHEDULER_OVERDUE_CRON"`
	ScheduleCron string `mapstructure:"SCHEDULER_SCHEDULE_CRON"`
	Timezone     string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "15s",
	"SERVER_WRITE_TIMEOUT":       "15s",
	"STORAGE_DRIVER":             StorageDriverPostgres,
	"DATABASE_URL":               "",
	"DATABASE_HOST":              "localhost",
	"DATABASE_PORT":              "5432",
	"DATABASE_NAME":              "lending",
	"DATABASE_USER":              "postgres",
	"DATABASE_PASSWORD":          "",
	"DATABASE_SSLMODE":           "disable",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "30m",
	"REDIS_ENABLED":              false,
	"REDIS_HOST":                 "localhost",
	"REDIS_PORT":                 "6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"PAYMENT_REFERENCE_TTL":      "24h",
	"AMQP_URL":                   "",
	"AMQP_EXCHANGE":              "lending.audit",
	"SCHEDULER_OVERDUE_CRON":     "0 5 0 * * *",
	"SCHEDULER_SCHEDULE_CRON":    "0 */10 * * * *",
	"SCHEDULER_TIMEZONE":         "UTC",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "",
	"HEALTH_CHECK_TIMEOUT":       "5s",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// human-readable logs locally, JSON everywhere else unless LOG_FORMAT says otherwise
	if config.Logging.Format == "" {
		config.Logging.Format = "json"
		if config.IsDevelopment() {
			config.Logging.Format = "text"
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Storage.Driver {
	case StorageDriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORAGE_DRIVER %q is not allowed in production", StorageDriverMemory)
		}
	case StorageDriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required for the postgres driver")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be greater than 0")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.Storage.Driver)
	}

	if c.Redis.Enabled && c.Redis.ReferenceTTL <= 0 {
		return fmt.Errorf("PAYMENT_REFERENCE_TTL must be greater than 0")
	}

	if _, err := CronParser.Parse(c.Scheduler.OverdueCron); err != nil {
		return fmt.Errorf("SCHEDULER_OVERDUE_CRON must be a valid cron spec: %w", err)
	}
	if _, err := CronParser.Parse(c.Scheduler.ScheduleCron); err != nil {
		return fmt.Errorf("SCHEDULER_SCHEDULE_CRON must be a valid cron spec: %w", err)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be greater than 0")
	}

	return nil
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// Addr returns the Redis host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// SchedulerLocation returns the scheduler timezone, UTC when it cannot be loaded.
func (c *Config) SchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// Remote record store
	Remote RemoteConfig

	// Redis
	Redis RedisConfig

	// Sync
	Sync SyncConfig

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// UserID is the writer whose record this process maintains.
	UserID string

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// RemoteConfig holds remote record store settings.
type RemoteConfig struct {
	// Base URL of the record store API
	// Example: https://records.bookbuilder.dev
	BaseURL string

	// Bearer token for authentication
	APIKey string

	// HTTP request timeout
	Timeout time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// Pool settings
	PoolSize   int
	MaxRetries int

	// Timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Enable for development without Redis (falls back to in-memory)
	Disabled bool
}

// SyncConfig holds sync coordinator settings.
type SyncConfig struct {
	// FlushInterval is the periodic flush cadence.
	FlushInterval time.Duration

	// Debounce is the window that coalesces near-simultaneous
	// entity-created flushes into one request.
	Debounce time.Duration

	// SchedulerTick is how often the scheduler checks for due jobs.
	SchedulerTick time.Duration
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	// LogLevel: debug, info, warn, error
	LogLevel string

	// LogFormat: json or text
	LogFormat string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.App = loadAppConfig()
	cfg.Remote = loadRemoteConfig()
	cfg.Redis = loadRedisConfig()
	cfg.Sync = loadSyncConfig()
	cfg.Observability = loadObservabilityConfig()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))

	return AppConfig{
		Name:            getEnv("APP_NAME", "bookbuilder-progression"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		UserID:          getEnv("APP_USER_ID", ""),
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadRemoteConfig() RemoteConfig {
	return RemoteConfig{
		BaseURL: getEnv("REMOTE_BASE_URL", ""),
		APIKey:  getEnv("REMOTE_API_KEY", ""),
		Timeout: getEnvDuration("REMOTE_TIMEOUT", 30*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MaxRetries:   getEnvInt("REDIS_MAX_RETRIES", 3),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadSyncConfig() SyncConfig {
	return SyncConfig{
		FlushInterval: getEnvDuration("SYNC_FLUSH_INTERVAL", 60*time.Second),
		Debounce:      getEnvDuration("SYNC_DEBOUNCE", 100*time.Millisecond),
		SchedulerTick: getEnvDuration("SYNC_SCHEDULER_TICK", time.Second),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var errs []string

	if c.App.UserID == "" {
		errs = append(errs, "APP_USER_ID is required")
	}

	if c.Remote.BaseURL == "" {
		errs = append(errs, "REMOTE_BASE_URL is required")
	}

	if c.Sync.FlushInterval <= 0 {
		errs = append(errs, "SYNC_FLUSH_INTERVAL must be positive")
	}

	if c.Sync.Debounce < 0 {
		errs = append(errs, "SYNC_DEBOUNCE cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

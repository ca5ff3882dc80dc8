// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all client configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	API        APIConfig        `mapstructure:"api"`
	Session    SessionConfig    `mapstructure:"session"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	StubServer StubServerConfig `mapstructure:"stub_server"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	LogFile     string `mapstructure:"log_file"`
}

// APIConfig contains backend API client configuration
type APIConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	RecipesPath        string        `mapstructure:"recipes_path"`
	AuthPath           string        `mapstructure:"auth_path"`
	Timeout            time.Duration `mapstructure:"timeout"`
	DetectTimeout      time.Duration `mapstructure:"detect_timeout"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	Burst              int           `mapstructure:"burst"`
	CircuitMaxFailures int           `mapstructure:"circuit_max_failures"`
	CircuitTimeout     time.Duration `mapstructure:"circuit_timeout"`
}

// SessionConfig contains the ingredient session rules
type SessionConfig struct {
	Debounce          time.Duration `mapstructure:"debounce"`
	MinQueryLength    int           `mapstructure:"min_query_length"`
	AutocompleteLimit int           `mapstructure:"autocomplete_limit"`
	MinIngredients    int           `mapstructure:"min_ingredients"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
	CompletenessDelay time.Duration `mapstructure:"completeness_delay"`
	KeyNamespace      string        `mapstructure:"key_namespace"`
}

// StorageConfig selects the persisted store backend
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	LogLevel   string `mapstructure:"log_level"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MonitoringConfig contains metrics configuration
type MonitoringConfig struct {
	EnableMetrics bool   `mapstructure:"enable_metrics"`
	Namespace     string `mapstructure:"namespace"`
}

// StubServerConfig configures the local stub backend
type StubServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Latency         time.Duration `mapstructure:"latency"`
	MaxFavourites   int           `mapstructure:"max_favourites"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("snackhack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.config/snackhack")
	}

	// Enable environment variable override
	v.SetEnvPrefix("SNACKHACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Unmarshal configuration
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "SnackHack")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	// API defaults
	v.SetDefault("api.base_url", "http://localhost:5000")
	v.SetDefault("api.recipes_path", "/api/recipes")
	v.SetDefault("api.auth_path", "/api/auth")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.detect_timeout", "60s")
	v.SetDefault("api.requests_per_second", 10.0)
	v.SetDefault("api.burst", 5)
	v.SetDefault("api.circuit_max_failures", 5)
	v.SetDefault("api.circuit_timeout", "30s")

	// Session defaults
	v.SetDefault("session.debounce", "300ms")
	v.SetDefault("session.min_query_length", 2)
	v.SetDefault("session.autocomplete_limit", 8)
	v.SetDefault("session.min_ingredients", 4)
	v.SetDefault("session.cooldown", "5s")
	v.SetDefault("session.completeness_delay", "1s")
	v.SetDefault("session.key_namespace", "app_")

	// Storage defaults
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "snackhack.db")
	v.SetDefault("storage.log_level", "silent")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "snackhack:")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.namespace", "snackhack")

	// Stub server defaults
	v.SetDefault("stub_server.host", "127.0.0.1")
	v.SetDefault("stub_server.port", 5000)
	v.SetDefault("stub_server.latency", "0s")
	v.SetDefault("stub_server.max_favourites", 10)
	v.SetDefault("stub_server.shutdown_timeout", "5s")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate required fields
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	if c.API.RequestsPerSecond <= 0 {
		return fmt.Errorf("api.requests_per_second must be positive")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be one of sqlite, redis, memory; got %q", c.Storage.Driver)
	}

	// Validate session rules
	if c.Session.MinQueryLength < 1 {
		return fmt.Errorf("session.min_query_length must be at least 1")
	}
	if c.Session.MinIngredients < 1 {
		return fmt.Errorf("session.min_ingredients must be at least 1")
	}
	if c.Session.Debounce <= 0 || c.Session.Cooldown < 0 || c.Session.CompletenessDelay < 0 {
		return fmt.Errorf("session timings must not be negative and debounce must be positive")
	}

	// Validate port ranges
	if c.StubServer.Port < 1 || c.StubServer.Port > 65535 {
		return fmt.Errorf("stub_server.port must be between 1 and 65535")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// RedisAddr returns the host:port of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// StubServerAddr returns the listen address of the stub backend
func (c *Config) StubServerAddr() string {
	return fmt.Sprintf("%s:%d", c.StubServer.Host, c.StubServer.Port)
}

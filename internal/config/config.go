package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Logging    LoggingConfig    `yaml:"logging"`
	Bootstrap  BootstrapConfig  `yaml:"bootstrap"`
}

// AppConfig represents application configuration
type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	DBName   string        `yaml:"dbname"`
	SSLMode  string        `yaml:"sslmode"`
	MaxOpen  int           `yaml:"max_open"`
	MaxIdle  int           `yaml:"max_idle"`
	Timeout  time.Duration `yaml:"timeout"`

	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	SecretKey string        `yaml:"secret_key"`
	Duration  time.Duration `yaml:"duration"`
}

// MonitoringConfig represents monitoring configuration
type MonitoringConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPath    string `yaml:"prometheus_path"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// BootstrapConfig represents the default m-out-of-n bootstrap parameters a
// validation run falls back to when a request omits them (SPEC_FULL.md §6.3).
type BootstrapConfig struct {
	DefaultReplicates      int                    `yaml:"default_replicates"`
	DefaultConfidenceLevel float64                `yaml:"default_confidence_level"`
	DefaultRatioPolicy     string                 `yaml:"default_ratio_policy"`
	ProbeReplicates        int                    `yaml:"probe_replicates"`
	RefinementWindow       RefinementWindowConfig `yaml:"refinement_window"`
	MaxDegenerateFraction  float64                `yaml:"max_degenerate_fraction"`
	// RevalidationSchedule is a standard 5-field cron expression the
	// service layer's revalidation job runs on (SPEC_FULL.md §4.10).
	RevalidationSchedule string `yaml:"revalidation_schedule"`
	// RevalidationMaxAge is how stale a target's most recent run must be
	// before the revalidation job resubmits it.
	RevalidationMaxAge time.Duration `yaml:"revalidation_max_age"`
}

// RefinementWindowConfig bounds the sample sizes for which the adaptive
// ratio policy's stability refinement stage runs.
type RefinementWindowConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// DefaultBootstrapConfig returns the reference thresholds used when a
// config file omits the bootstrap section entirely.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		DefaultReplicates:      400,
		DefaultConfidenceLevel: 0.95,
		DefaultRatioPolicy:     "adaptive",
		ProbeReplicates:        400,
		RefinementWindow:       RefinementWindowConfig{Min: 15, Max: 60},
		MaxDegenerateFraction:  0.5,
		RevalidationSchedule:   "0 */6 * * *",
		RevalidationMaxAge:     6 * time.Hour,
	}
}

// Load loads configuration from a YAML file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Bootstrap.DefaultReplicates == 0 {
		config.Bootstrap = DefaultBootstrapConfig()
	}

	return &config, nil
}

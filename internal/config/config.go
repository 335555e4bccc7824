// Package config provides centralized configuration management for the
// normalizer CLI and server. It loads configuration from environment variables
// with sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Normalize NormalizeConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

// NormalizeConfig holds batch normalization settings.
type NormalizeConfig struct {
	// InputDir is scanned for *.csv files (default: Files)
	InputDir string `env:"NORMALIZE_INPUT_DIR" default:"Files"`

	// OutputDir receives <stem>_normalized.csv files (default: processed_files)
	OutputDir string `env:"NORMALIZE_OUTPUT_DIR" default:"processed_files"`

	// SampleSize is the number of leading bytes used for charset detection (default: 1000)
	SampleSize int `env:"NORMALIZE_SAMPLE_SIZE" default:"1000"`

	// ConfidenceThreshold is the minimum detector confidence to trust a guess (default: 0.9)
	ConfidenceThreshold float64 `env:"NORMALIZE_CONFIDENCE_THRESHOLD" default:"0.9"`

	// PreserveLongitudeSign keeps the parsed longitude sign instead of storing -|value| (default: false)
	PreserveLongitudeSign bool `env:"NORMALIZE_PRESERVE_LONGITUDE_SIGN" default:"false"`

	// Compression is the output container: none or zstd (default: none)
	Compression string `env:"NORMALIZE_COMPRESSION" default:"none"`

	// Workers is the number of files normalized in parallel (default: 1)
	Workers int `env:"NORMALIZE_WORKERS" default:"1"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 5m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// DatabaseConfig holds run ledger database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty, runs are kept in memory.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a Postgres ledger is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// UploadConfig holds HTTP upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel normalizations (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a normalization slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled mounts /metrics on the HTTP server (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

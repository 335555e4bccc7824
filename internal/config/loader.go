package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvnorm/internal/normalize"
)

// LookupFunc resolves an environment variable. It matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from the process environment, applies defaults
// for unset values and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with a custom variable source.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if err := populate(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// populate walks nested structs and fills every field carrying an env tag.
// All bad values are reported together.
func populate(v reflect.Value, lookup LookupFunc) error {
	var errs []error

	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := populate(fv, lookup); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		key := field.Tag.Get("env")
		if key == "" {
			continue
		}

		raw, ok := resolve(lookup, key, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				errs = append(errs, fmt.Errorf("required environment variable %s is not set", key))
				continue
			}
			raw = field.Tag.Get("default")
		}
		if raw == "" {
			continue
		}

		if err := assign(fv, raw); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", key, raw, err))
		}
	}

	return errors.Join(errs...)
}

// resolve returns the first non-empty value of key or alt.
func resolve(lookup LookupFunc, key, alt string) (string, bool) {
	if v, ok := lookup(key); ok && v != "" {
		return v, true
	}
	if alt != "" {
		if v, ok := lookup(alt); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// assign parses raw into fv according to its kind.
func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)

	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		fv.SetInt(n)

	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		fv.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		fv.SetBool(b)

	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", fv.Type().Elem().Kind())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))

	default:
		return fmt.Errorf("unsupported field type: %s", fv.Kind())
	}

	return nil
}

// splitList splits a comma-separated value, dropping blank items.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// problems collects validation failures.
type problems []string

func (p *problems) require(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

// Validate checks that the configuration is usable and reports every
// failure at once.
func (c *Config) Validate() error {
	var p problems

	n := c.Normalize
	p.require(n.InputDir != "", "NORMALIZE_INPUT_DIR must not be empty")
	p.require(n.OutputDir != "", "NORMALIZE_OUTPUT_DIR must not be empty")
	p.require(n.SampleSize > 0, "NORMALIZE_SAMPLE_SIZE must be positive")
	p.require(n.ConfidenceThreshold > 0 && n.ConfidenceThreshold <= 1,
		"NORMALIZE_CONFIDENCE_THRESHOLD (%g) must be in (0, 1]", n.ConfidenceThreshold)
	_, compErr := normalize.ParseCompression(n.Compression)
	p.require(compErr == nil, "NORMALIZE_COMPRESSION (%q) must be one of: none, zstd", n.Compression)
	p.require(n.Workers > 0, "NORMALIZE_WORKERS must be positive")

	if db := c.Database; db.Enabled() {
		p.require(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.require(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
		p.require(db.MaxConns >= db.MinConns,
			"DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)
	}

	p.require(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	p.require(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.require(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	p.require(c.Upload.MaxFileSize > 0, "UPLOAD_MAX_FILE_SIZE must be positive")
	p.require(c.Upload.MaxConcurrent > 0, "UPLOAD_MAX_CONCURRENT must be positive")
	p.require(c.Upload.MaxWaitTime > 0, "UPLOAD_MAX_WAIT_TIME must be positive")

	p.require(!c.Rate.Enabled || c.Rate.RequestsPerMinute > 0,
		"RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")

	p.require(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.require(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.require(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

// NormalizeOptions converts the normalize settings into normalize.Options.
// Validate must have accepted the config.
func (c *Config) NormalizeOptions() normalize.Options {
	compression, _ := normalize.ParseCompression(c.Normalize.Compression)
	return normalize.Options{
		SampleSize:            c.Normalize.SampleSize,
		ConfidenceThreshold:   c.Normalize.ConfidenceThreshold,
		PreserveLongitudeSign: c.Normalize.PreserveLongitudeSign,
		Compression:           compression,
	}
}

// String returns a loggable summary with the database URL masked.
func (c *Config) String() string {
	db := "in-memory"
	if c.Database.Enabled() {
		db = fmt.Sprintf("{URL: [MASKED], MaxConns: %d, MinConns: %d}", c.Database.MaxConns, c.Database.MinConns)
	}

	return fmt.Sprintf("Config{Normalize: {InputDir: %q, OutputDir: %q, SampleSize: %d, Threshold: %g, Compression: %q, Workers: %d}, "+
		"Server: {Host: %q, Port: %d}, Database: %s, Upload: {MaxFileSize: %d, MaxConcurrent: %d}, "+
		"Rate: {Enabled: %v, RequestsPerMinute: %d}, Logging: {Level: %q, Format: %q}, Metrics: {Enabled: %v}}",
		c.Normalize.InputDir, c.Normalize.OutputDir, c.Normalize.SampleSize,
		c.Normalize.ConfidenceThreshold, c.Normalize.Compression, c.Normalize.Workers,
		c.Server.Host, c.Server.Port, db,
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent,
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		c.Logging.Level, c.Logging.Format, c.Metrics.Enabled)
}

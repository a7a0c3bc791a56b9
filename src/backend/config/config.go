package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

// AppName is used for the XDG data and config directories
const AppName = "irongate"

const TRUE = "true"

// Producer names accepted in Config.Producers
var knownProducers = map[string]bool{
	"pattern":  true,
	"legal":    true,
	"secrets":  true,
	"plugins":  true,
	"onnx_ner": true,
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	LogRequests bool `json:"log_requests"` // Log one line per API request (never bodies)
	DebugMode   bool `json:"debug_mode"`   // Verbose component logging
}

// AuditConfig holds audit database configuration
type AuditConfig struct {
	Driver       string `json:"driver"`         // memory, sqlite or postgres
	Path         string `json:"path"`           // SQLite database file
	MaxEntries   int    `json:"max_entries"`    // Events retained
	Host         string `json:"host"`           // Database host
	Port         int    `json:"port"`           // Database port
	Database     string `json:"database"`       // Database name
	Username     string `json:"username"`       // Database username
	Password     string `json:"password"`       // Database password
	SSLMode      string `json:"ssl_mode"`       // SSL mode (disable, require, etc.)
	MaxOpenConns int    `json:"max_open_conns"` // Maximum open connections
	MaxIdleConns int    `json:"max_idle_conns"` // Maximum idle connections
	MaxLifetime  int    `json:"max_lifetime"`   // Connection max lifetime in seconds
}

// SessionConfig holds pseudonymization session settings
type SessionConfig struct {
	TTLSeconds        int `json:"ttl_seconds"`
	EvictionThreshold int `json:"eviction_threshold"`
}

// GeneratorConfig controls the optional realistic pseudonym source
type GeneratorConfig struct {
	Realistic bool `json:"realistic"`
	TimeoutMs int  `json:"timeout_ms"`
}

// RateLimitConfig bounds API throughput. A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

// Config holds all configuration for the detection service
type Config struct {
	ListenPort      string          `json:"listen_port"`
	Producers       []string        `json:"producers"`
	ModelDirectory  string          `json:"model_directory"`
	ONNXLibraryPath string          `json:"onnx_library_path"`
	PluginsPath     string          `json:"plugins_path"`
	SentryDSN       string          `json:"sentry_dsn"`
	Weights         map[string]int  `json:"weights"`
	Session         SessionConfig   `json:"session"`
	Generator       GeneratorConfig `json:"generator"`
	Audit           AuditConfig     `json:"audit"`
	RateLimit       RateLimitConfig `json:"rate_limit"`
	Logging         LoggingConfig   `json:"logging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenPort:     ":8000",
		Producers:      []string{"pattern", "legal", "secrets", "plugins", "onnx_ner"},
		ModelDirectory: "model/quantized",
		PluginsPath:    filepath.Join(XDGConfigDir(), "plugins.yaml"),
		Session: SessionConfig{
			TTLSeconds:        3600,
			EvictionThreshold: 100,
		},
		Generator: GeneratorConfig{
			Realistic: false,
			TimeoutMs: 50,
		},
		Audit: AuditConfig{
			Driver:       "memory",
			Path:         filepath.Join(XDGDataDir(), "audit.db"),
			MaxEntries:   5000,
			Host:         "localhost",
			Port:         5432,
			Database:     AppName,
			Username:     "postgres",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 25,
			MaxLifetime:  300,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Logging: LoggingConfig{
			LogRequests: true,
		},
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/irongate on Linux
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/irongate on Linux
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultConfigFile returns the first config.json found in the XDG config
// search path, or "" when there is none
func DefaultConfigFile() string {
	path, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.json"))
	if err != nil {
		return ""
	}
	return path
}

// SessionTTL returns the session lifetime as a duration
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// GeneratorTimeout returns the realistic source timeout as a duration
func (c *Config) GeneratorTimeout() time.Duration {
	return time.Duration(c.Generator.TimeoutMs) * time.Millisecond
}

// ProducerEnabled reports whether the named producer is listed
func (c *Config) ProducerEnabled(name string) bool {
	for _, p := range c.Producers {
		if p == name {
			return true
		}
	}
	return false
}

// LoadDotEnv loads a .env file from the working directory if one exists
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file from current directory")
	} else if !os.IsNotExist(err) {
		log.Printf("Note: .env file could not be loaded: %v", err)
	}
}

// LoadFromFile overlays a JSON config file onto cfg
func LoadFromFile(path string, cfg *Config) error {
	// #nosec G304 - Config file path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv overrides configuration with environment variables
func LoadFromEnv(cfg *Config) {
	loadApplicationConfig(cfg)
	loadAuditConfig(cfg)
	loadLoggingConfig(cfg)
}

// loadApplicationConfig loads application configuration from environment variables
func loadApplicationConfig(cfg *Config) {
	if port := os.Getenv("IRONGATE_PORT"); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.ListenPort = port
	}

	if producers := os.Getenv("IRONGATE_PRODUCERS"); producers != "" {
		cfg.Producers = splitList(producers)
	}

	if dir := os.Getenv("IRONGATE_MODEL_DIR"); dir != "" {
		cfg.ModelDirectory = dir
	}

	if lib := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); lib != "" {
		cfg.ONNXLibraryPath = lib
	}

	if plugins := os.Getenv("IRONGATE_PLUGINS"); plugins != "" {
		cfg.PluginsPath = plugins
	}

	if realistic := os.Getenv("IRONGATE_REALISTIC"); realistic != "" {
		cfg.Generator.Realistic = realistic == TRUE
	}

	if ttl := os.Getenv("SESSION_TTL_SECONDS"); ttl != "" {
		if s, err := strconv.Atoi(ttl); err == nil {
			cfg.Session.TTLSeconds = s
		}
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		cfg.SentryDSN = dsn
	}

	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if r, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimit.RequestsPerSecond = r
		}
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if b, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimit.Burst = b
		}
	}
}

// loadAuditConfig loads audit database configuration from environment variables
func loadAuditConfig(cfg *Config) {
	if driver := os.Getenv("AUDIT_DRIVER"); driver != "" {
		cfg.Audit.Driver = strings.ToLower(driver)
	}

	if path := os.Getenv("AUDIT_PATH"); path != "" {
		cfg.Audit.Path = path
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Audit.Host = host
	}

	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Audit.Port = p
		}
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Audit.Database = dbName
	}

	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Audit.Username = user
	}

	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Audit.Password = password
	}

	if sslMode := os.Getenv("DB_SSL_MODE"); sslMode != "" {
		cfg.Audit.SSLMode = sslMode
	}
}

// loadLoggingConfig loads logging configuration from environment variables
func loadLoggingConfig(cfg *Config) {
	if logRequests := os.Getenv("LOG_REQUESTS"); logRequests != "" {
		cfg.Logging.LogRequests = logRequests == TRUE
	}

	if debug := os.Getenv("DEBUG_MODE"); debug != "" {
		cfg.Logging.DebugMode = debug == TRUE
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig checks every field and joins all problems into one error
func (c *Config) ValidateConfig() error {
	var errs []string

	if err := validatePort(c.ListenPort, "ListenPort"); err != nil {
		errs = append(errs, err.Error())
	}

	for _, p := range c.Producers {
		if !knownProducers[p] {
			errs = append(errs, fmt.Sprintf("Producers: unknown producer %q", p))
		}
	}

	if c.Session.TTLSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("Session.TTLSeconds: must be positive (current value: %d)", c.Session.TTLSeconds))
	}
	if c.Session.EvictionThreshold < 0 {
		errs = append(errs, fmt.Sprintf("Session.EvictionThreshold: must not be negative (current value: %d)", c.Session.EvictionThreshold))
	}

	if c.Generator.TimeoutMs < 0 {
		errs = append(errs, fmt.Sprintf("Generator.TimeoutMs: must not be negative (current value: %d)", c.Generator.TimeoutMs))
	}

	switch c.Audit.Driver {
	case "", "memory", "sqlite":
	case "postgres":
		if c.Audit.Host == "" {
			errs = append(errs, "Audit.Host: host cannot be empty for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("Audit.Driver: must be one of memory, sqlite, postgres (current value: %s)", c.Audit.Driver))
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Sprintf("RateLimit.RequestsPerSecond: must not be negative (current value: %v)", c.RateLimit.RequestsPerSecond))
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Sprintf("RateLimit.Burst: must be at least 1 when limiting is enabled (current value: %d)", c.RateLimit.Burst))
	}

	for label, w := range c.Weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("Weights.%s: must not be negative (current value: %d)", label, w))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// validatePort checks a ":PORT" listen address
func validatePort(port, fieldName string) error {
	if port == "" {
		return fmt.Errorf("%s: port cannot be empty", fieldName)
	}
	if !strings.HasPrefix(port, ":") {
		return fmt.Errorf("%s: port must be in format ':PORT' where PORT is numeric (current value: %s)", fieldName, port)
	}
	n, err := strconv.Atoi(port[1:])
	if err != nil {
		return fmt.Errorf("%s: port must be in format ':PORT' where PORT is numeric (current value: %s)", fieldName, port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("%s: port must be between 1 and 65535 (current value: %d)", fieldName, n)
	}
	return nil
}

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/corpus/pkg/observability"
	"github.com/platinummonkey/corpus/pkg/ratelimit"
	"github.com/platinummonkey/corpus/pkg/snapshot"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Store configuration (document file + mirror database)
	Store StoreConfig

	// Rate limiter configuration
	RateLimit RateLimitConfig

	// Admin endpoint configuration
	Admin AdminConfig

	// Usage log configuration
	Usage UsageConfig

	// Snapshot upload configuration
	Snapshot SnapshotConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// StoreConfig holds the document file and mirror database settings. The
// document file is the authoritative store; the database mirrors it for
// queries. DBDriver selects sqlite3 (DSN is a file path) or postgres
// (DSN is a connection URL).
type StoreConfig struct {
	DocumentPath string
	DBDriver     string
	DBDSN        string
}

// RateLimitConfig holds the request budget and backend selection. An empty
// RedisURL selects the in-memory limiter; a set one selects the shared
// Redis counter.
type RateLimitConfig struct {
	Limit    int
	Window   time.Duration
	RedisURL string
}

// LimiterConfig returns the budget in the rate limiter's own config type.
func (r RateLimitConfig) LimiterConfig() *ratelimit.Config {
	return &ratelimit.Config{
		Limit:  r.Limit,
		Window: r.Window,
	}
}

// AdminConfig holds the admin gate. Admin endpoints stay disabled until a
// secret is set.
type AdminConfig struct {
	Secret string
}

// UsageConfig holds usage log settings
type UsageConfig struct {
	QueueSize int
}

// SnapshotConfig holds S3 snapshot settings. Snapshots are disabled until a
// bucket is configured.
type SnapshotConfig struct {
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	Prefix         string
}

// Enabled reports whether snapshot uploads are configured.
func (s SnapshotConfig) Enabled() bool {
	return s.S3Bucket != ""
}

// UploaderConfig converts to the snapshot package's config type.
func (s SnapshotConfig) UploaderConfig() snapshot.Config {
	return snapshot.Config{
		Endpoint:     s.S3Endpoint,
		Region:       s.S3Region,
		Bucket:       s.S3Bucket,
		AccessKey:    s.S3AccessKey,
		SecretKey:    s.S3SecretKey,
		UsePathStyle: s.S3UsePathStyle,
		Prefix:       s.Prefix,
	}
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// OTelConfig returns the observability package's OTel configuration.
func (o ObservabilityConfig) OTelConfig() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
	}
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			DocumentPath: "datasets.json",
			DBDriver:     "sqlite3",
			DBDSN:        "datasets.db",
		},
		RateLimit: RateLimitConfig{
			Limit:  ratelimit.DefaultLimit,
			Window: ratelimit.DefaultWindow,
		},
		Usage: UsageConfig{
			QueueSize: 1024,
		},
		Snapshot: SnapshotConfig{
			Prefix: "snapshots",
		},
		Observability: ObservabilityConfig{
			LogLevel:           observability.InfoLevel,
			MetricsEnabled:     true,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "corpus-api",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig loads configuration in three layers: defaults, then an
// optional YAML file named by CORPUS_CONFIG_FILE, then CORPUS_* environment
// variables. Later layers win.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("CORPUS_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides configuration from CORPUS_* environment variables.
// Each helper keeps the current value when the variable is unset.
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("CORPUS_HOST", c.Server.Host)
	c.Server.Port = getEnv("CORPUS_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("CORPUS_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("CORPUS_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("CORPUS_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("CORPUS_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Store.DocumentPath = getEnv("CORPUS_DOCUMENT_PATH", c.Store.DocumentPath)
	c.Store.DBDriver = getEnv("CORPUS_DB_DRIVER", c.Store.DBDriver)
	c.Store.DBDSN = getEnv("CORPUS_DB_DSN", c.Store.DBDSN)

	c.RateLimit.Limit = getEnvInt("CORPUS_RATE_LIMIT", c.RateLimit.Limit)
	c.RateLimit.Window = getEnvDuration("CORPUS_RATE_WINDOW", c.RateLimit.Window)
	c.RateLimit.RedisURL = getEnv("CORPUS_REDIS_URL", c.RateLimit.RedisURL)

	c.Admin.Secret = getEnv("CORPUS_ADMIN_SECRET", c.Admin.Secret)

	c.Usage.QueueSize = getEnvInt("CORPUS_USAGE_QUEUE_SIZE", c.Usage.QueueSize)

	c.Snapshot.S3Endpoint = getEnv("CORPUS_S3_ENDPOINT", c.Snapshot.S3Endpoint)
	c.Snapshot.S3Region = getEnv("CORPUS_S3_REGION", c.Snapshot.S3Region)
	c.Snapshot.S3Bucket = getEnv("CORPUS_S3_BUCKET", c.Snapshot.S3Bucket)
	c.Snapshot.S3AccessKey = getEnv("CORPUS_S3_ACCESS_KEY", c.Snapshot.S3AccessKey)
	c.Snapshot.S3SecretKey = getEnv("CORPUS_S3_SECRET_KEY", c.Snapshot.S3SecretKey)
	c.Snapshot.S3UsePathStyle = getEnvBool("CORPUS_S3_USE_PATH_STYLE", c.Snapshot.S3UsePathStyle)
	c.Snapshot.Prefix = getEnv("CORPUS_SNAPSHOT_PREFIX", c.Snapshot.Prefix)

	c.Observability.LogLevel = observability.ParseLevel(
		getEnv("CORPUS_LOG_LEVEL", c.Observability.LogLevel.String()))
	c.Observability.MetricsEnabled = getEnvBool("CORPUS_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("CORPUS_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("CORPUS_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("CORPUS_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("CORPUS_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("CORPUS_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Store.DocumentPath == "" {
		return fmt.Errorf("document path is required")
	}
	switch c.Store.DBDriver {
	case "sqlite3":
		if c.Store.DBDSN == "" {
			return fmt.Errorf("database path is required for sqlite3")
		}
	case "postgres":
		if c.Store.DBDSN == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3 or postgres)", c.Store.DBDriver)
	}

	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate window must be positive")
	}

	if c.Usage.QueueSize <= 0 {
		return fmt.Errorf("usage queue size must be positive")
	}

	if c.Snapshot.S3Bucket != "" && c.Snapshot.S3Region == "" && c.Snapshot.S3Endpoint == "" {
		return fmt.Errorf("S3 region or endpoint is required when a snapshot bucket is set")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/corpus/pkg/observability"
)

// fileConfig mirrors Config with pointer fields so only keys present in the
// YAML file override the layer below. Durations are strings in time.Duration
// syntax ("30s", "1m").
type fileConfig struct {
	Server struct {
		Host            *string `yaml:"host"`
		Port            *string `yaml:"port"`
		ReadTimeout     *string `yaml:"read_timeout"`
		WriteTimeout    *string `yaml:"write_timeout"`
		IdleTimeout     *string `yaml:"idle_timeout"`
		ShutdownTimeout *string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Store struct {
		DocumentPath *string `yaml:"document_path"`
		DBDriver     *string `yaml:"db_driver"`
		DBDSN        *string `yaml:"db_dsn"`
	} `yaml:"store"`

	RateLimit struct {
		Limit    *int    `yaml:"limit"`
		Window   *string `yaml:"window"`
		RedisURL *string `yaml:"redis_url"`
	} `yaml:"rate_limit"`

	Admin struct {
		Secret *string `yaml:"secret"`
	} `yaml:"admin"`

	Usage struct {
		QueueSize *int `yaml:"queue_size"`
	} `yaml:"usage"`

	Snapshot struct {
		S3Endpoint     *string `yaml:"s3_endpoint"`
		S3Region       *string `yaml:"s3_region"`
		S3Bucket       *string `yaml:"s3_bucket"`
		S3AccessKey    *string `yaml:"s3_access_key"`
		S3SecretKey    *string `yaml:"s3_secret_key"`
		S3UsePathStyle *bool   `yaml:"s3_use_path_style"`
		Prefix         *string `yaml:"prefix"`
	} `yaml:"snapshot"`

	Observability struct {
		LogLevel           *string `yaml:"log_level"`
		MetricsEnabled     *bool   `yaml:"metrics_enabled"`
		OTelEnabled        *bool   `yaml:"otel_enabled"`
		OTelEndpoint       *string `yaml:"otel_endpoint"`
		OTelServiceName    *string `yaml:"otel_service_name"`
		OTelServiceVersion *string `yaml:"otel_service_version"`
		OTelInsecure       *bool   `yaml:"otel_insecure"`
	} `yaml:"observability"`
}

// applyFile overlays configuration from a YAML file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	setString(&c.Server.Host, f.Server.Host)
	setString(&c.Server.Port, f.Server.Port)
	if err := setDuration(&c.Server.ReadTimeout, f.Server.ReadTimeout, "server.read_timeout"); err != nil {
		return err
	}
	if err := setDuration(&c.Server.WriteTimeout, f.Server.WriteTimeout, "server.write_timeout"); err != nil {
		return err
	}
	if err := setDuration(&c.Server.IdleTimeout, f.Server.IdleTimeout, "server.idle_timeout"); err != nil {
		return err
	}
	if err := setDuration(&c.Server.ShutdownTimeout, f.Server.ShutdownTimeout, "server.shutdown_timeout"); err != nil {
		return err
	}

	setString(&c.Store.DocumentPath, f.Store.DocumentPath)
	setString(&c.Store.DBDriver, f.Store.DBDriver)
	setString(&c.Store.DBDSN, f.Store.DBDSN)

	setInt(&c.RateLimit.Limit, f.RateLimit.Limit)
	if err := setDuration(&c.RateLimit.Window, f.RateLimit.Window, "rate_limit.window"); err != nil {
		return err
	}
	setString(&c.RateLimit.RedisURL, f.RateLimit.RedisURL)

	setString(&c.Admin.Secret, f.Admin.Secret)

	setInt(&c.Usage.QueueSize, f.Usage.QueueSize)

	setString(&c.Snapshot.S3Endpoint, f.Snapshot.S3Endpoint)
	setString(&c.Snapshot.S3Region, f.Snapshot.S3Region)
	setString(&c.Snapshot.S3Bucket, f.Snapshot.S3Bucket)
	setString(&c.Snapshot.S3AccessKey, f.Snapshot.S3AccessKey)
	setString(&c.Snapshot.S3SecretKey, f.Snapshot.S3SecretKey)
	setBool(&c.Snapshot.S3UsePathStyle, f.Snapshot.S3UsePathStyle)
	setString(&c.Snapshot.Prefix, f.Snapshot.Prefix)

	if f.Observability.LogLevel != nil {
		c.Observability.LogLevel = observability.ParseLevel(*f.Observability.LogLevel)
	}
	setBool(&c.Observability.MetricsEnabled, f.Observability.MetricsEnabled)
	setBool(&c.Observability.OTelEnabled, f.Observability.OTelEnabled)
	setString(&c.Observability.OTelEndpoint, f.Observability.OTelEndpoint)
	setString(&c.Observability.OTelServiceName, f.Observability.OTelServiceName)
	setString(&c.Observability.OTelServiceVersion, f.Observability.OTelServiceVersion)
	setBool(&c.Observability.OTelInsecure, f.Observability.OTelInsecure)

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, name string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = d
	return nil
}

// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration in three layers: built-in
// defaults, an optional YAML file named by CORPUS_CONFIG_FILE, and CORPUS_*
// environment variables. Later layers win.
//
// # Configuration Structure
//
// Server settings:
//
//	CORPUS_HOST="0.0.0.0"
//	CORPUS_PORT="8000"
//	CORPUS_READ_TIMEOUT="15s"
//	CORPUS_WRITE_TIMEOUT="15s"
//	CORPUS_SHUTDOWN_TIMEOUT="30s"
//
// Store settings:
//
//	CORPUS_DOCUMENT_PATH="datasets.json"
//	CORPUS_DB_DRIVER="sqlite3"  # sqlite3, postgres
//	CORPUS_DB_DSN="datasets.db"
//
// Rate limit and admin settings:
//
//	CORPUS_RATE_LIMIT="120"
//	CORPUS_RATE_WINDOW="60s"
//	CORPUS_REDIS_URL="redis://localhost:6379"  # empty selects the in-memory limiter
//	CORPUS_ADMIN_SECRET="..."                  # empty keeps admin endpoints disabled
//
// Snapshot settings:
//
//	CORPUS_S3_BUCKET="corpus-snapshots"
//	CORPUS_S3_REGION="us-east-1"
//	CORPUS_S3_ENDPOINT="http://minio:9000"
//
// Observability settings:
//
//	CORPUS_LOG_LEVEL="info"  # debug, info, warn, error
//	CORPUS_METRICS_ENABLED="true"
//	CORPUS_OTEL_ENABLED="true"
//	CORPUS_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s\n", cfg.Server.Addr())
//	fmt.Printf("Database: %s\n", cfg.Store.DBDriver)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/registry: Uses the document path
//   - pkg/mirror: Uses the database driver and DSN
//   - pkg/ratelimit: Uses the rate limit budget and Redis URL
//   - pkg/observability: Uses observability configuration
package config

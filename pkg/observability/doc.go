// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Overview
//
// This package centralizes observability infrastructure including JSON logging, metrics
// collection, health checks, and graceful shutdown.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.Infof("Server started on port %d", 8000)
//
// Context-aware logging:
//
//	observability.FromContext(ctx).WithError(err).Error("Sync failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/datasets", "200").Inc()
//	metrics.SyncDuration.WithLabelValues("update").Observe(0.123)
//
// Business metrics:
//
//	metrics.DatasetsTotal.Set(float64(count))
//	metrics.UpdateUsageStats(recorder.Stats())
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(db, redisClient, store)
//	status := checker.Check(ctx)
//	fmt.Printf("Status: %s\n", status.Status)
//
// The mirror database and the document store are required dependencies;
// Redis is optional and only degrades the service when unreachable.
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		ServiceName: "corpus-api",
//		Endpoint:    "otel-collector:4317",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/contextkeys: Request ID and logger context keys
//   - pkg/httputil: Request ID middleware
package observability

package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments. It mirrors the
// Prometheus metrics for deployments that ship telemetry over OTLP.
type OTelMetrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	httpResponseSize    metric.Int64Histogram

	// Document store metrics
	registryOperations metric.Int64Counter
	registryDuration   metric.Float64Histogram

	// Mirror sync metrics
	syncTotal    metric.Int64Counter
	syncDuration metric.Float64Histogram
	syncRecords  metric.Int64Histogram

	// Search metrics
	searchTotal    metric.Int64Counter
	searchDuration metric.Float64Histogram
}

// NewOTelMetrics creates a new OTel metrics instance
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter("github.com/platinummonkey/corpus")

	m := &OTelMetrics{}
	var err error

	// HTTP metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration histogram: %w", err)
	}

	m.httpResponseSize, err = meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_response_size histogram: %w", err)
	}

	// Document store metrics
	m.registryOperations, err = meter.Int64Counter(
		"registry.operations.total",
		metric.WithDescription("Total number of document store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry_operations counter: %w", err)
	}

	m.registryDuration, err = meter.Float64Histogram(
		"registry.operation.duration",
		metric.WithDescription("Document store operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry_duration histogram: %w", err)
	}

	// Mirror sync metrics
	m.syncTotal, err = meter.Int64Counter(
		"mirror.sync.total",
		metric.WithDescription("Total number of mirror sync runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_total counter: %w", err)
	}

	m.syncDuration, err = meter.Float64Histogram(
		"mirror.sync.duration",
		metric.WithDescription("Mirror sync duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_duration histogram: %w", err)
	}

	m.syncRecords, err = meter.Int64Histogram(
		"mirror.sync.records",
		metric.WithDescription("Records written per sync run"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_records histogram: %w", err)
	}

	// Search metrics
	m.searchTotal, err = meter.Int64Counter(
		"registry.search.total",
		metric.WithDescription("Total number of keyword searches"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search_total counter: %w", err)
	}

	m.searchDuration, err = meter.Float64Histogram(
		"registry.search.duration",
		metric.WithDescription("Keyword search duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search_duration histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *OTelMetrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration, responseSize int64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if responseSize > 0 {
		m.httpResponseSize.Record(ctx, responseSize, metric.WithAttributes(attrs...))
	}
}

// RecordStoreOperation records a document store operation metric
func (m *OTelMetrics) RecordStoreOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("registry.operation", operation),
		attribute.Bool("error", err != nil),
	}

	m.registryOperations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.registryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSync records a mirror sync run
func (m *OTelMetrics) RecordSync(ctx context.Context, trigger string, records int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("sync.trigger", trigger),
		attribute.Bool("error", err != nil),
	}

	m.syncTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	if err == nil {
		m.syncRecords.Record(ctx, int64(records), metric.WithAttributes(attrs...))
	}
}

// RecordSearch records a keyword search
func (m *OTelMetrics) RecordSearch(ctx context.Context, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("error", err != nil),
	}

	m.searchTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.searchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

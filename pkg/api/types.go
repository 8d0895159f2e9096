package api

import (
	"context"
	"time"

	"github.com/platinummonkey/corpus/pkg/registry"
	"github.com/platinummonkey/corpus/pkg/usage"
)

// ServiceName is reported by the /status endpoint.
const ServiceName = "corpus"

// DefaultLatestMax caps the ?n= parameter on /latest.
const DefaultLatestMax = 100

// DocumentStore is the authoritative dataset store backing the API.
// *registry.DocumentStore satisfies it.
type DocumentStore interface {
	ReadAll(ctx context.Context) ([]registry.DatasetRecord, error)
	Get(ctx context.Context, id string) (*registry.DatasetRecord, error)
	Upsert(ctx context.Context, record registry.DatasetRecord) error
	QueryLatest(ctx context.Context, n int) ([]registry.DatasetRecord, error)
}

// Searcher answers keyword queries from the relational mirror.
// *mirror.SearchService satisfies it.
type Searcher interface {
	Search(ctx context.Context, keyword string, limit int) ([]registry.DatasetRecord, error)
}

// Reindexer rebuilds the mirror from the document store.
// *mirror.Syncer satisfies it.
type Reindexer interface {
	RebuildAll(ctx context.Context) (int, error)
}

// KeyAdmin issues and deactivates API keys. *keys.Registry satisfies it.
type KeyAdmin interface {
	CreateKey(ctx context.Context, label string, quota *int64) (string, error)
	DeactivateKey(ctx context.Context, key string) error
}

// UsageStore aggregates and reads daily usage counts. *usage.Writer
// satisfies it.
type UsageStore interface {
	AggregateDaily(ctx context.Context, at time.Time) error
	DailyStats(ctx context.Context, at time.Time) ([]usage.DailyStat, error)
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// StatusResponse is the /status payload.
type StatusResponse struct {
	Service string `json:"service"`
	Healthy bool   `json:"healthy"`
	Time    int64  `json:"time"`
}

// StatsResponse is the /stats payload. LastUpdated is null until a record
// carries an updated timestamp.
type StatsResponse struct {
	Count       int            `json:"count"`
	LastUpdated *string        `json:"last_updated"`
	TagCounts   map[string]int `json:"tag_counts"`
}

// UpdateResponse acknowledges a dataset upsert.
type UpdateResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// CreateKeyResponse carries a freshly issued API key.
type CreateKeyResponse struct {
	Key string `json:"key"`
}

// DeactivateKeyResponse acknowledges a key deactivation.
type DeactivateKeyResponse struct {
	Status string `json:"status"`
}

// ReindexResponse reports how many records a mirror rebuild projected.
type ReindexResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

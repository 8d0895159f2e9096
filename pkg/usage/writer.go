// Package usage records which API key hit which endpoint, and aggregates
// those rows into daily counts.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/corpus/pkg/mirror"
)

// Entry is one recorded request.
type Entry struct {
	ID       int64  `json:"id"`
	APIKey   string `json:"api_key"`
	Endpoint string `json:"endpoint"`
	TS       int64  `json:"ts"`
}

// DailyStat is an aggregated per-day request count for one key and endpoint.
type DailyStat struct {
	Day      string `json:"day"`
	APIKey   string `json:"api_key"`
	Endpoint string `json:"endpoint"`
	Requests int64  `json:"requests"`
}

const dayLayout = "2006-01-02"

// Writer stores usage rows in the shared service database. Writes are
// synchronous; wrap it in a Recorder for the fire-and-forget request path.
type Writer struct {
	db      *sql.DB
	dialect mirror.Dialect
}

// NewWriter creates a writer over an open service database.
func NewWriter(db *sql.DB, dialect mirror.Dialect) *Writer {
	return &Writer{db: db, dialect: dialect}
}

// Insert appends one usage row.
func (w *Writer) Insert(ctx context.Context, apiKey, endpoint string, ts int64) error {
	query := w.dialect.Rebind("INSERT INTO usage_logs (api_key, endpoint, ts) VALUES (?, ?, ?)")
	if _, err := w.db.ExecContext(ctx, query, apiKey, endpoint, ts); err != nil {
		return fmt.Errorf("failed to insert usage row: %w", err)
	}
	return nil
}

// Recent returns the newest usage rows, optionally filtered to one key.
func (w *Writer) Recent(ctx context.Context, apiKey string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := "SELECT id, api_key, endpoint, ts FROM usage_logs"
	args := make([]interface{}, 0, 2)
	if apiKey != "" {
		query += " WHERE api_key = ?"
		args = append(args, apiKey)
	}
	query += " ORDER BY ts DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := w.db.QueryContext(ctx, w.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage rows: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e        Entry
			key      sql.NullString
			endpoint sql.NullString
			ts       sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &key, &endpoint, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		e.APIKey = key.String
		e.Endpoint = endpoint.String
		e.TS = ts.Int64
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage rows: %w", err)
	}
	return entries, nil
}

// AggregateDaily recomputes the usage_stats_daily rows for the UTC day
// containing at. Re-running for the same day replaces the counts, so the
// job is safe to fire repeatedly while the day is still open.
func (w *Writer) AggregateDaily(ctx context.Context, at time.Time) error {
	day := at.UTC().Truncate(24 * time.Hour)
	start := day.Unix()
	end := day.Add(24 * time.Hour).Unix()

	query := w.dialect.Rebind(`
		INSERT INTO usage_stats_daily (day, api_key, endpoint, requests)
		SELECT ?, api_key, endpoint, COUNT(*)
		FROM usage_logs
		WHERE ts >= ? AND ts < ? AND api_key IS NOT NULL AND endpoint IS NOT NULL
		GROUP BY api_key, endpoint
		ON CONFLICT(day, api_key, endpoint) DO UPDATE SET requests = excluded.requests`)
	if _, err := w.db.ExecContext(ctx, query, day.Format(dayLayout), start, end); err != nil {
		return fmt.Errorf("failed to aggregate usage for %s: %w", day.Format(dayLayout), err)
	}
	return nil
}

// DailyStats returns the aggregated counts for the UTC day containing at,
// busiest key first.
func (w *Writer) DailyStats(ctx context.Context, at time.Time) ([]DailyStat, error) {
	query := w.dialect.Rebind(`
		SELECT day, api_key, endpoint, requests
		FROM usage_stats_daily
		WHERE day = ?
		ORDER BY requests DESC, api_key, endpoint`)

	rows, err := w.db.QueryContext(ctx, query, at.UTC().Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	stats := make([]DailyStat, 0)
	for rows.Next() {
		var s DailyStat
		if err := rows.Scan(&s.Day, &s.APIKey, &s.Endpoint, &s.Requests); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily stats: %w", err)
	}
	return stats, nil
}

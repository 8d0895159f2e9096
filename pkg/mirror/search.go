package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/corpus/pkg/registry"
)

// SearchService answers keyword searches from the mirror database.
type SearchService struct {
	db      *sql.DB
	dialect Dialect
}

// NewSearchService creates a search service over an open mirror database.
func NewSearchService(db *sql.DB, dialect Dialect) *SearchService {
	return &SearchService{db: db, dialect: dialect}
}

const (
	// DefaultSearchLimit is applied when the caller does not ask for a
	// specific result count.
	DefaultSearchLimit = 50

	maxSearchLimit = 1000
)

// Search returns datasets whose name, description or tags contain keyword.
// Matching is a case-insensitive substring test for ASCII input; tags are
// matched against their JSON encoding, so a keyword can also hit a tag
// fragment.
func (s *SearchService) Search(ctx context.Context, keyword string, limit int) ([]registry.DatasetRecord, error) {
	ctx, span := mirrorTracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("keyword", keyword),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	like := s.dialect.LikeOperator()
	query := s.dialect.Rebind(fmt.Sprintf(`
		SELECT id, name, url, updated, "rows", columns, description, tags
		FROM datasets
		WHERE name %[1]s ? OR description %[1]s ? OR tags %[1]s ?
		ORDER BY name, id
		LIMIT ?`, like))

	pattern := "%" + keyword + "%"
	rows, err := s.db.QueryContext(ctx, query, pattern, pattern, pattern, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search query failed")
		return nil, fmt.Errorf("failed to search datasets: %w", err)
	}
	defer rows.Close()

	results := make([]registry.DatasetRecord, 0, limit)
	for rows.Next() {
		rec, err := scanDataset(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "search scan failed")
			return nil, err
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search iteration failed")
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}

	span.SetAttributes(attribute.Int("result_count", len(results)))
	span.SetStatus(codes.Ok, "search completed")
	return results, nil
}

func scanDataset(rows *sql.Rows) (registry.DatasetRecord, error) {
	var (
		rec         registry.DatasetRecord
		name        sql.NullString
		url         sql.NullString
		updated     sql.NullString
		rowCount    sql.NullInt64
		columns     sql.NullString
		description sql.NullString
		tags        sql.NullString
	)
	if err := rows.Scan(&rec.ID, &name, &url, &updated, &rowCount, &columns, &description, &tags); err != nil {
		return rec, fmt.Errorf("failed to scan dataset row: %w", err)
	}

	rec.Name = name.String
	rec.URL = url.String
	rec.Updated = updated.String
	rec.Description = description.String
	if rowCount.Valid {
		v := rowCount.Int64
		rec.Rows = &v
	}
	if columns.Valid && columns.String != "" {
		if err := json.Unmarshal([]byte(columns.String), &rec.Columns); err != nil {
			return rec, fmt.Errorf("corrupt columns for dataset %s: %w", rec.ID, err)
		}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &rec.Tags); err != nil {
			return rec, fmt.Errorf("corrupt tags for dataset %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

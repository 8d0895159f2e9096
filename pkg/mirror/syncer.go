package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/corpus/pkg/registry"
)

var mirrorTracer = otel.Tracer("corpus/mirror")

// DocumentReader is the slice of the document store the rebuild path needs.
type DocumentReader interface {
	ReadAll(ctx context.Context) ([]registry.DatasetRecord, error)
}

// Syncer projects dataset records into the relational mirror. It implements
// registry.Sync, so the document store calls it after every successful
// write while still holding the document lock.
type Syncer struct {
	db      *sql.DB
	dialect Dialect
	reader  DocumentReader

	rebuild singleflight.Group
}

// NewSyncer creates a syncer. reader feeds RebuildAll and may be nil when
// only the write-through path is used.
func NewSyncer(db *sql.DB, dialect Dialect, reader DocumentReader) *Syncer {
	return &Syncer{db: db, dialect: dialect, reader: reader}
}

const upsertDatasetSQL = `
	INSERT INTO datasets (id, name, url, updated, "rows", columns, description, tags)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		url = excluded.url,
		updated = excluded.updated,
		"rows" = excluded."rows",
		columns = excluded.columns,
		description = excluded.description,
		tags = excluded.tags`

// SyncRecords upserts every record into the datasets table. Rows are never
// deleted here; a record removed from the document keeps its mirror row.
func (s *Syncer) SyncRecords(ctx context.Context, records []registry.DatasetRecord) error {
	ctx, span := mirrorTracer.Start(ctx, "SyncRecords",
		trace.WithAttributes(attribute.Int("record_count", len(records))),
	)
	defer span.End()

	query := s.dialect.Rebind(upsertDatasetSQL)
	for _, rec := range records {
		_, err := s.db.ExecContext(ctx, query,
			rec.ID,
			rec.Name,
			rec.URL,
			nullString(rec.Updated),
			nullInt64(rec.Rows),
			jsonColumn(rec.Columns),
			nullString(rec.Description),
			jsonColumn(rec.Tags),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "mirror write failed")
			return fmt.Errorf("failed to mirror dataset %s: %w", rec.ID, err)
		}
	}

	span.SetStatus(codes.Ok, fmt.Sprintf("mirrored %d datasets", len(records)))
	return nil
}

// RebuildAll replays the entire document into the mirror and returns the
// number of records written. Concurrent calls share one rebuild.
func (s *Syncer) RebuildAll(ctx context.Context) (int, error) {
	ctx, span := mirrorTracer.Start(ctx, "RebuildAll")
	defer span.End()

	if s.reader == nil {
		err := errors.New("no document reader configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "rebuild unavailable")
		return 0, err
	}

	v, err, shared := s.rebuild.Do("rebuild", func() (interface{}, error) {
		records, err := s.reader.ReadAll(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to read document store: %w", err)
		}
		if err := s.SyncRecords(ctx, records); err != nil {
			return 0, err
		}
		return len(records), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rebuild failed")
		return 0, err
	}

	span.SetAttributes(
		attribute.Bool("shared", shared),
		attribute.Int("record_count", v.(int)),
	)
	span.SetStatus(codes.Ok, "rebuild complete")
	return v.(int), nil
}

// nullString converts an empty string to NULL for the database.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullInt64 converts a missing count to NULL for the database.
func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// jsonColumn stores a string slice as its JSON text, NULL when absent.
func jsonColumn(values []string) interface{} {
	if values == nil {
		return nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return string(b)
}

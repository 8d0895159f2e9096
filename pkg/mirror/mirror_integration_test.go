//go:build integration

package mirror

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/platinummonkey/corpus/pkg/registry"
)

func setupPostgresMirror(t *testing.T) (*sql.DB, Dialect, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("mirror_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, dialect, err := Open(ctx, "postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db, dialect))

	cleanup := func() {
		db.Close()
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}

	return db, dialect, cleanup
}

func TestPostgresMirror_Integration(t *testing.T) {
	db, dialect, cleanup := setupPostgresMirror(t)
	defer cleanup()

	syncer := NewSyncer(db, dialect, nil)
	search := NewSearchService(db, dialect)
	ctx := context.Background()

	rec := registry.DatasetRecord{
		ID:          "iris",
		Name:        "Iris",
		URL:         "https://example.com/iris.csv",
		Updated:     "2024-01-02T03:04:05Z",
		Rows:        int64Ptr(150),
		Columns:     []string{"sepal_length", "species"},
		Description: "Classic flower measurements",
		Tags:        []string{"classic", "botany"},
	}
	require.NoError(t, syncer.SyncRecords(ctx, []registry.DatasetRecord{rec}))

	// ILIKE gives case-insensitive matching on PostgreSQL.
	for _, keyword := range []string{"flower", "FLOWER"} {
		results, err := search.Search(ctx, keyword, 0)
		require.NoError(t, err)
		require.Len(t, results, 1, "keyword %q", keyword)
		assert.Equal(t, rec, results[0])
	}

	// Upsert replaces in place.
	rec.Description = "Classic flower measurements, revised"
	require.NoError(t, syncer.SyncRecords(ctx, []registry.DatasetRecord{rec}))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM datasets").Scan(&n))
	assert.Equal(t, 1, n)

	results, err := search.Search(ctx, "revised", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, rec.Description, results[0].Description)
}

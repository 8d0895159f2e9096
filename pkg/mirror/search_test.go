package mirror

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/corpus/pkg/registry"
)

func seedSearchDatasets(t *testing.T, syncer *Syncer) {
	t.Helper()

	require.NoError(t, syncer.SyncRecords(context.Background(), []registry.DatasetRecord{
		{
			ID:          "iris",
			Name:        "Iris",
			URL:         "https://example.com/iris.csv",
			Description: "Classic flower measurements",
			Tags:        []string{"classic", "botany"},
		},
		{
			ID:          "titanic",
			Name:        "Titanic",
			URL:         "https://example.com/titanic.csv",
			Description: "Passenger survival records",
			Tags:        []string{"classic"},
		},
		{
			ID:          "imagenet",
			Name:        "ImageNet",
			URL:         "https://example.com/imagenet.tar",
			Description: "Labeled images",
			Tags:        []string{"vision"},
		},
	}))
}

func TestSearchMatchesAllFields(t *testing.T) {
	db, dialect := newTestDB(t)
	syncer := NewSyncer(db, dialect, nil)
	search := NewSearchService(db, dialect)
	seedSearchDatasets(t, syncer)
	ctx := context.Background()

	tests := []struct {
		name    string
		keyword string
		wantIDs []string
	}{
		{name: "matches name", keyword: "titanic", wantIDs: []string{"titanic"}},
		{name: "matches description", keyword: "flower", wantIDs: []string{"iris"}},
		{name: "matches tag", keyword: "vision", wantIDs: []string{"imagenet"}},
		{name: "matches several datasets", keyword: "classic", wantIDs: []string{"iris", "titanic"}},
		{name: "no match", keyword: "genomics", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := search.Search(ctx, tt.keyword, 0)
			require.NoError(t, err)

			ids := make([]string, 0, len(results))
			for _, rec := range results {
				ids = append(ids, rec.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	db, dialect := newTestDB(t)
	syncer := NewSyncer(db, dialect, nil)
	search := NewSearchService(db, dialect)
	seedSearchDatasets(t, syncer)
	ctx := context.Background()

	for _, keyword := range []string{"flower", "FLOWER", "Flower"} {
		results, err := search.Search(ctx, keyword, 0)
		require.NoError(t, err)
		require.Len(t, results, 1, "keyword %q", keyword)
		assert.Equal(t, "iris", results[0].ID)
	}
}

func TestSearchLimit(t *testing.T) {
	db, dialect := newTestDB(t)
	syncer := NewSyncer(db, dialect, nil)
	search := NewSearchService(db, dialect)
	seedSearchDatasets(t, syncer)
	ctx := context.Background()

	// Every seeded dataset name contains "i".
	results, err := search.Search(ctx, "i", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// A non-positive limit falls back to the default.
	results, err = search.Search(ctx, "i", 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchEmptyMirror(t *testing.T) {
	db, dialect := newTestDB(t)
	search := NewSearchService(db, dialect)

	results, err := search.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchToleratesNullRow(t *testing.T) {
	db, dialect := newTestDB(t)
	search := NewSearchService(db, dialect)

	// Rows written outside the syncer may carry NULL everywhere.
	_, err := db.Exec(`INSERT INTO datasets (id, name) VALUES ('manual', 'Manual Entry')`)
	require.NoError(t, err)

	results, err := search.Search(context.Background(), "manual", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	rec := results[0]
	assert.Equal(t, "manual", rec.ID)
	assert.Equal(t, "Manual Entry", rec.Name)
	assert.Empty(t, rec.URL)
	assert.Nil(t, rec.Rows)
	assert.Nil(t, rec.Columns)
	assert.Nil(t, rec.Tags)
}

func TestSearchReflectsDocumentWrites(t *testing.T) {
	db, dialect := newTestDB(t)
	search := NewSearchService(db, dialect)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "datasets.json")
	store, err := registry.NewDocumentStore(path, NewSyncer(db, dialect, nil))
	require.NoError(t, err)

	require.NoError(t, store.Upsert(ctx, registry.DatasetRecord{
		ID:   "d1",
		Name: "Iris",
		URL:  "https://x.test/iris.csv",
		Tags: []string{"flowers", "csv"},
	}))

	// The write is searchable before Upsert's caller gets its response back,
	// with tags intact.
	results, err := search.Search(ctx, "flower", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].ID)
	assert.Equal(t, []string{"flowers", "csv"}, results[0].Tags)

	results, err = search.Search(ctx, "nonexistent", 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, store.Upsert(ctx, registry.DatasetRecord{
		ID:          "d1",
		Name:        "Iris",
		URL:         "https://x.test/iris.csv",
		Description: "Sepal and petal measurements",
		Tags:        []string{"flowers", "csv"},
	}))

	results, err = search.Search(ctx, "petal", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].ID)
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/corpus/pkg/mirror"
	"github.com/platinummonkey/corpus/pkg/observability"
)

func newMockDBServer(t *testing.T, store *mockDocumentStore, opts Options) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServer(store, db, mirror.DialectSQLite, opts), mock
}

// TestNewServer_WithDatabase verifies the database-backed handlers come up
func TestNewServer_WithDatabase(t *testing.T) {
	server, _ := newMockDBServer(t, &mockDocumentStore{}, Options{AdminSecret: "hunter2"})

	assert.NotNil(t, server.db)
	assert.NotNil(t, server.searcher)
	assert.NotNil(t, server.auth)
	assert.NotNil(t, server.admin)
}

// TestRouteTable verifies every public route is mounted
func TestRouteTable(t *testing.T) {
	store := &mockDocumentStore{records: testRecords()}
	server := newTestServer(store)

	routes := []struct {
		method string
		target string
		status int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/status", http.StatusOK},
		{"GET", "/stats", http.StatusOK},
		{"GET", "/datasets", http.StatusOK},
		{"GET", "/latest", http.StatusOK},
		{"GET", "/get/iris", http.StatusOK},
		{"GET", "/search", http.StatusBadRequest}, // mounted; keyword missing
		{"GET", "/openapi.yaml", http.StatusOK},
		{"GET", "/docs-ui", http.StatusOK},
	}
	for _, tc := range routes {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.target)
	}
}

// TestRouteMethodRestrictions verifies reads reject POST and writes reject GET
func TestRouteMethodRestrictions(t *testing.T) {
	server := newTestServer(&mockDocumentStore{})

	cases := []struct {
		method string
		target string
	}{
		{"POST", "/datasets"},
		{"POST", "/stats"},
		{"GET", "/update"},
		{"DELETE", "/get/iris"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", tc.method, tc.target)
	}
}

// TestAdminRoutes_NotMountedWithoutDatabase verifies admin endpoints 404
// when no database is wired
func TestAdminRoutes_NotMountedWithoutDatabase(t *testing.T) {
	server := newTestServer(&mockDocumentStore{})

	req := httptest.NewRequest("POST", "/admin/reindex?secret=anything", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestUpdate_RequiresAPIKey verifies /update is closed without a key when
// the key registry is wired
func TestUpdate_RequiresAPIKey(t *testing.T) {
	store := &mockDocumentStore{}
	server, mock := newMockDBServer(t, store, Options{})

	body := []byte(`{"id": "iris", "name": "Iris", "url": "https://example.com/iris.csv"}`)
	req := httptest.NewRequest("POST", "/update", bytes.NewReader(body))
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Len(t, store.upserted, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdate_UnknownKey verifies an unknown key is rejected after a lookup
func TestUpdate_UnknownKey(t *testing.T) {
	store := &mockDocumentStore{}
	server, mock := newMockDBServer(t, store, Options{})

	mock.ExpectQuery("SELECT active FROM api_keys").
		WithArgs("corpus_unknown").
		WillReturnRows(sqlmock.NewRows([]string{"active"}))

	body := []byte(`{"id": "iris", "name": "Iris", "url": "https://example.com/iris.csv"}`)
	req := httptest.NewRequest("POST", "/update", bytes.NewReader(body))
	req.Header.Set("X-API-Key", "corpus_unknown")
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Len(t, store.upserted, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdate_WithValidKey verifies the full write path: key check, then
// upsert through the document store
func TestUpdate_WithValidKey(t *testing.T) {
	store := &mockDocumentStore{}
	server, mock := newMockDBServer(t, store, Options{})

	mock.ExpectQuery("SELECT active FROM api_keys").
		WithArgs("corpus_goodkey").
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(1))

	body := []byte(`{"id": "iris", "name": "Iris", "url": "https://example.com/iris.csv"}`)
	req := httptest.NewRequest("POST", "/update", bytes.NewReader(body))
	req.Header.Set("X-API-Key", "corpus_goodkey")
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response UpdateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "iris", response.ID)

	require.Len(t, store.upserted, 1)
	assert.NotEmpty(t, store.upserted[0].Updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdate_QueryParameterKey verifies the api_key query parameter works
// as a fallback to the header
func TestUpdate_QueryParameterKey(t *testing.T) {
	store := &mockDocumentStore{}
	server, mock := newMockDBServer(t, store, Options{})

	mock.ExpectQuery("SELECT active FROM api_keys").
		WithArgs("corpus_goodkey").
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(1))

	body := []byte(`{"id": "iris", "name": "Iris", "url": "https://example.com/iris.csv"}`)
	req := httptest.NewRequest("POST", "/update?api_key=corpus_goodkey", bytes.NewReader(body))
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.upserted, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSearch_ThroughMirror verifies /search queries the mirror database
func TestSearch_ThroughMirror(t *testing.T) {
	server, mock := newMockDBServer(t, &mockDocumentStore{}, Options{})

	rows := sqlmock.NewRows([]string{"id", "name", "url", "updated", "rows", "columns", "description", "tags"}).
		AddRow("iris", "Iris", "https://example.com/iris.csv", "2026-01-12T09:30:00Z", int64(150),
			`["sepal_length","species"]`, "Classic flower measurements", `["ml","classic"]`)
	mock.ExpectQuery(`SELECT id, name, url, updated, "rows", columns, description, tags`).
		WithArgs("%iris%", "%iris%", "%iris%", 50).
		WillReturnRows(rows)

	req := httptest.NewRequest("GET", "/search?keyword=iris", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "iris", response[0]["id"])
	assert.Equal(t, []interface{}{"ml", "classic"}, response[0]["tags"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStatus_HealthyWithDatabase verifies /status flips healthy once the
// database answers pings
func TestStatus_HealthyWithDatabase(t *testing.T) {
	server, _ := newMockDBServer(t, &mockDocumentStore{}, Options{})

	req := httptest.NewRequest("GET", "/status", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Healthy)
}

// TestAdminCreateKey_EndToEnd drives key creation through the router, the
// admin gate and the real key registry
func TestAdminCreateKey_EndToEnd(t *testing.T) {
	server, mock := newMockDBServer(t, &mockDocumentStore{}, Options{AdminSecret: "hunter2"})

	mock.ExpectExec("INSERT INTO api_keys").
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := httptest.NewRequest("POST", "/admin/create_key?label=ci&secret=hunter2", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response CreateKeyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, strings.HasPrefix(response.Key, "corpus_"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestAdminGate_WithDatabase verifies the secret gate holds in the fully
// wired server
func TestAdminGate_WithDatabase(t *testing.T) {
	server, mock := newMockDBServer(t, &mockDocumentStore{}, Options{})

	req := httptest.NewRequest("POST", "/admin/create_key?secret=anything", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestHealthProbes verifies /health/live and /health/ready are mounted when
// a health checker is configured
func TestHealthProbes(t *testing.T) {
	store := &mockDocumentStore{}
	checker := observability.NewHealthChecker(nil, nil, nil)
	server := NewServer(store, nil, mirror.DialectSQLite, Options{Health: checker})

	for _, target := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest("GET", target, nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, target)
	}
}

// TestHealthProbes_NotMountedByDefault verifies the probe routes need a
// configured checker
func TestHealthProbes_NotMountedByDefault(t *testing.T) {
	server := newTestServer(&mockDocumentStore{})

	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestMetricsRoute verifies /metrics exposes the service registry
func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	metrics.RateLimitChecksTotal.WithLabelValues("memory", "allowed").Inc()

	store := &mockDocumentStore{}
	server := NewServer(store, nil, mirror.DialectSQLite, Options{Metrics: reg})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "corpus_ratelimit_checks_total")
}

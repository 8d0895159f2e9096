package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/corpus/pkg/httputil"
	"github.com/platinummonkey/corpus/pkg/keys"
	"github.com/platinummonkey/corpus/pkg/middleware"
	"github.com/platinummonkey/corpus/pkg/mirror"
	"github.com/platinummonkey/corpus/pkg/observability"
	"github.com/platinummonkey/corpus/pkg/registry"
	"github.com/platinummonkey/corpus/pkg/swagger"
	"github.com/platinummonkey/corpus/pkg/usage"
)

// Server represents our API server
type Server struct {
	store     DocumentStore
	router    *mux.Router
	db        *sql.DB
	searcher  Searcher
	auth      *middleware.APIKeyMiddleware
	admin     *AdminHandlers
	health    *observability.HealthChecker
	metrics   *prometheus.Registry
	latestMax int
}

// Options configures the optional server dependencies.
type Options struct {
	// AdminSecret gates the /admin endpoints. The routes stay mounted
	// either way; with an empty secret they answer 403.
	AdminSecret string

	// LatestMax caps the ?n= parameter on /latest. Zero means
	// DefaultLatestMax.
	LatestMax int

	// Health mounts /health/live and /health/ready probes when set.
	Health *observability.HealthChecker

	// Metrics mounts /metrics over the given registry when set.
	Metrics *prometheus.Registry

	// Log receives API key validation failures. Defaults to a fresh
	// logrus logger.
	Log *logrus.Logger
}

// NewServer creates a new API server. The document store is required; the
// database powers search, key management, usage reporting and the admin
// endpoints, all of which stay unmounted when db is nil.
func NewServer(store DocumentStore, db *sql.DB, dialect mirror.Dialect, opts Options) *Server {
	s := &Server{
		store:     store,
		router:    mux.NewRouter(),
		db:        db,
		health:    opts.Health,
		metrics:   opts.Metrics,
		latestMax: opts.LatestMax,
	}
	if s.latestMax <= 0 {
		s.latestMax = DefaultLatestMax
	}

	if db != nil {
		s.searcher = mirror.NewSearchService(db, dialect)

		keyRegistry := keys.NewRegistry(db, dialect)
		s.auth = middleware.NewAPIKeyMiddleware(keyRegistry, opts.Log)

		syncer := mirror.NewSyncer(db, dialect, store)
		s.admin = NewAdminHandlers(opts.AdminSecret, keyRegistry, syncer, usage.NewWriter(db, dialect))
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Service routes
	s.router.HandleFunc("/health", s.getHealth).Methods("GET")
	s.router.HandleFunc("/status", s.getStatus).Methods("GET")
	s.router.HandleFunc("/stats", s.getStats).Methods("GET")

	// Dataset routes
	s.router.HandleFunc("/datasets", s.listDatasets).Methods("GET")
	s.router.HandleFunc("/latest", s.getLatest).Methods("GET")
	s.router.HandleFunc("/get/{dataset_id}", s.getDataset).Methods("GET")
	s.router.HandleFunc("/search", s.searchDatasets).Methods("GET")

	// Dataset writes require an API key
	update := http.Handler(http.HandlerFunc(s.updateDataset))
	if s.auth != nil {
		update = s.auth.Handler(update)
	}
	s.router.Handle("/update", update).Methods("POST")

	// Register admin routes (if database is available)
	if s.admin != nil {
		s.admin.RegisterRoutes(s.router)
	}

	// Register OpenAPI document and docs page
	swagger.NewSwaggerHandlers().RegisterRoutes(s.router)

	// Health probes for orchestrators
	if s.health != nil {
		s.router.HandleFunc("/health/live", s.health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", s.health.Readiness).Methods("GET")
	}

	// Prometheus metrics
	if s.metrics != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(s.metrics)).Methods("GET")
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}

// getHealth handles GET /health
func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Unix(),
	})
}

// getStatus handles GET /status. Healthy means the mirror database answers
// a ping; the document store is checked separately by /health/ready.
func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthy := false
	if s.db != nil {
		healthy = s.db.PingContext(ctx) == nil
	}

	httputil.WriteSuccess(w, StatusResponse{
		Service: ServiceName,
		Healthy: healthy,
		Time:    time.Now().Unix(),
	})
}

// getStats handles GET /stats
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ReadAll(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var lastUpdated *string
	latest, err := s.store.QueryLatest(r.Context(), 1)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if len(latest) > 0 && latest[0].Updated != "" {
		lastUpdated = &latest[0].Updated
	}

	tagCounts := make(map[string]int)
	for _, rec := range records {
		for _, tag := range rec.Tags {
			tagCounts[tag]++
		}
	}

	httputil.WriteSuccess(w, StatsResponse{
		Count:       len(records),
		LastUpdated: lastUpdated,
		TagCounts:   tagCounts,
	})
}

// listDatasets handles GET /datasets
func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ReadAll(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

// getLatest handles GET /latest
func (s *Server) getLatest(w http.ResponseWriter, r *http.Request) {
	n, err := httputil.ParseQueryInt(r, "n", 1)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if n < 1 {
		httputil.WriteValidationError(w, "n must be >= 1")
		return
	}
	if n > s.latestMax {
		n = s.latestMax
	}

	records, err := s.store.QueryLatest(r.Context(), n)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

// getDataset handles GET /get/{dataset_id}
func (s *Server) getDataset(w http.ResponseWriter, r *http.Request) {
	vars := httputil.GetPathVars(r)
	record, err := s.store.Get(r.Context(), vars["dataset_id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	httputil.WriteSuccess(w, record)
}

// searchDatasets handles GET /search
func (s *Server) searchDatasets(w http.ResponseWriter, r *http.Request) {
	keyword := httputil.ParseQueryString(r, "keyword", "")
	if !httputil.RequireNonEmpty(w, keyword, "keyword") {
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if s.searcher == nil {
		httputil.WriteInternalError(w, errors.New("search unavailable"))
		return
	}

	records, err := s.searcher.Search(r.Context(), keyword, limit)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, records)
}

// updateDataset handles POST /update
func (s *Server) updateDataset(w http.ResponseWriter, r *http.Request) {
	var record registry.DatasetRecord
	if !httputil.ParseJSONOrError(w, r, &record) {
		return
	}

	if record.Updated == "" {
		record.Updated = time.Now().UTC().Format(registry.UpdatedTimeLayout)
	}

	if err := s.store.Upsert(r.Context(), record); err != nil {
		writeStoreError(w, err)
		return
	}

	httputil.WriteSuccess(w, UpdateResponse{Status: "ok", ID: record.ID})
}

// writeStoreError maps document store errors onto HTTP responses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case registry.IsValidation(err):
		httputil.WriteValidationError(w, err.Error())
	case errors.Is(err, registry.ErrNotFound):
		httputil.WriteNotFoundError(w, "Dataset not found")
	case registry.IsCorruption(err):
		httputil.WriteErrorCode(w, http.StatusInternalServerError, httputil.CodeStorageCorruption, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}

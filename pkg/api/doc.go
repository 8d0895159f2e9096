// Package api provides the HTTP REST API server for the corpus dataset registry.
//
// # Overview
//
// This package implements the HTTP layer over the dataset registry: reads
// from the authoritative JSON document store, keyword search against the
// relational mirror, key-protected dataset writes and the secret-gated
// admin endpoints for key management, mirror rebuilds and usage reporting.
//
// # Architecture
//
// The API is built on gorilla/mux. The Server owns the core routes; admin
// endpoints live in their own handler group behind the admin gate, and the
// OpenAPI document is served by pkg/swagger:
//
//   - Service: /health, /status, /stats
//   - Datasets: /datasets, /latest, /get/{dataset_id}, /search, /update
//   - Admin: /admin/create_key, /admin/deactivate_key, /admin/reindex, /admin/usage
//   - Docs: /openapi.yaml, /docs-ui
//
// Optional routes are mounted when their dependency is configured:
// /health/live and /health/ready over an observability.HealthChecker, and
// /metrics over a Prometheus registry.
//
// # Key Types
//
// Server is the main API server:
//
//	server := api.NewServer(store, db, dialect, api.Options{
//		AdminSecret: cfg.Admin.Secret,
//	})
//	http.ListenAndServe(":8000", server)
//
// The Server speaks to its dependencies through small interfaces
// (DocumentStore, Searcher, Reindexer, KeyAdmin, UsageStore) so tests can
// substitute stubs; the production implementations live in pkg/registry,
// pkg/mirror, pkg/keys and pkg/usage.
//
// Cross-cutting request middleware (recovery, request IDs, CORS, metrics,
// rate limiting, usage logging) is composed around the Server by the
// caller, keeping the package focused on routing and handlers.
package api

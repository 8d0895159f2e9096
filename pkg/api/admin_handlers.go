package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/corpus/pkg/httputil"
	"github.com/platinummonkey/corpus/pkg/middleware"
)

// AdminHandlers serves the operator endpoints: key issuance and
// deactivation, mirror rebuilds and usage reporting. Every route sits
// behind the shared admin secret gate.
type AdminHandlers struct {
	secret string
	keys   KeyAdmin
	syncer Reindexer
	usage  UsageStore
}

// NewAdminHandlers creates admin handlers gated by secret. An empty secret
// leaves the endpoints mounted but disabled.
func NewAdminHandlers(secret string, keyAdmin KeyAdmin, syncer Reindexer, usageStore UsageStore) *AdminHandlers {
	return &AdminHandlers{
		secret: secret,
		keys:   keyAdmin,
		syncer: syncer,
		usage:  usageStore,
	}
}

// RegisterRoutes registers the admin routes
func (h *AdminHandlers) RegisterRoutes(router *mux.Router) {
	gate := middleware.NewAdminMiddleware(h.secret)
	router.Handle("/admin/create_key", gate.Handler(http.HandlerFunc(h.createKey))).Methods("POST")
	router.Handle("/admin/deactivate_key", gate.Handler(http.HandlerFunc(h.deactivateKey))).Methods("POST")
	router.Handle("/admin/reindex", gate.Handler(http.HandlerFunc(h.reindex))).Methods("POST")
	router.Handle("/admin/usage", gate.Handler(http.HandlerFunc(h.usageStats))).Methods("GET")
}

// createKey handles POST /admin/create_key
func (h *AdminHandlers) createKey(w http.ResponseWriter, r *http.Request) {
	label := httputil.ParseQueryString(r, "label", "")

	var quota *int64
	if raw := httputil.ParseQueryString(r, "quota", ""); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteValidationError(w, "invalid integer for query param quota: "+raw)
			return
		}
		quota = &parsed
	}

	key, err := h.keys.CreateKey(r.Context(), label, quota)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, CreateKeyResponse{Key: key})
}

// deactivateKey handles POST /admin/deactivate_key. Deactivating an
// unknown key still answers 200, so retries are safe.
func (h *AdminHandlers) deactivateKey(w http.ResponseWriter, r *http.Request) {
	key := httputil.ParseQueryString(r, "key", "")
	if !httputil.RequireNonEmpty(w, key, "key") {
		return
	}

	if err := h.keys.DeactivateKey(r.Context(), key); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, DeactivateKeyResponse{Status: "ok"})
}

// reindex handles POST /admin/reindex
func (h *AdminHandlers) reindex(w http.ResponseWriter, r *http.Request) {
	records, err := h.syncer.RebuildAll(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, ReindexResponse{Status: "ok", Records: records})
}

// usageStats handles GET /admin/usage. The day's counts are re-aggregated
// on each call, so the response covers requests made moments ago.
func (h *AdminHandlers) usageStats(w http.ResponseWriter, r *http.Request) {
	at := time.Now().UTC()
	if raw := httputil.ParseQueryString(r, "day", ""); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.WriteValidationError(w, "invalid day, want YYYY-MM-DD: "+raw)
			return
		}
		at = parsed
	}

	if err := h.usage.AggregateDaily(r.Context(), at); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	stats, err := h.usage.DailyStats(r.Context(), at)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}

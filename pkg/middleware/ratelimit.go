package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/corpus/pkg/httputil"
	"github.com/platinummonkey/corpus/pkg/observability"
	"github.com/platinummonkey/corpus/pkg/ratelimit"
)

// exemptPaths are never rate-accounted: health probes, metrics scrapes and
// the API documentation endpoints.
var exemptPaths = map[string]struct{}{
	"/health":       {},
	"/metrics":      {},
	"/openapi.yaml": {},
	"/docs-ui":      {},
}

// ExemptPath reports whether a request path bypasses rate limiting and
// usage logging.
func ExemptPath(path string) bool {
	if _, ok := exemptPaths[path]; ok {
		return true
	}
	return strings.HasPrefix(path, "/health/")
}

// RateLimitMiddleware enforces a per-client request budget in front of the
// API. Clients are identified by their X-API-Key header when present,
// otherwise by IP.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	config  *ratelimit.Config
	backend string
	metrics *observability.Metrics
}

// NewRateLimitMiddleware creates rate limiting middleware around the given
// limiter. backend labels the metrics series ("memory" or "redis"). metrics
// may be nil.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, config *ratelimit.Config, backend string, metrics *observability.Metrics) *RateLimitMiddleware {
	if config == nil {
		config = ratelimit.DefaultConfig()
	}
	return &RateLimitMiddleware{
		limiter: limiter,
		config:  config,
		backend: backend,
		metrics: metrics,
	}
}

// Handler wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ExemptPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		clientID := ratelimit.ClientID(r)
		if m.limiter.Check(r.Context(), clientID) {
			m.observe("limited")
			m.rateLimitExceeded(w)
			return
		}

		m.observe("allowed")
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) observe(outcome string) {
	if m.metrics != nil {
		m.metrics.RateLimitChecksTotal.WithLabelValues(m.backend, outcome).Inc()
	}
}

type rateLimitResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after"`
}

func (m *RateLimitMiddleware) rateLimitExceeded(w http.ResponseWriter) {
	retryAfter := int(m.config.Window.Seconds())

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.config.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(m.config.Window).Unix(), 10))

	httputil.WriteJSON(w, http.StatusTooManyRequests, rateLimitResponse{
		Error:      "rate limit exceeded",
		Code:       httputil.CodeRateLimited,
		RetryAfter: retryAfter,
	})
}

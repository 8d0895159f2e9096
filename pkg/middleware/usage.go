package middleware

import "net/http"

// UsageRecorder receives one event per request that presented an API key.
// Implementations must not block; *usage.Recorder satisfies this.
type UsageRecorder interface {
	Record(apiKey, endpoint string)
}

// UsageMiddleware logs which API key hit which endpoint. Requests without an
// X-API-Key header are anonymous and not logged, and paths exempt from rate
// limiting are exempt here too.
type UsageMiddleware struct {
	recorder UsageRecorder
}

// NewUsageMiddleware creates usage logging middleware. recorder may be nil,
// in which case the middleware passes requests through untouched.
func NewUsageMiddleware(recorder UsageRecorder) *UsageMiddleware {
	return &UsageMiddleware{recorder: recorder}
}

// Handler wraps an HTTP handler with usage logging
func (m *UsageMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.recorder != nil && !ExemptPath(r.URL.Path) {
			// Raw header, not the validated key: unknown keys still show
			// up in usage rows.
			if key := r.Header.Get("X-API-Key"); key != "" {
				m.recorder.Record(key, r.URL.Path)
			}
		}
		next.ServeHTTP(w, r)
	})
}

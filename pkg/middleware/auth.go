package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/corpus/pkg/contextkeys"
	"github.com/platinummonkey/corpus/pkg/httputil"
)

// KeyValidator checks whether a presented API key is active.
// *keys.Registry satisfies this.
type KeyValidator interface {
	ValidateKey(ctx context.Context, key string) (bool, error)
}

// APIKeyMiddleware guards write endpoints behind API key validation. The key
// arrives in the X-API-Key header or, as a fallback, the api_key query
// parameter.
type APIKeyMiddleware struct {
	validator KeyValidator
	log       *logrus.Logger
}

// NewAPIKeyMiddleware creates API key authentication middleware
func NewAPIKeyMiddleware(validator KeyValidator, log *logrus.Logger) *APIKeyMiddleware {
	if log == nil {
		log = logrus.New()
	}
	return &APIKeyMiddleware{
		validator: validator,
		log:       log,
	}
}

// Handler wraps an HTTP handler with API key authentication. On success the
// validated key is placed on the request context under contextkeys.APIKeyKey.
func (m *APIKeyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := APIKeyFromRequest(r)
		if key == "" {
			httputil.WriteUnauthorized(w, "Invalid or missing API key")
			return
		}

		valid, err := m.validator.ValidateKey(r.Context(), key)
		if err != nil {
			m.log.WithError(err).Error("API key validation failed")
			httputil.WriteInternalError(w, errors.New("key validation unavailable"))
			return
		}
		if !valid {
			httputil.WriteUnauthorized(w, "Invalid or missing API key")
			return
		}

		ctx := contextkeys.WithAPIKey(r.Context(), key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// APIKeyFromRequest extracts the API key from the X-API-Key header, falling
// back to the api_key query parameter. Returns "" when neither is set.
func APIKeyFromRequest(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return r.URL.Query().Get("api_key")
}

// AdminMiddleware guards the /admin endpoints behind a shared secret passed
// as the secret query parameter. With no secret configured the endpoints are
// disabled outright: every request is rejected with 403 rather than letting
// an empty comparison succeed.
type AdminMiddleware struct {
	secret string
}

// NewAdminMiddleware creates admin gate middleware for the configured secret
func NewAdminMiddleware(secret string) *AdminMiddleware {
	return &AdminMiddleware{secret: secret}
}

// Handler wraps an HTTP handler with the admin secret check
func (m *AdminMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			httputil.WriteForbidden(w, "Admin endpoints disabled (no CORPUS_ADMIN_SECRET set)")
			return
		}
		if r.URL.Query().Get("secret") != m.secret {
			httputil.WriteUnauthorized(w, "Invalid admin secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package ratelimit

import (
	"context"
	"net/http"
	"time"
)

// Default budget applied when no configuration is provided.
const (
	DefaultLimit  = 120
	DefaultWindow = 60 * time.Second
)

// Limiter decides whether a client request may proceed.
type Limiter interface {
	// Check reports whether clientID has exceeded its budget for the
	// current window. True means the request should be rejected.
	Check(ctx context.Context, clientID string) bool
}

// Config holds the request budget shared by both limiter backends.
type Config struct {
	// Limit is the number of requests allowed per window.
	Limit int
	// Window is the accounting period.
	Window time.Duration
}

// DefaultConfig returns the stock budget of 120 requests per minute.
func DefaultConfig() *Config {
	return &Config{
		Limit:  DefaultLimit,
		Window: DefaultWindow,
	}
}

// ClientID returns the identity a request is rate-accounted under: the
// X-API-Key header when one is presented, otherwise the client IP. The
// api_key query parameter accepted for authentication does not participate
// here.
func ClientID(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ClientIP(r)
}

// ClientIP extracts the client IP from a request.
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		return xff
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	// Fall back to RemoteAddr
	return r.RemoteAddr
}

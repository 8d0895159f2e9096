// Package middleware provides HTTP middleware for API key authentication, the admin gate,
// rate limiting, and usage logging.
//
// # Overview
//
// This package implements the request processing chain in front of the API handlers:
// per-client rate limiting (memory or Redis backed), fire-and-forget usage logging,
// API key validation for write endpoints, and the shared-secret gate on /admin routes.
//
// # Middleware Components
//
// RateLimitMiddleware: per-client request budget
//
//	limiter := ratelimit.NewMemoryLimiter(cfg.RateLimit.LimiterConfig())
//	rl := middleware.NewRateLimitMiddleware(limiter, cfg.RateLimit.LimiterConfig(), "memory", metrics)
//	router.Use(rl.Handler)
//	// Identifies clients by X-API-Key header, else IP; 429 with Retry-After on excess
//
// UsageMiddleware: records which key hit which endpoint
//
//	um := middleware.NewUsageMiddleware(recorder)
//	router.Use(um.Handler)
//	// Logs the raw X-API-Key header when present; anonymous requests are not logged
//
// APIKeyMiddleware: guards write endpoints
//
//	am := middleware.NewAPIKeyMiddleware(keyRegistry, log)
//	updateRoute.Handler(am.Handler(updateHandler))
//	// X-API-Key header or api_key query parameter; 401 on missing or inactive keys
//
// AdminMiddleware: guards /admin endpoints
//
//	admin := middleware.NewAdminMiddleware(cfg.Admin.Secret)
//	adminRouter.Use(admin.Handler)
//	// secret query parameter; 403 when no secret is configured, 401 on mismatch
//
// # Exempt Paths
//
// /health (and /health/ subpaths), /metrics, /openapi.yaml and /docs-ui bypass
// rate limiting and usage logging so probes and scrapes never burn budget.
//
// # Related Packages
//
//   - pkg/ratelimit: Limiter backends
//   - pkg/keys: API key validation
//   - pkg/usage: Usage log recorder
//   - pkg/httputil: Error envelopes and generic middleware
package middleware

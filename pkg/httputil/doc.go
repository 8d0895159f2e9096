// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses
// with stable machine-readable codes, parameter parsing, and common HTTP middleware.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteSuccess(w, data)
//
// Error responses (every error body carries an "error" message and a stable
// "code" such as validation_error or not_found):
//
//	httputil.WriteValidationError(w, "keyword is required")
//	httputil.WriteNotFoundError(w, "Dataset not found")
//	httputil.WriteUnauthorized(w, "Invalid or missing API key")
//	httputil.WriteErrorCode(w, http.StatusInternalServerError, httputil.CodeStorageCorruption, err.Error())
//
// # Request Parsing
//
// JSON parsing:
//
//	var req UpdateDatasetRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path and query parameters:
//
//	id, ok := httputil.ParsePathStringOrError(w, r, "id")
//	limit, err := httputil.ParseQueryInt(r, "limit", 50)
//	keyword := httputil.ParseQueryString(r, "keyword", "")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware,
//		httputil.RequestIDMiddleware,
//		httputil.CORSMiddleware([]string{"*"}),
//		httputil.LoggingMiddleware,
//		httputil.MaxBytesMiddleware(1024*1024),
//	)
//
// # Related Packages
//
//   - pkg/middleware: rate limiting, API key auth, and usage logging middleware
package httputil

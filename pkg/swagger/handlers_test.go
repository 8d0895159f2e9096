package swagger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewSwaggerHandlers(t *testing.T) {
	handlers := NewSwaggerHandlers()
	assert.NotNil(t, handlers)
}

func TestRegisterRoutes(t *testing.T) {
	router := mux.NewRouter()
	handlers := NewSwaggerHandlers()

	handlers.RegisterRoutes(router)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{
			name:           "OpenAPI YAML endpoint",
			path:           "/openapi.yaml",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Docs UI endpoint",
			path:           "/docs-ui",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestServeOpenAPISpec(t *testing.T) {
	handlers := NewSwaggerHandlers()
	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	w := httptest.NewRecorder()

	handlers.serveOpenAPISpec(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-yaml", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, openapiSpec, w.Body.Bytes())
}

func TestOpenAPISpecIsValidYAML(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(openapiSpec, &doc))

	assert.Contains(t, doc, "openapi")
	assert.Contains(t, doc, "paths")

	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok, "paths should be a mapping")

	// Every served route is documented.
	for _, route := range []string{
		"/health", "/status", "/stats",
		"/datasets", "/latest", "/get/{dataset_id}", "/search", "/update",
		"/admin/create_key", "/admin/deactivate_key", "/admin/reindex", "/admin/usage",
		"/metrics",
	} {
		assert.Contains(t, paths, route)
	}
}

func TestServeDocsUI(t *testing.T) {
	handlers := NewSwaggerHandlers()
	req := httptest.NewRequest(http.MethodGet, "/docs-ui", nil)
	w := httptest.NewRecorder()

	handlers.serveDocsUI(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "Corpus Dataset Registry API")
	assert.Contains(t, body, "swagger-ui-dist")
	assert.Contains(t, body, "/openapi.yaml")
	assert.Contains(t, body, "SwaggerUIBundle")
}

func TestDocsUIContainsAPIKeySupport(t *testing.T) {
	handlers := NewSwaggerHandlers()
	req := httptest.NewRequest(http.MethodGet, "/docs-ui", nil)
	w := httptest.NewRecorder()

	handlers.serveDocsUI(w, req)

	body := w.Body.String()
	assert.Contains(t, body, "corpus_api_key")
	assert.Contains(t, body, "X-API-Key")
	assert.Contains(t, body, "requestInterceptor")
}

func TestRouterMethodRestrictions(t *testing.T) {
	router := mux.NewRouter()
	handlers := NewSwaggerHandlers()
	handlers.RegisterRoutes(router)

	paths := []string{"/openapi.yaml", "/docs-ui"}
	methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete}

	for _, path := range paths {
		for _, method := range methods {
			t.Run(method+" "+path, func(t *testing.T) {
				req := httptest.NewRequest(method, path, nil)
				w := httptest.NewRecorder()

				router.ServeHTTP(w, req)

				assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			})
		}
	}
}

func BenchmarkServeOpenAPISpec(b *testing.B) {
	handlers := NewSwaggerHandlers()
	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		handlers.serveOpenAPISpec(w, req)
	}
}

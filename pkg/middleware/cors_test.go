package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(t *testing.T, cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("handled"))
	}))

	req := httptest.NewRequest(method, "/", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestCORS_OriginMatching(t *testing.T) {
	strict := CORSConfig{
		AllowedOrigins: []string{"https://shop.example.com", "https://admin.example.com"},
		Environment:    "production",
	}

	tests := []struct {
		name      string
		cfg       CORSConfig
		origin    string
		wantAllow string
		wantVary  string
	}{
		{
			name:      "development wildcard admits any origin",
			cfg:       CORSConfig{AllowedOrigins: []string{"*"}, Environment: "development"},
			origin:    "https://evil.example",
			wantAllow: "*",
		},
		{
			name:      "explicit wildcard works outside development",
			cfg:       CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"},
			origin:    "https://anywhere.example",
			wantAllow: "*",
		},
		{
			name:      "listed origin echoed with Vary",
			cfg:       strict,
			origin:    "https://admin.example.com",
			wantAllow: "https://admin.example.com",
			wantVary:  "Origin",
		},
		{
			name:      "unlisted origin gets no allow header",
			cfg:       strict,
			origin:    "https://evil.example",
			wantAllow: "",
		},
		{
			name:      "absent origin gets no allow header in production",
			cfg:       strict,
			origin:    "",
			wantAllow: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := corsRequest(t, tt.cfg, http.MethodGet, tt.origin)
			assert.Equal(t, tt.wantAllow, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantVary, rr.Header().Get("Vary"))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"*"}, Environment: "development"}
	rr := corsRequest(t, cfg, http.MethodOptions, "https://shop.example.com")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String(), "preflight must not reach the handler")
}

func TestCORS_HeaderConfiguration(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:   []string{"https://shop.example.com"},
		AllowedHeaders:   []string{"Accept", "Authorization", "X-Custom"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		MaxAge:           7200,
		AllowCredentials: true,
		Environment:      "production",
	}
	rr := corsRequest(t, cfg, http.MethodGet, "https://shop.example.com")

	h := rr.Header()
	assert.Equal(t, "Accept, Authorization, X-Custom", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "X-Correlation-ID", h.Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "7200", h.Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", h.Get("Access-Control-Allow-Credentials"))
}

func TestCORS_EmptyFieldsGetDefaults(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"*"}, Environment: "development"}
	rr := corsRequest(t, cfg, http.MethodGet, "")

	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "3600", rr.Header().Get("Access-Control-Max-Age"))
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Headers"))
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.AllowedMethods, "GET")
	assert.Contains(t, cfg.AllowedHeaders, "Authorization")
	assert.Equal(t, 3600, cfg.MaxAge)
	assert.Equal(t, "development", cfg.Environment)
}

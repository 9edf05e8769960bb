package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stonemap/pkg/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestChain tests middleware composition order.
func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := Chain(mark("m1"), mark("m2"), mark("m3"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"m1", "m2", "m3", "handler"}, order)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var ctxLogger *zerolog.Logger
	handler := Logger(&logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger = logging.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sites", nil))

	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	require.NotNil(t, ctxLogger)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP request", entry["message"])
	assert.Equal(t, id, entry["request_id"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.Equal(t, "/api/v1/sites", entry["path"])
}

func TestLoggerKeepsIncomingRequestID(t *testing.T) {
	logger := zerolog.Nop()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()

	Logger(&logger)(okHandler()).ServeHTTP(w, r)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()
	handler := Recovery(&logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{"wildcard", []string{"*"}, "https://maps.example.org", http.MethodGet, "*", http.StatusOK},
		{"allowed origin", []string{"https://maps.example.org"}, "https://maps.example.org", http.MethodGet, "https://maps.example.org", http.StatusOK},
		{"other origin", []string{"https://maps.example.org"}, "https://evil.example.com", http.MethodGet, "", http.StatusOK},
		{"preflight", []string{"*"}, "https://maps.example.org", http.MethodOptions, "*", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.origins

			r := httptest.NewRequest(tt.method, "/api/v1/sites", nil)
			r.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			CORS(cfg)(okHandler()).ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")
		})
	}
}

func TestRateLimit(t *testing.T) {
	logger := zerolog.Nop()
	rl := NewRateLimiter(3, &logger)
	handler := RateLimit(rl)(okHandler())

	request := func(addr, forwarded string) int {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/sites", nil)
		r.RemoteAddr = addr
		if forwarded != "" {
			r.Header.Set("X-Forwarded-For", forwarded)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, request("192.0.2.1:1000", ""), "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, request("192.0.2.1:2000", ""), "same host, new port")
	assert.Equal(t, http.StatusOK, request("192.0.2.2:1000", ""), "other client")

	assert.Equal(t, http.StatusOK, request("10.0.0.1:1", "198.51.100.7, 10.0.0.1"))
	assert.Equal(t, "198.51.100.7", clientIP(func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
		return r
	}()))
}

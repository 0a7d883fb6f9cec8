package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestAuth(t *testing.T) {
	h := Auth("secret", "/api/health")(ok)

	tests := []struct {
		name   string
		target string
		header map[string]string
		want   int
	}{
		{"missing", "/api/edges", nil, http.StatusUnauthorized},
		{"wrong", "/api/edges", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"bearer", "/api/edges", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"api key", "/api/edges", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"query token", "/ws?token=secret", nil, http.StatusOK},
		{"public path", "/api/health", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	rec := httptest.NewRecorder()
	Auth("")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/edges", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/edges", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/edges", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		limiter *fakeLimiter
		want    int
	}{
		{"allowed", &fakeLimiter{allow: true}, http.StatusOK},
		{"limited", &fakeLimiter{allow: false}, http.StatusTooManyRequests},
		{"limiter down fails open", &fakeLimiter{err: errors.New("redis down")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RateLimit(tt.limiter, 10, 2*time.Second, discard())(ok)
			req := httptest.NewRequest(http.MethodGet, "/api/edges", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			require.Len(t, tt.limiter.keys, 1)
			assert.Equal(t, "api:203.0.113.7", tt.limiter.keys[0])
			if tt.want == http.StatusTooManyRequests {
				assert.Equal(t, "2", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	rec := httptest.NewRecorder()
	RateLimit(nil, 10, time.Second, discard())(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", extractClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", extractClientIP(req))
}

type recordingObserver struct {
	method string
	code   int
}

func (r *recordingObserver) ObserveHTTP(method string, code int, _ time.Duration) {
	r.method, r.code = method, code
}

func TestLogging_ObservesStatus(t *testing.T) {
	obs := &recordingObserver{}
	h := Logging(discard(), obs, "/metrics")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/picks/p1/grade", nil))

	assert.Equal(t, http.MethodPost, obs.method)
	assert.Equal(t, http.StatusConflict, obs.code)
}

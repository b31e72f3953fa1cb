package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedHandler(cfg RateLimitConfig) http.Handler {
	return RateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(handler http.Handler, remoteAddr string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimitUnderBudget(t *testing.T) {
	handler := newLimitedHandler(RateLimitConfig{Max: 5, Window: time.Minute})

	for i := range 5 {
		w := hit(handler, "192.168.1.1:12345", nil)

		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimitRejectsWhenExhausted(t *testing.T) {
	handler := newLimitedHandler(RateLimitConfig{Max: 2, Window: time.Minute})

	for range 2 {
		w := hit(handler, "10.0.0.1:9999", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := hit(handler, "10.0.0.1:9999", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	handler := newLimitedHandler(RateLimitConfig{Max: 1, Window: time.Minute})

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1234", nil).Code)

	// Same client IP on a different port shares the budget.
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:5678", nil).Code)
}

func TestRateLimitCustomKeyFunc(t *testing.T) {
	handler := newLimitedHandler(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-API-Key")
		},
	})

	assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:1", http.Header{"X-Api-Key": {"key-a"}}).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "1.1.1.1:1", http.Header{"X-Api-Key": {"key-a"}}).Code)
	assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:1", http.Header{"X-Api-Key": {"key-b"}}).Code)
}

func TestRateLimitUsesForwardedFor(t *testing.T) {
	handler := newLimitedHandler(RateLimitConfig{Max: 1, Window: time.Minute})

	xff := http.Header{"X-Forwarded-For": {"203.0.113.50, 70.41.3.18"}}

	assert.Equal(t, http.StatusOK, hit(handler, "192.168.1.1:4444", xff).Code)

	// A different RemoteAddr behind the same forwarded client is still limited.
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "192.168.1.2:5555", xff).Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		header     http.Header
		want       string
	}{
		{
			name:       "forwarded for list",
			remoteAddr: "10.0.0.1:80",
			header:     http.Header{"X-Forwarded-For": {"203.0.113.50, 70.41.3.18"}},
			want:       "203.0.113.50",
		},
		{
			name:       "real ip fallback",
			remoteAddr: "10.0.0.1:80",
			header:     http.Header{"X-Real-Ip": {"198.51.100.7"}},
			want:       "198.51.100.7",
		},
		{
			name:       "remote addr host",
			remoteAddr: "10.0.0.1:80",
			want:       "10.0.0.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "10.0.0.1",
			want:       "10.0.0.1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, vs := range tt.header {
				for _, v := range vs {
					req.Header.Add(k, v)
				}
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestLimiterEvictsExpiredBuckets(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Minute})

	now := time.Now()
	_, _, allowed := l.allow("stale", now)
	require.True(t, allowed)
	require.Len(t, l.buckets, 1)

	l.evict(now.Add(3 * time.Minute))

	assert.Empty(t, l.buckets)
}

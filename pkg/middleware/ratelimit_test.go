package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/TranscriptSearch/pkg/logger"
)

func newOKHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func hit(h http.Handler, remote, xff string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=hello", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 0.001, Burst: 2}, logger.Discard())(newOKHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5000", ""))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:5001", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:5002", ""))

	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:5000", ""))
}

func TestRateLimit_UsesForwardedFor(t *testing.T) {
	h := RateLimit(RateLimitConfig{RPS: 0.001, Burst: 1}, logger.Discard())(newOKHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.9:1", "203.0.113.7, 10.0.0.9"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.9:2", "203.0.113.7"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.9:3", "203.0.113.8"))
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	h := RateLimit(RateLimitConfig{}, logger.Discard())(newOKHandler())
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1", ""))
	}
}

func TestVisitors_SweepsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newVisitors(RateLimitConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	store.now = func() time.Time { return now }

	store.limiter("a")
	store.limiter("b")
	assert.Equal(t, 2, store.len())

	now = now.Add(2 * time.Minute)
	store.limiter("c")
	assert.Equal(t, 1, store.len())
}

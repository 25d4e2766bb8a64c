package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, 0)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestTokenBucketKeepsFractionalRefill(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	tb := NewTokenBucket(2, 2)
	tb.lastRefill = start
	tb.now = func() time.Time { return now }

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// 1.4 tokens earned: one is spent, 0.4 carries over
	now = start.Add(700 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// 0.4 + 0.6 = one more token at 1s
	now = start.Add(time.Second)
	assert.True(t, tb.Allow())
}

func TestRateLimitMiddlewarePerClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := NewRateLimiter(ctx, 1, 0)
	h := RateLimitMiddleware(limiter, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/renovate", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("198.51.100.1:1111").Code)
	limited := do("198.51.100.1:2222")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, do("198.51.100.2:1111").Code)
}

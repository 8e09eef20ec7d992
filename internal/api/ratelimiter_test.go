package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticLimiter struct {
	allow bool
}

func (s *staticLimiter) Allow(string) bool {
	return s.allow
}

func TestRateLimitMiddlewareBlocksWhenLimiterDenies(t *testing.T) {
	middleware := rateLimitMiddleware(&staticLimiter{allow: false}, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler should not execute when rate limited")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	middleware.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on rate limited response")
	}
}

func TestRateLimitMiddlewarePassesWhenLimiterAllows(t *testing.T) {
	var called bool
	middleware := rateLimitMiddleware(&staticLimiter{allow: true}, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	middleware.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to execute when limiter allows")
	}
}

func TestTokenBucketLimiterIsPerClient(t *testing.T) {
	limiter := newTokenBucketLimiter(0, 0)
	if !limiter.Allow("10.0.0.1") {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("expected second request from the same client to be limited")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("expected another client to keep its own budget")
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{remote: "[2001:db8::1]:80", want: "2001:db8::1"},
		{remote: "pipe", want: "pipe"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := clientKey(req); got != tt.want {
			t.Fatalf("clientKey(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestClientLimiterStaysBounded(t *testing.T) {
	limiter := newClientLimiter(1, 1, 64, time.Now)
	middleware := rateLimitMiddleware(limiter, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 100_000; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = fmt.Sprintf("10.%d.%d.%d:4000", i>>16&0xff, i>>8&0xff, i&0xff)
		rec := httptest.NewRecorder()
		middleware.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected a fresh client to pass, got %d", i, rec.Code)
		}
	}

	if got := limiter.tracked(); got > 64 {
		t.Fatalf("expected at most 64 tracked clients, got %d", got)
	}
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(1, 1, 2, func() time.Time { return now })

	limiter.Allow("a")
	limiter.Allow("b")
	now = now.Add(clientIdleTTL + time.Second)
	limiter.Allow("b")
	limiter.Allow("c")

	if got := limiter.tracked(); got != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", got)
	}
	if _, ok := limiter.buckets["a"]; ok {
		t.Fatalf("expected idle client to be evicted")
	}
	if limiter.Allow("b") {
		t.Fatalf("expected active client to keep its spent bucket")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/splitsync/internal/domain"
)

type limitedRecorder struct{ clients []string }

func (l *limitedRecorder) RecordRateLimited(client string) { l.clients = append(l.clients, client) }

func TestRateLimiterBlocksPerClient(t *testing.T) {
	recorder := &limitedRecorder{}
	rl := NewRateLimiter(1, 1).WithRecorder(recorder)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := do("1.2.3.4:1000"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := do("1.2.3.4:2000"); code != http.StatusTooManyRequests {
		t.Fatalf("expected same host to be throttled, got %d", code)
	}
	if code := do("5.6.7.8:1000"); code != http.StatusOK {
		t.Fatalf("expected other host to pass, got %d", code)
	}
	if len(recorder.clients) != 1 || recorder.clients[0] != "1.2.3.4" {
		t.Fatalf("unexpected recorded clients %v", recorder.clients)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	if got := clientKey(req); got != "9.9.9.9" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}

	req = req.WithContext(WithIdentity(req.Context(), domain.Identity{UserID: "alice"}))
	if got := clientKey(req); got != "user:alice" {
		t.Fatalf("expected user key, got %q", got)
	}
}

func TestCleanupLimiters(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 10)
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(2 * time.Hour)
	rl.getLimiter("fresh")

	if remaining := rl.CleanupLimiters(time.Hour); remaining != 1 {
		t.Fatalf("expected 1 limiter to remain, got %d", remaining)
	}
	if _, ok := rl.limiters["fresh"]; !ok {
		t.Fatalf("expected fresh limiter to be kept")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(handler http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	handler := limitedHandler(NewRateLimiter(10, 10))

	for i := range 10 {
		if rec := hit(handler, "192.168.1.1:1234"); rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	handler := limitedHandler(NewRateLimiter(10, 5))

	for range 5 {
		hit(handler, "192.168.1.1:1234")
	}

	rec := hit(handler, "192.168.1.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	handler := limitedHandler(NewRateLimiter(10, 1))

	hit(handler, "192.168.1.1:1234")
	if rec := hit(handler, "192.168.1.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same IP status = %d, want 429", rec.Code)
	}

	// A different client has its own bucket.
	if rec := hit(handler, "192.168.1.2:1234"); rec.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	handler := limitedHandler(rl)

	hit(handler, "192.168.1.1:1234")
	hit(handler, "192.168.1.2:1234")
	if rl.Len() != 2 {
		t.Fatalf("tracked buckets = %d, want 2", rl.Len())
	}

	time.Sleep(2 * time.Millisecond)
	rl.cleanup(time.Millisecond)
	if rl.Len() != 0 {
		t.Errorf("tracked buckets after cleanup = %d, want 0", rl.Len())
	}
}

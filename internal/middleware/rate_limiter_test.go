package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"PEERMATCH_BACK-END/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimit(t *testing.T) {
	limited := RateLimit(config.RateLimitConfig{RequestsPerMinute: 1, Burst: 2}, zaptest.NewLogger(t))(okHandler())

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/availability", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if got := do("10.0.0.1"); got != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i, got)
		}
	}
	if got := do("10.0.0.1"); got != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", got)
	}
	if got := do("10.0.0.2"); got != http.StatusOK {
		t.Fatalf("other client: status %d, want 200", got)
	}
}

func TestRateLimitForwardedHeaders(t *testing.T) {
	send := func(h http.Handler, remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/availability", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("untrusted headers share the peer's bucket", func(t *testing.T) {
		cfg := config.RateLimitConfig{RequestsPerMinute: 1, Burst: 1}
		h := RateLimit(cfg, zaptest.NewLogger(t))(okHandler())

		allowed := 0
		for i := 0; i < 50; i++ {
			if send(h, "192.0.2.10:4000", fmt.Sprintf("203.0.113.%d", i)) == http.StatusOK {
				allowed++
			}
		}
		if allowed != 1 {
			t.Fatalf("%d/50 requests allowed, want 1", allowed)
		}
	})

	t.Run("trusted proxy keys by forwarded client", func(t *testing.T) {
		cfg := config.RateLimitConfig{RequestsPerMinute: 1, Burst: 1, TrustProxy: true}
		h := RateLimit(cfg, zaptest.NewLogger(t))(okHandler())

		if got := send(h, "10.0.0.1:80", "203.0.113.1"); got != http.StatusOK {
			t.Fatalf("first client: status %d", got)
		}
		if got := send(h, "10.0.0.1:80", "203.0.113.2"); got != http.StatusOK {
			t.Fatalf("second client behind same proxy: status %d", got)
		}
		if got := send(h, "10.0.0.1:80", "203.0.113.1"); got != http.StatusTooManyRequests {
			t.Fatalf("repeat client: status %d, want 429", got)
		}
	})
}

func TestRateLimiterStoreEvictsIdleClients(t *testing.T) {
	store := newRateLimiterStore(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	store.lastSweep = now

	for i := 0; i < 100; i++ {
		store.getLimiter(fmt.Sprintf("198.51.100.%d", i))
	}
	if n := store.size(); n != 100 {
		t.Fatalf("size = %d, want 100", n)
	}

	now = now.Add(30 * time.Second)
	active := store.getLimiter("198.51.100.7")

	now = now.Add(45 * time.Second)
	if store.getLimiter("198.51.100.7") != active {
		t.Fatal("active client lost its limiter")
	}
	if n := store.size(); n != 1 {
		t.Fatalf("size after sweep = %d, want only the active client", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		trust   bool
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:80", true, "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.1:80", true, "198.51.100.4"},
		{"forwarded ignored without proxy", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "10.0.0.1:80", false, "10.0.0.1"},
		{"real ip ignored without proxy", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:80", false, "10.0.0.1"},
		{"remote addr", nil, "192.0.2.7:4321", true, "192.0.2.7"},
		{"remote without port", nil, "192.0.2.8", false, "192.0.2.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req, tt.trust); got != tt.want {
				t.Fatalf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

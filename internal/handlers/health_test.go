package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"PEERMATCH_BACK-END/internal/dto"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		ping       error
		handler    func(h *HealthHandler) http.HandlerFunc
		wantCode   int
		wantStatus string
	}{
		{"healthz", nil, func(h *HealthHandler) http.HandlerFunc { return h.HealthCheck }, http.StatusOK, "ok"},
		{"livez ignores db", errors.New("down"), func(h *HealthHandler) http.HandlerFunc { return h.LivenessCheck }, http.StatusOK, "alive"},
		{"readyz ok", nil, func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck }, http.StatusOK, "ready"},
		{"readyz degraded", errors.New("down"), func(h *HealthHandler) http.HandlerFunc { return h.ReadinessCheck }, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(pingFunc(func(context.Context) error { return tt.ping }))
			rec := httptest.NewRecorder()
			tt.handler(h)(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := decode[dto.HealthResponse](t, rec); got.Status != tt.wantStatus {
				t.Fatalf("status field = %q, want %q", got.Status, tt.wantStatus)
			}
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"PEERMATCH_BACK-END/internal/config"
	"PEERMATCH_BACK-END/internal/utils"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{Secret: "test-secret", Issuer: "peermatch"}
}

// signToken issues a token the way the identity provider does
func signToken(t *testing.T, userID uuid.UUID, role string, cfg *config.JWTConfig, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := JWTClaims{
		UserID: userID,
		Email:  "vol@example.org",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	valid := signToken(t, userID, "volunteer", cfg, time.Hour)
	otherSecret := signToken(t, userID, "volunteer", &config.JWTConfig{Secret: "other", Issuer: cfg.Issuer}, time.Hour)
	expired := signToken(t, userID, "volunteer", cfg, -time.Minute)
	wrongIssuer := signToken(t, userID, "volunteer", &config.JWTConfig{Secret: cfg.Secret, Issuer: "someone-else"}, time.Hour)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic " + valid, http.StatusUnauthorized},
		{"extra parts", "Bearer " + valid + " x", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherSecret, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + wrongIssuer, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser uuid.UUID
			var gotRole string
			h := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = utils.GetUserIDFromContext(r.Context())
				gotRole = utils.GetRoleFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}, cfg)

			req := httptest.NewRequest(http.MethodGet, "/api/availability", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusNoContent && (gotUser != userID || gotRole != "volunteer") {
				t.Fatalf("context user = %s role = %q", gotUser, gotRole)
			}
		})
	}
}

func TestValidateTokenRejectsNilUser(t *testing.T) {
	cfg := testJWTConfig()
	token := signToken(t, uuid.Nil, "participant", cfg, time.Hour)
	if _, err := ValidateToken(token, cfg); err == nil {
		t.Fatal("expected error for token without user")
	}
}

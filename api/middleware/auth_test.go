package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "storefront-admin", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuthRejectsMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	AdminAuth(testJWT, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthRejectsInvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	AdminAuth(testJWT, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminAuthRejectsForeignIssuerAndExpired(t *testing.T) {
	foreign := config.JWTConfig{Secret: "secret", Issuer: "someone-else", ExpirationMinutes: 60}
	expired := mintTestToken(t, testJWT, time.Now().Add(-2*time.Hour))
	for name, token := range map[string]string{
		"issuer":  mintTestToken(t, foreign, time.Now()),
		"expired": expired,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		AdminAuth(testJWT, nil)(okHandler()).ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", name, resp.Code)
		}
	}
}

func TestAdminAuthAllowsValidToken(t *testing.T) {
	token := mintTestToken(t, testJWT, time.Now())

	var subject, email string
	handler := AdminAuth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = AdminSubjectFromContext(r.Context())
		email = AdminEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if subject != "staff-1" || email != "staff@example.com" {
		t.Fatalf("unexpected identity %q %q", subject, email)
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, now time.Time) string {
	t.Helper()
	token, err := auth.MintAdminToken(cfg, now, auth.AdminTokenPayload{Subject: "staff-1", Email: "staff@example.com"})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAdminAuthExplainsExpiryAndAcceptsAnyBearerCase(t *testing.T) {
	expired := mintTestToken(t, testJWT, time.Now().Add(-3*time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	resp := httptest.NewRecorder()
	AdminAuth(testJWT, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized || !strings.Contains(resp.Body.String(), "token expired") {
		t.Fatalf("expected expiry message, got %d %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+mintTestToken(t, testJWT, time.Now()))
	resp = httptest.NewRecorder()
	AdminAuth(testJWT, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected lowercase scheme to pass, got %d", resp.Code)
	}
}

func TestAdminAuthWithoutSecretIsUnavailable(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, testJWT, time.Now()))
	resp := httptest.NewRecorder()
	AdminAuth(config.JWTConfig{Issuer: "storefront-admin"}, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims TokenClaims) string {
	t.Helper()
	token, err := SignJWT(testSecret, claims)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func TestAuthJWTAcceptsBearerToken(t *testing.T) {
	token := signedToken(t, TokenClaims{
		Sub:      "acc-1",
		Role:     "board",
		MemberID: "member-1",
		Locale:   "en",
		Exp:      time.Now().Add(time.Hour).Unix(),
	})

	var gotAccount, gotRole, gotMember, gotLocale string
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccount = AccountIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotMember = MemberIDFromContext(r.Context())
		gotLocale = LocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAccount != "acc-1" || gotRole != "board" || gotMember != "member-1" {
		t.Fatalf("claims in context = %q/%q/%q", gotAccount, gotRole, gotMember)
	}
	if gotLocale != "en" {
		t.Fatalf("locale = %q, want %q", gotLocale, "en")
	}
}

func TestAuthJWTRejectsBadTokens(t *testing.T) {
	expired := signedToken(t, TokenClaims{Sub: "acc-1", Role: "member", Exp: time.Now().Add(-time.Hour).Unix()})
	foreign, err := SignJWT("other-secret", TokenClaims{Sub: "acc-1", Role: "admin"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.token"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong secret", header: "Bearer " + foreign},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler reached with invalid token")
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

// A token without a locale claim must not wipe the locale the i18n
// middleware already resolved for the request.
func TestAuthJWTKeepsRequestLocale(t *testing.T) {
	token := signedToken(t, TokenClaims{Sub: "acc-1", Role: "member", Exp: time.Now().Add(time.Hour).Unix()})

	var gotLocale string
	handler := AuthJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), LocaleKey, "en"))
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotLocale != "en" {
		t.Fatalf("locale = %q, want %q", gotLocale, "en")
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("admin", "board")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithAccount(req.Context(), "acc-1", "board", ""))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("board role: status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithAccount(req.Context(), "acc-2", "member", "member-1"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member role: status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

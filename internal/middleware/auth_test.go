package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/interview-prep/backend/internal/models"
)

const testSecret = "test-secret"

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Error("principal missing from context")
		}
		w.Header().Set("X-User", p.UserID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdmin(t *testing.T) {
	auth := NewAuth(testSecret)

	adminToken, err := auth.IssueToken("user-1", "ops@example.com", models.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	memberToken, _ := auth.IssueToken("user-2", "", "member", time.Hour)
	expiredToken, _ := auth.IssueToken("user-1", "", models.RoleAdmin, -time.Minute)
	foreignToken, _ := NewAuth("other-secret").IssueToken("user-1", "", models.RoleAdmin, time.Hour)

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"admin", "Bearer " + adminToken, http.StatusOK},
		{"lowercase scheme", "bearer " + adminToken, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + adminToken, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"expired", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreignToken, http.StatusUnauthorized},
		{"alg none", "Bearer " + noneToken, http.StatusUnauthorized},
		{"non-admin", "Bearer " + memberToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/questions/review", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			auth.RequireAdmin(okHandler(t)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && rec.Header().Get("X-User") != "user-1" {
				t.Errorf("principal user = %q", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestParseToken_RequiresSubject(t *testing.T) {
	auth := NewAuth(testSecret)
	token, _ := auth.IssueToken("", "", models.RoleAdmin, time.Hour)

	if _, err := auth.ParseToken(token); err == nil {
		t.Error("token without subject should be rejected")
	}
}

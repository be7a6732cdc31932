package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "inventory-app/backend/internal/domain/user"
	"inventory-app/backend/internal/infra/ratelimit"
	"inventory-app/backend/internal/infra/token"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubLookup map[uint]*domain.User

func (s stubLookup) GetByID(_ context.Context, id uint) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func identityEcho(c *gin.Context) {
	id, _ := CurrentUserID(c)
	c.JSON(http.StatusOK, gin.H{"id": id, "admin": IsAdmin(c), "role": CurrentRole(c)})
}

func TestAuthMiddleware(t *testing.T) {
	manager := token.NewJWTManager("middleware-secret", time.Minute, time.Hour)
	pair, err := manager.GenerateTokens(context.Background(), &domain.User{ID: 5, Username: "jane_smith", Role: domain.RoleStaff})
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	r := gin.New()
	r.GET("/me", NewAuthMiddleware(manager).Handle(), identityEcho)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"valid", "bearer " + pair.AccessToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestPrivilegeGuard(t *testing.T) {
	staff, _ := domain.NewUser("john_doe", "hash", domain.RoleStaff)
	staff.ID = 9
	guard := NewPrivilegeGuard(stubLookup{9: staff})

	asUser := func(id uint, role domain.Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			setIdentity(c, id, "", role)
			c.Next()
		}
	}

	r := gin.New()
	r.GET("/read", asUser(9, domain.RoleStaff), guard.Require(domain.PrivilegeReadRecipe), identityEcho)
	r.GET("/delete", asUser(9, domain.RoleStaff), guard.Require(domain.PrivilegeDeleteRecipe), identityEcho)
	r.GET("/admin-delete", asUser(1, domain.RoleAdmin), guard.Require(domain.PrivilegeDeleteRecipe), identityEcho)
	r.GET("/ghost", asUser(77, domain.RoleStaff), guard.Require(domain.PrivilegeReadRecipe), identityEcho)
	r.GET("/admin-only", asUser(9, domain.RoleStaff), RequireAdmin(), identityEcho)

	expect := map[string]int{
		"/read":         http.StatusOK,
		"/delete":       http.StatusForbidden,
		"/admin-delete": http.StatusOK,
		"/ghost":        http.StatusForbidden,
		"/admin-only":   http.StatusForbidden,
	}
	for path, want := range expect {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

func TestOfflineAuthInjectsAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/me", NewOfflineAuthMiddleware(1, "local").Handle(), identityEcho)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"admin":true,"id":1,"role":"ADMIN"}` {
		t.Fatalf("unexpected identity: %s", body)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter()
	mw := NewRateLimitMiddleware(limiter, ratelimit.Policy{Limit: 2, Window: time.Minute})

	r := gin.New()
	r.GET("/ping", mw.Handle(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d should pass, got %d", i, rec.Code)
		}
	}
	rec := send("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if other := send("10.0.0.2"); other.Code != http.StatusNoContent {
		t.Fatalf("other ip must not be limited, got %d", other.Code)
	}
}

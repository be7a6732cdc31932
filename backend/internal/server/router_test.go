package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"inventory-app/backend/internal/handler"
	"inventory-app/backend/internal/infra/ratelimit"
	"inventory-app/backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func TestOriginMatcher(t *testing.T) {
	match := originMatcher([]string{"https://inventory.example.com"})
	cases := map[string]bool{
		"":                              false,
		"null":                          true,
		"http://localhost:5173":         true,
		"http://127.0.0.1:3000":         true,
		"https://inventory.example.com": true,
		"https://evil.example.com":      false,
	}
	for origin, want := range cases {
		if got := match(origin); got != want {
			t.Fatalf("origin %q: got %v want %v", origin, got, want)
		}
	}
}

func TestRouterExposesMetricsAndSession(t *testing.T) {
	r := NewRouter(RouterOptions{
		AuthHandler: handler.NewAuthHandler(nil, nil),
		RateLimit:   middleware.NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), ratelimit.PerMinute(100)),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected session 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-RateLimit-Limit") == "" {
		t.Fatalf("expected rate limit headers on /api routes")
	}
}

func TestSeedRoutesRequireAdmin(t *testing.T) {
	staff := middlewareFunc(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uint(3))
		c.Set(middleware.ContextIsAdmin, false)
		c.Next()
	})
	r := NewRouter(RouterOptions{
		AuthMW:      staff,
		SeedHandler: handler.NewSeedHandler(nil),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/seed/all", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", rec.Code)
	}
}

type middlewareFunc gin.HandlerFunc

func (f middlewareFunc) Handle() gin.HandlerFunc { return gin.HandlerFunc(f) }

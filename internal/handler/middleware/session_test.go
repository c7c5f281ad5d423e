package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/service"
	"github.com/makkenzo/apikey-dashboard/internal/storage/memstorage"
	"go.uber.org/zap"
)

func newSessionFixture(t *testing.T) (*service.AuthService, string) {
	t.Helper()
	auth, err := service.NewAuthService(memstorage.NewUserRepository(), memstorage.NewSessionDenylist(), &config.SessionConfig{
		JWTSecret:  "0123456789abcdef0123456789abcdef",
		CookieName: "session",
		TTL:        time.Hour,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	ctx := context.Background()
	if _, err := auth.Signup(ctx, "dev@example.com", "password123"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	token, _, err := auth.Login(ctx, "dev@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return auth, token
}

func TestRequireSession(t *testing.T) {
	auth, token := newSessionFixture(t)

	r := gin.New()
	r.Use(ErrorHandlerMiddleware(zap.NewNop()))
	r.GET("/", RequireSession(auth, "session", zap.NewNop()), func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, id.String())
	})

	cases := []struct {
		name       string
		prepare    func(*http.Request)
		wantStatus int
	}{
		{"no session", func(*http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.prepare(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestLoadSessionNeverRejects(t *testing.T) {
	auth, token := newSessionFixture(t)

	r := gin.New()
	r.GET("/", LoadSession(auth, "session", zap.NewNop()), func(c *gin.Context) {
		if _, ok := GetUserID(c); ok {
			c.String(http.StatusOK, "signed-in")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	for _, tc := range []struct {
		cookie string
		want   string
	}{
		{"", "anonymous"},
		{"garbage", "anonymous"},
		{token, "signed-in"},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.cookie != "" {
			req.AddCookie(&http.Cookie{Name: "session", Value: tc.cookie})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Body.String() != tc.want {
			t.Fatalf("cookie %q: got %d %q, want %q", tc.cookie, w.Code, w.Body.String(), tc.want)
		}
	}
}

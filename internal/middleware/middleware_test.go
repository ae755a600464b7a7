package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.TokenService) {
	t.Helper()
	ts := auth.NewTokenService(&config.Config{JWTSecret: "secret", SessionTTL: time.Hour})
	mw := NewAuthMiddleware(ts, "session")

	r := gin.New()
	r.GET("/me", mw.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, PrincipalID(c))
	})
	return r, ts
}

func TestRequireAuth(t *testing.T) {
	r, ts := newAuthRouter(t)
	tok, err := ts.GenerateToken(auth.Principal{ID: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
		body   string
	}{
		{"no credentials", func(req *http.Request) {}, http.StatusUnauthorized, `{"message":"Unauthorized"}`},
		{"bearer header", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK, "alice"},
		{"session cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "session", Value: tok}) }, http.StatusOK, "alice"},
		{"bad token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, `{"message":"Unauthorized"}`},
		{"basic scheme", func(req *http.Request) { req.Header.Set("Authorization", "Basic abc") }, http.StatusUnauthorized, `{"message":"Unauthorized"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, w.Body.String())
			} else {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestPrincipalOutsideAuth(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	_, ok := Principal(c)
	assert.False(t, ok)
	assert.Equal(t, "", PrincipalID(c))
}

func TestRequestLogAssignsID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLog())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

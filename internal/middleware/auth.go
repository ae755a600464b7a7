// internal/middleware/auth.go
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"expense-tracker/internal/auth"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

type AuthMiddleware struct {
	tokenService *auth.TokenService
	cookieName   string
}

func NewAuthMiddleware(ts *auth.TokenService, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokenService: ts, cookieName: cookieName}
}

// RequireAuth accepts a session cookie or an "Authorization: Bearer" header.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := m.token(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		p, err := m.tokenService.ParseToken(tokenStr)
		if err != nil {
			slog.Debug("rejected session", "error", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

func (m *AuthMiddleware) token(c *gin.Context) string {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Principal returns the caller stored by RequireAuth.
func Principal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// PrincipalID is the owner id of the caller, or "" outside RequireAuth.
func PrincipalID(c *gin.Context) string {
	p, _ := Principal(c)
	return p.ID
}

// internal/handler/auth.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/middleware"
	val "expense-tracker/internal/validator"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	tokens     *auth.TokenService
	cookieName string
	secure     bool
}

func NewAuthHandler(tokens *auth.TokenService, cookieName string, secure bool) *AuthHandler {
	return &AuthHandler{tokens: tokens, cookieName: cookieName, secure: secure}
}

type LoginRequest struct {
	ID    string `json:"id" validate:"required,notblank"`
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

// User returns the authenticated principal.
func (h *AuthHandler) User(c *gin.Context) {
	p, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// Login issues a session for the given subject. Only mounted in development,
// where it stands in for the identity provider callback.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON"})
		return
	}
	if err := val.Struct(req); err != nil {
		var verr *val.Error
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": verr.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	p := auth.Principal{ID: strings.TrimSpace(req.ID), Name: req.Name, Email: req.Email}
	token, err := h.tokens.GenerateToken(p)
	if err != nil {
		slog.Error("GenerateToken failed", "error", err, "user_id", p.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create session"})
		return
	}

	h.setCookie(c, token, int(h.tokens.ExpiresIn().Seconds()))
	c.JSON(http.StatusOK, gin.H{"token": token, "user": p})
}

// Logout drops the session cookie and sends the browser home.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, value, maxAge, "/", "", h.secure, true)
}

// internal/api/router.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/expense"
	"expense-tracker/internal/handler"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/storage"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Store  storage.ExpenseStorage
	Tokens *auth.TokenService

	SessionCookie string
	CookieSecure  bool
	DevLogin      bool
	// StaticDir holds a built single-page client; empty disables static serving.
	StaticDir string

	// TelegramWebhook, when set, is mounted as POST TelegramPath.
	TelegramWebhook gin.HandlerFunc
	TelegramPath    string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLog())

	authMW := middleware.NewAuthMiddleware(d.Tokens, d.SessionCookie)
	expenses := handler.NewExpenseHandler(expense.NewService(d.Store))
	authH := handler.NewAuthHandler(d.Tokens, d.SessionCookie, d.CookieSecure)

	r.GET("/health", health(d.Store))
	if d.TelegramWebhook != nil {
		r.POST(d.TelegramPath, d.TelegramWebhook)
	}

	api := r.Group("/api")
	{
		api.GET("/logout", authH.Logout)
		if d.DevLogin {
			slog.Warn("development login enabled", "route", "POST /api/login")
			api.POST("/login", authH.Login)
		}

		protected := api.Group("", authMW.RequireAuth())
		protected.GET("/auth/user", authH.User)

		protected.GET("/expenses", expenses.List)
		protected.POST("/expenses", expenses.Create)
		protected.GET("/expenses/:id", expenses.Get)
		protected.DELETE("/expenses/:id", expenses.Delete)

		protected.GET("/stats", expenses.Stats)
		protected.GET("/categories", expenses.Categories)
	}

	r.NoRoute(spa(d.StaticDir))
	return r
}

func health(store storage.ExpenseStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// spa serves files from dir and falls back to index.html for client routes.
// Unknown /api paths always get a JSON 404.
func spa(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if dir == "" || p == "/api" || strings.HasPrefix(p, "/api/") ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
			return
		}

		file := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+p)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}

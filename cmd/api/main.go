// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-tracker/internal/api"
	"expense-tracker/internal/auth"
	"expense-tracker/internal/bot"
	"expense-tracker/internal/config"
	"expense-tracker/internal/expense"
	"expense-tracker/internal/storage"
	"expense-tracker/internal/storage/backend"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.MustLoad()
	slog.SetDefault(cfg.NewLogger())

	if cfg.UsesDevSecret() {
		slog.Warn("JWT_SECRET not set, dev login signs with the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	deps := api.Deps{
		Store:         store,
		Tokens:        auth.NewTokenService(cfg),
		SessionCookie: cfg.SessionCookie,
		CookieSecure:  cfg.CookieSecure,
		DevLogin:      cfg.DevLogin,
		StaticDir:     cfg.StaticDir,
	}
	if cfg.TelegramWebhookURL != "" {
		webhook, err := telegramWebhook(cfg, store)
		if err != nil {
			slog.Error("failed to set up telegram webhook", "error", err)
			os.Exit(1)
		}
		deps.TelegramWebhook = webhook
		deps.TelegramPath = cfg.TelegramWebhookPath()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", srv.Addr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func telegramWebhook(cfg *config.Config, store storage.ExpenseStorage) (gin.HandlerFunc, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL + cfg.TelegramWebhookPath())
	if err != nil {
		return nil, err
	}
	if _, err := botAPI.Request(wh); err != nil {
		return nil, err
	}
	slog.Info("telegram webhook registered", "username", botAPI.Self.UserName)
	return bot.New(expense.NewService(store)).WebhookHandler(botAPI), nil
}

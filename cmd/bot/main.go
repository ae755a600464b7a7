// cmd/bot/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"expense-tracker/internal/bot"
	"expense-tracker/internal/config"
	"expense-tracker/internal/expense"
	"expense-tracker/internal/storage/backend"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg := config.MustLoad()
	slog.SetDefault(cfg.NewLogger())

	if cfg.TelegramToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		slog.Error("failed to start telegram bot", "error", err)
		os.Exit(1)
	}

	// a webhook left over from the API process would block long polling
	if _, err := botAPI.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		slog.Warn("could not remove webhook", "error", err)
	}

	bot.New(expense.NewService(store)).Poll(ctx, botAPI)
	slog.Info("bot stopped")
}

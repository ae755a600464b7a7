package bot

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI the bot needs to answer.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Reply builds the answer to one update. ok is false for updates that carry
// no text message.
func (b *Bot) Reply(ctx context.Context, update tgbotapi.Update) (tgbotapi.MessageConfig, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return tgbotapi.MessageConfig{}, false
	}
	owner := Owner(msg.From.ID)
	slog.Debug("telegram message", "user_id", owner, "text", msg.Text)
	return tgbotapi.NewMessage(msg.Chat.ID, b.Handle(ctx, owner, msg.Text)), true
}

func (b *Bot) respond(ctx context.Context, sender Sender, update tgbotapi.Update) {
	reply, ok := b.Reply(ctx, update)
	if !ok {
		return
	}
	if _, err := sender.Send(reply); err != nil {
		slog.Error("telegram send failed", "error", err, "chat_id", reply.ChatID)
	}
}

// Poll long-polls Telegram until ctx is cancelled.
func (b *Bot) Poll(ctx context.Context, api *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	slog.Info("telegram bot started", "username", api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.respond(ctx, api, update)
		}
	}
}

// WebhookHandler accepts Telegram updates pushed to an HTTP endpoint.
func (b *Bot) WebhookHandler(sender Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			slog.Error("telegram update parse failed", "error", err)
			c.Status(http.StatusBadRequest)
			return
		}
		b.respond(c.Request.Context(), sender, update)
		c.Status(http.StatusOK)
	}
}

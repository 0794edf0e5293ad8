package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover returns middleware that turns a handler panic into an error log
// carrying the update and chat it happened on.
func Recover() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				var chatID int64
				if update.Message != nil {
					chatID = update.Message.Chat.ID
				}
				slog.Error("panic recovered in handler",
					"update_id", update.ID,
					"conversation_id", chatID,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}()
			next(ctx, b, update)
		}
	}
}

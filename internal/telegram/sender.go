package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/leadbot/internal/config"
)

// MessageSender is the part of *bot.Bot used to deliver text.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// SendLongMessage sends a plain-text message, splitting it at Telegram's
// length limit.
func SendLongMessage(ctx context.Context, b MessageSender, chatID int64, text string) error {
	for _, part := range SplitMessage(PlainText(text), config.MaxTelegramMessageLen) {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   part,
		})
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

// ChatActionSender is the part of *bot.Bot used for the typing indicator.
type ChatActionSender interface {
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

const typingInterval = 4 * time.Second

// StartTyping keeps the typing indicator visible in chatID until the
// returned cancel function is called.
func StartTyping(ctx context.Context, b ChatActionSender, chatID int64) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	typing := func() {
		_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
	}
	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		typing()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				typing()
			}
		}
	}()
	return cancel
}

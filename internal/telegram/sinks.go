package telegram

import (
	"context"
	"fmt"

	"github.com/set-night/leadbot/internal/domain"
)

// AlertSink posts alert-channel notifications to the operator chat.
type AlertSink struct {
	bot    MessageSender
	chatID int64
}

func NewAlertSink(b MessageSender, chatID int64) *AlertSink {
	return &AlertSink{bot: b, chatID: chatID}
}

func (s *AlertSink) Notify(ctx context.Context, n domain.Notification) error {
	if err := SendLongMessage(ctx, s.bot, s.chatID, n.Text); err != nil {
		return fmt.Errorf("%w: alert for %d: %w", domain.ErrDelivery, n.ConversationID, err)
	}
	return nil
}

// UserSink delivers follow-up messages to the conversation itself.
type UserSink struct {
	bot MessageSender
}

func NewUserSink(b MessageSender) *UserSink {
	return &UserSink{bot: b}
}

func (s *UserSink) Notify(ctx context.Context, n domain.Notification) error {
	if err := SendLongMessage(ctx, s.bot, int64(n.ConversationID), n.Text); err != nil {
		return fmt.Errorf("%w: follow-up to %d: %w", domain.ErrDelivery, n.ConversationID, err)
	}
	return nil
}

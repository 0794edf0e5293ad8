package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/leadbot/internal/domain"
)

type ctxKey string

const ParticipantKey ctxKey = "participant"

// Participant is the end user behind a private chat.
type Participant struct {
	ConversationID domain.ConversationID
	DisplayName    string
	Username       string
}

// GetParticipant extracts the participant from context.
func GetParticipant(ctx context.Context) *Participant {
	p, ok := ctx.Value(ParticipantKey).(*Participant)
	if !ok {
		return nil
	}
	return p
}

// ParticipantLoader puts the sender of private-chat messages into context.
// Updates from groups and channels are dropped.
func ParticipantLoader() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.Chat.Type != "private" {
				if msg != nil {
					slog.Debug("ignoring non-private chat", "chat_id", msg.Chat.ID, "chat_type", msg.Chat.Type)
				}
				return
			}

			ctx = context.WithValue(ctx, ParticipantKey, participantFrom(msg))
			next(ctx, b, update)
		}
	}
}

func participantFrom(msg *models.Message) *Participant {
	p := &Participant{ConversationID: domain.ConversationID(msg.Chat.ID)}
	if msg.From != nil {
		p.DisplayName = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		p.Username = msg.From.Username
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Username
	}
	return p
}

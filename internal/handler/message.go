package handler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/leadbot/internal/domain"
	"github.com/set-night/leadbot/internal/middleware"
	tg "github.com/set-night/leadbot/internal/telegram"
)

// HandleMessage queues a private message for its chat. The chat's worker
// downloads any photo, runs the conversation and sends the reply, so
// messages of one chat are answered in arrival order.
func (h *Handler) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	p := middleware.GetParticipant(ctx)
	if p == nil || update.Message == nil {
		return
	}
	msg := update.Message

	// The worker outlives this update's dispatch; it keeps the values but
	// not the cancellation of ctx.
	jobCtx := context.WithoutCancel(ctx)
	if !h.queue.Enqueue(msg.Chat.ID, func() { h.process(jobCtx, b, p, msg) }) {
		slog.Warn("message dropped during shutdown", "conversation_id", p.ConversationID)
	}
}

func (h *Handler) process(ctx context.Context, b *bot.Bot, p *middleware.Participant, msg *models.Message) {
	chatID := msg.Chat.ID

	inbound := domain.InboundMessage{
		ConversationID: p.ConversationID,
		DisplayName:    p.DisplayName,
		Text:           messageText(msg),
	}
	if fileID := tg.LargestPhoto(msg.Photo); fileID != "" {
		data, err := h.download(ctx, b, fileID)
		if err != nil {
			slog.Warn("photo download failed", "conversation_id", p.ConversationID, "error", err)
		} else {
			inbound.Attachment = data
		}
	}
	if strings.TrimSpace(inbound.Text) == "" && len(inbound.Attachment) == 0 {
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	reply := h.conversation.HandleMessage(ctx, inbound)
	h.pause(ctx)
	stopTyping()

	if err := tg.SendLongMessage(ctx, b, chatID, reply); err != nil {
		slog.Error("send reply", "conversation_id", p.ConversationID, "error", err)
	}
}

func messageText(msg *models.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// pause holds the reply back for the configured delay so it reads like a
// person typing.
func (h *Handler) pause(ctx context.Context) {
	if h.replyDelay <= 0 {
		return
	}
	t := time.NewTimer(h.replyDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

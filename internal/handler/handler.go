package handler

import (
	"context"
	"time"

	"github.com/go-telegram/bot"

	"github.com/set-night/leadbot/internal/domain"
	tg "github.com/set-night/leadbot/internal/telegram"
)

// Conversation runs one inbound message and returns the reply.
type Conversation interface {
	HandleMessage(ctx context.Context, msg domain.InboundMessage) string
}

type downloadFunc func(ctx context.Context, b *bot.Bot, fileID string) ([]byte, error)

// Handler holds all dependencies needed by message handlers.
type Handler struct {
	bot          *bot.Bot
	conversation Conversation
	replyDelay   time.Duration
	download     downloadFunc
	queue        *chatQueue
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot          *bot.Bot
	Conversation Conversation
	ReplyDelay   time.Duration
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:          deps.Bot,
		conversation: deps.Conversation,
		replyDelay:   deps.ReplyDelay,
		download:     tg.DownloadFile,
		queue:        newChatQueue(),
	}
}

// Close stops accepting messages and waits for the queued ones to finish.
func (h *Handler) Close() {
	h.queue.Close()
}

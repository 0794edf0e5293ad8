package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const rateLimitedText = "⏳ Слишком много сообщений. Подождите немного."

// Limiter counts messages per chat in fixed windows.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[int64]*bucket
	now     func() time.Time
}

type bucket struct {
	start time.Time
	count int
}

// NewLimiter allows limit messages per chat per window. A limit of zero or
// less allows everything.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		buckets: make(map[int64]*bucket),
		now:     time.Now,
	}
}

// Allow records one message from chatID and reports whether it is within the limit.
func (l *Limiter) Allow(chatID int64) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[chatID]
	if !ok || now.Sub(b.start) >= l.window {
		l.sweepLocked(now)
		b = &bucket{start: now}
		l.buckets[chatID] = b
	}
	b.count++
	return b.count <= l.limit
}

// sweepLocked drops expired buckets so idle chats do not accumulate.
func (l *Limiter) sweepLocked(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.start) >= l.window {
			delete(l.buckets, id)
		}
	}
}

// RateLimit returns middleware that enforces per-minute rate limits.
func RateLimit(l *Limiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !l.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID, "limit", l.limit)
				if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   rateLimitedText,
				}); err != nil {
					slog.Warn("rate limit notice failed", "chat_id", chatID, "error", err)
				}
				return
			}

			next(ctx, b, update)
		}
	}
}

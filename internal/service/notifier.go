package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/set-night/leadbot/internal/domain"
)

// NotifierRouter sends each notification to the sink registered for its
// channel. Channels without a sink are disabled and silently skipped.
type NotifierRouter struct {
	sinks map[domain.Channel]domain.Notifier
}

func NewNotifierRouter() *NotifierRouter {
	return &NotifierRouter{sinks: make(map[domain.Channel]domain.Notifier)}
}

func (r *NotifierRouter) Register(ch domain.Channel, sink domain.Notifier) {
	if sink == nil {
		return
	}
	r.sinks[ch] = sink
}

func (r *NotifierRouter) Enabled(ch domain.Channel) bool {
	_, ok := r.sinks[ch]
	return ok
}

func (r *NotifierRouter) Notify(ctx context.Context, n domain.Notification) error {
	sink, ok := r.sinks[n.Channel]
	if !ok {
		slog.Debug("notification channel disabled", "channel", n.Channel, "conversation_id", n.ConversationID)
		return nil
	}
	if err := sink.Notify(ctx, n); err != nil {
		if errors.Is(err, domain.ErrDelivery) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", domain.ErrDelivery, n.Channel, err)
	}
	return nil
}

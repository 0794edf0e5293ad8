package domain

import "context"

// TranscriptStore is the append-only log of every message exchanged.
type TranscriptStore interface {
	Append(ctx context.Context, entry *TranscriptEntry) error
	HistoryFor(ctx context.Context, id ConversationID) ([]TranscriptEntry, error)
	Close() error
}

// CompletionProvider turns an ordered conversation context into a reply.
type CompletionProvider interface {
	Complete(ctx context.Context, turns []Turn) (string, error)
}

// Notifier delivers a notification on one or more channels.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

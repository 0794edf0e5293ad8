package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/leadbot/internal/config"
	"github.com/set-night/leadbot/internal/domain"
)

type followupKey struct {
	conv domain.ConversationID
	kind domain.FollowupKind
}

// followupTimer is one armed handle. The token tells a firing callback
// whether it is still the current handle for its key.
type followupTimer struct {
	token uuid.UUID
	timer *time.Timer
}

// FollowupScheduler keeps at most one pending one-shot notification per
// (conversation, kind). Arm, Cancel and the firing check share one mutex, so
// a cancel that takes the lock first always suppresses the send.
type FollowupScheduler struct {
	mu       sync.Mutex
	timers   map[followupKey]*followupTimer
	closed   bool
	notifier domain.Notifier
	texts    map[domain.FollowupKind]string
	timeout  time.Duration
	inflight sync.WaitGroup
	log      *slog.Logger
}

func NewFollowupScheduler(notifier domain.Notifier, texts map[domain.FollowupKind]string, timeout time.Duration) *FollowupScheduler {
	t := make(map[domain.FollowupKind]string, len(texts))
	for k, v := range texts {
		t[k] = v
	}
	if timeout <= 0 {
		timeout = config.NotifyTimeout
	}
	return &FollowupScheduler{
		timers:   make(map[followupKey]*followupTimer),
		notifier: notifier,
		texts:    t,
		timeout:  timeout,
		log:      slog.Default(),
	}
}

// Arm schedules kind for id after delay, replacing an armed instance.
func (s *FollowupScheduler) Arm(id domain.ConversationID, kind domain.FollowupKind, delay time.Duration) {
	key := followupKey{conv: id, kind: kind}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if prev, ok := s.timers[key]; ok {
		prev.timer.Stop()
		delete(s.timers, key)
	}

	token := uuid.New()
	s.timers[key] = &followupTimer{
		token: token,
		timer: time.AfterFunc(delay, func() { s.fire(key, token) }),
	}
	s.log.Debug("followup armed", "conversation_id", id, "kind", kind, "delay", delay)
}

// Cancel disarms kind for id. It reports whether an armed timer was removed;
// cancelling a never-armed or already-fired kind is a no-op.
func (s *FollowupScheduler) Cancel(id domain.ConversationID, kind domain.FollowupKind) bool {
	key := followupKey{conv: id, kind: kind}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.timers, key)
	s.log.Debug("followup cancelled", "conversation_id", id, "kind", kind)
	return true
}

// CancelAll disarms every kind for id and returns how many were armed.
func (s *FollowupScheduler) CancelAll(id domain.ConversationID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, t := range s.timers {
		if key.conv != id {
			continue
		}
		t.timer.Stop()
		delete(s.timers, key)
		n++
	}
	return n
}

func (s *FollowupScheduler) Armed(id domain.ConversationID, kind domain.FollowupKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.timers[followupKey{conv: id, kind: kind}]
	return ok
}

// Pending lists the armed kinds for id in name order.
func (s *FollowupScheduler) Pending(id domain.ConversationID) []domain.FollowupKind {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kinds []domain.FollowupKind
	for key := range s.timers {
		if key.conv == id {
			kinds = append(kinds, key.kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Shutdown cancels every pending timer, refuses new ones, and waits for
// notifications already being sent.
func (s *FollowupScheduler) Shutdown() {
	s.mu.Lock()
	for key, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, key)
	}
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()
}

func (s *FollowupScheduler) fire(key followupKey, token uuid.UUID) {
	s.mu.Lock()
	t, ok := s.timers[key]
	if !ok || t.token != token || s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.notifier.Notify(ctx, domain.Notification{
		Channel:        domain.ChannelUser,
		ConversationID: key.conv,
		Text:           s.texts[key.kind],
	})
	if err != nil {
		s.log.Error("followup delivery failed", "conversation_id", key.conv, "kind", key.kind, "error", err)
		return
	}
	s.log.Info("followup sent", "conversation_id", key.conv, "kind", key.kind)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/set-night/leadbot/internal/config"
	"github.com/set-night/leadbot/internal/domain"
)

// FollowupPolicy decides when follow-up timers are armed. A zero delay
// disables that kind; a threshold of zero or less arms at conversation start.
type FollowupPolicy struct {
	Threshold     int
	NudgeDelay    time.Duration
	PersuadeDelay time.Duration
	ContactDelay  time.Duration
}

type ConversationConfig struct {
	Greeting          string
	FallbackReply     string
	ExportAck         string
	ExportCommands    []string
	RestoreHistory    bool
	CompletionTimeout time.Duration
	NotifyTimeout     time.Duration
	Followups         FollowupPolicy
}

// DefaultConversationConfig returns the texts and timeouts of the deployed bot.
func DefaultConversationConfig() ConversationConfig {
	return ConversationConfig{
		Greeting:          config.Greeting,
		FallbackReply:     config.FallbackReply,
		ExportAck:         config.ExportAck,
		ExportCommands:    []string{"отправь данные", "отправить данные"},
		RestoreHistory:    true,
		CompletionTimeout: 60 * time.Second,
		NotifyTimeout:     config.NotifyTimeout,
		Followups: FollowupPolicy{
			Threshold:     4,
			NudgeDelay:    30 * time.Second,
			PersuadeDelay: 180 * time.Second,
			ContactDelay:  72 * time.Hour,
		},
	}
}

type ConversationDeps struct {
	Store     domain.TranscriptStore
	Sessions  *SessionStore
	Scheduler *FollowupScheduler
	Provider  domain.CompletionProvider
	Notifier  domain.Notifier
	Config    ConversationConfig
	Logger    *slog.Logger
}

// ConversationService runs one inbound message through session state, the
// transcript, follow-up timers, contact extraction and the completion
// provider. Turns of one conversation never overlap.
type ConversationService struct {
	store     domain.TranscriptStore
	sessions  *SessionStore
	scheduler *FollowupScheduler
	provider  domain.CompletionProvider
	notifier  domain.Notifier
	cfg       ConversationConfig
	locks     *conversationLocks
	log       *slog.Logger
}

func NewConversationService(deps ConversationDeps) *ConversationService {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &ConversationService{
		store:     deps.Store,
		sessions:  deps.Sessions,
		scheduler: deps.Scheduler,
		provider:  deps.Provider,
		notifier:  deps.Notifier,
		cfg:       deps.Config,
		locks:     newConversationLocks(),
		log:       log,
	}
}

// HandleMessage processes one inbound message and returns the reply text.
// Failures of storage, notification or the provider degrade to log entries
// and, for the provider, the fallback reply.
func (s *ConversationService) HandleMessage(ctx context.Context, msg domain.InboundMessage) string {
	unlock := s.locks.Lock(msg.ConversationID)
	defer unlock()

	text := strings.TrimSpace(msg.Text)
	msg.Text = text

	if IsRestartCommand(text) {
		return s.restart(ctx, msg)
	}
	if s.isExportCommand(text) {
		return s.export(ctx, msg)
	}

	id := msg.ConversationID
	log := s.log.With("conversation_id", id)

	s.ensureSession(ctx, id)
	state := s.sessions.RecordUserTurn(id, text)
	s.appendEntry(ctx, log, &domain.TranscriptEntry{
		ConversationID: id,
		Role:           domain.RoleUser,
		DisplayName:    msg.DisplayName,
		Text:           text,
		Attachment:     msg.Attachment,
	})

	s.applyFollowupPolicy(id, state)

	if phone, ok := ExtractPhone(text); ok {
		s.contactCaptured(ctx, log, msg, phone)
	}

	return s.reply(ctx, log, msg)
}

// Shutdown cancels every pending follow-up.
func (s *ConversationService) Shutdown() {
	s.scheduler.Shutdown()
}

// IsRestartCommand matches "/start", "/start@bot" and "/start <payload>".
func IsRestartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.EqualFold(cmd, config.RestartCommand)
}

func (s *ConversationService) isExportCommand(text string) bool {
	for _, c := range s.cfg.ExportCommands {
		if c = strings.TrimSpace(c); c != "" && strings.EqualFold(text, c) {
			return true
		}
	}
	return false
}

func (s *ConversationService) restart(ctx context.Context, msg domain.InboundMessage) string {
	id := msg.ConversationID
	log := s.log.With("conversation_id", id)

	cancelled := s.scheduler.CancelAll(id)
	state := s.sessions.Start(id)
	log.Info("conversation started", "cancelled_followups", cancelled)

	s.appendEntry(ctx, log, &domain.TranscriptEntry{
		ConversationID: id,
		Role:           domain.RoleAssistant,
		DisplayName:    msg.DisplayName,
		Text:           s.cfg.Greeting,
	})

	if s.cfg.Followups.Threshold <= 0 {
		s.armFollowups(id, state, true)
	}
	return s.cfg.Greeting
}

// export e-mails the whole transcript of the conversation to the manager.
func (s *ConversationService) export(ctx context.Context, msg domain.InboundMessage) string {
	id := msg.ConversationID
	log := s.log.With("conversation_id", id)

	s.appendEntry(ctx, log, &domain.TranscriptEntry{
		ConversationID: id,
		Role:           domain.RoleUser,
		DisplayName:    msg.DisplayName,
		Text:           msg.Text,
	})

	entries, err := s.store.HistoryFor(ctx, id)
	if err != nil {
		log.Error("load transcript for export", "error", err)
		return s.cfg.FallbackReply
	}

	s.notify(ctx, log, domain.Notification{
		Channel:        domain.ChannelEmail,
		ConversationID: id,
		Subject:        config.ExportSubject,
		Text:           FormatTranscript(entries),
		Attachments:    Attachments(entries),
	})
	log.Info("transcript exported", "entries", len(entries))
	return s.cfg.ExportAck
}

// ensureSession loads state for id, rebuilding it from the transcript after a
// process restart when configured to.
func (s *ConversationService) ensureSession(ctx context.Context, id domain.ConversationID) {
	if _, ok := s.sessions.Get(id); ok {
		return
	}

	var entries []domain.TranscriptEntry
	if s.cfg.RestoreHistory {
		var err error
		entries, err = s.store.HistoryFor(ctx, id)
		if err != nil {
			s.log.Warn("restore session from transcript", "conversation_id", id, "error", err)
			entries = nil
		}
	}
	state := s.sessions.Restore(id, s.withoutExportCommands(entries))
	s.log.Debug("session created", "conversation_id", id, "restored_turns", state.TurnCount)
}

func (s *ConversationService) applyFollowupPolicy(id domain.ConversationID, state *domain.SessionState) {
	// The user re-engaged: pending inactivity nudges are stale.
	for _, kind := range domain.InactivityKinds {
		s.scheduler.Cancel(id, kind)
	}
	if state.TurnCount < s.cfg.Followups.Threshold {
		return
	}
	// The contact request goes out once per conversation, on the turn that
	// reaches the threshold.
	s.armFollowups(id, state, state.TurnCount == s.cfg.Followups.Threshold)
}

func (s *ConversationService) armFollowups(id domain.ConversationID, state *domain.SessionState, withContact bool) {
	p := s.cfg.Followups
	if p.NudgeDelay > 0 {
		s.scheduler.Arm(id, domain.FollowupNudge, p.NudgeDelay)
	}
	if p.PersuadeDelay > 0 {
		s.scheduler.Arm(id, domain.FollowupPersuade, p.PersuadeDelay)
	}
	if withContact && p.ContactDelay > 0 && !state.ContactCaptured {
		s.scheduler.Arm(id, domain.FollowupContactRequest, p.ContactDelay)
	}
}

// withoutExportCommands drops stored export requests: they are operator
// commands, not part of the dialogue.
func (s *ConversationService) withoutExportCommands(entries []domain.TranscriptEntry) []domain.TranscriptEntry {
	if len(entries) == 0 {
		return entries
	}
	out := make([]domain.TranscriptEntry, 0, len(entries))
	for _, e := range entries {
		if e.Role == domain.RoleUser && s.isExportCommand(strings.TrimSpace(e.Text)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *ConversationService) contactCaptured(ctx context.Context, log *slog.Logger, msg domain.InboundMessage, phone string) {
	id := msg.ConversationID
	s.scheduler.Cancel(id, domain.FollowupContactRequest)
	s.sessions.MarkContactCaptured(id)
	log.Info("contact captured")

	text := fmt.Sprintf(config.PhoneAlertFormat, phone)
	s.notify(ctx, log, domain.Notification{
		Channel:        domain.ChannelAlert,
		ConversationID: id,
		Text:           text,
	})

	var attachments [][]byte
	if len(msg.Attachment) > 0 {
		attachments = [][]byte{msg.Attachment}
	}
	s.notify(ctx, log, domain.Notification{
		Channel:        domain.ChannelEmail,
		ConversationID: id,
		Subject:        config.PhoneEmailSubject,
		Text:           text,
		Attachments:    attachments,
	})
}

// reply asks the provider once. There is no retry: the next user message is
// the retry.
func (s *ConversationService) reply(ctx context.Context, log *slog.Logger, msg domain.InboundMessage) string {
	id := msg.ConversationID
	turns := s.sessions.Context(id)

	cctx := ctx
	if s.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.cfg.CompletionTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.provider.Complete(cctx, turns)
	if err != nil {
		if !errors.Is(err, domain.ErrProvider) {
			err = fmt.Errorf("%w: %w", domain.ErrProvider, err)
		}
		log.Error("completion failed", "error", err, "turns", len(turns), "duration", time.Since(start))
		return s.cfg.FallbackReply
	}

	s.sessions.RecordAssistantTurn(id, reply)
	s.appendEntry(ctx, log, &domain.TranscriptEntry{
		ConversationID: id,
		Role:           domain.RoleAssistant,
		DisplayName:    msg.DisplayName,
		Text:           reply,
	})
	log.Debug("completion done", "turns", len(turns), "duration", time.Since(start))
	return reply
}

func (s *ConversationService) appendEntry(ctx context.Context, log *slog.Logger, entry *domain.TranscriptEntry) {
	if err := s.store.Append(ctx, entry); err != nil {
		log.Error("transcript append failed", "role", entry.Role, "error", err)
	}
}

func (s *ConversationService) notify(ctx context.Context, log *slog.Logger, n domain.Notification) {
	nctx := ctx
	if s.cfg.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		nctx, cancel = context.WithTimeout(ctx, s.cfg.NotifyTimeout)
		defer cancel()
	}
	if err := s.notifier.Notify(nctx, n); err != nil {
		log.Error("notification failed", "channel", n.Channel, "error", err)
	}
}

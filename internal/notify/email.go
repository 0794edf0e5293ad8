package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/set-night/leadbot/internal/domain"
)

type EmailConfig struct {
	Host     string
	Port     int
	From     string
	To       string
	Password string
	Timeout  time.Duration
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// EmailSink delivers email-channel notifications to the manager mailbox over
// SMTP with implicit TLS.
type EmailSink struct {
	from   string
	to     string
	sender mailSender
}

func NewEmailSink(cfg EmailConfig) (*EmailSink, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.From),
		mail.WithPassword(cfg.Password),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &EmailSink{from: cfg.From, to: cfg.To, sender: client}, nil
}

func (s *EmailSink) Notify(ctx context.Context, n domain.Notification) error {
	msg, err := s.buildMessage(n)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}
	if err := s.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: send email: %w", domain.ErrDelivery, err)
	}
	slog.Info("email sent", "conversation_id", n.ConversationID, "subject", n.Subject, "attachments", len(n.Attachments))
	return nil
}

func (s *EmailSink) buildMessage(n domain.Notification) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := m.To(s.to); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	m.Subject(n.Subject)
	m.SetBodyString(mail.TypeTextPlain, n.Text)
	for i, a := range n.Attachments {
		m.AttachReadSeeker(fmt.Sprintf("img%d.jpg", i+1), bytes.NewReader(a))
	}
	return m, nil
}

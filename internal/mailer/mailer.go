// Package mailer delivers plain-text notification mail.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig describes the relay used by SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
	// dial is replaced in tests.
	dial func(ctx context.Context, c *mail.Client, m *mail.Msg) error
}

// NewSMTPSender returns a Sender that relays through cfg.Host.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg: cfg,
		dial: func(ctx context.Context, c *mail.Client, m *mail.Msg) error {
			return c.DialAndSendWithContext(ctx, m)
		},
	}
}

func (s *SMTPSender) message(to, subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (s *SMTPSender) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

// Send builds a plain-text message and delivers it.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	m, err := s.message(to, subject, body)
	if err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	c, err := s.client()
	if err != nil {
		return fmt.Errorf("Send: client: %w", err)
	}
	if err := s.dial(ctx, c, m); err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. It is used
// when no SMTP relay is configured.
type LogSender struct {
	Log *zap.Logger
}

// Send logs the message.
func (s LogSender) Send(_ context.Context, to, subject, body string) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("mail not sent, no SMTP relay configured",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

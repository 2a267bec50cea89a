// Package mailer delivers rendered email messages over a configurable transport.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"github.com/noah-isme/healthconnect-api/pkg/config"
)

// ErrNoRecipient is returned for messages without a deliverable address.
var ErrNoRecipient = errors.New("mailer: message has no recipient")

// Message is a fully rendered email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Validate checks the recipient address.
func (m Message) Validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("mailer: invalid recipient %q: %w", m.To, err)
	}
	return nil
}

// Sender delivers a message or returns why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// From identifies the envelope sender.
type From struct {
	Email string
	Name  string
}

// New picks the transport named by cfg.Provider. When the chosen transport
// lacks credentials the log sender is returned so local setups keep working.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	from := From{Email: cfg.SenderEmail, Name: cfg.SenderName}

	switch cfg.Provider {
	case config.MailProviderSMTP:
		if cfg.SMTPHost == "" || cfg.SMTPUsername == "" || cfg.SMTPPassword == "" {
			logger.Warn("smtp credentials missing, falling back to log mailer")
			return NewLogSender(logger)
		}
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, from)
	case config.MailProviderResend:
		if cfg.ResendAPIKey == "" {
			logger.Warn("resend api key missing, falling back to log mailer")
			return NewLogSender(logger)
		}
		return NewResendSender(ResendConfig{
			APIKey:   cfg.ResendAPIKey,
			Endpoint: cfg.ResendEndpoint,
			Timeout:  cfg.Timeout,
		}, from, nil)
	default:
		return NewLogSender(logger)
	}
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message envelope.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.Info("email not delivered (log mailer)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTMLBody)),
	)
	return nil
}

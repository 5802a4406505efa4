package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
)

// Message is a rendered HTML email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderConfig selects and configures the delivery backend
type SenderConfig struct {
	Provider     string // smtp, resend or log
	FromName     string
	FromEmail    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPUseTLS   bool
	ResendAPIKey string
}

// From formats the sender header value
func (c SenderConfig) From() string {
	if c.FromName == "" {
		return c.FromEmail
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.FromEmail)
}

// NewSender builds the configured sender. Missing credentials fall back to
// logging the message instead of delivering it.
func NewSender(cfg SenderConfig, logger zerolog.Logger) Sender {
	logger = logger.With().Str("component", "email").Logger()

	switch strings.ToLower(cfg.Provider) {
	case "resend":
		if cfg.ResendAPIKey != "" {
			return NewResendSender(cfg, logger)
		}
		logger.Warn().Msg("Resend API key not configured - emails will be logged, not sent")
	case "smtp":
		if cfg.SMTPUsername != "" && cfg.SMTPPassword != "" {
			return NewSMTPSender(cfg, logger)
		}
		logger.Warn().Msg("SMTP credentials not configured - emails will be logged, not sent")
	}
	return &LogSender{logger: logger}
}

// LogSender writes messages to the log, for development
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := validateEmailAddress(msg.To); err != nil {
		return err
	}
	s.logger.Warn().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.HTML).
		Msg("Email delivery disabled - message logged instead")
	return nil
}

// validateEmailAddress rejects malformed recipients and header injection attempts
func validateEmailAddress(address string) error {
	if strings.ContainsAny(address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

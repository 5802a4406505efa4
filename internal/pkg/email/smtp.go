package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// SMTPSender delivers mail through an SMTP relay
type SMTPSender struct {
	config SenderConfig
	logger zerolog.Logger
}

// NewSMTPSender creates an SMTPSender
func NewSMTPSender(config SenderConfig, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{config: config, logger: logger}
}

// buildMessage assembles headers and body in a stable order
func (s *SMTPSender) buildMessage(msg Message) []byte {
	var b strings.Builder
	headers := [][2]string{
		{"From", s.config.From()},
		{"To", msg.To},
		{"Subject", msg.Subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// Send delivers msg, using implicit TLS when configured
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := validateEmailAddress(msg.To); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	serverAddress := s.config.SMTPHost + ":" + strconv.Itoa(s.config.SMTPPort)
	body := s.buildMessage(msg)

	if !s.config.SMTPUseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{msg.To}, body); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.SMTPHost})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(body); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}

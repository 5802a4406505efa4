package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ResendSender delivers mail through the Resend API
type ResendSender struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

// NewResendSender creates a ResendSender
func NewResendSender(config SenderConfig, logger zerolog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(config.ResendAPIKey),
		from:   config.From(),
		logger: logger,
	}
}

// Send delivers msg. Rate limit responses are reported, not retried.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := validateEmailAddress(msg.To); err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("Resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().Str("emailID", sent.Id).Str("to", msg.To).Msg("Email sent via Resend")
	return nil
}

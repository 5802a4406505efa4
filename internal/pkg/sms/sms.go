package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers a short text message to a phone number
type Sender interface {
	Send(ctx context.Context, to, body string) error
	Enabled() bool
}

// Config holds the Twilio credentials
type Config struct {
	Enabled    bool
	AccountSID string
	AuthToken  string
	FromNumber string
}

// messageCreator is the subset of the Twilio REST client used here
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends messages through the Twilio Messaging API
type TwilioSender struct {
	api    messageCreator
	from   string
	logger zerolog.Logger
}

// NewSender returns a Twilio sender, or a disabled sender when SMS is off or
// credentials are missing.
func NewSender(cfg Config, logger zerolog.Logger) Sender {
	logger = logger.With().Str("component", "sms").Logger()
	if !cfg.Enabled {
		return &DisabledSender{}
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		logger.Warn().Msg("Twilio credentials not configured - SMS disabled")
		return &DisabledSender{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{api: client.Api, from: cfg.FromNumber, logger: logger}
}

// Enabled always reports true
func (s *TwilioSender) Enabled() bool { return true }

// Send delivers body to the E.164 number to
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if !strings.HasPrefix(to, "+") || len(to) < 8 {
		return fmt.Errorf("invalid phone number %q: expected E.164 format", to)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to send SMS")
		return fmt.Errorf("twilio API error: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.Info().Str("sid", *resp.Sid).Msg("SMS sent")
	}
	return nil
}

// DisabledSender drops every message
type DisabledSender struct{}

// Enabled always reports false
func (DisabledSender) Enabled() bool { return false }

// Send is a no-op
func (DisabledSender) Send(context.Context, string, string) error { return nil }

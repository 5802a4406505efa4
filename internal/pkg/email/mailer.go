package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"code.html", "registration.html", "certificate.html"}

// Mailer renders the transactional emails and hands them to a Sender
type Mailer struct {
	sender    Sender
	provider  string
	baseURL   string
	codeTTL   time.Duration
	templates map[string]*template.Template
	logger    zerolog.Logger
}

// NewMailer parses the embedded templates
func NewMailer(sender Sender, provider, baseURL string, codeTTL time.Duration, logger zerolog.Logger) (*Mailer, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", page, err)
		}
		templates[page] = t
	}

	return &Mailer{
		sender:    sender,
		provider:  provider,
		baseURL:   baseURL,
		codeTTL:   codeTTL,
		templates: templates,
		logger:    logger.With().Str("component", "mailer").Logger(),
	}, nil
}

type codeData struct {
	Heading   string
	Name      string
	Intro     string
	Code      string
	ExpiresIn string
}

type registrationData struct {
	Heading    string
	Name       string
	EventTitle string
	EventDate  string
	Venue      string
}

type certificateData struct {
	Heading           string
	Name              string
	EventTitle        string
	CertificateNumber string
	DownloadURL       string
}

func (m *Mailer) render(page string, data interface{}) (string, error) {
	t, ok := m.templates[page]
	if !ok {
		return "", fmt.Errorf("unknown email template %s", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, page, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", page, err)
	}
	return buf.String(), nil
}

func (m *Mailer) deliver(ctx context.Context, to, subject, page string, data interface{}) error {
	body, err := m.render(page, data)
	if err != nil {
		return err
	}

	if err := m.sender.Send(ctx, Message{To: to, Subject: subject, HTML: body}); err != nil {
		metrics.EmailsSent.WithLabelValues(m.provider, "error").Inc()
		m.logger.Error().Err(err).Str("to", to).Str("subject", subject).Msg("Failed to send email")
		return err
	}
	metrics.EmailsSent.WithLabelValues(m.provider, "ok").Inc()
	return nil
}

func (m *Mailer) sendCode(ctx context.Context, to, name, subject, heading, intro, code string) error {
	return m.deliver(ctx, to, subject, "code.html", codeData{
		Heading:   heading,
		Name:      name,
		Intro:     intro,
		Code:      code,
		ExpiresIn: m.codeTTL.String(),
	})
}

// SendEmailVerificationCode sends the code confirming a new account's address
func (m *Mailer) SendEmailVerificationCode(ctx context.Context, to, name, code string) error {
	return m.sendCode(ctx, to, name, "Verify Your Email Address - UniEvents", "Welcome to UniEvents!",
		"Use the code below to verify your email address.", code)
}

// Send2FACode sends a login two-factor code
func (m *Mailer) Send2FACode(ctx context.Context, to, name, code string) error {
	return m.sendCode(ctx, to, name, "Your Login Code - UniEvents", "Two-Factor Authentication",
		"Use the code below to finish signing in.", code)
}

// SendPasswordResetCode sends a forgotten-password reset code
func (m *Mailer) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	return m.sendCode(ctx, to, name, "Password Reset Code - UniEvents", "Reset Your Password",
		"We received a request to reset your password. Use the code below to choose a new one.", code)
}

// SendPasswordChangeCode sends the code confirming a password change
func (m *Mailer) SendPasswordChangeCode(ctx context.Context, to, name, code string) error {
	return m.sendCode(ctx, to, name, "Confirm Password Change - UniEvents", "Confirm Your Password Change",
		"Use the code below to confirm the change of your password.", code)
}

// SendRegistrationConfirmation tells a user their event seat is confirmed
func (m *Mailer) SendRegistrationConfirmation(ctx context.Context, to, name, eventTitle string, eventDate time.Time, venue string) error {
	return m.deliver(ctx, to, "Registration Confirmed: "+eventTitle, "registration.html", registrationData{
		Heading:    "You're registered!",
		Name:       name,
		EventTitle: eventTitle,
		EventDate:  eventDate.Format("Monday, January 2, 2006 15:04"),
		Venue:      venue,
	})
}

// SendCertificateIssued announces a new certificate with its download link
func (m *Mailer) SendCertificateIssued(ctx context.Context, to, name, eventTitle, certificateNumber, downloadPath string) error {
	return m.deliver(ctx, to, "Your Certificate for "+eventTitle, "certificate.html", certificateData{
		Heading:           "Congratulations!",
		Name:              name,
		EventTitle:        eventTitle,
		CertificateNumber: certificateNumber,
		DownloadURL:       m.baseURL + downloadPath,
	})
}

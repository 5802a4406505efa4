package email

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func newTestMailer(t *testing.T, sender Sender) *Mailer {
	t.Helper()
	m, err := NewMailer(sender, "test", "https://events.example.edu", 10*time.Minute, zerolog.New(io.Discard))
	require.NoError(t, err)
	return m
}

func TestMailer_CodeEmails(t *testing.T) {
	rec := &recordingSender{}
	m := newTestMailer(t, rec)
	ctx := context.Background()

	require.NoError(t, m.SendEmailVerificationCode(ctx, "jane@uni.edu", "Jane", "123456"))
	require.NoError(t, m.Send2FACode(ctx, "jane@uni.edu", "Jane", "654321"))
	require.NoError(t, m.SendPasswordResetCode(ctx, "jane@uni.edu", "Jane", "000111"))
	require.NoError(t, m.SendPasswordChangeCode(ctx, "jane@uni.edu", "Jane", "999999"))

	require.Len(t, rec.sent, 4)
	assert.Contains(t, rec.sent[0].Subject, "Verify")
	assert.Contains(t, rec.sent[0].HTML, "123456")
	assert.Contains(t, rec.sent[0].HTML, "Hello Jane")
	assert.Contains(t, rec.sent[0].HTML, "10m0s")
	assert.Contains(t, rec.sent[1].HTML, "654321")
	assert.Contains(t, rec.sent[3].HTML, "Confirm Your Password Change")
}

func TestMailer_EscapesUserContent(t *testing.T) {
	rec := &recordingSender{}
	m := newTestMailer(t, rec)

	err := m.SendRegistrationConfirmation(context.Background(), "jane@uni.edu", "<script>x</script>",
		"Hack <b>night</b>", time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC), "Lab 1")
	require.NoError(t, err)
	require.Len(t, rec.sent, 1)
	assert.NotContains(t, rec.sent[0].HTML, "<script>")
	assert.Contains(t, rec.sent[0].HTML, "&lt;b&gt;night&lt;/b&gt;")
	assert.Contains(t, rec.sent[0].HTML, "Sunday, June 1, 2025 18:00")
}

func TestMailer_CertificateLink(t *testing.T) {
	rec := &recordingSender{}
	m := newTestMailer(t, rec)

	require.NoError(t, m.SendCertificateIssued(context.Background(), "jane@uni.edu", "Jane", "Cleanup", "CERT-20250101-ABCDEF12", "/api/v1/certificates/4/download"))
	assert.Contains(t, rec.sent[0].HTML, "https://events.example.edu/api/v1/certificates/4/download")
	assert.Contains(t, rec.sent[0].HTML, "CERT-20250101-ABCDEF12")
}

func TestMailer_SenderError(t *testing.T) {
	m := newTestMailer(t, &recordingSender{err: errors.New("smtp down")})
	err := m.Send2FACode(context.Background(), "jane@uni.edu", "Jane", "111111")
	assert.EqualError(t, err, "smtp down")
}

func TestNewSender_FallsBackToLog(t *testing.T) {
	lgr := zerolog.New(io.Discard)
	assert.IsType(t, &LogSender{}, NewSender(SenderConfig{Provider: "smtp"}, lgr))
	assert.IsType(t, &LogSender{}, NewSender(SenderConfig{Provider: "resend"}, lgr))
	assert.IsType(t, &SMTPSender{}, NewSender(SenderConfig{Provider: "smtp", SMTPUsername: "u", SMTPPassword: "p"}, lgr))
	assert.IsType(t, &ResendSender{}, NewSender(SenderConfig{Provider: "resend", ResendAPIKey: "re_123"}, lgr))
}

func TestLogSender_RejectsHeaderInjection(t *testing.T) {
	s := NewLogSender(zerolog.New(io.Discard))
	assert.Error(t, s.Send(context.Background(), Message{To: "a@b.c\r\nBcc: evil@x.y"}))
	assert.Error(t, s.Send(context.Background(), Message{To: "not-an-address"}))
	assert.NoError(t, s.Send(context.Background(), Message{To: "a@b.co"}))
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	s := NewSMTPSender(SenderConfig{FromName: "UniEvents", FromEmail: "no-reply@uni.edu"}, zerolog.New(io.Discard))
	raw := string(s.buildMessage(Message{To: "jane@uni.edu", Subject: "Hi", HTML: "<p>x</p>"}))

	assert.True(t, strings.HasPrefix(raw, "From: UniEvents <no-reply@uni.edu>\r\n"))
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>x</p>"))
}

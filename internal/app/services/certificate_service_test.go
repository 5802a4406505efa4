package services

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/certpdf"
)

var certificateNumberPattern = regexp.MustCompile(`^CERT-\d{8}-[0-9A-F]{8}$`)

func TestIssue_RequiresPresentAttendance(t *testing.T) {
	env := newTestEnv()
	svc := env.certificateService()
	event := env.event(-2*time.Hour, 10, 3)
	user := env.student("c@uni.edu")
	ctx := context.Background()

	_, err := svc.Issue(ctx, event.ID, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrAttendanceNotPresent)

	_, err = env.attendance.Mark(ctx, event.ID, user.ID, false, "qr", env.now)
	require.NoError(t, err)
	_, err = svc.Issue(ctx, event.ID, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrAttendanceNotPresent)
}

func TestIssue_NumberHoursAndNotification(t *testing.T) {
	env := newTestEnv()
	svc := env.certificateService()
	event := env.event(-2*time.Hour, 10, 3)
	user := env.student("c@uni.edu")
	ctx := context.Background()

	_, err := env.attendance.Mark(ctx, event.ID, user.ID, true, "qr", env.now)
	require.NoError(t, err)

	cert, err := svc.Issue(ctx, event.ID, user.ID)
	require.NoError(t, err)
	assert.Regexp(t, certificateNumberPattern, cert.CertificateNumber)
	assert.Contains(t, cert.CertificateNumber, env.now.Format("20060102"))
	assert.Equal(t, models.CertificateDownloadURL(cert.ID), cert.CertificateURL)

	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.TotalVolunteerHours)

	notes := env.db.notificationsFor(user.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationCertificateIssued, notes[0].NotificationType)
	assert.Equal(t, cert.CertificateNumber, env.mailer.lastCode("certificate"))

	_, err = svc.Issue(ctx, event.ID, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrCertificateExists)

	again, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, again.TotalVolunteerHours)
}

func TestIssueBulk_SkipsAbsentAndCertified(t *testing.T) {
	env := newTestEnv()
	svc := env.certificateService()
	event := env.event(-2*time.Hour, 10, 1)
	ctx := context.Background()

	present1 := env.student("p1@uni.edu")
	present2 := env.student("p2@uni.edu")
	absent := env.student("absent@uni.edu")
	for _, u := range []*models.User{present1, present2} {
		_, err := env.attendance.Mark(ctx, event.ID, u.ID, true, "qr", env.now)
		require.NoError(t, err)
	}
	_, err := env.attendance.Mark(ctx, event.ID, absent.ID, false, "qr", env.now)
	require.NoError(t, err)

	_, err = svc.Issue(ctx, event.ID, present1.ID)
	require.NoError(t, err)

	issued, err := svc.IssueBulk(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, issued)

	certs, err := svc.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, certs, 2)
}

func TestDownload_OwnerOrAdmin(t *testing.T) {
	env := newTestEnv()
	svc := env.certificateService()
	event := env.event(-2*time.Hour, 10, 2)
	owner := env.student("owner@uni.edu")
	other := env.student("other@uni.edu")
	admin := env.admin("admin@uni.edu")
	ctx := context.Background()

	_, err := env.attendance.Mark(ctx, event.ID, owner.ID, true, "qr", env.now)
	require.NoError(t, err)
	cert, err := svc.Issue(ctx, event.ID, owner.ID)
	require.NoError(t, err)

	_, _, err = svc.Download(ctx, cert.ID, other.ID, false, certpdf.TemplateClassic)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	pdf, got, err := svc.Download(ctx, cert.ID, owner.ID, false, certpdf.TemplateModern)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.True(t, got.IsDownloaded)

	_, _, err = svc.Download(ctx, cert.ID, admin.ID, true, certpdf.TemplateClassic)
	assert.NoError(t, err)
}

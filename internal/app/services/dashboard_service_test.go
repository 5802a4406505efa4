package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
)

func TestDashboard_Aggregates(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := env.student("dash@uni.edu")
	reg := env.registrationService()

	past := env.event(time.Hour, 10, 2)
	upcoming := env.event(48*time.Hour, 10, 0)
	_, err := reg.Register(ctx, past.ID, user.ID, 0)
	require.NoError(t, err)
	_, err = reg.Register(ctx, upcoming.ID, user.ID, 0)
	require.NoError(t, err)

	// the first event is now over and was attended
	env.now = env.now.Add(3 * time.Hour)
	_, err = env.attendance.Mark(ctx, past.ID, user.ID, true, "qr", env.now)
	require.NoError(t, err)
	_, err = env.certificateService().Issue(ctx, past.ID, user.ID)
	require.NoError(t, err)

	club := env.db.addClub(&models.Club{ClubName: "Chess", IsActive: true})
	_, err = env.clubService().Join(ctx, club.ID, user.ID, false)
	require.NoError(t, err)

	dash, err := env.dashboardService().Dashboard(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, dash.Registrations, 2)
	assert.Len(t, dash.Certificates, 1)
	assert.Len(t, dash.ClubMemberships, 1)
	require.Len(t, dash.UpcomingEvents, 1)
	assert.Equal(t, upcoming.ID, dash.UpcomingEvents[0].ID)
	assert.Equal(t, 2, dash.TotalVolunteerHours)
	assert.Equal(t, 1, dash.CompletedEvents)
	assert.Equal(t, 50, dash.AttendanceRatePercent)
	assert.Equal(t, 3, dash.UnreadNotifications)
	assert.Len(t, dash.RecentNotifications, 3)
}

func TestDashboard_UnknownUser(t *testing.T) {
	env := newTestEnv()
	_, err := env.dashboardService().Dashboard(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestHistory_SplitsByDate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := env.student("hist@uni.edu")
	reg := env.registrationService()

	soon := env.event(time.Hour, 10, 0)
	later := env.event(72*time.Hour, 10, 0)
	for _, e := range []*models.Event{soon, later} {
		_, err := reg.Register(ctx, e.ID, user.ID, 0)
		require.NoError(t, err)
	}
	env.now = env.now.Add(2 * time.Hour)

	hist, err := env.dashboardService().History(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, hist.TotalRegistrations)
	require.Len(t, hist.CompletedEvents, 1)
	assert.Equal(t, soon.ID, hist.CompletedEvents[0].EventID)
	require.Len(t, hist.UpcomingEvents, 1)
	assert.Equal(t, later.ID, hist.UpcomingEvents[0].EventID)
}

func TestReportDashboard_Cached(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := NewReportService(env.reportRepo, env.events, env.cache, zerolog.Nop()).(*reportServiceImpl)
	svc.now = env.clock

	env.event(-time.Hour, 10, 0)
	env.event(time.Hour, 10, 0)

	stats, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalEvents)
	assert.Equal(t, int64(1), stats.PastEvents)
	assert.Equal(t, int64(1), stats.UpcomingEvents)

	_, err = svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.reportRepo.statsCalls)

	_, err = svc.EventReport(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestEventReport_Counts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := NewReportService(env.reportRepo, env.events, env.cache, zerolog.Nop())
	event := env.event(24*time.Hour, 1, 3)
	reg := env.registrationService()

	a := env.student("a@uni.edu")
	b := env.student("b@uni.edu")
	_, err := reg.Register(ctx, event.ID, a.ID, 0)
	require.NoError(t, err)
	_, err = reg.Register(ctx, event.ID, b.ID, 0)
	require.NoError(t, err)
	_, err = env.attendance.Mark(ctx, event.ID, a.ID, true, "manual", env.now)
	require.NoError(t, err)

	report, err := svc.EventReport(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRegistrations)
	assert.Equal(t, 1, report.ConfirmedRegistrations)
	assert.Equal(t, 1, report.WaitlistRegistrations)
	assert.Equal(t, 1, report.PresentAttendance)
	assert.Equal(t, 50.0, report.AttendanceRate)
	assert.Equal(t, 3, report.VolunteerHours)
}

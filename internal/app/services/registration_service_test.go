package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
)

func TestRegister_ConfirmsUntilFullThenWaitlists(t *testing.T) {
	env := newTestEnv()
	svc := env.registrationService()
	event := env.event(48*time.Hour, 2, 0)
	ctx := context.Background()

	var statuses []models.RegistrationStatus
	for _, email := range []string{"a@uni.edu", "b@uni.edu", "c@uni.edu"} {
		u := env.student(email)
		reg, err := svc.Register(ctx, event.ID, u.ID, 0)
		require.NoError(t, err)
		statuses = append(statuses, reg.Status)
	}

	assert.Equal(t, []models.RegistrationStatus{
		models.RegistrationConfirmed,
		models.RegistrationConfirmed,
		models.RegistrationWaitlist,
	}, statuses)
	// only confirmed registrations get the email
	assert.Equal(t, 2, env.mailer.count("registration"))
}

func TestRegister_NotifiesByStatus(t *testing.T) {
	env := newTestEnv()
	svc := env.registrationService()
	event := env.event(24*time.Hour, 1, 0)
	first := env.student("first@uni.edu")
	second := env.student("second@uni.edu")

	_, err := svc.Register(context.Background(), event.ID, first.ID, 0)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), event.ID, second.ID, 0)
	require.NoError(t, err)

	firstN := env.db.notificationsFor(first.ID)
	require.Len(t, firstN, 1)
	assert.Equal(t, models.NotificationRegistrationConfirmed, firstN[0].NotificationType)
	require.NotNil(t, firstN[0].EventID)
	assert.Equal(t, event.ID, *firstN[0].EventID)

	secondN := env.db.notificationsFor(second.ID)
	require.Len(t, secondN, 1)
	assert.Equal(t, models.NotificationRegistrationWaitlisted, secondN[0].NotificationType)
	assert.Len(t, env.pusher.pushed, 2)
}

func TestRegister_Rejections(t *testing.T) {
	env := newTestEnv()
	svc := env.registrationService()
	user := env.student("s@uni.edu")
	ctx := context.Background()

	past := env.event(-time.Hour, 10, 0)
	_, err := svc.Register(ctx, past.ID, user.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrEventInPast)

	pending := env.event(time.Hour, 10, 0)
	env.db.events[pending.ID].IsApproved = false
	_, err = svc.Register(ctx, pending.ID, user.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrEventNotApproved)

	_, err = svc.Register(ctx, 9999, user.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	open := env.event(time.Hour, 10, 0)
	_, err = svc.Register(ctx, open.ID, user.ID, -1)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = svc.Register(ctx, open.ID, user.ID, 2)
	require.NoError(t, err)
	_, err = svc.Register(ctx, open.ID, user.ID, 0)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)
}

func TestCancel_PromotesEarliestWaitlisted(t *testing.T) {
	env := newTestEnv()
	svc := env.registrationService()
	event := env.event(24*time.Hour, 1, 0)
	ctx := context.Background()

	holder := env.student("holder@uni.edu")
	next := env.student("next@uni.edu")
	later := env.student("later@uni.edu")

	held, err := svc.Register(ctx, event.ID, holder.ID, 0)
	require.NoError(t, err)
	_, err = svc.Register(ctx, event.ID, next.ID, 0)
	require.NoError(t, err)
	_, err = svc.Register(ctx, event.ID, later.ID, 0)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, held.ID, holder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationCancelled, cancelled.Status)

	promoted, err := env.registrations.GetActive(ctx, event.ID, next.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationConfirmed, promoted.Status)

	stillWaiting, err := env.registrations.GetActive(ctx, event.ID, later.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationWaitlist, stillWaiting.Status)

	nextN := env.db.notificationsFor(next.ID)
	require.Len(t, nextN, 2)
	assert.Equal(t, models.NotificationWaitlistPromoted, nextN[1].NotificationType)

	holderN := env.db.notificationsFor(holder.ID)
	assert.Equal(t, models.NotificationRegistrationCancelled, holderN[len(holderN)-1].NotificationType)
}

func TestCancel_OtherUsersRegistration(t *testing.T) {
	env := newTestEnv()
	svc := env.registrationService()
	event := env.event(24*time.Hour, 5, 0)
	owner := env.student("owner@uni.edu")
	other := env.student("other@uni.edu")

	reg, err := svc.Register(context.Background(), event.ID, owner.ID, 0)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), reg.ID, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrRegistrationNotFound)
}

func TestRegister_AfterCancelCreatesNewRow(t *testing.T) {
	env := newTestEnv()
	svc := env.registrationService()
	event := env.event(24*time.Hour, 5, 0)
	user := env.student("again@uni.edu")
	ctx := context.Background()

	first, err := svc.Register(ctx, event.ID, user.ID, 0)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, first.ID, user.ID)
	require.NoError(t, err)

	second, err := svc.Register(ctx, event.ID, user.ID, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.RegistrationConfirmed, second.Status)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
)

func TestBroadcast_Targets(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.notifications

	a := env.student("a@uni.edu")
	b := env.student("b@uni.edu")
	inactive := env.student("gone@uni.edu")
	env.db.users[inactive.ID].IsActive = false

	sent, err := svc.Broadcast(ctx, &dto.SendNotificationRequest{Message: "Campus closed", Target: dto.NotificationTargetAll})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Empty(t, env.db.notificationsFor(inactive.ID))

	event := env.event(24*time.Hour, 10, 0)
	_, err = env.registrationService().Register(ctx, event.ID, a.ID, 0)
	require.NoError(t, err)

	sent, err = svc.Broadcast(ctx, &dto.SendNotificationRequest{Message: "Room changed", Target: dto.NotificationTargetEvent, EventID: &event.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	notes := env.db.notificationsFor(a.ID)
	last := notes[len(notes)-1]
	assert.Equal(t, models.NotificationAdmin, last.NotificationType)
	require.NotNil(t, last.EventID)
	assert.Equal(t, event.ID, *last.EventID)

	sent, err = svc.Broadcast(ctx, &dto.SendNotificationRequest{Message: "Hi", Target: dto.NotificationTargetUser, UserID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, env.now, env.db.notificationsFor(b.ID)[1].SentDate)
}

func TestBroadcast_Rejections(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.notifications
	missing := int64(9999)

	tests := []struct {
		name string
		req  dto.SendNotificationRequest
		want error
	}{
		{name: "event without id", req: dto.SendNotificationRequest{Message: "x", Target: dto.NotificationTargetEvent}, want: apperrors.ErrBadRequest},
		{name: "user without id", req: dto.SendNotificationRequest{Message: "x", Target: dto.NotificationTargetUser}, want: apperrors.ErrBadRequest},
		{name: "unknown target", req: dto.SendNotificationRequest{Message: "x", Target: "club"}, want: apperrors.ErrBadRequest},
		{name: "unknown event", req: dto.SendNotificationRequest{Message: "x", Target: dto.NotificationTargetEvent, EventID: &missing}, want: apperrors.ErrEventNotFound},
		{name: "unknown user", req: dto.SendNotificationRequest{Message: "x", Target: dto.NotificationTargetUser, UserID: &missing}, want: apperrors.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Broadcast(ctx, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnreadCount_InvalidatedOnRead(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	svc := env.notifications
	user := env.student("a@uni.edu")
	other := env.student("b@uni.edu")

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.SendToUser(ctx, user.ID, "hello", models.NotificationAdmin, nil))
	}
	n, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	first := env.db.notificationsFor(user.ID)[0]
	got, err := svc.Get(ctx, first.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	n, err = svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// another user's notification is invisible
	_, err = svc.Get(ctx, first.ID, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, first.ID, other.ID), apperrors.ErrNotificationNotFound)

	changed, err := svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	n, err = svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := svc.List(ctx, user.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 2)
	assert.Equal(t, int64(3), list.Pagination.TotalItems)
	assert.Len(t, env.pusher.pushed, 3)
}

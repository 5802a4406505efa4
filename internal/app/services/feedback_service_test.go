package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
)

func TestFeedback_EligibilityThenSubmit(t *testing.T) {
	env := newTestEnv()
	svc := env.feedbackService()
	ctx := context.Background()
	event := env.event(-3*time.Hour, 10, 0)
	user := env.student("rater@uni.edu")

	el, err := svc.Eligibility(ctx, event.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, el.CanSubmit)
	assert.Equal(t, FeedbackReasonNotAttended, el.Reason)

	_, err = svc.Submit(ctx, event.ID, user.ID, &dto.SubmitFeedbackRequest{Rating: 4})
	assert.ErrorIs(t, err, apperrors.ErrAttendanceNotPresent)

	_, err = env.attendance.Mark(ctx, event.ID, user.ID, true, "qr", env.now)
	require.NoError(t, err)

	el, err = svc.Eligibility(ctx, event.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, el.CanSubmit)

	env.cache.Set(cache.EventDetailsKey(event.ID), "stale", time.Minute)
	f, err := svc.Submit(ctx, event.ID, user.ID, &dto.SubmitFeedbackRequest{Rating: 5, Comment: " <b>Great</b> day "})
	require.NoError(t, err)
	assert.Equal(t, "Great day", f.Comment)
	assert.Equal(t, env.now, f.SubmittedDate)
	_, cached := env.cache.Get(cache.EventDetailsKey(event.ID))
	assert.False(t, cached)

	_, err = svc.Submit(ctx, event.ID, user.ID, &dto.SubmitFeedbackRequest{Rating: 3})
	assert.ErrorIs(t, err, apperrors.ErrFeedbackExists)

	el, err = svc.Eligibility(ctx, event.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, el.CanSubmit)
	assert.Equal(t, FeedbackReasonSubmitted, el.Reason)
}

func TestFeedback_RatingAndEventChecks(t *testing.T) {
	env := newTestEnv()
	svc := env.feedbackService()
	ctx := context.Background()
	event := env.event(-3*time.Hour, 10, 0)
	user := env.student("rater@uni.edu")

	for _, rating := range []int{0, 6} {
		_, err := svc.Submit(ctx, event.ID, user.ID, &dto.SubmitFeedbackRequest{Rating: rating})
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	}

	_, err := svc.Submit(ctx, 9999, user.ID, &dto.SubmitFeedbackRequest{Rating: 3})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)

	_, err = svc.Eligibility(ctx, 9999, user.ID)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestFeedback_ListAndDelete(t *testing.T) {
	env := newTestEnv()
	svc := env.feedbackService()
	ctx := context.Background()
	event := env.event(-3*time.Hour, 10, 0)

	var lastID int64
	for _, email := range []string{"a@uni.edu", "b@uni.edu", "c@uni.edu"} {
		u := env.student(email)
		_, err := env.attendance.Mark(ctx, event.ID, u.ID, true, "qr", env.now)
		require.NoError(t, err)
		f, err := svc.Submit(ctx, event.ID, u.ID, &dto.SubmitFeedbackRequest{Rating: 4})
		require.NoError(t, err)
		lastID = f.ID
	}

	page, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Feedback, 2)
	assert.Equal(t, int64(3), page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, lastID, page.Feedback[0].ID)

	env.cache.Set(cache.EventDetailsKey(event.ID), "stale", time.Minute)
	require.NoError(t, svc.Delete(ctx, lastID))
	_, cached := env.cache.Get(cache.EventDetailsKey(event.ID))
	assert.False(t, cached)
	assert.ErrorIs(t, svc.Delete(ctx, lastID), apperrors.ErrFeedbackNotFound)

	byEvent, err := svc.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, byEvent, 2)
}

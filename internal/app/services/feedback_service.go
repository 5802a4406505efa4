package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/helpers"
	"github.com/yigit/unievents/internal/pkg/sanitize"
)

// Reasons returned by Eligibility
const (
	FeedbackReasonNotAttended = "You can only rate events you attended."
	FeedbackReasonSubmitted   = "You have already rated this event."
)

// FeedbackService defines event rating operations
type FeedbackService interface {
	Submit(ctx context.Context, eventID, userID int64, req *dto.SubmitFeedbackRequest) (*models.Feedback, error)
	Eligibility(ctx context.Context, eventID, userID int64) (*dto.FeedbackEligibilityResponse, error)
	List(ctx context.Context, page, size int) (*dto.FeedbackListResponse, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Feedback, error)
	Delete(ctx context.Context, id int64) error
}

type feedbackServiceImpl struct {
	feedbackRepo   FeedbackRepository
	attendanceRepo AttendanceRepository
	eventRepo      EventRepository
	cache          *cache.Store
	now            Clock
	logger         zerolog.Logger
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(
	feedbackRepo FeedbackRepository,
	attendanceRepo AttendanceRepository,
	eventRepo EventRepository,
	store *cache.Store,
	logger zerolog.Logger,
) FeedbackService {
	return &feedbackServiceImpl{
		feedbackRepo:   feedbackRepo,
		attendanceRepo: attendanceRepo,
		eventRepo:      eventRepo,
		cache:          store,
		now:            time.Now,
		logger:         logger,
	}
}

// Submit stores a rating from a present attendee. One rating per user and event.
func (s *feedbackServiceImpl) Submit(ctx context.Context, eventID, userID int64, req *dto.SubmitFeedbackRequest) (*models.Feedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.NewBadRequestError("rating must be between 1 and 5")
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	present, err := s.attended(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, apperrors.ErrAttendanceNotPresent
	}

	exists, err := s.feedbackRepo.Exists(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrFeedbackExists
	}

	f := &models.Feedback{
		EventID:       eventID,
		UserID:        userID,
		Rating:        req.Rating,
		Comment:       sanitize.Text(req.Comment),
		SubmittedDate: s.now(),
	}
	if err := s.feedbackRepo.Create(ctx, f); err != nil {
		return nil, err
	}
	s.cache.Delete(cache.EventDetailsKey(eventID), cache.KeySystemStatistics, cache.KeyAdminDashboard)

	s.logger.Info().Int64("eventID", eventID).Int64("userID", userID).Int("rating", f.Rating).Msg("Feedback submitted")
	return f, nil
}

// Eligibility reports whether the caller may rate the event
func (s *feedbackServiceImpl) Eligibility(ctx context.Context, eventID, userID int64) (*dto.FeedbackEligibilityResponse, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	present, err := s.attended(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if !present {
		return &dto.FeedbackEligibilityResponse{CanSubmit: false, Reason: FeedbackReasonNotAttended}, nil
	}

	exists, err := s.feedbackRepo.Exists(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &dto.FeedbackEligibilityResponse{CanSubmit: false, Reason: FeedbackReasonSubmitted}, nil
	}
	return &dto.FeedbackEligibilityResponse{CanSubmit: true}, nil
}

// List returns a page of all feedback, newest first
func (s *feedbackServiceImpl) List(ctx context.Context, page, size int) (*dto.FeedbackListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	items, total, err := s.feedbackRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &dto.FeedbackListResponse{
		Feedback:   items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// ListByEvent returns an event's feedback
func (s *feedbackServiceImpl) ListByEvent(ctx context.Context, eventID int64) ([]*models.Feedback, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.feedbackRepo.ListByEvent(ctx, eventID)
}

// Delete removes a feedback entry
func (s *feedbackServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.feedbackRepo.Delete(ctx, id); err != nil {
		return err
	}
	// the event is unknown here; drop every cached detail
	s.cache.DeletePrefix("event_details_")
	s.cache.Delete(cache.KeySystemStatistics, cache.KeyAdminDashboard)
	s.logger.Info().Int64("feedbackID", id).Msg("Feedback deleted")
	return nil
}

func (s *feedbackServiceImpl) attended(ctx context.Context, eventID, userID int64) (bool, error) {
	a, err := s.attendanceRepo.Get(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAttendanceNotFound) {
			return false, nil
		}
		return false, err
	}
	return a.IsPresent, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/metrics"
)

// AttendanceService defines QR check-in and attendance administration
type AttendanceService interface {
	CheckIn(ctx context.Context, userID int64, secret string) (*dto.CheckInResponse, error)
	ListMine(ctx context.Context, userID int64) ([]*models.Attendance, error)
	EventAttendance(ctx context.Context, eventID int64) (*dto.EventAttendanceResponse, error)
	Mark(ctx context.Context, eventID, userID int64, isPresent bool) (*models.Attendance, error)
}

type attendanceServiceImpl struct {
	attendanceRepo   AttendanceRepository
	eventRepo        EventRepository
	registrationRepo RegistrationRepository
	userRepo         UserRepository
	notifications    NotificationService
	cache            *cache.Store
	now              Clock
	logger           zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(
	attendanceRepo AttendanceRepository,
	eventRepo EventRepository,
	registrationRepo RegistrationRepository,
	userRepo UserRepository,
	notifications NotificationService,
	store *cache.Store,
	logger zerolog.Logger,
) AttendanceService {
	return &attendanceServiceImpl{
		attendanceRepo:   attendanceRepo,
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		notifications:    notifications,
		cache:            store,
		now:              time.Now,
		logger:           logger,
	}
}

// CheckIn records the caller as present at the event whose QR secret was scanned.
// Scanning again after a successful check-in reports already_checked_in.
func (s *attendanceServiceImpl) CheckIn(ctx context.Context, userID int64, secret string) (*dto.CheckInResponse, error) {
	outcome := "rejected"
	defer func() {
		metrics.CheckIns.WithLabelValues(outcome).Inc()
	}()

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, apperrors.ErrInvalidEventSecret
	}

	event, err := s.eventRepo.GetBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			return nil, apperrors.ErrInvalidEventSecret
		}
		return nil, err
	}

	reg, err := s.registrationRepo.GetActive(ctx, event.ID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRegistrationNotFound) {
			return nil, apperrors.ErrNotRegistered
		}
		return nil, err
	}
	if reg.Status != models.RegistrationConfirmed {
		return nil, apperrors.ErrNotRegistered
	}

	now := s.now()
	if now.Before(event.EventDate) {
		return nil, apperrors.ErrCheckInNotStarted
	}
	if now.After(event.CheckInWindowEnd()) {
		return nil, apperrors.ErrCheckInWindowClosed
	}

	_, changed, err := s.attendanceRepo.CheckIn(ctx, event.ID, userID, uuid.New().String(), now)
	if err != nil {
		return nil, err
	}

	resp := &dto.CheckInResponse{
		Status:         dto.CheckInStatusAlreadyCheckedIn,
		Event:          event,
		VolunteerHours: event.VolunteerHours,
	}
	if !changed {
		outcome = "duplicate"
		return resp, nil
	}

	outcome = "checked_in"
	resp.Status = dto.CheckInStatusCheckedIn
	s.cache.Delete(cache.UserDashboardKey(userID), cache.KeySystemStatistics)

	s.logger.Info().Int64("eventID", event.ID).Int64("userID", userID).Msg("User checked in")
	s.notifyAttended(ctx, userID, event)
	return resp, nil
}

// ListMine returns the caller's attendance records with their events
func (s *attendanceServiceImpl) ListMine(ctx context.Context, userID int64) ([]*models.Attendance, error) {
	return s.attendanceRepo.ListByUser(ctx, userID)
}

// EventAttendance returns an event's attendance records and the share of confirmed registrants present
func (s *attendanceServiceImpl) EventAttendance(ctx context.Context, eventID int64) (*dto.EventAttendanceResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	stats, err := s.eventRepo.Stats(ctx, eventID)
	if err != nil {
		return nil, err
	}

	present := 0
	for _, a := range records {
		if a.IsPresent {
			present++
		}
	}

	return &dto.EventAttendanceResponse{
		Event:          event,
		Records:        records,
		PresentCount:   present,
		ConfirmedCount: stats.ConfirmedCount,
		AttendanceRate: models.Percentage(present, stats.ConfirmedCount),
	}, nil
}

// Mark sets a user's attendance by hand
func (s *attendanceServiceImpl) Mark(ctx context.Context, eventID, userID int64, isPresent bool) (*models.Attendance, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	wasPresent := false
	prev, err := s.attendanceRepo.Get(ctx, eventID, userID)
	switch {
	case err == nil:
		wasPresent = prev.IsPresent
	case !errors.Is(err, apperrors.ErrAttendanceNotFound):
		return nil, err
	}

	a, err := s.attendanceRepo.Mark(ctx, eventID, userID, isPresent, uuid.New().String(), s.now())
	if err != nil {
		return nil, err
	}
	s.cache.Delete(cache.UserDashboardKey(userID), cache.KeySystemStatistics)

	s.logger.Info().Int64("eventID", eventID).Int64("userID", userID).Bool("isPresent", isPresent).Msg("Attendance marked")
	if isPresent && !wasPresent {
		s.notifyAttended(ctx, userID, event)
	}
	return a, nil
}

func (s *attendanceServiceImpl) notifyAttended(ctx context.Context, userID int64, event *models.Event) {
	msg := fmt.Sprintf("Your attendance at %q is confirmed.", event.Title)
	if event.VolunteerHours > 0 {
		msg = fmt.Sprintf("Your attendance at %q is confirmed. %d volunteer hours will be credited with your certificate.",
			event.Title, event.VolunteerHours)
	}
	if err := s.notifications.SendToUser(ctx, userID, msg, models.NotificationAttendanceConfirmed, &event.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Int64("eventID", event.ID).Msg("Failed to send attendance notification")
	}
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/metrics"
)

// RegistrationService defines event sign-up operations
type RegistrationService interface {
	Register(ctx context.Context, eventID, userID int64, guestCount int) (*models.Registration, error)
	Cancel(ctx context.Context, registrationID, userID int64) (*models.Registration, error)
	ListMine(ctx context.Context, userID int64) ([]*models.Registration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Registration, error)
}

type registrationServiceImpl struct {
	registrationRepo RegistrationRepository
	eventRepo        EventRepository
	userRepo         UserRepository
	notifications    NotificationService
	mailer           Mailer
	cache            *cache.Store
	now              Clock
	logger           zerolog.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	registrationRepo RegistrationRepository,
	eventRepo EventRepository,
	userRepo UserRepository,
	notifications NotificationService,
	mailer Mailer,
	store *cache.Store,
	logger zerolog.Logger,
) RegistrationService {
	return &registrationServiceImpl{
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		userRepo:         userRepo,
		notifications:    notifications,
		mailer:           mailer,
		cache:            store,
		now:              time.Now,
		logger:           logger,
	}
}

// Register signs the user up, confirmed while seats remain and waitlisted afterwards
func (s *registrationServiceImpl) Register(ctx context.Context, eventID, userID int64, guestCount int) (*models.Registration, error) {
	if guestCount < 0 {
		return nil, apperrors.NewBadRequestError("guestCount must not be negative")
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !event.IsApproved {
		return nil, apperrors.ErrEventNotApproved
	}
	if event.IsPast(now) {
		return nil, apperrors.ErrEventInPast
	}

	reg, err := s.registrationRepo.Register(ctx, eventID, userID, guestCount, now)
	if err != nil {
		return nil, err
	}
	reg.Event = event
	metrics.Registrations.WithLabelValues(string(reg.Status)).Inc()
	s.invalidate(eventID, userID)

	s.logger.Info().
		Int64("eventID", eventID).
		Int64("userID", userID).
		Str("status", string(reg.Status)).
		Msg("User registered for event")

	if reg.Status == models.RegistrationConfirmed {
		msg := fmt.Sprintf("Your registration for %q is confirmed.", event.Title)
		s.notify(ctx, userID, msg, models.NotificationRegistrationConfirmed, eventID)
		s.mailConfirmation(ctx, userID, event)
	} else {
		msg := fmt.Sprintf("%q is full. You have been added to the waitlist.", event.Title)
		s.notify(ctx, userID, msg, models.NotificationRegistrationWaitlisted, eventID)
	}
	return reg, nil
}

// Cancel withdraws the caller's registration and promotes the next waitlisted user into a freed seat
func (s *registrationServiceImpl) Cancel(ctx context.Context, registrationID, userID int64) (*models.Registration, error) {
	cancelled, promoted, err := s.registrationRepo.Cancel(ctx, registrationID, userID)
	if err != nil {
		return nil, err
	}
	s.invalidate(cancelled.EventID, userID)

	event, err := s.eventRepo.GetByID(ctx, cancelled.EventID)
	if err != nil {
		return nil, err
	}
	cancelled.Event = event

	s.logger.Info().Int64("registrationID", registrationID).Int64("userID", userID).Msg("Registration cancelled")
	s.notify(ctx, userID, fmt.Sprintf("Your registration for %q has been cancelled.", event.Title),
		models.NotificationRegistrationCancelled, event.ID)

	if promoted != nil {
		s.cache.Delete(cache.UserDashboardKey(promoted.UserID))
		s.logger.Info().Int64("registrationID", promoted.ID).Int64("userID", promoted.UserID).Msg("Waitlisted registration promoted")
		s.notify(ctx, promoted.UserID, fmt.Sprintf("A seat opened up: your registration for %q is now confirmed.", event.Title),
			models.NotificationWaitlistPromoted, event.ID)
		s.mailConfirmation(ctx, promoted.UserID, event)
	}
	return cancelled, nil
}

// ListMine returns the caller's registrations with their events
func (s *registrationServiceImpl) ListMine(ctx context.Context, userID int64) ([]*models.Registration, error) {
	return s.registrationRepo.ListByUser(ctx, userID)
}

// ListByEvent returns an event's registrations with their users
func (s *registrationServiceImpl) ListByEvent(ctx context.Context, eventID int64) ([]*models.Registration, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.registrationRepo.ListByEvent(ctx, eventID)
}

func (s *registrationServiceImpl) notify(ctx context.Context, userID int64, msg, notificationType string, eventID int64) {
	if err := s.notifications.SendToUser(ctx, userID, msg, notificationType, &eventID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Str("type", notificationType).Msg("Failed to send registration notification")
	}
}

func (s *registrationServiceImpl) mailConfirmation(ctx context.Context, userID int64, event *models.Event) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Could not load user for confirmation email")
		return
	}
	if err := s.mailer.SendRegistrationConfirmation(ctx, user.Email, user.FullName(), event.Title, event.EventDate, event.Venue); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Int64("eventID", event.ID).Msg("Failed to send registration confirmation email")
	}
}

func (s *registrationServiceImpl) invalidate(eventID, userID int64) {
	s.cache.Delete(cache.EventDetailsKey(eventID), cache.UserDashboardKey(userID), cache.KeySystemStatistics)
}

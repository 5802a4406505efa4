package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/filestorage"
	"github.com/yigit/unievents/internal/pkg/helpers"
	"github.com/yigit/unievents/internal/pkg/qrcode"
	"github.com/yigit/unievents/internal/pkg/sanitize"
)

// homeUpcomingLimit is how many upcoming events the landing page shows
const homeUpcomingLimit = 3

// EventService defines the event catalogue and event administration operations
type EventService interface {
	Home(ctx context.Context) (*dto.HomeResponse, error)
	List(ctx context.Context, filter models.EventFilter, page, size int) (*dto.EventListResponse, error)
	Upcoming(ctx context.Context) ([]*models.Event, error)
	Details(ctx context.Context, id int64, viewerID *int64, isAdmin bool) (*dto.EventDetailsResponse, error)

	Create(ctx context.Context, creatorID int64, req *dto.CreateEventRequest) (*models.Event, error)
	Update(ctx context.Context, id int64, req *dto.UpdateEventRequest) (*models.Event, error)
	UploadImage(ctx context.Context, id int64, file *multipart.FileHeader) (string, error)
	Approve(ctx context.Context, id int64) (*models.Event, error)
	Delete(ctx context.Context, id int64) error
	QRCode(ctx context.Context, id int64) ([]byte, error)
	RegenerateSecret(ctx context.Context, id int64) (string, error)
}

type eventServiceImpl struct {
	eventRepo        EventRepository
	registrationRepo RegistrationRepository
	userRepo         UserRepository
	notifications    NotificationService
	storage          filestorage.FileStorage
	cache            *cache.Store
	baseURL          string
	now              Clock
	logger           zerolog.Logger
}

// NewEventService creates a new EventService
func NewEventService(
	eventRepo EventRepository,
	registrationRepo RegistrationRepository,
	userRepo UserRepository,
	notifications NotificationService,
	storage filestorage.FileStorage,
	store *cache.Store,
	baseURL string,
	logger zerolog.Logger,
) EventService {
	return &eventServiceImpl{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		notifications:    notifications,
		storage:          storage,
		cache:            store,
		baseURL:          baseURL,
		now:              time.Now,
		logger:           logger,
	}
}

// Home returns the next upcoming events and the headline totals
func (s *eventServiceImpl) Home(ctx context.Context) (*dto.HomeResponse, error) {
	upcoming, err := s.Upcoming(ctx)
	if err != nil {
		return nil, err
	}
	if len(upcoming) > homeUpcomingLimit {
		upcoming = upcoming[:homeUpcomingLimit]
	}

	resp := &dto.HomeResponse{UpcomingEvents: upcoming}
	if resp.TotalEvents, err = s.eventRepo.Count(ctx); err != nil {
		return nil, err
	}
	if resp.TotalUsers, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if resp.TotalRegistrations, err = s.registrationRepo.Count(ctx); err != nil {
		return nil, err
	}
	return resp, nil
}

// List returns one page of events, newest first
func (s *eventServiceImpl) List(ctx context.Context, filter models.EventFilter, page, size int) (*dto.EventListResponse, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	events, total, err := s.eventRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}
	return &dto.EventListResponse{
		Events:     events,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// Upcoming returns every approved event that has not started yet, soonest first
func (s *eventServiceImpl) Upcoming(ctx context.Context) ([]*models.Event, error) {
	events, err := cache.GetOrLoad(s.cache, cache.KeyAllEvents, 5*time.Minute, func() ([]*models.Event, error) {
		return s.eventRepo.ListUpcoming(ctx, s.now(), 0)
	})
	if err != nil {
		return nil, err
	}

	// the cached list is ordered by start time; drop what started since it was loaded
	now := s.now()
	i := 0
	for i < len(events) && events[i].IsPast(now) {
		i++
	}
	return events[i:], nil
}

// Details returns an event with its seat numbers. Unapproved events are only visible to administrators.
func (s *eventServiceImpl) Details(ctx context.Context, id int64, viewerID *int64, isAdmin bool) (*dto.EventDetailsResponse, error) {
	details, err := cache.GetOrLoad(s.cache, cache.EventDetailsKey(id), 0, func() (*dto.EventDetailsResponse, error) {
		event, err := s.eventRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		stats, err := s.eventRepo.Stats(ctx, id)
		if err != nil {
			return nil, err
		}
		return dto.NewEventDetailsResponse(event, stats), nil
	})
	if err != nil {
		return nil, err
	}

	if !details.Event.IsApproved && !isAdmin {
		return nil, apperrors.ErrEventNotFound
	}

	// copy so the cached value never carries a viewer's status
	resp := *details
	if viewerID != nil {
		reg, err := s.registrationRepo.GetActive(ctx, id, *viewerID)
		switch {
		case err == nil:
			status := reg.Status
			resp.RegistrationStatus = &status
		case !errors.Is(err, apperrors.ErrRegistrationNotFound):
			return nil, err
		}
	}
	return &resp, nil
}

// Create stores an approved event and announces it to every active user
func (s *eventServiceImpl) Create(ctx context.Context, creatorID int64, req *dto.CreateEventRequest) (*models.Event, error) {
	event := &models.Event{
		Title:          sanitize.Text(req.Title),
		Description:    sanitize.HTML(req.Description),
		EventDate:      req.EventDate,
		Venue:          sanitize.Text(req.Venue),
		CreatedBy:      creatorID,
		IsApproved:     true,
		MaxCapacity:    req.MaxCapacity,
		EventType:      req.EventType,
		CreatedDate:    s.now(),
		VolunteerHours: req.VolunteerHours,
		Secret:         models.NewEventSecret(),
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	s.invalidate(event.ID)

	s.logger.Info().Int64("eventID", event.ID).Int64("createdBy", creatorID).Msg("Event created")

	msg := fmt.Sprintf("New event: %s on %s at %s", event.Title, event.EventDate.Format("02 Jan 2006 15:04"), event.Venue)
	if _, err := s.notifications.SendToAll(ctx, msg, models.NotificationEventCreated, &event.ID); err != nil {
		s.logger.Warn().Err(err).Int64("eventID", event.ID).Msg("Failed to announce new event")
	}
	return event, nil
}

// Update edits an event and tells its registrants
func (s *eventServiceImpl) Update(ctx context.Context, id int64, req *dto.UpdateEventRequest) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	event.Title = sanitize.Text(req.Title)
	event.Description = sanitize.HTML(req.Description)
	event.EventDate = req.EventDate
	event.Venue = sanitize.Text(req.Venue)
	event.MaxCapacity = req.MaxCapacity
	event.EventType = req.EventType
	event.VolunteerHours = req.VolunteerHours
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	s.invalidate(id)

	msg := fmt.Sprintf("The event %q has been updated. It takes place on %s at %s.",
		event.Title, event.EventDate.Format("02 Jan 2006 15:04"), event.Venue)
	if _, err := s.notifications.SendToEventRegistrants(ctx, id, msg, models.NotificationEventUpdate); err != nil {
		s.logger.Warn().Err(err).Int64("eventID", id).Msg("Failed to notify registrants of event update")
	}
	return event, nil
}

// UploadImage stores a new event image and removes the previous one
func (s *eventServiceImpl) UploadImage(ctx context.Context, id int64, file *multipart.FileHeader) (string, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.storage.SaveImage(file, "events")
	if err != nil {
		return "", err
	}

	if err := s.eventRepo.SetImageURL(ctx, id, url); err != nil {
		if delErr := s.storage.DeleteFile(url); delErr != nil {
			s.logger.Warn().Err(delErr).Str("url", url).Msg("Failed to remove orphaned event image")
		}
		return "", err
	}

	if event.ImageURL != nil && *event.ImageURL != "" {
		if err := s.storage.DeleteFile(*event.ImageURL); err != nil {
			s.logger.Warn().Err(err).Str("url", *event.ImageURL).Msg("Failed to remove previous event image")
		}
	}
	s.invalidate(id)
	return url, nil
}

// Approve publishes an event and tells its creator
func (s *eventServiceImpl) Approve(ctx context.Context, id int64) (*models.Event, error) {
	if err := s.eventRepo.Approve(ctx, id); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(id)

	msg := fmt.Sprintf("Your event %q has been approved.", event.Title)
	if err := s.notifications.SendToUser(ctx, event.CreatedBy, msg, models.NotificationEventApproved, &event.ID); err != nil {
		s.logger.Warn().Err(err).Int64("eventID", id).Msg("Failed to notify event creator of approval")
	}
	return event, nil
}

// Delete removes an event together with its registrations, attendance, certificates, buses and feedback
func (s *eventServiceImpl) Delete(ctx context.Context, id int64) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)

	if event.ImageURL != nil && *event.ImageURL != "" {
		if err := s.storage.DeleteFile(*event.ImageURL); err != nil {
			s.logger.Warn().Err(err).Str("url", *event.ImageURL).Msg("Failed to remove event image")
		}
	}

	s.logger.Info().Int64("eventID", id).Msg("Event deleted")
	return nil
}

// QRCode renders the check-in QR code, issuing a secret first if the event has none
func (s *eventServiceImpl) QRCode(ctx context.Context, id int64) ([]byte, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if event.Secret == "" {
		event.Secret = models.NewEventSecret()
		if err := s.eventRepo.SetSecret(ctx, id, event.Secret); err != nil {
			return nil, err
		}
	}
	return qrcode.PNG(qrcode.CheckInURL(s.baseURL, event.Secret), qrcode.DefaultSize)
}

// RegenerateSecret invalidates printed QR codes by issuing a new secret and returns the new check-in URL
func (s *eventServiceImpl) RegenerateSecret(ctx context.Context, id int64) (string, error) {
	if _, err := s.eventRepo.GetByID(ctx, id); err != nil {
		return "", err
	}

	secret := models.NewEventSecret()
	if err := s.eventRepo.SetSecret(ctx, id, secret); err != nil {
		return "", err
	}
	s.cache.Delete(cache.EventDetailsKey(id))

	s.logger.Info().Int64("eventID", id).Msg("Event check-in secret regenerated")
	return qrcode.CheckInURL(s.baseURL, secret), nil
}

func (s *eventServiceImpl) invalidate(eventID int64) {
	s.cache.Delete(cache.KeyAllEvents, cache.EventDetailsKey(eventID), cache.KeySystemStatistics, cache.KeyAdminDashboard)
}

func validateEvent(e *models.Event) error {
	if e.Title == "" {
		return apperrors.NewBadRequestError("title must not be empty")
	}
	if e.Venue == "" {
		return apperrors.NewBadRequestError("venue must not be empty")
	}
	if e.MaxCapacity < 1 {
		return apperrors.NewBadRequestError("maxCapacity must be at least 1")
	}
	if e.VolunteerHours < 0 {
		return apperrors.NewBadRequestError("volunteerHours must not be negative")
	}
	return nil
}

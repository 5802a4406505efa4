package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/helpers"
)

// NotificationService stores in-app notifications and pushes them to live connections
type NotificationService interface {
	SendToUser(ctx context.Context, userID int64, message, notificationType string, eventID *int64) error
	SendToAll(ctx context.Context, message, notificationType string, eventID *int64) (int, error)
	SendToEventRegistrants(ctx context.Context, eventID int64, message, notificationType string) (int, error)
	Broadcast(ctx context.Context, req *dto.SendNotificationRequest) (int, error)
	List(ctx context.Context, userID int64, page, size int) (*dto.NotificationListResponse, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	Get(ctx context.Context, id, userID int64) (*models.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
}

type notificationServiceImpl struct {
	notificationRepo NotificationRepository
	userRepo         UserRepository
	eventRepo        EventRepository
	registrationRepo RegistrationRepository
	pusher           NotificationPusher
	cache            *cache.Store
	now              Clock
	logger           zerolog.Logger
}

// NewNotificationService creates a new NotificationService. pusher may be nil.
func NewNotificationService(
	notificationRepo NotificationRepository,
	userRepo UserRepository,
	eventRepo EventRepository,
	registrationRepo RegistrationRepository,
	pusher NotificationPusher,
	store *cache.Store,
	logger zerolog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		pusher:           pusher,
		cache:            store,
		now:              time.Now,
		logger:           logger,
	}
}

// deliver stores one notification per user, then pushes and invalidates caches
func (s *notificationServiceImpl) deliver(ctx context.Context, userIDs []int64, message, notificationType string, eventID *int64) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	sentAt := s.now()
	batch := make([]*models.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		batch = append(batch, &models.Notification{
			UserID:           uid,
			Message:          message,
			SentDate:         sentAt,
			NotificationType: notificationType,
			EventID:          eventID,
		})
	}

	if err := s.notificationRepo.CreateMany(ctx, batch); err != nil {
		s.logger.Error().Err(err).Str("type", notificationType).Int("recipients", len(userIDs)).Msg("Failed to store notifications")
		return 0, fmt.Errorf("failed to store notifications: %w", err)
	}

	for _, n := range batch {
		s.cache.Delete(cache.UserNotificationsKey(n.UserID), cache.UserDashboardKey(n.UserID))
		if s.pusher != nil {
			s.pusher.PushNotification(n)
		}
	}

	s.logger.Debug().Str("type", notificationType).Int("recipients", len(batch)).Msg("Notifications delivered")
	return len(batch), nil
}

// SendToUser notifies a single user
func (s *notificationServiceImpl) SendToUser(ctx context.Context, userID int64, message, notificationType string, eventID *int64) error {
	_, err := s.deliver(ctx, []int64{userID}, message, notificationType, eventID)
	return err
}

// SendToAll notifies every active user
func (s *notificationServiceImpl) SendToAll(ctx context.Context, message, notificationType string, eventID *int64) (int, error) {
	ids, err := s.userRepo.ListActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list recipients: %w", err)
	}
	return s.deliver(ctx, ids, message, notificationType, eventID)
}

// SendToEventRegistrants notifies everyone holding a confirmed or waitlisted registration
func (s *notificationServiceImpl) SendToEventRegistrants(ctx context.Context, eventID int64, message, notificationType string) (int, error) {
	ids, err := s.registrationRepo.ListActiveUserIDs(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list event registrants: %w", err)
	}
	return s.deliver(ctx, ids, message, notificationType, &eventID)
}

// Broadcast sends an administrator message to the requested audience
func (s *notificationServiceImpl) Broadcast(ctx context.Context, req *dto.SendNotificationRequest) (int, error) {
	switch req.Target {
	case dto.NotificationTargetAll:
		return s.SendToAll(ctx, req.Message, models.NotificationAdmin, nil)

	case dto.NotificationTargetEvent:
		if req.EventID == nil {
			return 0, apperrors.NewBadRequestError("eventId is required for event notifications")
		}
		if _, err := s.eventRepo.GetByID(ctx, *req.EventID); err != nil {
			return 0, err
		}
		return s.SendToEventRegistrants(ctx, *req.EventID, req.Message, models.NotificationAdmin)

	case dto.NotificationTargetUser:
		if req.UserID == nil {
			return 0, apperrors.NewBadRequestError("userId is required for user notifications")
		}
		if _, err := s.userRepo.GetByID(ctx, *req.UserID); err != nil {
			return 0, err
		}
		if err := s.SendToUser(ctx, *req.UserID, req.Message, models.NotificationAdmin, nil); err != nil {
			return 0, err
		}
		return 1, nil
	}

	return 0, apperrors.NewBadRequestError(fmt.Sprintf("unknown notification target %q", req.Target))
}

// List returns one page of the user's notifications, newest first
func (s *notificationServiceImpl) List(ctx context.Context, userID int64, page, size int) (*dto.NotificationListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	items, total, err := s.notificationRepo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return &dto.NotificationListResponse{
		Notifications: items,
		Pagination:    helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// UnreadCount returns the number of unread notifications
func (s *notificationServiceImpl) UnreadCount(ctx context.Context, userID int64) (int, error) {
	n, err := cache.GetOrLoad(s.cache, cache.UserNotificationsKey(userID), 0, func() (int, error) {
		count, err := s.notificationRepo.CountUnread(ctx, userID)
		return int(count), err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// Get returns one of the user's notifications and marks it read
func (s *notificationServiceImpl) Get(ctx context.Context, id, userID int64) (*models.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !n.IsRead {
		if err := s.MarkRead(ctx, id, userID); err != nil {
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}

// MarkRead flags one notification as read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id, userID int64) error {
	if err := s.notificationRepo.MarkRead(ctx, id, userID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// MarkAllRead flags every notification of the user as read
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.invalidate(userID)
	return n, nil
}

// Delete removes one of the user's notifications
func (s *notificationServiceImpl) Delete(ctx context.Context, id, userID int64) error {
	if err := s.notificationRepo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *notificationServiceImpl) invalidate(userID int64) {
	s.cache.Delete(cache.UserNotificationsKey(userID), cache.UserDashboardKey(userID))
}

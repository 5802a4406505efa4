package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/cache"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardCacheTTL       = 5 * time.Minute
	dashboardNotifications  = 5
	dashboardUpcomingEvents = 3
)

// DashboardService builds the student's personal overview pages
type DashboardService interface {
	Dashboard(ctx context.Context, userID int64) (*dto.DashboardResponse, error)
	History(ctx context.Context, userID int64) (*dto.EventHistoryResponse, error)
}

type dashboardServiceImpl struct {
	userRepo         UserRepository
	eventRepo        EventRepository
	registrationRepo RegistrationRepository
	attendanceRepo   AttendanceRepository
	certificateRepo  CertificateRepository
	clubRepo         ClubRepository
	notificationRepo NotificationRepository
	cache            *cache.Store
	now              Clock
	logger           zerolog.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	userRepo UserRepository,
	eventRepo EventRepository,
	registrationRepo RegistrationRepository,
	attendanceRepo AttendanceRepository,
	certificateRepo CertificateRepository,
	clubRepo ClubRepository,
	notificationRepo NotificationRepository,
	store *cache.Store,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardServiceImpl{
		userRepo:         userRepo,
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		attendanceRepo:   attendanceRepo,
		certificateRepo:  certificateRepo,
		clubRepo:         clubRepo,
		notificationRepo: notificationRepo,
		cache:            store,
		now:              time.Now,
		logger:           logger,
	}
}

// Dashboard loads the independent dashboard sections concurrently
func (s *dashboardServiceImpl) Dashboard(ctx context.Context, userID int64) (*dto.DashboardResponse, error) {
	return cache.GetOrLoad(s.cache, cache.UserDashboardKey(userID), dashboardCacheTTL, func() (*dto.DashboardResponse, error) {
		return s.loadDashboard(ctx, userID)
	})
}

func (s *dashboardServiceImpl) loadDashboard(ctx context.Context, userID int64) (*dto.DashboardResponse, error) {
	now := s.now()
	resp := &dto.DashboardResponse{}

	var (
		user     *models.User
		unread   int64
		attended int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = s.userRepo.GetByID(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		resp.Registrations, err = s.registrationRepo.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		resp.Certificates, err = s.certificateRepo.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		resp.ClubMemberships, err = s.clubRepo.ListMembershipsByUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		resp.RecentNotifications, _, err = s.notificationRepo.ListByUser(gctx, userID, 0, dashboardNotifications)
		return err
	})
	g.Go(func() (err error) {
		resp.UpcomingEvents, err = s.eventRepo.ListUpcomingForUser(gctx, userID, now, dashboardUpcomingEvents)
		return err
	})
	g.Go(func() (err error) {
		unread, err = s.notificationRepo.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		attended, err = s.attendanceRepo.CountPresentByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to load dashboard")
		return nil, err
	}

	resp.TotalVolunteerHours = user.TotalVolunteerHours
	resp.UnreadNotifications = int(unread)
	for _, reg := range resp.Registrations {
		if reg.Event != nil && reg.Event.EventDate.Before(now) {
			resp.CompletedEvents++
		}
	}
	if n := len(resp.Registrations); n > 0 {
		resp.AttendanceRatePercent = int(attended) * 100 / n
	}
	return resp, nil
}

// History splits the user's registrations into completed and upcoming events
func (s *dashboardServiceImpl) History(ctx context.Context, userID int64) (*dto.EventHistoryResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	regs, err := s.registrationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	resp := &dto.EventHistoryResponse{
		TotalRegistrations:  len(regs),
		CompletedEvents:     make([]*models.Registration, 0),
		UpcomingEvents:      make([]*models.Registration, 0),
		TotalVolunteerHours: user.TotalVolunteerHours,
	}
	for _, reg := range regs {
		if reg.Event == nil {
			continue
		}
		if reg.Event.EventDate.Before(now) {
			resp.CompletedEvents = append(resp.CompletedEvents, reg)
		} else {
			resp.UpcomingEvents = append(resp.UpcomingEvents, reg)
		}
	}
	return resp, nil
}

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/cache"
)

const reportCacheTTL = 5 * time.Minute

// ReportService defines the administrator reports
type ReportService interface {
	Dashboard(ctx context.Context) (*models.SystemStatistics, error)
	EventReport(ctx context.Context, eventID int64) (*models.EventReport, error)
	UserReport(ctx context.Context) ([]*models.UserReportRow, error)
	EventsReport(ctx context.Context) ([]*models.EventReportRow, error)
}

type reportServiceImpl struct {
	reportRepo ReportRepository
	eventRepo  EventRepository
	cache      *cache.Store
	now        Clock
	logger     zerolog.Logger
}

// NewReportService creates a new ReportService
func NewReportService(reportRepo ReportRepository, eventRepo EventRepository, store *cache.Store, logger zerolog.Logger) ReportService {
	return &reportServiceImpl{
		reportRepo: reportRepo,
		eventRepo:  eventRepo,
		cache:      store,
		now:        time.Now,
		logger:     logger,
	}
}

// Dashboard returns the system-wide statistics, cached for five minutes
func (s *reportServiceImpl) Dashboard(ctx context.Context) (*models.SystemStatistics, error) {
	return cache.GetOrLoad(s.cache, cache.KeySystemStatistics, reportCacheTTL, func() (*models.SystemStatistics, error) {
		s.logger.Debug().Msg("Computing system statistics")
		return s.reportRepo.SystemStatistics(ctx, s.now())
	})
}

// EventReport summarises the participation in one event
func (s *reportServiceImpl) EventReport(ctx context.Context, eventID int64) (*models.EventReport, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	report := &models.EventReport{Event: event}
	if err := s.reportRepo.EventCounts(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *reportServiceImpl) UserReport(ctx context.Context) ([]*models.UserReportRow, error) {
	return s.reportRepo.UserRows(ctx)
}

// EventsReport lists every event's participation totals, cached for five minutes
func (s *reportServiceImpl) EventsReport(ctx context.Context) ([]*models.EventReportRow, error) {
	return cache.GetOrLoad(s.cache, cache.KeyAdminDashboard, reportCacheTTL, func() ([]*models.EventReportRow, error) {
		return s.reportRepo.EventRows(ctx)
	})
}

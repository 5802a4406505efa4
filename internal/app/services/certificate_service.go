package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/certpdf"
	"github.com/yigit/unievents/internal/pkg/metrics"
)

// certificateIssuer is printed on every certificate
const certificateIssuer = "UniEvents Student Affairs"

// CertificateService defines certificate issuing and download
type CertificateService interface {
	Issue(ctx context.Context, eventID, userID int64) (*models.Certificate, error)
	IssueBulk(ctx context.Context, eventID int64) (int, error)
	Get(ctx context.Context, id, callerID int64, isAdmin bool) (*models.Certificate, error)
	Download(ctx context.Context, id, callerID int64, isAdmin bool, template certpdf.Template) ([]byte, *models.Certificate, error)
	ListMine(ctx context.Context, userID int64) ([]*models.Certificate, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Certificate, error)
}

type certificateServiceImpl struct {
	certificateRepo CertificateRepository
	attendanceRepo  AttendanceRepository
	eventRepo       EventRepository
	userRepo        UserRepository
	notifications   NotificationService
	mailer          Mailer
	cache           *cache.Store
	now             Clock
	logger          zerolog.Logger
}

// NewCertificateService creates a new CertificateService
func NewCertificateService(
	certificateRepo CertificateRepository,
	attendanceRepo AttendanceRepository,
	eventRepo EventRepository,
	userRepo UserRepository,
	notifications NotificationService,
	mailer Mailer,
	store *cache.Store,
	logger zerolog.Logger,
) CertificateService {
	return &certificateServiceImpl{
		certificateRepo: certificateRepo,
		attendanceRepo:  attendanceRepo,
		eventRepo:       eventRepo,
		userRepo:        userRepo,
		notifications:   notifications,
		mailer:          mailer,
		cache:           store,
		now:             time.Now,
		logger:          logger,
	}
}

// Issue certifies a present attendee and credits the event's volunteer hours
func (s *certificateServiceImpl) Issue(ctx context.Context, eventID, userID int64) (*models.Certificate, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, event, userID)
}

func (s *certificateServiceImpl) issue(ctx context.Context, event *models.Event, userID int64) (*models.Certificate, error) {
	attendance, err := s.attendanceRepo.Get(ctx, event.ID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAttendanceNotFound) {
			return nil, apperrors.ErrAttendanceNotPresent
		}
		return nil, err
	}
	if !attendance.IsPresent {
		return nil, apperrors.ErrAttendanceNotPresent
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	cert := &models.Certificate{
		UserID:            userID,
		EventID:           event.ID,
		IssueDate:         issued,
		CertificateNumber: models.NewCertificateNumber(issued, uuid.New()),
	}
	if err := s.certificateRepo.Issue(ctx, cert, event.VolunteerHours); err != nil {
		return nil, err
	}
	cert.Event = event
	cert.User = user

	metrics.CertificatesIssued.Inc()
	s.cache.Delete(cache.UserDashboardKey(userID), cache.KeySystemStatistics)
	s.logger.Info().
		Int64("eventID", event.ID).
		Int64("userID", userID).
		Str("number", cert.CertificateNumber).
		Int("volunteerHours", event.VolunteerHours).
		Msg("Certificate issued")

	msg := fmt.Sprintf("Your certificate for %q is ready (%s).", event.Title, cert.CertificateNumber)
	if err := s.notifications.SendToUser(ctx, userID, msg, models.NotificationCertificateIssued, &event.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to send certificate notification")
	}
	if err := s.mailer.SendCertificateIssued(ctx, user.Email, user.FullName(), event.Title, cert.CertificateNumber, cert.CertificateURL); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to send certificate email")
	}
	return cert, nil
}

// IssueBulk certifies every present attendee who has no certificate yet and returns how many were issued
func (s *certificateServiceImpl) IssueBulk(ctx context.Context, eventID int64) (int, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, err
	}

	userIDs, err := s.attendanceRepo.ListPresentWithoutCertificate(ctx, eventID)
	if err != nil {
		return 0, err
	}

	issued := 0
	for _, uid := range userIDs {
		if _, err := s.issue(ctx, event, uid); err != nil {
			// another administrator may have issued it meanwhile
			if errors.Is(err, apperrors.ErrCertificateExists) {
				continue
			}
			return issued, err
		}
		issued++
	}

	s.logger.Info().Int64("eventID", eventID).Int("issued", issued).Msg("Bulk certificate issue finished")
	return issued, nil
}

// Get returns a certificate to its owner or an administrator
func (s *certificateServiceImpl) Get(ctx context.Context, id, callerID int64, isAdmin bool) (*models.Certificate, error) {
	cert, err := s.certificateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.UserID != callerID && !isAdmin {
		return nil, apperrors.NewForbiddenError("certificate belongs to another user")
	}
	return cert, nil
}

// Download renders the certificate PDF and records the download
func (s *certificateServiceImpl) Download(ctx context.Context, id, callerID int64, isAdmin bool, template certpdf.Template) ([]byte, *models.Certificate, error) {
	cert, err := s.Get(ctx, id, callerID, isAdmin)
	if err != nil {
		return nil, nil, err
	}

	data := certpdf.Data{
		CertificateNumber: cert.CertificateNumber,
		IssueDate:         cert.IssueDate,
		Issuer:            certificateIssuer,
	}
	if cert.User != nil {
		data.RecipientName = cert.User.FullName()
	}
	if cert.Event != nil {
		data.EventTitle = cert.Event.Title
		data.EventDate = cert.Event.EventDate
		data.Venue = cert.Event.Venue
		data.VolunteerHours = cert.Event.VolunteerHours
	}

	pdf, err := certpdf.Render(template, data)
	if err != nil {
		s.logger.Error().Err(err).Int64("certificateID", id).Msg("Failed to render certificate")
		return nil, nil, err
	}

	if !cert.IsDownloaded {
		if err := s.certificateRepo.MarkDownloaded(ctx, id); err != nil {
			return nil, nil, err
		}
		cert.IsDownloaded = true
	}
	return pdf, cert, nil
}

// ListMine returns the caller's certificates
func (s *certificateServiceImpl) ListMine(ctx context.Context, userID int64) ([]*models.Certificate, error) {
	return s.certificateRepo.ListByUser(ctx, userID)
}

// ListByEvent returns the certificates issued for an event
func (s *certificateServiceImpl) ListByEvent(ctx context.Context, eventID int64) ([]*models.Certificate, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.certificateRepo.ListByEvent(ctx, eventID)
}

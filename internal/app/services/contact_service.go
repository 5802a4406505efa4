package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/helpers"
	"github.com/yigit/unievents/internal/pkg/sanitize"
)

// ContactService handles the public contact form and its administration
type ContactService interface {
	Submit(ctx context.Context, req *dto.ContactRequest) (*models.Contact, error)
	List(ctx context.Context, resolved *bool, page, size int) (*dto.ContactListResponse, error)
	Get(ctx context.Context, id int64) (*models.Contact, error)
	Respond(ctx context.Context, id int64, response string) (*models.Contact, error)
	Delete(ctx context.Context, id int64) error
}

type contactServiceImpl struct {
	contactRepo ContactRepository
	now         Clock
	logger      zerolog.Logger
}

// NewContactService creates a new ContactService
func NewContactService(contactRepo ContactRepository, logger zerolog.Logger) ContactService {
	return &contactServiceImpl{
		contactRepo: contactRepo,
		now:         time.Now,
		logger:      logger,
	}
}

// Submit stores an inquiry with every field stripped of markup
func (s *contactServiceImpl) Submit(ctx context.Context, req *dto.ContactRequest) (*models.Contact, error) {
	c := &models.Contact{
		FullName:      sanitize.Text(req.FullName),
		Email:         sanitize.Text(req.Email),
		Phone:         sanitize.Text(req.Phone),
		Subject:       sanitize.Text(req.Subject),
		Message:       sanitize.Text(req.Message),
		InquiryType:   sanitize.OptionalText(req.InquiryType),
		SubmittedDate: s.now(),
	}
	// Etiket temizlendikten sonra boş kalan alanlar
	if c.FullName == "" || c.Email == "" || c.Phone == "" || c.Subject == "" || c.Message == "" {
		return nil, apperrors.NewBadRequestError("all contact fields must contain text")
	}

	if err := s.contactRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("contactID", c.ID).Msg("Contact inquiry received")
	return c, nil
}

// List returns a page of inquiries, optionally filtered by resolution
func (s *contactServiceImpl) List(ctx context.Context, resolved *bool, page, size int) (*dto.ContactListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	items, total, err := s.contactRepo.List(ctx, resolved, offset, limit)
	if err != nil {
		return nil, err
	}
	return &dto.ContactListResponse{
		Contacts:   items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

func (s *contactServiceImpl) Get(ctx context.Context, id int64) (*models.Contact, error) {
	return s.contactRepo.GetByID(ctx, id)
}

// Respond records the administrator's answer and resolves the inquiry
func (s *contactServiceImpl) Respond(ctx context.Context, id int64, response string) (*models.Contact, error) {
	response = sanitize.Text(response)
	if response == "" {
		return nil, apperrors.NewBadRequestError("response must not be empty")
	}
	if err := s.contactRepo.Respond(ctx, id, response, s.now()); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("contactID", id).Msg("Contact inquiry answered")
	return s.contactRepo.GetByID(ctx, id)
}

func (s *contactServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("contactID", id).Msg("Contact inquiry deleted")
	return nil
}

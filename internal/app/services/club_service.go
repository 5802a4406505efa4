package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/filestorage"
	"github.com/yigit/unievents/internal/pkg/sanitize"
)

// ClubService defines the interface for club and membership operations
type ClubService interface {
	List(ctx context.Context, isAdmin bool) ([]*models.Club, error)
	Get(ctx context.Context, id int64, isAdmin bool) (*dto.ClubDetailsResponse, error)
	Join(ctx context.Context, clubID, userID int64, isAdmin bool) (*models.ClubMember, error)
	Leave(ctx context.Context, clubID, userID int64) error
	ListMine(ctx context.Context, userID int64) ([]*models.ClubMember, error)

	Create(ctx context.Context, req *dto.ClubRequest) (*models.Club, error)
	Update(ctx context.Context, id int64, req *dto.ClubRequest) (*models.Club, error)
	Delete(ctx context.Context, id int64) error
	UploadLogo(ctx context.Context, id int64, file *multipart.FileHeader) (string, error)
	ListMembers(ctx context.Context, clubID int64, status *models.MembershipStatus) ([]*models.ClubMember, error)
	ApproveMember(ctx context.Context, memberID int64) (*models.ClubMember, error)
	RejectMember(ctx context.Context, memberID int64) (*models.ClubMember, error)
}

// clubServiceImpl implements ClubService
type clubServiceImpl struct {
	clubRepo      ClubRepository
	userRepo      UserRepository
	notifications NotificationService
	storage       filestorage.FileStorage
	cache         *cache.Store
	now           Clock
	logger        zerolog.Logger
}

// NewClubService creates a new ClubService
func NewClubService(
	clubRepo ClubRepository,
	userRepo UserRepository,
	notifications NotificationService,
	storage filestorage.FileStorage,
	store *cache.Store,
	logger zerolog.Logger,
) ClubService {
	return &clubServiceImpl{
		clubRepo:      clubRepo,
		userRepo:      userRepo,
		notifications: notifications,
		storage:       storage,
		cache:         store,
		now:           time.Now,
		logger:        logger,
	}
}

// List returns the clubs; everyone but administrators sees active clubs only
func (s *clubServiceImpl) List(ctx context.Context, isAdmin bool) ([]*models.Club, error) {
	if isAdmin {
		return s.clubRepo.List(ctx, false)
	}
	return cache.GetOrLoad(s.cache, cache.KeyAllClubs, 0, func() ([]*models.Club, error) {
		return s.clubRepo.List(ctx, true)
	})
}

// Get returns a club with its members. Non-administrators only see approved members of active clubs.
func (s *clubServiceImpl) Get(ctx context.Context, id int64, isAdmin bool) (*dto.ClubDetailsResponse, error) {
	club, err := s.clubRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !club.IsActive && !isAdmin {
		return nil, apperrors.ErrClubNotFound
	}

	var status *models.MembershipStatus
	if !isAdmin {
		approved := models.MembershipApproved
		status = &approved
	}
	members, err := s.clubRepo.ListMembers(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return &dto.ClubDetailsResponse{Club: club, Members: members}, nil
}

// Join files a membership request. A rejected request may be filed again.
func (s *clubServiceImpl) Join(ctx context.Context, clubID, userID int64, isAdmin bool) (*models.ClubMember, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if !club.IsActive {
		return nil, apperrors.ErrClubInactive
	}
	if isAdmin || (club.AdminUserID != nil && *club.AdminUserID == userID) {
		return nil, apperrors.ErrClubAdminCannotJoin
	}

	now := s.now()
	existing, err := s.clubRepo.GetMembership(ctx, clubID, userID)
	switch {
	case err == nil:
		if existing.BlocksJoin() {
			return nil, apperrors.ErrClubMembershipExists
		}
		if err := s.clubRepo.ResetToPending(ctx, existing.ID, now); err != nil {
			return nil, err
		}
		existing.Status = models.MembershipPending
		existing.JoinDate = now
		s.logger.Info().Int64("clubID", clubID).Int64("userID", userID).Msg("Rejected club membership re-requested")
		return existing, nil

	case !errors.Is(err, apperrors.ErrClubMembershipNotFound):
		return nil, err
	}

	member := &models.ClubMember{
		ClubID:   clubID,
		UserID:   userID,
		JoinDate: now,
		Role:     models.ClubRoleMember,
		Status:   models.MembershipPending,
	}
	if err := s.clubRepo.CreateMember(ctx, member); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("clubID", clubID).Int64("userID", userID).Msg("Club membership requested")
	return member, nil
}

// Leave removes the caller's membership
func (s *clubServiceImpl) Leave(ctx context.Context, clubID, userID int64) error {
	if err := s.clubRepo.DeleteMember(ctx, clubID, userID); err != nil {
		return err
	}
	s.cache.Delete(cache.KeyAllClubs, cache.UserDashboardKey(userID))
	s.logger.Info().Int64("clubID", clubID).Int64("userID", userID).Msg("User left club")
	return nil
}

// ListMine returns the caller's memberships
func (s *clubServiceImpl) ListMine(ctx context.Context, userID int64) ([]*models.ClubMember, error) {
	return s.clubRepo.ListMembershipsByUser(ctx, userID)
}

// Create adds a club
func (s *clubServiceImpl) Create(ctx context.Context, req *dto.ClubRequest) (*models.Club, error) {
	if err := s.checkAdminUser(ctx, req.AdminUserID); err != nil {
		return nil, err
	}

	club := &models.Club{
		ClubName:    sanitize.Text(req.ClubName),
		Description: sanitize.HTML(req.Description),
		AdminUserID: req.AdminUserID,
		CreatedDate: s.now(),
		IsActive:    true,
	}
	if req.IsActive != nil {
		club.IsActive = *req.IsActive
	}
	if club.ClubName == "" {
		return nil, apperrors.NewBadRequestError("clubName must not be empty")
	}

	if err := s.clubRepo.Create(ctx, club); err != nil {
		return nil, err
	}
	s.cache.Delete(cache.KeyAllClubs)

	s.logger.Info().Int64("clubID", club.ID).Msg("Club created")
	return club, nil
}

// Update edits a club
func (s *clubServiceImpl) Update(ctx context.Context, id int64, req *dto.ClubRequest) (*models.Club, error) {
	club, err := s.clubRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAdminUser(ctx, req.AdminUserID); err != nil {
		return nil, err
	}

	club.ClubName = sanitize.Text(req.ClubName)
	club.Description = sanitize.HTML(req.Description)
	club.AdminUserID = req.AdminUserID
	if req.IsActive != nil {
		club.IsActive = *req.IsActive
	}
	if club.ClubName == "" {
		return nil, apperrors.NewBadRequestError("clubName must not be empty")
	}

	if err := s.clubRepo.Update(ctx, club); err != nil {
		return nil, err
	}
	s.cache.Delete(cache.KeyAllClubs)
	return club, nil
}

// Delete removes a club after its memberships
func (s *clubServiceImpl) Delete(ctx context.Context, id int64) error {
	club, err := s.clubRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.clubRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(cache.KeyAllClubs)

	if club.LogoURL != nil && *club.LogoURL != "" {
		if err := s.storage.DeleteFile(*club.LogoURL); err != nil {
			s.logger.Warn().Err(err).Str("url", *club.LogoURL).Msg("Failed to remove club logo")
		}
	}

	s.logger.Info().Int64("clubID", id).Msg("Club deleted")
	return nil
}

// UploadLogo stores a new club logo and removes the previous one
func (s *clubServiceImpl) UploadLogo(ctx context.Context, id int64, file *multipart.FileHeader) (string, error) {
	club, err := s.clubRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	url, err := s.storage.SaveImage(file, "clubs")
	if err != nil {
		return "", err
	}
	if err := s.clubRepo.SetLogoURL(ctx, id, url); err != nil {
		if delErr := s.storage.DeleteFile(url); delErr != nil {
			s.logger.Warn().Err(delErr).Str("url", url).Msg("Failed to remove orphaned club logo")
		}
		return "", err
	}

	if club.LogoURL != nil && *club.LogoURL != "" {
		if err := s.storage.DeleteFile(*club.LogoURL); err != nil {
			s.logger.Warn().Err(err).Str("url", *club.LogoURL).Msg("Failed to remove previous club logo")
		}
	}
	s.cache.Delete(cache.KeyAllClubs)
	return url, nil
}

// ListMembers returns a club's memberships, optionally filtered by status
func (s *clubServiceImpl) ListMembers(ctx context.Context, clubID int64, status *models.MembershipStatus) ([]*models.ClubMember, error) {
	if _, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		return nil, err
	}
	return s.clubRepo.ListMembers(ctx, clubID, status)
}

// ApproveMember accepts a pending membership request
func (s *clubServiceImpl) ApproveMember(ctx context.Context, memberID int64) (*models.ClubMember, error) {
	return s.decide(ctx, memberID, models.MembershipApproved)
}

// RejectMember declines a pending membership request
func (s *clubServiceImpl) RejectMember(ctx context.Context, memberID int64) (*models.ClubMember, error) {
	return s.decide(ctx, memberID, models.MembershipRejected)
}

func (s *clubServiceImpl) decide(ctx context.Context, memberID int64, status models.MembershipStatus) (*models.ClubMember, error) {
	member, err := s.clubRepo.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if err := s.clubRepo.SetMemberStatus(ctx, memberID, status); err != nil {
		return nil, err
	}
	member.Status = status
	s.cache.Delete(cache.KeyAllClubs, cache.UserDashboardKey(member.UserID))

	club, err := s.clubRepo.GetByID(ctx, member.ClubID)
	if err != nil {
		return nil, err
	}
	member.Club = club

	var msg, notificationType string
	if status == models.MembershipApproved {
		msg = fmt.Sprintf("Welcome! Your membership in %s has been approved.", club.ClubName)
		notificationType = models.NotificationClubMembershipApproved
	} else {
		msg = fmt.Sprintf("Your membership request for %s was not approved.", club.ClubName)
		notificationType = models.NotificationClubMembershipRejected
	}
	if err := s.notifications.SendToUser(ctx, member.UserID, msg, notificationType, nil); err != nil {
		s.logger.Warn().Err(err).Int64("memberID", memberID).Msg("Failed to send membership notification")
	}

	s.logger.Info().Int64("memberID", memberID).Str("status", string(status)).Msg("Club membership decided")
	return member, nil
}

func (s *clubServiceImpl) checkAdminUser(ctx context.Context, adminUserID *int64) error {
	if adminUserID == nil {
		return nil
	}
	if _, err := s.userRepo.GetByID(ctx, *adminUserID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.NewBadRequestError("adminUserId does not belong to a user")
		}
		return err
	}
	return nil
}

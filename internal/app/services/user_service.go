package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/auth"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/helpers"
)

// pendingPasswordKey holds a new password hash until its change code is confirmed
func pendingPasswordKey(userID int64) string {
	return fmt.Sprintf("PASSWORD_CHANGE_HASH_%d", userID)
}

// UserService defines the profile, security settings and admin user management operations
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	StartPasswordChange(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error
	ConfirmPasswordChange(ctx context.Context, userID int64, code string) error
	EnableTwoFactor(ctx context.Context, userID int64, password string) error
	DisableTwoFactor(ctx context.Context, userID int64, password string) error

	ListUsers(ctx context.Context, filter models.UserFilter, page, size int) (*dto.UserListResponse, error)
	GetUser(ctx context.Context, id int64) (*dto.UserResponse, error)
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, actorID, id int64) error
	ChangeRole(ctx context.Context, id int64, userType models.UserType) (*dto.UserResponse, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo  UserRepository
	tokenRepo TokenRepository
	otp       OTPService
	mailer    Mailer
	cache     *cache.Store
	logger    zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	otp OTPService,
	mailer Mailer,
	store *cache.Store,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		otp:       otp,
		mailer:    mailer,
		cache:     store,
		logger:    logger,
	}
}

// GetProfile returns the caller's own profile
func (s *userServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	return s.GetUser(ctx, userID)
}

// UpdateProfile edits the fields a user may change on their own account
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Phone = req.Phone
	user.UniversityID = req.UniversityID
	user.Department = req.Department

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Delete(cache.UserDashboardKey(userID))

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// StartPasswordChange verifies the current password, parks the new hash and mails a confirmation code
func (s *userServiceImpl) StartPasswordChange(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("%w: current password is incorrect", apperrors.ErrInvalidPassword)
	}
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	code, err := s.otp.Generate(OTPPasswordChange, userID)
	if err != nil {
		return err
	}
	s.cache.Set(pendingPasswordKey(userID), hash, s.otp.TTL())

	if err := s.mailer.SendPasswordChangeCode(ctx, user.Email, user.FullName(), code); err != nil {
		s.otp.Invalidate(OTPPasswordChange, userID)
		s.cache.Delete(pendingPasswordKey(userID))
		return fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, err)
	}

	s.logger.Info().Int64("userID", userID).Msg("Password change requested")
	return nil
}

// ConfirmPasswordChange applies the parked password and signs out every session
func (s *userServiceImpl) ConfirmPasswordChange(ctx context.Context, userID int64, code string) error {
	parked, ok := s.cache.Get(pendingPasswordKey(userID))
	if !ok {
		return apperrors.ErrNoPendingChallenge
	}
	hash, ok := parked.(string)
	if !ok || hash == "" {
		return apperrors.ErrNoPendingChallenge
	}

	if !s.otp.Verify(OTPPasswordChange, userID, code) {
		return apperrors.ErrInvalidOTP
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.cache.Delete(pendingPasswordKey(userID))

	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		return err
	}

	s.logger.Info().Int64("userID", userID).Msg("Password changed")
	return nil
}

// EnableTwoFactor turns on emailed login codes after re-checking the password
func (s *userServiceImpl) EnableTwoFactor(ctx context.Context, userID int64, password string) error {
	user, err := s.checkPassword(ctx, userID, password)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return apperrors.ErrTwoFactorAlreadyActive
	}
	if err := s.userRepo.SetTwoFactor(ctx, userID, true); err != nil {
		return err
	}
	s.logger.Info().Int64("userID", userID).Msg("Two-factor authentication enabled")
	return nil
}

// DisableTwoFactor turns off emailed login codes after re-checking the password
func (s *userServiceImpl) DisableTwoFactor(ctx context.Context, userID int64, password string) error {
	user, err := s.checkPassword(ctx, userID, password)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return apperrors.ErrTwoFactorNotActive
	}
	if err := s.userRepo.SetTwoFactor(ctx, userID, false); err != nil {
		return err
	}
	s.otp.Invalidate(OTPTwoFactor, userID)
	s.logger.Info().Int64("userID", userID).Msg("Two-factor authentication disabled")
	return nil
}

func (s *userServiceImpl) checkPassword(ctx context.Context, userID int64, password string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: password is incorrect", apperrors.ErrInvalidPassword)
	}
	return user, nil
}

// ListUsers returns one page of users matching filter
func (s *userServiceImpl) ListUsers(ctx context.Context, filter models.UserFilter, page, size int) (*dto.UserListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	users, total, err := s.userRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	list := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		list = append(list, dto.NewUserResponse(u))
	}
	return &dto.UserListResponse{
		Users:      list,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// GetUser returns one user
func (s *userServiceImpl) GetUser(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// CreateUser creates an account on behalf of an administrator; such accounts skip email verification
func (s *userServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:          normalizeEmail(req.Email),
		PasswordHash:   hash,
		Phone:          req.Phone,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		UniversityID:   req.UniversityID,
		Department:     req.Department,
		UserType:       req.UserType,
		EmailConfirmed: true,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("userType", string(user.UserType)).Msg("User created by administrator")
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// UpdateUser edits an account; deactivating it also revokes its sessions
func (s *userServiceImpl) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := user.IsActive

	user.Email = normalizeEmail(req.Email)
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Phone = req.Phone
	user.UniversityID = req.UniversityID
	user.Department = req.Department
	user.IsActive = req.IsActive

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if wasActive && !user.IsActive {
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, id); err != nil {
			return nil, err
		}
		s.logger.Info().Int64("userID", id).Msg("User deactivated")
	}
	s.cache.Delete(cache.UserDashboardKey(id), cache.KeySystemStatistics)

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// DeleteUser removes an account. Administrators cannot delete themselves.
func (s *userServiceImpl) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return apperrors.ErrCannotDeleteSelf
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(cache.UserDashboardKey(id), cache.UserNotificationsKey(id), cache.KeySystemStatistics)
	s.logger.Info().Int64("userID", id).Int64("actorID", actorID).Msg("User deleted")
	return nil
}

// ChangeRole sets the account type
func (s *userServiceImpl) ChangeRole(ctx context.Context, id int64, userType models.UserType) (*dto.UserResponse, error) {
	if !userType.IsValid() {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown user type %q", userType))
	}
	if err := s.userRepo.SetUserType(ctx, id, userType); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", id).Str("userType", string(userType)).Msg("User role changed")
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

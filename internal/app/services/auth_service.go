package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/auth"
	"github.com/yigit/unievents/internal/pkg/sms"
)

// AuthService handles sign-up, sign-in and the code based account flows
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, req *dto.EmailCodeRequest) (*dto.AuthResponse, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	VerifyTwoFactor(ctx context.Context, req *dto.EmailCodeRequest) (*dto.AuthResponse, error)
	ResendTwoFactor(ctx context.Context, email string) error
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

type authServiceImpl struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	otp        OTPService
	mailer     Mailer
	sms        sms.Sender
	jwtService *auth.JWTService
	now        Clock
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	otp OTPService,
	mailer Mailer,
	smsSender sms.Sender,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) AuthService {
	if smsSender == nil {
		smsSender = sms.DisabledSender{}
	}
	return &authServiceImpl{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		otp:        otp,
		mailer:     mailer,
		sms:        smsSender,
		jwtService: jwtService,
		now:        time.Now,
		logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unconfirmed student account and mails a verification code
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
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
		UserType:       models.UserTypeStudent,
		EmailConfirmed: false,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Student registered, awaiting email verification")

	// The account exists either way; a failed send can be retried via resend-verification
	if err := s.sendCode(ctx, OTPEmailVerify, user); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Verification code could not be delivered")
	}

	return &dto.RegisterResponse{
		UserID:                    user.ID,
		Email:                     user.Email,
		RequiresEmailVerification: true,
	}, nil
}

// VerifyEmail confirms the address with the mailed code and signs the user in
func (s *authServiceImpl) VerifyEmail(ctx context.Context, req *dto.EmailCodeRequest) (*dto.AuthResponse, error) {
	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user.EmailConfirmed {
		return nil, apperrors.ErrEmailAlreadyVerified
	}
	if !s.otp.Verify(OTPEmailVerify, user.ID, req.Code) {
		return nil, apperrors.ErrInvalidOTP
	}

	if err := s.userRepo.ConfirmEmail(ctx, user.ID); err != nil {
		return nil, err
	}
	user.EmailConfirmed = true

	s.logger.Info().Int64("userID", user.ID).Msg("Email verified")
	return s.issueTokens(ctx, user)
}

// ResendVerification mails a new verification code. Unknown addresses are ignored.
func (s *authServiceImpl) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.EmailConfirmed {
		return apperrors.ErrEmailAlreadyVerified
	}
	return s.sendCode(ctx, OTPEmailVerify, user)
}

// Login checks the credentials and either returns tokens or opens a two-factor challenge
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn().Int64("userID", user.ID).Msg("Login with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if !user.EmailConfirmed {
		if err := s.sendCode(ctx, OTPEmailVerify, user); err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Verification code could not be re-sent on login")
		}
		return nil, apperrors.ErrEmailNotVerified
	}

	if user.TwoFactorEnabled {
		if err := s.sendTwoFactorCode(ctx, user); err != nil {
			return nil, err
		}
		return &dto.LoginResponse{RequiresTwoFactor: true}, nil
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: &resp.Token, User: &resp.User}, nil
}

// VerifyTwoFactor completes a login that required a second factor
func (s *authServiceImpl) VerifyTwoFactor(ctx context.Context, req *dto.EmailCodeRequest) (*dto.AuthResponse, error) {
	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	if !s.otp.Verify(OTPTwoFactor, user.ID, req.Code) {
		return nil, apperrors.ErrInvalidOTP
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Two-factor login completed")
	return s.issueTokens(ctx, user)
}

// ResendTwoFactor re-sends the code of a pending two-factor challenge
func (s *authServiceImpl) ResendTwoFactor(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrNoPendingChallenge
		}
		return err
	}
	if !user.TwoFactorEnabled || !s.otp.Pending(OTPTwoFactor, user.ID) {
		return apperrors.ErrNoPendingChallenge
	}
	return s.sendTwoFactorCode(ctx, user)
}

// RefreshToken rotates the refresh token and signs a new access token
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	newToken := auth.NewRefreshToken()
	userID, err := s.tokenRepo.RotateToken(ctx, refreshToken, newToken, s.jwtService.RefreshExpiry())
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, user.ID); err != nil {
			s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to revoke tokens of disabled account")
		}
		return nil, apperrors.ErrAccountDisabled
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token: dto.NewTokenResponse(accessToken, newToken, s.jwtService.AccessTokenTTL(), s.jwtService.RefreshTokenTTL()),
		User:  dto.NewUserResponse(user),
	}, nil
}

// Logout revokes the given refresh token
func (s *authServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperrors.ErrTokenInvalid
	}
	return s.tokenRepo.RevokeToken(ctx, refreshToken)
}

// ForgotPassword mails a reset code when the address belongs to an account
func (s *authServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Bilinmeyen adresler için de başarılı dön
			s.logger.Debug().Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	if err := s.sendCode(ctx, OTPPasswordReset, user); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Password reset code could not be delivered")
	}
	return nil
}

// ResetPassword sets a new password with a mailed reset code and signs out every session
func (s *authServiceImpl) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		return err
	}

	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if !s.otp.Verify(OTPPasswordReset, user.ID, req.Code) {
		return apperrors.ErrInvalidOTP
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Password reset completed")
	return nil
}

// userByEmail looks up the account of a code flow; unknown addresses look like bad codes
func (s *authServiceImpl) userByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidOTP
		}
		return nil, err
	}
	return user, nil
}

func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiry); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLoginAt = &now
	}

	return &dto.AuthResponse{
		Token: dto.NewTokenResponse(pair.AccessToken, pair.RefreshToken, pair.ExpiresIn, pair.RefreshExpiresIn),
		User:  dto.NewUserResponse(user),
	}, nil
}

// sendCode issues a code for purpose and mails it
func (s *authServiceImpl) sendCode(ctx context.Context, purpose OTPPurpose, user *models.User) error {
	code, err := s.otp.Generate(purpose, user.ID)
	if err != nil {
		return err
	}

	var sendErr error
	switch purpose {
	case OTPEmailVerify:
		sendErr = s.mailer.SendEmailVerificationCode(ctx, user.Email, user.FullName(), code)
	case OTPPasswordReset:
		sendErr = s.mailer.SendPasswordResetCode(ctx, user.Email, user.FullName(), code)
	default:
		return fmt.Errorf("unsupported code purpose %s", purpose)
	}
	if sendErr != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, sendErr)
	}
	return nil
}

// sendTwoFactorCode mails the login code and texts it when the user has a phone
func (s *authServiceImpl) sendTwoFactorCode(ctx context.Context, user *models.User) error {
	code, err := s.otp.Generate(OTPTwoFactor, user.ID)
	if err != nil {
		return err
	}

	mailErr := s.mailer.Send2FACode(ctx, user.Email, user.FullName(), code)
	if mailErr != nil {
		s.logger.Warn().Err(mailErr).Int64("userID", user.ID).Msg("Two-factor email failed")
	}

	smsSent := false
	if user.Phone != nil && *user.Phone != "" && s.sms.Enabled() {
		body := fmt.Sprintf("Your UniEvents login code is %s. It expires in %s.", code, ExpiryText(s.otp.TTL()))
		if err := s.sms.Send(ctx, *user.Phone, body); err != nil {
			s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Two-factor sms failed")
		} else {
			smsSent = true
		}
	}

	if mailErr != nil && !smsSent {
		s.otp.Invalidate(OTPTwoFactor, user.ID)
		return fmt.Errorf("%w: %v", apperrors.ErrDeliveryFailed, mailErr)
	}
	return nil
}

package dto

import "github.com/yigit/unievents/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is either a token pair or a pending two-factor challenge
type LoginResponse struct {
	RequiresTwoFactor bool           `json:"requiresTwoFactor"`
	Token             *TokenResponse `json:"token,omitempty"`
	User              *UserResponse  `json:"user,omitempty"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterRequest represents a student self-registration
type RegisterRequest struct {
	Email        string  `json:"email" binding:"required,email,max=256"`
	Password     string  `json:"password" binding:"required,min=8,max=128"`
	FirstName    string  `json:"firstName" binding:"required,max=100"`
	LastName     string  `json:"lastName" binding:"required,max=100"`
	Phone        *string `json:"phone" binding:"omitempty,phone"`
	UniversityID *string `json:"universityId" binding:"omitempty,max=50"`
	Department   *string `json:"department" binding:"omitempty,max=100"`
}

// RegisterResponse is returned after a registration awaiting email verification
type RegisterResponse struct {
	UserID                    int64  `json:"userId"`
	Email                     string `json:"email"`
	RequiresEmailVerification bool   `json:"requiresEmailVerification"`
}

// EmailRequest carries only an email address
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// EmailCodeRequest pairs an email address with a one-time code
type EmailCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// ResetPasswordRequest completes a forgotten-password flow
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=128"`
}

// NewTokenResponse builds the public token view
func NewTokenResponse(accessToken, refreshToken string, expiresIn, refreshExpiresIn int) TokenResponse {
	return TokenResponse{
		AccessToken:           accessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(expiresIn),
		RefreshToken:          refreshToken,
		RefreshTokenExpiresIn: int64(refreshExpiresIn),
	}
}

// NewUserResponse converts a user model to its public view
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                  u.ID,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Phone:               u.Phone,
		UniversityID:        u.UniversityID,
		Department:          u.Department,
		UserType:            u.UserType,
		EmailConfirmed:      u.EmailConfirmed,
		TwoFactorEnabled:    u.TwoFactorEnabled,
		IsActive:            u.IsActive,
		JoinDate:            u.JoinDate,
		LastLoginAt:         u.LastLoginAt,
		TotalVolunteerHours: u.TotalVolunteerHours,
	}
}

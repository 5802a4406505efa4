package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles student self-registration
// @Summary Register a new student
// @Description Creates a student account and emails a six digit verification code. The account cannot log in until the email is verified.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration information"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterResponse} "Registration initiated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or weak password"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", resp.UserID).Msg("User registration initiated, verification email sent")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(resp))
}

// VerifyEmail confirms an email address with its code
// @Summary Verify email address
// @Description Confirms the account's email with the emailed code and signs the user in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.EmailCodeRequest true "Email and code"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Email verified"
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired code"
// @Failure 409 {object} dto.ErrorResponse "Email already verified"
// @Router /auth/verify-email [post]
func (c *AuthController) VerifyEmail(ctx *gin.Context) {
	var req dto.EmailCodeRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	resp, err := c.authService.VerifyEmail(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// ResendVerification emails a fresh verification code
// @Summary Resend verification code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.EmailRequest true "Email"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 409 {object} dto.ErrorResponse "Email already verified"
// @Failure 502 {object} dto.ErrorResponse "Email could not be sent"
// @Router /auth/resend-verification [post]
func (c *AuthController) ResendVerification(ctx *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	if err := c.authService.ResendVerification(ctx.Request.Context(), req.Email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "If the account exists, a verification code has been sent"}))
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user. Accounts with two-factor authentication enabled receive a code instead of tokens.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Login successful or code sent"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account disabled or email not verified"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// VerifyTwoFactor completes a two-factor login
// @Summary Verify two-factor code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.EmailCodeRequest true "Email and code"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired code"
// @Router /auth/verify-2fa [post]
func (c *AuthController) VerifyTwoFactor(ctx *gin.Context) {
	var req dto.EmailCodeRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	resp, err := c.authService.VerifyTwoFactor(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// ResendTwoFactor re-sends the pending two-factor code
// @Summary Resend two-factor code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.EmailRequest true "Email"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "No login is waiting for a code"
// @Router /auth/resend-2fa [post]
func (c *AuthController) ResendTwoFactor(ctx *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	if err := c.authService.ResendTwoFactor(ctx.Request.Context(), req.Email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "A new code has been sent"}))
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Exchanges a refresh token for a new token pair. The old refresh token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.ErrorResponse "Invalid, expired or revoked refresh token"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	resp, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// Logout revokes a refresh token
// @Summary Logout
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), req.RefreshToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Logged out"}))
}

// ForgotPassword emails a password reset code
// @Summary Request a password reset
// @Description Always succeeds so that registered addresses cannot be discovered
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.EmailRequest true "Email"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /auth/forgot-password [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	if err := c.authService.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "If the account exists, a reset code has been sent"}))
}

// ResetPassword sets a new password with a reset code
// @Summary Reset password
// @Description Sets a new password and signs out every session of the account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid code or weak password"
// @Router /auth/reset-password [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	if err := c.authService.ResetPassword(ctx.Request.Context(), &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Password has been reset"}))
}

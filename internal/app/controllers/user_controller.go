package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
)

// UserController handles the caller's own account
type UserController struct {
	userService      services.UserService
	dashboardService services.DashboardService
	logger           zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, dashboardService services.DashboardService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService:      userService,
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetProfile returns the caller's profile
// @Summary Get current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	profile, err := c.userService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(profile))
}

// UpdateProfile edits the caller's profile
// @Summary Update current user profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Router /users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	profile, err := c.userService.UpdateProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(profile))
}

// ChangePassword starts a verified password change
// @Summary Start a password change
// @Description Checks the current password and emails a code. The new password takes effect once the code is confirmed.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "Weak password"
// @Failure 401 {object} dto.ErrorResponse "Current password is wrong"
// @Router /users/me/password [post]
func (c *UserController) ChangePassword(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	if err := c.userService.StartPasswordChange(ctx.Request.Context(), userID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "A verification code has been sent to your email"}))
}

// ConfirmPasswordChange applies the pending password change
// @Summary Confirm a password change
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CodeRequest true "Emailed code"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid code or no pending change"
// @Router /users/me/password/verify [post]
func (c *UserController) ConfirmPasswordChange(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.CodeRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	if err := c.userService.ConfirmPasswordChange(ctx.Request.Context(), userID, req.Code); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("userID", userID).Msg("Password changed")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Password changed"}))
}

// EnableTwoFactor turns on two-factor login
// @Summary Enable two-factor authentication
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PasswordRequest true "Current password"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 401 {object} dto.ErrorResponse "Wrong password"
// @Failure 409 {object} dto.ErrorResponse "Already enabled"
// @Router /users/me/2fa/enable [post]
func (c *UserController) EnableTwoFactor(ctx *gin.Context) {
	c.toggleTwoFactor(ctx, true)
}

// DisableTwoFactor turns off two-factor login
// @Summary Disable two-factor authentication
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PasswordRequest true "Current password"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "Not enabled"
// @Failure 401 {object} dto.ErrorResponse "Wrong password"
// @Router /users/me/2fa/disable [post]
func (c *UserController) DisableTwoFactor(ctx *gin.Context) {
	c.toggleTwoFactor(ctx, false)
}

func (c *UserController) toggleTwoFactor(ctx *gin.Context, enable bool) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.PasswordRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	var err error
	msg := "Two-factor authentication enabled"
	if enable {
		err = c.userService.EnableTwoFactor(ctx.Request.Context(), userID, req.Password)
	} else {
		err = c.userService.DisableTwoFactor(ctx.Request.Context(), userID, req.Password)
		msg = "Two-factor authentication disabled"
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: msg}))
}

// Dashboard returns the caller's dashboard
// @Summary User dashboard
// @Description Registrations, certificates, clubs, recent notifications, upcoming events and attendance numbers
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse}
// @Router /users/me/dashboard [get]
func (c *UserController) Dashboard(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	dash, err := c.dashboardService.Dashboard(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dash))
}

// History returns the caller's event history
// @Summary Event history
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.EventHistoryResponse}
// @Router /users/me/history [get]
func (c *UserController) History(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	hist, err := c.dashboardService.History(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(hist))
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
	"github.com/yigit/unievents/internal/pkg/helpers"
)

// AdminUserController handles user management for administrators
type AdminUserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewAdminUserController creates a new AdminUserController
func NewAdminUserController(userService services.UserService, logger zerolog.Logger) *AdminUserController {
	return &AdminUserController{
		userService: userService,
		logger:      logger,
	}
}

// userFilterFromQuery reads the list filters
func userFilterFromQuery(ctx *gin.Context) (models.UserFilter, bool) {
	filter := models.UserFilter{Search: strings.TrimSpace(ctx.Query("q"))}

	switch ctx.Query("status") {
	case "":
	case "active":
		active := true
		filter.IsActive = &active
	case "inactive":
		inactive := false
		filter.IsActive = &inactive
	default:
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "status must be active or inactive").WithField("status")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return filter, false
	}

	if t := ctx.Query("type"); t != "" {
		filter.UserType = models.UserType(t)
		if !filter.UserType.IsValid() {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "type must be Admin or Student").WithField("type")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return filter, false
		}
	}

	var err error
	if filter.From, err = helpers.ParseOptionalDate(ctx, "from"); err != nil {
		badQuery(ctx, "from", err)
		return filter, false
	}
	if filter.To, err = helpers.ParseOptionalDate(ctx, "to"); err != nil {
		badQuery(ctx, "to", err)
		return filter, false
	}
	return filter, true
}

// ListUsers lists users
// @Summary List users
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search over name, email and university id"
// @Param status query string false "active or inactive"
// @Param type query string false "Admin or Student"
// @Param from query string false "Joined on or after (YYYY-MM-DD)"
// @Param to query string false "Joined on or before (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /admin/users [get]
func (c *AdminUserController) ListUsers(ctx *gin.Context) {
	filter, ok := userFilterFromQuery(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	list, err := c.userService.ListUsers(ctx.Request.Context(), filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list))
}

// GetUser returns one user
// @Summary Get user
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{id} [get]
func (c *AdminUserController) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUser(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(user))
}

// CreateUser creates an account
// @Summary Create user
// @Description Accounts created by an administrator are already email-confirmed
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "User"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /admin/users [post]
func (c *AdminUserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("userID", user.ID).Str("userType", string(user.UserType)).Msg("User created by admin")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(user))
}

// UpdateUser edits an account
// @Summary Update user
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "User"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /admin/users/{id} [put]
func (c *AdminUserController) UpdateUser(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	user, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(user))
}

// DeleteUser removes an account
// @Summary Delete user
// @Tags admin-users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 403 {object} dto.ErrorResponse "Cannot delete yourself"
// @Failure 409 {object} dto.ErrorResponse "User still owns events"
// @Router /admin/users/{id} [delete]
func (c *AdminUserController) DeleteUser(ctx *gin.Context) {
	actorID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), actorID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("userID", id).Int64("actorID", actorID).Msg("User deleted")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "User deleted"}))
}

// ChangeRole sets a user's account type
// @Summary Change user role
// @Tags admin-users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.ChangeRoleRequest true "Role"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /admin/users/{id}/role [post]
func (c *AdminUserController) ChangeRole(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	user, err := c.userService.ChangeRole(ctx.Request.Context(), id, req.UserType)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(user))
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
)

// RegistrationController handles event registrations
type RegistrationController struct {
	registrationService services.RegistrationService
	logger              zerolog.Logger
}

// NewRegistrationController creates a new RegistrationController
func NewRegistrationController(registrationService services.RegistrationService, logger zerolog.Logger) *RegistrationController {
	return &RegistrationController{
		registrationService: registrationService,
		logger:              logger,
	}
}

// Register signs the caller up for an event
// @Summary Register for an event
// @Description Confirmed while seats remain, waitlisted otherwise
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param request body dto.RegisterForEventRequest false "Guests"
// @Success 201 {object} dto.APIResponse{data=models.Registration}
// @Failure 400 {object} dto.ErrorResponse "Event not open for registration"
// @Failure 409 {object} dto.ErrorResponse "Already registered"
// @Router /events/{id}/register [post]
func (c *RegistrationController) Register(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.RegisterForEventRequest
	if ctx.Request.ContentLength != 0 && !bindJSON(ctx, c.logger, &req) {
		return
	}

	reg, err := c.registrationService.Register(ctx.Request.Context(), eventID, userID, req.GuestCount)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().
		Int64("eventID", eventID).
		Int64("userID", userID).
		Str("status", string(reg.Status)).
		Msg("Registered for event")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(reg))
}

// Cancel cancels one of the caller's registrations
// @Summary Cancel registration
// @Description Cancelling a confirmed seat promotes the earliest waitlisted registration
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Success 200 {object} dto.APIResponse{data=models.Registration}
// @Failure 404 {object} dto.ErrorResponse "Registration not found"
// @Failure 409 {object} dto.ErrorResponse "Already cancelled"
// @Router /registrations/{id} [delete]
func (c *RegistrationController) Cancel(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	reg, err := c.registrationService.Cancel(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(reg))
}

// ListMine lists the caller's registrations
// @Summary My registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Registration}
// @Router /registrations/me [get]
func (c *RegistrationController) ListMine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	regs, err := c.registrationService.ListMine(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(regs))
}

// ListByEvent lists an event's registrations
// @Summary Event registrations
// @Tags admin-events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Registration}
// @Router /admin/events/{id}/registrations [get]
func (c *RegistrationController) ListByEvent(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	regs, err := c.registrationService.ListByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(regs))
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
	"github.com/yigit/unievents/internal/pkg/helpers"
)

// FeedbackController handles event ratings
type FeedbackController struct {
	feedbackService services.FeedbackService
	logger          zerolog.Logger
}

// NewFeedbackController creates a new FeedbackController
func NewFeedbackController(feedbackService services.FeedbackService, logger zerolog.Logger) *FeedbackController {
	return &FeedbackController{
		feedbackService: feedbackService,
		logger:          logger,
	}
}

// Submit rates an attended event
// @Summary Submit feedback
// @Description One rating per attended event
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param request body dto.SubmitFeedbackRequest true "Rating and comment"
// @Success 201 {object} dto.APIResponse{data=models.Feedback}
// @Failure 400 {object} dto.ErrorResponse "Did not attend"
// @Failure 409 {object} dto.ErrorResponse "Already rated"
// @Router /events/{id}/feedback [post]
func (c *FeedbackController) Submit(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.SubmitFeedbackRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	fb, err := c.feedbackService.Submit(ctx.Request.Context(), eventID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(fb))
}

// Eligibility tells whether the caller may rate an event
// @Summary Feedback eligibility
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.FeedbackEligibilityResponse}
// @Router /events/{id}/feedback/eligibility [get]
func (c *FeedbackController) Eligibility(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.feedbackService.Eligibility(ctx.Request.Context(), eventID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// List lists all feedback
// @Summary List feedback
// @Tags admin-feedback
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.FeedbackListResponse}
// @Router /admin/feedback [get]
func (c *FeedbackController) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	list, err := c.feedbackService.List(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list))
}

// ListByEvent lists an event's feedback
// @Summary Event feedback
// @Tags admin-feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Feedback}
// @Router /admin/events/{id}/feedback [get]
func (c *FeedbackController) ListByEvent(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	list, err := c.feedbackService.ListByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list))
}

// Delete removes a feedback entry
// @Summary Delete feedback
// @Tags admin-feedback
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feedback ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /admin/feedback/{id} [delete]
func (c *FeedbackController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.feedbackService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Feedback deleted"}))
}

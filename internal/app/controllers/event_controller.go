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
	"github.com/yigit/unievents/internal/pkg/validation"
)

// EventController handles event listing and administration
type EventController struct {
	eventService services.EventService
	logger       zerolog.Logger
}

// NewEventController creates a new EventController
func NewEventController(eventService services.EventService, logger zerolog.Logger) *EventController {
	return &EventController{
		eventService: eventService,
		logger:       logger,
	}
}

// Home returns the landing page data
// @Summary Home page
// @Description The next three approved events and site totals
// @Tags events
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.HomeResponse}
// @Router /home [get]
func (c *EventController) Home(ctx *gin.Context) {
	home, err := c.eventService.Home(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(home))
}

// ListEvents lists approved events
// @Summary List events
// @Tags events
// @Produce json
// @Param q query string false "Search in title and description"
// @Param type query string false "Event type"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.EventListResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown event type"
// @Router /events [get]
func (c *EventController) ListEvents(ctx *gin.Context) {
	filter := models.EventFilter{
		Search:       strings.TrimSpace(ctx.Query("q")),
		EventType:    models.EventType(ctx.Query("type")),
		OnlyApproved: true,
	}
	if filter.EventType != "" && !validation.IsEventType(filter.EventType) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Unknown event type").WithField("type")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	list, err := c.eventService.List(ctx.Request.Context(), filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list))
}

// Upcoming lists upcoming approved events
// @Summary Upcoming events
// @Tags events
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Event}
// @Router /events/upcoming [get]
func (c *EventController) Upcoming(ctx *gin.Context) {
	events, err := c.eventService.Upcoming(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(events))
}

// GetEvent returns event details
// @Summary Event details
// @Description Seats, waitlist and rating numbers. Signed-in callers also get their registration status.
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventDetailsResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var viewerID *int64
	if uid, ok := middleware.GetUserID(ctx); ok {
		viewerID = &uid
	}

	details, err := c.eventService.Details(ctx.Request.Context(), id, viewerID, middleware.IsAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(details))
}

// CreateEvent creates an event
// @Summary Create event
// @Description Events created by an administrator are approved immediately and announced to all users
// @Tags admin-events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEventRequest true "Event"
// @Success 201 {object} dto.APIResponse{data=models.Event}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Router /admin/events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.CreateEventRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	event, err := c.eventService.Create(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("eventID", event.ID).Int64("createdBy", userID).Msg("Event created")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(event))
}

// UpdateEvent edits an event
// @Summary Update event
// @Tags admin-events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param request body dto.UpdateEventRequest true "Event"
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /admin/events/{id} [put]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateEventRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	event, err := c.eventService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(event))
}

// UploadImage stores the event image
// @Summary Upload event image
// @Description JPEG, PNG, GIF or WEBP up to 5 MB
// @Tags admin-events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param image formData file true "Image file"
// @Success 200 {object} dto.APIResponse{data=dto.ImageUploadResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing, too large or unsupported file"
// @Router /admin/events/{id}/image [post]
func (c *EventController) UploadImage(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	file, err := ctx.FormFile("image")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Image file is required").WithField("image")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	url, err := c.eventService.UploadImage(ctx.Request.Context(), id, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ImageUploadResponse{URL: url}))
}

// ApproveEvent approves an event
// @Summary Approve event
// @Tags admin-events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=models.Event}
// @Router /admin/events/{id}/approve [post]
func (c *EventController) ApproveEvent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	event, err := c.eventService.Approve(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(event))
}

// DeleteEvent removes an event and everything attached to it
// @Summary Delete event
// @Tags admin-events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /admin/events/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.eventService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("eventID", id).Msg("Event deleted")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Event deleted"}))
}

// QRCode renders the check-in QR code
// @Summary Event check-in QR code
// @Tags admin-events
// @Produce png
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {file} binary "PNG image"
// @Router /admin/events/{id}/qr [get]
func (c *EventController) QRCode(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	png, err := c.eventService.QRCode(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, "image/png", png)
}

// RegenerateSecret issues a new check-in secret
// @Summary Regenerate check-in secret
// @Description Invalidates previously printed QR codes
// @Tags admin-events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=map[string]string}
// @Router /admin/events/{id}/qr/regenerate [post]
func (c *EventController) RegenerateSecret(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	secret, err := c.eventService.RegenerateSecret(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"secret": secret}))
}

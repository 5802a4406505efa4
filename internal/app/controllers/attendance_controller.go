package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
)

// AttendanceController handles QR check-in and attendance records
type AttendanceController struct {
	attendanceService services.AttendanceService
	logger            zerolog.Logger
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService services.AttendanceService, logger zerolog.Logger) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

func (c *AttendanceController) checkIn(ctx *gin.Context, secret string) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	resp, err := c.attendanceService.CheckIn(ctx.Request.Context(), userID, secret)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("Check-in rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// CheckIn records attendance from a scanned event secret
// @Summary Check in to an event
// @Description Allowed from 30 minutes before the event until 24 hours after it starts, for confirmed registrations only
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckInRequest true "Event secret"
// @Success 200 {object} dto.APIResponse{data=dto.CheckInResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown secret, outside the window or not registered"
// @Router /attendance/check-in [post]
func (c *AttendanceController) CheckIn(ctx *gin.Context) {
	var req dto.CheckInRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}
	c.checkIn(ctx, req.Secret)
}

// Scan is the target of the printed QR code
// @Summary Check in from a QR link
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param secret query string true "Event secret"
// @Success 200 {object} dto.APIResponse{data=dto.CheckInResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown secret, outside the window or not registered"
// @Router /attendance/scan [get]
func (c *AttendanceController) Scan(ctx *gin.Context) {
	secret := strings.TrimSpace(ctx.Query("secret"))
	if secret == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "secret is required").WithField("secret")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	c.checkIn(ctx, secret)
}

// ListMine lists the caller's attendance records
// @Summary My attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Attendance}
// @Router /attendance/me [get]
func (c *AttendanceController) ListMine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	records, err := c.attendanceService.ListMine(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(records))
}

// EventAttendance lists an event's attendance
// @Summary Event attendance
// @Tags admin-events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventAttendanceResponse}
// @Router /admin/events/{id}/attendance [get]
func (c *AttendanceController) EventAttendance(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.attendanceService.EventAttendance(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// Mark sets a user's attendance manually
// @Summary Mark attendance
// @Tags admin-events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param request body dto.MarkAttendanceRequest true "Attendance"
// @Success 200 {object} dto.APIResponse{data=models.Attendance}
// @Router /admin/events/{id}/attendance [post]
func (c *AttendanceController) Mark(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.MarkAttendanceRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	record, err := c.attendanceService.Mark(ctx.Request.Context(), eventID, req.UserID, req.IsPresent)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(record))
}

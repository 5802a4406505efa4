package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
)

// ReportController serves administrator reports
type ReportController struct {
	reportService services.ReportService
	logger        zerolog.Logger
}

// NewReportController creates a new ReportController
func NewReportController(reportService services.ReportService, logger zerolog.Logger) *ReportController {
	return &ReportController{
		reportService: reportService,
		logger:        logger,
	}
}

// Dashboard returns system-wide statistics
// @Summary System statistics
// @Tags admin-reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.SystemStatistics}
// @Router /admin/reports/dashboard [get]
func (c *ReportController) Dashboard(ctx *gin.Context) {
	stats, err := c.reportService.Dashboard(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(stats))
}

// EventReport returns the numbers of one event
// @Summary Event report
// @Tags admin-reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=models.EventReport}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /admin/reports/events/{id} [get]
func (c *ReportController) EventReport(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	report, err := c.reportService.EventReport(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}

// UserReport returns per-user participation totals
// @Summary User report
// @Tags admin-reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.UserReportRow}
// @Router /admin/reports/users [get]
func (c *ReportController) UserReport(ctx *gin.Context) {
	rows, err := c.reportService.UserReport(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(rows))
}

// EventsReport returns per-event participation totals
// @Summary Events report
// @Tags admin-reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.EventReportRow}
// @Router /admin/reports/events [get]
func (c *ReportController) EventsReport(ctx *gin.Context) {
	rows, err := c.reportService.EventsReport(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(rows))
}

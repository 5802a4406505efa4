package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
	"github.com/yigit/unievents/internal/pkg/certpdf"
)

// CertificateController handles participation certificates
type CertificateController struct {
	certificateService services.CertificateService
	logger             zerolog.Logger
}

// NewCertificateController creates a new CertificateController
func NewCertificateController(certificateService services.CertificateService, logger zerolog.Logger) *CertificateController {
	return &CertificateController{
		certificateService: certificateService,
		logger:             logger,
	}
}

// ListMine lists the caller's certificates
// @Summary My certificates
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Certificate}
// @Router /certificates/me [get]
func (c *CertificateController) ListMine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	certs, err := c.certificateService.ListMine(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(certs))
}

// Get returns one certificate
// @Summary Get certificate
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Param id path int true "Certificate ID"
// @Success 200 {object} dto.APIResponse{data=models.Certificate}
// @Failure 403 {object} dto.ErrorResponse "Not your certificate"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Router /certificates/{id} [get]
func (c *CertificateController) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	cert, err := c.certificateService.Get(ctx.Request.Context(), id, userID, middleware.IsAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(cert))
}

// Download renders the certificate PDF
// @Summary Download certificate
// @Tags certificates
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Certificate ID"
// @Param template query string false "classic or modern" default(classic)
// @Success 200 {file} binary "PDF document"
// @Failure 403 {object} dto.ErrorResponse "Not your certificate"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Router /certificates/{id}/download [get]
func (c *CertificateController) Download(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	tpl := certpdf.ParseTemplate(ctx.Query("template"))

	pdf, cert, err := c.certificateService.Download(ctx.Request.Context(), id, userID, middleware.IsAdmin(ctx), tpl)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cert.CertificateNumber+".pdf"))
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}

// Issue issues a certificate to one attendee
// @Summary Issue certificate
// @Description The user must have attended. Volunteer hours of the event are credited to the user.
// @Tags admin-events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param request body dto.IssueCertificateRequest true "Attendee"
// @Success 201 {object} dto.APIResponse{data=models.Certificate}
// @Failure 400 {object} dto.ErrorResponse "User did not attend"
// @Failure 409 {object} dto.ErrorResponse "Certificate already issued"
// @Router /admin/events/{id}/certificates [post]
func (c *CertificateController) Issue(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.IssueCertificateRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	cert, err := c.certificateService.Issue(ctx.Request.Context(), eventID, req.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(cert))
}

// IssueBulk issues certificates to every attendee without one
// @Summary Issue certificates to all attendees
// @Tags admin-events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.BulkIssueResponse}
// @Router /admin/events/{id}/certificates/bulk [post]
func (c *CertificateController) IssueBulk(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	n, err := c.certificateService.IssueBulk(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("eventID", eventID).Int("issued", n).Msg("Bulk certificate issue finished")
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.BulkIssueResponse{Issued: n}))
}

// ListByEvent lists an event's certificates
// @Summary Event certificates
// @Tags admin-events
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Certificate}
// @Router /admin/events/{id}/certificates [get]
func (c *CertificateController) ListByEvent(ctx *gin.Context) {
	eventID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	certs, err := c.certificateService.ListByEvent(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(certs))
}

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

// ContactController handles the public contact form
type ContactController struct {
	contactService services.ContactService
	logger         zerolog.Logger
}

// NewContactController creates a new ContactController
func NewContactController(contactService services.ContactService, logger zerolog.Logger) *ContactController {
	return &ContactController{
		contactService: contactService,
		logger:         logger,
	}
}

// Submit stores a contact inquiry. The body is bound by middleware.ValidateRequest.
// @Summary Contact us
// @Tags contact
// @Accept json
// @Produce json
// @Param request body dto.ContactRequest true "Inquiry"
// @Success 201 {object} dto.APIResponse{data=models.Contact}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Router /contact [post]
func (c *ContactController) Submit(ctx *gin.Context) {
	req, ok := middleware.ValidatedBody[dto.ContactRequest](ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	contact, err := c.contactService.Submit(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("contactID", contact.ID).Msg("Contact inquiry received")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(contact))
}

// List lists contact inquiries
// @Summary List inquiries
// @Tags admin-contacts
// @Produce json
// @Security BearerAuth
// @Param resolved query bool false "Filter by resolution"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.ContactListResponse}
// @Router /admin/contacts [get]
func (c *ContactController) List(ctx *gin.Context) {
	resolved, err := helpers.ParseOptionalBool(ctx, "resolved")
	if err != nil {
		badQuery(ctx, "resolved", err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	list, err := c.contactService.List(ctx.Request.Context(), resolved, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(list))
}

// Get returns one inquiry
// @Summary Inquiry details
// @Tags admin-contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} dto.APIResponse{data=models.Contact}
// @Failure 404 {object} dto.ErrorResponse "Inquiry not found"
// @Router /admin/contacts/{id} [get]
func (c *ContactController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	contact, err := c.contactService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(contact))
}

// Respond answers an inquiry and marks it resolved
// @Summary Respond to inquiry
// @Tags admin-contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Param request body dto.ContactResponseRequest true "Response"
// @Success 200 {object} dto.APIResponse{data=models.Contact}
// @Router /admin/contacts/{id}/respond [post]
func (c *ContactController) Respond(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ContactResponseRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	contact, err := c.contactService.Respond(ctx.Request.Context(), id, req.Response)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(contact))
}

// Delete removes an inquiry
// @Summary Delete inquiry
// @Tags admin-contacts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Contact ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /admin/contacts/{id} [delete]
func (c *ContactController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.contactService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Inquiry deleted"}))
}

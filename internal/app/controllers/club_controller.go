package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/app/services"
	"github.com/yigit/unievents/internal/middleware"
)

// ClubController handles clubs and memberships
type ClubController struct {
	clubService services.ClubService
	logger      zerolog.Logger
}

// NewClubController creates a new ClubController
func NewClubController(clubService services.ClubService, logger zerolog.Logger) *ClubController {
	return &ClubController{
		clubService: clubService,
		logger:      logger,
	}
}

// ListClubs lists clubs
// @Summary List clubs
// @Description Administrators also see inactive clubs
// @Tags clubs
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Club}
// @Router /clubs [get]
func (c *ClubController) ListClubs(ctx *gin.Context) {
	clubs, err := c.clubService.List(ctx.Request.Context(), middleware.IsAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(clubs))
}

// GetClub returns a club with its members
// @Summary Club details
// @Tags clubs
// @Produce json
// @Param id path int true "Club ID"
// @Success 200 {object} dto.APIResponse{data=dto.ClubDetailsResponse}
// @Failure 404 {object} dto.ErrorResponse "Club not found"
// @Router /clubs/{id} [get]
func (c *ClubController) GetClub(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	club, err := c.clubService.Get(ctx.Request.Context(), id, middleware.IsAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(club))
}

// Join asks to join a club
// @Summary Join club
// @Description Creates a pending membership. A rejected request can be made again.
// @Tags clubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Success 201 {object} dto.APIResponse{data=models.ClubMember}
// @Failure 400 {object} dto.ErrorResponse "Club inactive"
// @Failure 403 {object} dto.ErrorResponse "Administrators cannot join"
// @Failure 409 {object} dto.ErrorResponse "Already a member or pending"
// @Router /clubs/{id}/join [post]
func (c *ClubController) Join(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	clubID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	member, err := c.clubService.Join(ctx.Request.Context(), clubID, userID, middleware.IsAdmin(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(member))
}

// Leave leaves a club
// @Summary Leave club
// @Tags clubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Not a member"
// @Router /clubs/{id}/leave [delete]
func (c *ClubController) Leave(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	clubID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.clubService.Leave(ctx.Request.Context(), clubID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Left the club"}))
}

// ListMine lists the caller's memberships
// @Summary My club memberships
// @Tags clubs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.ClubMember}
// @Router /clubs/me [get]
func (c *ClubController) ListMine(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	members, err := c.clubService.ListMine(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(members))
}

// CreateClub creates a club
// @Summary Create club
// @Tags admin-clubs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ClubRequest true "Club"
// @Success 201 {object} dto.APIResponse{data=models.Club}
// @Router /admin/clubs [post]
func (c *ClubController) CreateClub(ctx *gin.Context) {
	var req dto.ClubRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	club, err := c.clubService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(club))
}

// UpdateClub edits a club
// @Summary Update club
// @Tags admin-clubs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param request body dto.ClubRequest true "Club"
// @Success 200 {object} dto.APIResponse{data=models.Club}
// @Router /admin/clubs/{id} [put]
func (c *ClubController) UpdateClub(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req dto.ClubRequest
	if !bindJSON(ctx, c.logger, &req) {
		return
	}

	club, err := c.clubService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(club))
}

// DeleteClub removes a club and its memberships
// @Summary Delete club
// @Tags admin-clubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /admin/clubs/{id} [delete]
func (c *ClubController) DeleteClub(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.clubService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SuccessResponse{Message: "Club deleted"}))
}

// UploadLogo stores the club logo
// @Summary Upload club logo
// @Tags admin-clubs
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param logo formData file true "Logo image"
// @Success 200 {object} dto.APIResponse{data=dto.ImageUploadResponse}
// @Router /admin/clubs/{id}/logo [post]
func (c *ClubController) UploadLogo(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	file, err := ctx.FormFile("logo")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Logo file is required").WithField("logo")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	url, err := c.clubService.UploadLogo(ctx.Request.Context(), id, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ImageUploadResponse{URL: url}))
}

// ListMembers lists a club's members
// @Summary Club members
// @Tags admin-clubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Club ID"
// @Param status query string false "Pending, Approved or Rejected"
// @Success 200 {object} dto.APIResponse{data=[]models.ClubMember}
// @Router /admin/clubs/{id}/members [get]
func (c *ClubController) ListMembers(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var status *models.MembershipStatus
	if raw := ctx.Query("status"); raw != "" {
		s := models.MembershipStatus(raw)
		switch s {
		case models.MembershipPending, models.MembershipApproved, models.MembershipRejected:
			status = &s
		default:
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "status must be Pending, Approved or Rejected").WithField("status")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
	}

	members, err := c.clubService.ListMembers(ctx.Request.Context(), id, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(members))
}

// ApproveMember approves a pending membership
// @Summary Approve membership
// @Tags admin-clubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Success 200 {object} dto.APIResponse{data=models.ClubMember}
// @Failure 409 {object} dto.ErrorResponse "Membership is not pending"
// @Router /admin/club-members/{id}/approve [post]
func (c *ClubController) ApproveMember(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	member, err := c.clubService.ApproveMember(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(member))
}

// RejectMember rejects a pending membership
// @Summary Reject membership
// @Tags admin-clubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Membership ID"
// @Success 200 {object} dto.APIResponse{data=models.ClubMember}
// @Failure 409 {object} dto.ErrorResponse "Membership is not pending"
// @Router /admin/club-members/{id}/reject [post]
func (c *ClubController) RejectMember(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	member, err := c.clubService.RejectMember(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(member))
}

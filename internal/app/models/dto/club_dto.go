package dto

import "github.com/yigit/unievents/internal/app/models"

// ClubRequest is the payload for creating or updating a club
type ClubRequest struct {
	ClubName    string `json:"clubName" binding:"required,max=100"`
	Description string `json:"description" binding:"max=2000"`
	AdminUserID *int64 `json:"adminUserId" binding:"omitempty,gte=1"`
	IsActive    *bool  `json:"isActive"`
}

// ClubDetailsResponse is a club with its visible members
type ClubDetailsResponse struct {
	Club    *models.Club         `json:"club"`
	Members []*models.ClubMember `json:"members"`
}

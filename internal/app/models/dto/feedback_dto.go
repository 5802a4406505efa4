package dto

import "github.com/yigit/unievents/internal/app/models"

// SubmitFeedbackRequest rates an attended event
type SubmitFeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// FeedbackEligibilityResponse tells whether the caller may rate an event
type FeedbackEligibilityResponse struct {
	CanSubmit bool   `json:"canSubmit"`
	Reason    string `json:"reason,omitempty"`
}

// FeedbackListResponse is a page of feedback
type FeedbackListResponse struct {
	Feedback   []*models.Feedback `json:"feedback"`
	Pagination PaginationInfo     `json:"pagination"`
}

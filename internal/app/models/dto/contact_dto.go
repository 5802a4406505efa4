package dto

import "github.com/yigit/unievents/internal/app/models"

// ContactRequest is a public contact form submission
type ContactRequest struct {
	FullName    string  `json:"fullName" binding:"required,max=100"`
	Email       string  `json:"email" binding:"required,email,max=256"`
	Phone       string  `json:"phone" binding:"required,max=20"`
	Subject     string  `json:"subject" binding:"required,max=200"`
	Message     string  `json:"message" binding:"required,max=2000"`
	InquiryType *string `json:"inquiryType" binding:"omitempty,max=50"`
}

// ContactResponseRequest is an administrator's answer
type ContactResponseRequest struct {
	Response string `json:"response" binding:"required,max=500"`
}

// ContactListResponse is a page of inquiries
type ContactListResponse struct {
	Contacts   []*models.Contact `json:"contacts"`
	Pagination PaginationInfo    `json:"pagination"`
}

package models

import "time"

// Contact defines the model based on the 'contacts' table
type Contact struct {
	ID            int64      `json:"id" db:"id"`
	FullName      string     `json:"fullName" db:"full_name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	Subject       string     `json:"subject" db:"subject"`
	Message       string     `json:"message" db:"message"`
	InquiryType   *string    `json:"inquiryType,omitempty" db:"inquiry_type"`
	SubmittedDate time.Time  `json:"submittedDate" db:"submitted_date"`
	AdminResponse *string    `json:"adminResponse,omitempty" db:"admin_response"`
	ResponseDate  *time.Time `json:"responseDate,omitempty" db:"response_date"`
	IsResolved    bool       `json:"isResolved" db:"is_resolved"`
}

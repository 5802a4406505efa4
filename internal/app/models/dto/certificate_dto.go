package dto

// IssueCertificateRequest names the attendee to certify
type IssueCertificateRequest struct {
	UserID int64 `json:"userId" binding:"required,gte=1"`
}

// BulkIssueResponse reports how many certificates were created
type BulkIssueResponse struct {
	Issued int `json:"issued"`
}

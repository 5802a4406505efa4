package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Certificate defines the model based on the 'certificates' table
type Certificate struct {
	ID                int64     `json:"id" db:"id"`
	UserID            int64     `json:"userId" db:"user_id"`
	EventID           int64     `json:"eventId" db:"event_id"`
	IssueDate         time.Time `json:"issueDate" db:"issue_date"`
	CertificateURL    string    `json:"certificateUrl" db:"certificate_url"`
	CertificateNumber string    `json:"certificateNumber" db:"certificate_number" example:"CERT-20250101-1A2B3C4D"`
	IsDownloaded      bool      `json:"isDownloaded" db:"is_downloaded"`
	Event             *Event    `json:"event,omitempty"` // Relation, no db tag
	User              *User     `json:"user,omitempty"`  // Relation, no db tag
}

// NewCertificateNumber builds CERT-{yyyyMMdd}-{first 8 hex digits of id, upper case}
func NewCertificateNumber(issued time.Time, id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("CERT-%s-%s", issued.Format("20060102"), strings.ToUpper(hex[:8]))
}

// CertificateDownloadURL is the API path serving the rendered certificate
func CertificateDownloadURL(id int64) string {
	return fmt.Sprintf("/api/v1/certificates/%d/download", id)
}

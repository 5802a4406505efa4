package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CheckInWindow is how long after the start of an event attendees may check in
const CheckInWindow = 90 * time.Minute

// EventType classifies events
type EventType string

const (
	EventTypeWorkshop  EventType = "Workshop"
	EventTypeSeminar   EventType = "Seminar"
	EventTypeSocial    EventType = "Social"
	EventTypeSports    EventType = "Sports"
	EventTypeCultural  EventType = "Cultural"
	EventTypeVolunteer EventType = "Volunteer"
	EventTypeOther     EventType = "Other"
)

// Event defines the event model based on the 'events' table
type Event struct {
	ID             int64     `json:"id" db:"id" example:"1"`
	Title          string    `json:"title" db:"title" example:"Campus Cleanup"`
	Description    string    `json:"description" db:"description"`
	EventDate      time.Time `json:"eventDate" db:"event_date"`
	Venue          string    `json:"venue" db:"venue" example:"Main Hall"`
	CreatedBy      int64     `json:"createdBy" db:"created_by"`
	IsApproved     bool      `json:"isApproved" db:"is_approved"`
	MaxCapacity    int       `json:"maxCapacity" db:"max_capacity" example:"100"`
	EventType      EventType `json:"eventType" db:"event_type" example:"Volunteer"`
	CreatedDate    time.Time `json:"createdDate" db:"created_date"`
	ImageURL       *string   `json:"imageUrl,omitempty" db:"image_url"`
	VolunteerHours int       `json:"volunteerHours" db:"volunteer_hours" example:"3"`
	Secret         string    `json:"-" db:"secret"` // QR check-in secret, never serialized
}

// CheckInWindowEnd returns the last instant a check-in is accepted
func (e *Event) CheckInWindowEnd() time.Time {
	return e.EventDate.Add(CheckInWindow)
}

// IsPast reports whether the event start lies before now
func (e *Event) IsPast(now time.Time) bool {
	return e.EventDate.Before(now)
}

// NewEventSecret returns a fresh QR secret: a uuid in hex without dashes
func NewEventSecret() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// EventFilter narrows event listings
type EventFilter struct {
	Search       string
	EventType    EventType
	OnlyApproved bool
}

// EventStats holds the aggregate numbers shown on event details
type EventStats struct {
	ConfirmedCount int     `json:"confirmedCount"`
	WaitlistCount  int     `json:"waitlistCount"`
	AverageRating  float64 `json:"averageRating"`
	FeedbackCount  int     `json:"feedbackCount"`
}

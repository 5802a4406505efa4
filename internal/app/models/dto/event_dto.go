package dto

import (
	"time"

	"github.com/yigit/unievents/internal/app/models"
)

// CreateEventRequest is the payload for creating or updating an event
type CreateEventRequest struct {
	Title          string           `json:"title" binding:"required,max=200"`
	Description    string           `json:"description" binding:"required,max=5000"`
	EventDate      time.Time        `json:"eventDate" binding:"required"`
	Venue          string           `json:"venue" binding:"required,max=200"`
	MaxCapacity    int              `json:"maxCapacity" binding:"required,gte=1,lte=100000"`
	EventType      models.EventType `json:"eventType" binding:"required,eventtype"`
	VolunteerHours int              `json:"volunteerHours" binding:"gte=0,lte=100"`
}

// UpdateEventRequest shares the creation rules
type UpdateEventRequest = CreateEventRequest

// EventDetailsResponse is an event with its seat and rating numbers
type EventDetailsResponse struct {
	Event              *models.Event              `json:"event"`
	SeatsTaken         int                        `json:"seatsTaken"`
	SeatsLeft          int                        `json:"seatsLeft"`
	WaitlistCount      int                        `json:"waitlistCount"`
	AverageRating      float64                    `json:"averageRating"`
	FeedbackCount      int                        `json:"feedbackCount"`
	RegistrationStatus *models.RegistrationStatus `json:"registrationStatus,omitempty"`
}

// EventListResponse is a page of events
type EventListResponse struct {
	Events     []*models.Event `json:"events"`
	Pagination PaginationInfo  `json:"pagination"`
}

// HomeResponse feeds the landing page
type HomeResponse struct {
	UpcomingEvents     []*models.Event `json:"upcomingEvents"`
	TotalEvents        int64           `json:"totalEvents"`
	TotalUsers         int64           `json:"totalUsers"`
	TotalRegistrations int64           `json:"totalRegistrations"`
}

// ImageUploadResponse returns the stored image location
type ImageUploadResponse struct {
	URL string `json:"url"`
}

// NewEventDetailsResponse derives the seat numbers from the stats
func NewEventDetailsResponse(event *models.Event, stats *models.EventStats) *EventDetailsResponse {
	left := event.MaxCapacity - stats.ConfirmedCount
	if left < 0 {
		left = 0
	}
	return &EventDetailsResponse{
		Event:         event,
		SeatsTaken:    stats.ConfirmedCount,
		SeatsLeft:     left,
		WaitlistCount: stats.WaitlistCount,
		AverageRating: stats.AverageRating,
		FeedbackCount: stats.FeedbackCount,
	}
}

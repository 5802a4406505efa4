package models

import "time"

// Feedback defines the model based on the 'feedbacks' table
type Feedback struct {
	ID            int64     `json:"id" db:"id"`
	EventID       int64     `json:"eventId" db:"event_id"`
	UserID        int64     `json:"userId" db:"user_id"`
	Rating        int       `json:"rating" db:"rating" example:"5"`
	Comment       string    `json:"comment" db:"comment"`
	SubmittedDate time.Time `json:"submittedDate" db:"submitted_date"`
	UserName      string    `json:"userName,omitempty"`   // joined from users
	EventTitle    string    `json:"eventTitle,omitempty"` // joined from events
}

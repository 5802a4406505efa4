package models

import "time"

// Notification defines the model based on the 'notifications' table
type Notification struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"userId" db:"user_id"`
	Message          string    `json:"message" db:"message"`
	SentDate         time.Time `json:"sentDate" db:"sent_date"`
	IsRead           bool      `json:"isRead" db:"is_read"`
	NotificationType string    `json:"notificationType" db:"notification_type" example:"EventCreated"`
	EventID          *int64    `json:"eventId,omitempty" db:"event_id"` // nullable
}

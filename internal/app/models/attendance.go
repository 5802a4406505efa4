package models

import (
	"math"
	"time"
)

// Attendance defines the model based on the 'attendances' table
type Attendance struct {
	ID          int64     `json:"id" db:"id"`
	EventID     int64     `json:"eventId" db:"event_id"`
	UserID      int64     `json:"userId" db:"user_id"`
	CheckInTime time.Time `json:"checkInTime" db:"check_in_time"`
	QRCode      string    `json:"qrCode" db:"qr_code"`
	IsPresent   bool      `json:"isPresent" db:"is_present"`
	User        *User     `json:"user,omitempty"`  // Relation, no db tag
	Event       *Event    `json:"event,omitempty"` // Relation, no db tag
}

// Percentage returns part/total*100 rounded to two decimals, or 0 for an empty total
func Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(part) / float64(total) * 100)
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

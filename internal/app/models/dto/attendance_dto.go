package dto

import "github.com/yigit/unievents/internal/app/models"

// Check-in outcomes
const (
	CheckInStatusCheckedIn        = "checked_in"
	CheckInStatusAlreadyCheckedIn = "already_checked_in"
)

// CheckInRequest carries the scanned event secret
type CheckInRequest struct {
	Secret string `json:"secret" binding:"required,max=64"`
}

// CheckInResponse reports the outcome of a check-in
type CheckInResponse struct {
	Status         string        `json:"status" example:"checked_in"`
	Event          *models.Event `json:"event"`
	VolunteerHours int           `json:"volunteerHours"`
}

// MarkAttendanceRequest is an administrator's manual attendance entry
type MarkAttendanceRequest struct {
	UserID    int64 `json:"userId" binding:"required,gte=1"`
	IsPresent bool  `json:"isPresent"`
}

// EventAttendanceResponse lists an event's attendance with the rate
type EventAttendanceResponse struct {
	Event          *models.Event        `json:"event"`
	Records        []*models.Attendance `json:"records"`
	PresentCount   int                  `json:"presentCount"`
	ConfirmedCount int                  `json:"confirmedCount"`
	AttendanceRate float64              `json:"attendanceRate"`
}

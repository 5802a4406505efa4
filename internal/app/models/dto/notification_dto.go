package dto

import "github.com/yigit/unievents/internal/app/models"

// Broadcast targets
const (
	NotificationTargetAll   = "all"
	NotificationTargetEvent = "event"
	NotificationTargetUser  = "user"
)

// SendNotificationRequest is an administrator broadcast
type SendNotificationRequest struct {
	Message string `json:"message" binding:"required,max=1000"`
	Target  string `json:"target" binding:"required,oneof=all event user"`
	EventID *int64 `json:"eventId" binding:"omitempty,gte=1"`
	UserID  *int64 `json:"userId" binding:"omitempty,gte=1"`
}

// NotificationListResponse is a page of notifications
type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	Pagination    PaginationInfo         `json:"pagination"`
}

// UnreadCountResponse carries the unread notification count
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// SentCountResponse reports how many notifications were stored
type SentCountResponse struct {
	Sent int `json:"sent"`
}

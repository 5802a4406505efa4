package dto

// RegisterForEventRequest is the body of an event registration
type RegisterForEventRequest struct {
	GuestCount int `json:"guestCount" binding:"gte=0,lte=10"`
}

package dto

import "time"

// BusRequest is the payload for creating or updating a bus
type BusRequest struct {
	EventID             int64     `json:"eventId" binding:"required,gte=1"`
	BusNumber           string    `json:"busNumber" binding:"required,max=50"`
	Capacity            int       `json:"capacity" binding:"required,gte=1,lte=200"`
	DepartureTime       time.Time `json:"departureTime" binding:"required"`
	DepartureLocation   string    `json:"departureLocation" binding:"required,max=200"`
	DestinationLocation string    `json:"destinationLocation" binding:"required,max=200"`
}

// ReserveSeatRequest is the body of a bus reservation
type ReserveSeatRequest struct {
	PassengerCount int `json:"passengerCount" binding:"required,gte=1,lte=10"`
}

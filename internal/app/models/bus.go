package models

import "time"

// ReservationStatus is the state of a bus reservation
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "Confirmed"
	ReservationCancelled ReservationStatus = "Cancelled"
)

// Bus defines the model based on the 'buses' table
type Bus struct {
	ID                  int64     `json:"id" db:"id"`
	EventID             int64     `json:"eventId" db:"event_id"`
	BusNumber           string    `json:"busNumber" db:"bus_number" example:"34 ABC 123"`
	Capacity            int       `json:"capacity" db:"capacity" example:"45"`
	DepartureTime       time.Time `json:"departureTime" db:"departure_time"`
	DepartureLocation   string    `json:"departureLocation" db:"departure_location"`
	DestinationLocation string    `json:"destinationLocation" db:"destination_location"`
	CurrentPassengers   int       `json:"currentPassengers" db:"current_passengers"`
}

// AvailableSeats returns the number of unreserved seats
func (b *Bus) AvailableSeats() int {
	if left := b.Capacity - b.CurrentPassengers; left > 0 {
		return left
	}
	return 0
}

// BusReservation defines the model based on the 'bus_reservations' table
type BusReservation struct {
	ID              int64             `json:"id" db:"id"`
	BusID           int64             `json:"busId" db:"bus_id"`
	UserID          int64             `json:"userId" db:"user_id"`
	ReservationDate time.Time         `json:"reservationDate" db:"reservation_date"`
	PassengerCount  int               `json:"passengerCount" db:"passenger_count"`
	Status          ReservationStatus `json:"status" db:"status"`
	Bus             *Bus              `json:"bus,omitempty"`  // Relation, no db tag
	User            *User             `json:"user,omitempty"` // Relation, no db tag
}

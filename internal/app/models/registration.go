package models

import "time"

// RegistrationStatus is the lifecycle state of a registration
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "Confirmed"
	RegistrationWaitlist  RegistrationStatus = "Waitlist"
	RegistrationCancelled RegistrationStatus = "Cancelled"
)

// Registration defines the model based on the 'registrations' table
type Registration struct {
	ID               int64              `json:"id" db:"id"`
	EventID          int64              `json:"eventId" db:"event_id"`
	UserID           int64              `json:"userId" db:"user_id"`
	RegistrationDate time.Time          `json:"registrationDate" db:"registration_date"`
	Status           RegistrationStatus `json:"status" db:"status" example:"Confirmed"`
	GuestCount       int                `json:"guestCount" db:"guest_count"`
	Event            *Event             `json:"event,omitempty"` // Relation, no db tag
	User             *User              `json:"user,omitempty"`  // Relation, no db tag
}

// DecideRegistrationStatus returns Waitlist once the confirmed registrations
// reach the event capacity and Confirmed otherwise.
func DecideRegistrationStatus(confirmed, maxCapacity int) RegistrationStatus {
	if confirmed >= maxCapacity {
		return RegistrationWaitlist
	}
	return RegistrationConfirmed
}

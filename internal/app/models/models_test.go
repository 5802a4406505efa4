package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDecideRegistrationStatus(t *testing.T) {
	assert.Equal(t, RegistrationConfirmed, DecideRegistrationStatus(0, 1))
	assert.Equal(t, RegistrationConfirmed, DecideRegistrationStatus(9, 10))
	assert.Equal(t, RegistrationWaitlist, DecideRegistrationStatus(10, 10))
	assert.Equal(t, RegistrationWaitlist, DecideRegistrationStatus(11, 10))
}

func TestEvent_CheckInWindow(t *testing.T) {
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	e := &Event{EventDate: start}

	assert.Equal(t, start.Add(90*time.Minute), e.CheckInWindowEnd())
	assert.True(t, e.IsPast(start.Add(time.Second)))
	assert.False(t, e.IsPast(start.Add(-time.Second)))
}

func TestNewEventSecret(t *testing.T) {
	s := NewEventSecret()
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), s)
	assert.NotEqual(t, s, NewEventSecret())
}

func TestNewCertificateNumber(t *testing.T) {
	id := uuid.MustParse("1a2b3c4d-0000-4000-8000-000000000000")
	issued := time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, "CERT-20250309-1A2B3C4D", NewCertificateNumber(issued, id))
	assert.Regexp(t, `^CERT-\d{8}-[0-9A-F]{8}$`, NewCertificateNumber(time.Now(), uuid.New()))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(3, 0))
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 100.0, Percentage(5, 5))
	assert.Equal(t, 33.33, Percentage(1, 3))
}

func TestBus_AvailableSeats(t *testing.T) {
	assert.Equal(t, 5, (&Bus{Capacity: 10, CurrentPassengers: 5}).AvailableSeats())
	assert.Equal(t, 0, (&Bus{Capacity: 10, CurrentPassengers: 12}).AvailableSeats())
}

func TestClubMember_BlocksJoin(t *testing.T) {
	assert.True(t, (&ClubMember{Status: MembershipPending}).BlocksJoin())
	assert.True(t, (&ClubMember{Status: MembershipApproved}).BlocksJoin())
	assert.False(t, (&ClubMember{Status: MembershipRejected}).BlocksJoin())
}

func TestUser_Helpers(t *testing.T) {
	u := &User{FirstName: "Jane", LastName: "Doe", UserType: UserTypeAdmin}
	assert.Equal(t, "Jane Doe", u.FullName())
	assert.True(t, u.IsAdmin())
	assert.True(t, UserTypeStudent.IsValid())
	assert.False(t, UserType("Guest").IsValid())
}

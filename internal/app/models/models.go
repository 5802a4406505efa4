package models

// UserType defines the account type of a user
type UserType string

const (
	UserTypeAdmin   UserType = "Admin"
	UserTypeStudent UserType = "Student"
)

// IsValid reports whether t is a known user type
func (t UserType) IsValid() bool {
	return t == UserTypeAdmin || t == UserTypeStudent
}

// Notification types emitted by the services
const (
	NotificationEventCreated           = "EventCreated"
	NotificationEventUpdate            = "EventUpdate"
	NotificationEventApproved          = "EventApproved"
	NotificationRegistrationConfirmed  = "RegistrationConfirmed"
	NotificationRegistrationWaitlisted = "RegistrationWaitlisted"
	NotificationRegistrationCancelled  = "RegistrationCancelled"
	NotificationWaitlistPromoted       = "WaitlistPromoted"
	NotificationAttendanceConfirmed    = "AttendanceConfirmed"
	NotificationCertificateIssued      = "CertificateIssued"
	NotificationClubMembershipApproved = "ClubMembershipApproved"
	NotificationClubMembershipRejected = "ClubMembershipRejected"
	NotificationBusReservation         = "BusReservation"
	NotificationAdmin                  = "AdminNotification"
)

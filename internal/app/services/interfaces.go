package services

import (
	"context"
	"time"

	"github.com/yigit/unievents/internal/app/models"
)

// Repository contracts the services depend on. The postgres repositories in
// internal/app/repositories satisfy them.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int64, hash string) error
	ConfirmEmail(ctx context.Context, userID int64) error
	SetTwoFactor(ctx context.Context, userID int64, enabled bool) error
	SetUserType(ctx context.Context, userID int64, userType models.UserType) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	Delete(ctx context.Context, userID int64) error
	List(ctx context.Context, filter models.UserFilter, offset, limit uint64) ([]*models.User, int64, error)
	ListActiveIDs(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int64, error)
}

type TokenRepository interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	RotateToken(ctx context.Context, oldToken, newToken string, expiryDate time.Time) (int64, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetBySecret(ctx context.Context, secret string) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Approve(ctx context.Context, id int64) error
	SetImageURL(ctx context.Context, id int64, url string) error
	SetSecret(ctx context.Context, id int64, secret string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.EventFilter, offset, limit uint64) ([]*models.Event, int64, error)
	ListUpcoming(ctx context.Context, now time.Time, limit uint64) ([]*models.Event, error)
	ListUpcomingForUser(ctx context.Context, userID int64, now time.Time, limit uint64) ([]*models.Event, error)
	Stats(ctx context.Context, eventID int64) (*models.EventStats, error)
	Count(ctx context.Context) (int64, error)
}

type RegistrationRepository interface {
	Register(ctx context.Context, eventID, userID int64, guestCount int, now time.Time) (*models.Registration, error)
	Cancel(ctx context.Context, regID, userID int64) (cancelled, promoted *models.Registration, err error)
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	GetActive(ctx context.Context, eventID, userID int64) (*models.Registration, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Registration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Registration, error)
	ListActiveUserIDs(ctx context.Context, eventID int64) ([]int64, error)
	Count(ctx context.Context) (int64, error)
}

type AttendanceRepository interface {
	Get(ctx context.Context, eventID, userID int64) (*models.Attendance, error)
	CheckIn(ctx context.Context, eventID, userID int64, qrCode string, now time.Time) (*models.Attendance, bool, error)
	Mark(ctx context.Context, eventID, userID int64, isPresent bool, qrCode string, now time.Time) (*models.Attendance, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Attendance, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Attendance, error)
	ListPresentWithoutCertificate(ctx context.Context, eventID int64) ([]int64, error)
	CountPresentByUser(ctx context.Context, userID int64) (int64, error)
}

type CertificateRepository interface {
	Issue(ctx context.Context, cert *models.Certificate, volunteerHours int) error
	GetByID(ctx context.Context, id int64) (*models.Certificate, error)
	MarkDownloaded(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]*models.Certificate, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Certificate, error)
}

type ClubRepository interface {
	Create(ctx context.Context, club *models.Club) error
	GetByID(ctx context.Context, id int64) (*models.Club, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Club, error)
	Update(ctx context.Context, club *models.Club) error
	SetLogoURL(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
	GetMembership(ctx context.Context, clubID, userID int64) (*models.ClubMember, error)
	GetMemberByID(ctx context.Context, id int64) (*models.ClubMember, error)
	CreateMember(ctx context.Context, m *models.ClubMember) error
	ResetToPending(ctx context.Context, id int64, joinDate time.Time) error
	SetMemberStatus(ctx context.Context, id int64, status models.MembershipStatus) error
	DeleteMember(ctx context.Context, clubID, userID int64) error
	ListMembers(ctx context.Context, clubID int64, status *models.MembershipStatus) ([]*models.ClubMember, error)
	ListMembershipsByUser(ctx context.Context, userID int64) ([]*models.ClubMember, error)
}

type BusRepository interface {
	Create(ctx context.Context, bus *models.Bus) error
	GetByID(ctx context.Context, id int64) (*models.Bus, error)
	Update(ctx context.Context, bus *models.Bus) error
	Delete(ctx context.Context, id int64) error
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Bus, error)
	Reserve(ctx context.Context, busID, userID int64, passengerCount int, now time.Time) (*models.BusReservation, error)
	CancelReservation(ctx context.Context, reservationID, userID int64) (*models.BusReservation, error)
	ListReservationsByUser(ctx context.Context, userID int64) ([]*models.BusReservation, error)
	ListReservationsByBus(ctx context.Context, busID int64) ([]*models.BusReservation, error)
}

type NotificationRepository interface {
	CreateMany(ctx context.Context, notifications []*models.Notification) error
	GetByID(ctx context.Context, id, userID int64) (*models.Notification, error)
	ListByUser(ctx context.Context, userID int64, offset, limit uint64) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id, userID int64) error
}

type FeedbackRepository interface {
	Create(ctx context.Context, f *models.Feedback) error
	Exists(ctx context.Context, eventID, userID int64) (bool, error)
	List(ctx context.Context, offset, limit uint64) ([]*models.Feedback, int64, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*models.Feedback, error)
	Delete(ctx context.Context, id int64) error
}

type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) error
	GetByID(ctx context.Context, id int64) (*models.Contact, error)
	List(ctx context.Context, resolved *bool, offset, limit uint64) ([]*models.Contact, int64, error)
	Respond(ctx context.Context, id int64, response string, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

type ReportRepository interface {
	SystemStatistics(ctx context.Context, now time.Time) (*models.SystemStatistics, error)
	EventCounts(ctx context.Context, report *models.EventReport) error
	UserRows(ctx context.Context) ([]*models.UserReportRow, error)
	EventRows(ctx context.Context) ([]*models.EventReportRow, error)
}

// Mailer sends the transactional emails; *email.Mailer implements it
type Mailer interface {
	SendEmailVerificationCode(ctx context.Context, to, name, code string) error
	Send2FACode(ctx context.Context, to, name, code string) error
	SendPasswordResetCode(ctx context.Context, to, name, code string) error
	SendPasswordChangeCode(ctx context.Context, to, name, code string) error
	SendRegistrationConfirmation(ctx context.Context, to, name, eventTitle string, eventDate time.Time, venue string) error
	SendCertificateIssued(ctx context.Context, to, name, eventTitle, certificateNumber, downloadPath string) error
}

// NotificationPusher delivers a stored notification to live connections
type NotificationPusher interface {
	PushNotification(n *models.Notification)
}

// Clock returns the current time; tests replace it
type Clock func() time.Time

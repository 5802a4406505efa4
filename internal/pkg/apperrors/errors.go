package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidFormat      = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidFile      = errors.New("invalid file")

	// Throttling
	ErrTooManyRequests = errors.New("too many requests")

	// Delivery of email or sms failed
	ErrDeliveryFailed = errors.New("message delivery failed")
)

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrCannotDeleteSelf   = errors.New("administrators cannot delete their own account")
)

// Email verification, OTP and password flow errors
var (
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrEmailAlreadyVerified   = errors.New("email already verified")
	ErrInvalidOTP             = errors.New("invalid or expired verification code")
	ErrNoPendingChallenge     = errors.New("no pending verification for this account")
	ErrTwoFactorAlreadyActive = errors.New("two-factor authentication already enabled")
	ErrTwoFactorNotActive     = errors.New("two-factor authentication is not enabled")
)

// Event errors
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventNotApproved = errors.New("event is not approved")
	ErrEventInPast      = errors.New("event has already taken place")
)

// Registration errors
var (
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrAlreadyRegistered     = errors.New("already registered for this event")
	ErrRegistrationCancelled = errors.New("registration already cancelled")
	ErrNotRegistered         = errors.New("no confirmed registration for this event")
)

// Attendance errors
var (
	ErrInvalidEventSecret   = errors.New("invalid event code")
	ErrCheckInNotStarted    = errors.New("check-in has not started yet")
	ErrCheckInWindowClosed  = errors.New("check-in window has closed")
	ErrAttendanceNotFound   = errors.New("attendance record not found")
	ErrAttendanceNotPresent = errors.New("user did not attend this event")
)

// Certificate errors
var (
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrCertificateExists   = errors.New("certificate already issued for this event")
)

// Club errors
var (
	ErrClubNotFound             = errors.New("club not found")
	ErrClubInactive             = errors.New("club is not active")
	ErrClubMembershipExists     = errors.New("membership already pending or approved")
	ErrClubMembershipNotFound   = errors.New("club membership not found")
	ErrClubAdminCannotJoin      = errors.New("club administrators cannot join as members")
	ErrClubMembershipNotPending = errors.New("club membership is not pending")
)

// Bus errors
var (
	ErrBusNotFound         = errors.New("bus not found")
	ErrBusFull             = errors.New("not enough seats on this bus")
	ErrAlreadyReserved     = errors.New("already reserved a seat on this bus")
	ErrReservationNotFound = errors.New("bus reservation not found")
	ErrCapacityBelowLoad   = errors.New("capacity cannot be lower than the current passenger count")
)

// Feedback, contact and notification errors
var (
	ErrFeedbackNotFound     = errors.New("feedback not found")
	ErrFeedbackExists       = errors.New("feedback already submitted for this event")
	ErrContactNotFound      = errors.New("contact inquiry not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}

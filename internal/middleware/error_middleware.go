package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/logger"
)

// errorMapping ties a sentinel to its HTTP status and error code
type errorMapping struct {
	err    error
	status int
	code   dto.ErrorCode
}

// errorMappings is checked in order with errors.Is; the first match wins
var errorMappings = []errorMapping{
	// 401
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrInvalidFormat, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},

	// 403
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrCannotDeleteSelf, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled},
	{apperrors.ErrEmailNotVerified, http.StatusForbidden, dto.ErrorCodeEmailNotVerified},
	{apperrors.ErrClubAdminCannotJoin, http.StatusForbidden, dto.ErrorCodeMembershipRule},

	// 404
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrEventNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrRegistrationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrAttendanceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrCertificateNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrClubNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrClubMembershipNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrBusNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrReservationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrFeedbackNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrContactNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
	{apperrors.ErrNotificationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},

	// 409
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrAlreadyRegistered, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrCertificateExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrClubMembershipExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrAlreadyReserved, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrFeedbackExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrEmailAlreadyVerified, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrTwoFactorAlreadyActive, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrRegistrationCancelled, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrClubMembershipNotPending, http.StatusConflict, dto.ErrorCodeMembershipRule},
	{apperrors.ErrBusFull, http.StatusConflict, dto.ErrorCodeCapacityExceeded},
	{apperrors.ErrCapacityBelowLoad, http.StatusConflict, dto.ErrorCodeCapacityExceeded},

	// 400
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrInvalidFile, http.StatusBadRequest, dto.ErrorCodeResourceInvalid},
	{apperrors.ErrInvalidEmail, http.StatusBadRequest, dto.ErrorCodeInvalidEmail},
	{apperrors.ErrInvalidPassword, http.StatusBadRequest, dto.ErrorCodeInvalidPassword},
	{apperrors.ErrInvalidOTP, http.StatusBadRequest, dto.ErrorCodeInvalidOTP},
	{apperrors.ErrNoPendingChallenge, http.StatusBadRequest, dto.ErrorCodeInvalidOTP},
	{apperrors.ErrTwoFactorNotActive, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrEventNotApproved, http.StatusBadRequest, dto.ErrorCodeEventUnavailable},
	{apperrors.ErrEventInPast, http.StatusBadRequest, dto.ErrorCodeEventUnavailable},
	{apperrors.ErrInvalidEventSecret, http.StatusBadRequest, dto.ErrorCodeInvalidEventCode},
	{apperrors.ErrCheckInNotStarted, http.StatusBadRequest, dto.ErrorCodeCheckInWindow},
	{apperrors.ErrCheckInWindowClosed, http.StatusBadRequest, dto.ErrorCodeCheckInWindow},
	{apperrors.ErrNotRegistered, http.StatusBadRequest, dto.ErrorCodeAttendanceRequired},
	{apperrors.ErrAttendanceNotPresent, http.StatusBadRequest, dto.ErrorCodeAttendanceRequired},
	{apperrors.ErrClubInactive, http.StatusBadRequest, dto.ErrorCodeMembershipRule},

	// 429
	{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests},

	// 502
	{apperrors.ErrDeliveryFailed, http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
}

// StatusFor returns the HTTP status and error code HandleAPIError uses for err
func StatusFor(err error) (int, dto.ErrorCode) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer
}

// HandleAPIError writes the error response for a service error. Client errors
// carry the error text; server errors are logged and answered generically.
func HandleAPIError(c *gin.Context, err error) {
	status, code := StatusFor(err)

	var detail *dto.ErrorDetail
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
		detail = dto.NewErrorDetail(code, "Internal server error")
	} else {
		detail = dto.NewErrorDetail(code, err.Error())
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Details != nil {
			detail = detail.WithDetails(custom.Details)
		}
	}

	c.AbortWithStatusJSON(status, dto.APIResponse{Error: detail, Timestamp: time.Now()})
}

// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/middleware"
	"github.com/yigit/unievents/internal/pkg/helpers"
)

// bindJSON binds the body into req and writes a 400 on failure
func bindJSON(ctx *gin.Context, logger zerolog.Logger, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		logger.Warn().Err(err).Str("path", ctx.FullPath()).Msg("Invalid request payload")
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return false
	}
	return true
}

// pathID parses a positive id path parameter and writes a 400 on failure
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := helpers.ParseIDParam(ctx, name)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid ID").
			WithField(name).
			WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// currentUserID returns the authenticated caller and writes a 401 when absent
func currentUserID(ctx *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return userID, true
}

// badQuery writes a 400 for a malformed query parameter
func badQuery(ctx *gin.Context, name string, err error) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid query parameter").
		WithField(name).
		WithDetails(err.Error())
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

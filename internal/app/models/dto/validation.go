package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HandleValidationError turns a binding error into an ErrorDetail listing the offending fields
func HandleValidationError(err error) *ErrorDetail {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := NewValidationErrors()
		code := ErrorCodeValidationFailed
		for i, fe := range validationErrors {
			fieldCode := fieldErrorCode(fe)
			fields.AddError(fieldCode, lowerFirst(fe.Field()), FormatFieldError(fe))
			// a single rule family keeps its own code at the top level
			if i == 0 {
				code = fieldCode
			} else if code != fieldCode {
				code = ErrorCodeValidationFailed
			}
		}
		return NewErrorDetail(code, "Validation failed").WithDetails(fields.Errors)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return NewErrorDetail(ErrorCodeValidationFailed, "Invalid request format").
			WithDetails(fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		return NewErrorDetail(ErrorCodeValidationFailed, "Invalid request format").
			WithField(typeErr.Field).
			WithDetails(fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
	}

	return NewErrorDetail(ErrorCodeValidationFailed, "Invalid request format").WithDetails(err.Error())
}

// FormatFieldError creates a human-readable message for one failed rule
func FormatFieldError(e validator.FieldError) string {
	field := lowerFirst(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param()
	case "max":
		return field + " must be at most " + e.Param()
	case "gte":
		return field + " must be greater than or equal to " + e.Param()
	case "lte":
		return field + " must be less than or equal to " + e.Param()
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "len":
		return field + " must be exactly " + e.Param() + " characters"
	case "numeric":
		return field + " must contain digits only"
	case "phone":
		return field + " must be a valid phone number"
	case "eventtype":
		return field + " must be a known event type"
	case "usertype":
		return field + " must be Admin or Student"
	default:
		return field + " validation failed: " + e.Tag()
	}
}

// fieldErrorCode picks the error code for one failed rule
func fieldErrorCode(e validator.FieldError) ErrorCode {
	switch e.Tag() {
	case "phone":
		return ErrorCodeInvalidPhone
	default:
		return ErrorCodeValidationFailed
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

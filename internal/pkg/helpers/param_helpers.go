package helpers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unievents/internal/pkg/apperrors"
)

// ParseIDParam reads a positive int64 path parameter
func ParseIDParam(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", apperrors.ErrValidationFailed, name)
	}
	return id, nil
}

// ParseOptionalBool reads true/false query values, nil when absent
func ParseOptionalBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", apperrors.ErrValidationFailed, name)
	}
	return &v, nil
}

// ParseOptionalDate reads a YYYY-MM-DD or RFC3339 query value, nil when absent
func ParseOptionalDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD)", apperrors.ErrValidationFailed, name)
}

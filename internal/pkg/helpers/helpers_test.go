package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/pkg/apperrors"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 20)
	assert.Equal(t, uint64(40), offset)
	assert.Equal(t, uint64(20), limit)

	offset, limit = CalculateOffsetLimit(0, 1000)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, uint64(DefaultPageSize), limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(42, 2, 10)
	assert.Equal(t, 5, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)

	info = NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, info.TotalPages)

	info = NewPaginationInfo(5, 9, 10)
	assert.Equal(t, 1, info.CurrentPage)
}

func TestParsePaginationParams(t *testing.T) {
	page, size := ParsePaginationParams(testContext("/x?page=3&size=25"))
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, size)

	page, size = ParsePaginationParams(testContext("/x?page=-1&size=abc"))
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestParseIDParam(t *testing.T) {
	c := testContext("/events/7")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	id, err := ParseIDParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	c.Params = gin.Params{{Key: "id", Value: "zero"}}
	_, err = ParseIDParam(c, "id")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestParseOptionalQueries(t *testing.T) {
	c := testContext("/x?resolved=true&from=2025-01-02")
	b, err := ParseOptionalBool(c, "resolved")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, *b)

	d, err := ParseOptionalDate(c, "from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), *d)

	missing, err := ParseOptionalBool(c, "other")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseOptionalDate(testContext("/x?from=yesterday"), "from")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ParseDuration("5m", time.Hour))
	assert.Equal(t, time.Hour, ParseDuration("soon", time.Hour))
}

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers map[int64]*models.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func testJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "middleware-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "unievents.test",
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorDetail {
	t.Helper()
	var body struct {
		Error *dto.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

func TestJWTAuth(t *testing.T) {
	jwtSvc := testJWT()
	student := &models.User{ID: 1, Email: "s@uni.edu", UserType: models.UserTypeStudent, IsActive: true, EmailConfirmed: true}
	token, err := jwtSvc.GenerateAccessToken(student)
	require.NoError(t, err)

	m := NewAuthMiddleware(jwtSvc, stubUsers{1: student})
	r := gin.New()
	r.GET("/me", m.JWTAuth(), func(c *gin.Context) {
		id, ok := GetUserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, fmt.Sprint(id))
	})

	tests := []struct {
		name   string
		url    string
		header string
		status int
		code   dto.ErrorCode
	}{
		{name: "bearer header", url: "/me", header: "Bearer " + token, status: http.StatusOK},
		{name: "raw token", url: "/me", header: token, status: http.StatusOK},
		{name: "query token", url: "/me?token=" + token, status: http.StatusOK},
		{name: "missing", url: "/me", status: http.StatusUnauthorized, code: dto.ErrorCodeUnauthorized},
		{name: "garbage", url: "/me", header: "Bearer nope", status: http.StatusUnauthorized, code: dto.ErrorCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "1", w.Body.String())
			} else {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtSvc := testJWT()
	m := NewAuthMiddleware(jwtSvc, stubUsers{})
	r := gin.New()
	r.GET("/events/:id", m.OptionalAuth(), func(c *gin.Context) {
		_, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "admin": IsAdmin(c)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false,"admin":false}`, w.Body.String())

	token, err := jwtSvc.GenerateAccessToken(&models.User{ID: 3, Email: "a@uni.edu", UserType: models.UserTypeAdmin})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/events/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"authenticated":true,"admin":true}`, w.Body.String())

	// a bad token is ignored rather than rejected
	req = httptest.NewRequest(http.MethodGet, "/events/1", nil)
	req.Header.Set("Authorization", "Bearer broken")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEmailVerificationAndRole(t *testing.T) {
	jwtSvc := testJWT()
	users := stubUsers{
		1: {ID: 1, Email: "ok@uni.edu", UserType: models.UserTypeStudent, IsActive: true, EmailConfirmed: true},
		2: {ID: 2, Email: "new@uni.edu", UserType: models.UserTypeStudent, IsActive: true},
		3: {ID: 3, Email: "off@uni.edu", UserType: models.UserTypeStudent, EmailConfirmed: true},
		4: {ID: 4, Email: "admin@uni.edu", UserType: models.UserTypeAdmin, IsActive: true, EmailConfirmed: true},
	}
	m := NewAuthMiddleware(jwtSvc, users)
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/verified", m.JWTAuth(), m.EmailVerificationRequired(), ok)
	r.GET("/admin", m.JWTAuth(), m.RoleRequired(models.UserTypeAdmin), ok)

	call := func(path string, user *models.User) *httptest.ResponseRecorder {
		token, err := jwtSvc.GenerateAccessToken(user)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, call("/verified", users[1]).Code)

	w := call("/verified", users[2])
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeEmailNotVerified, decodeError(t, w).Code)

	w = call("/verified", users[3])
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeAccountDisabled, decodeError(t, w).Code)

	w = call("/verified", &models.User{ID: 99, Email: "ghost@uni.edu", UserType: models.UserTypeStudent})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusForbidden, call("/admin", users[1]).Code)
	assert.Equal(t, http.StatusNoContent, call("/admin", users[4]).Code)
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{name: "not found", err: apperrors.ErrEventNotFound, status: http.StatusNotFound, code: dto.ErrorCodeResourceNotFound},
		{name: "wrapped conflict", err: fmt.Errorf("register: %w", apperrors.ErrAlreadyRegistered), status: http.StatusConflict, code: dto.ErrorCodeResourceAlreadyExists},
		{name: "bus full", err: apperrors.ErrBusFull, status: http.StatusConflict, code: dto.ErrorCodeCapacityExceeded},
		{name: "bad request helper", err: apperrors.NewBadRequestError("rating must be 1-5"), status: http.StatusBadRequest, code: dto.ErrorCodeValidationFailed},
		{name: "forbidden helper", err: apperrors.NewForbiddenError("not yours"), status: http.StatusForbidden, code: dto.ErrorCodeForbidden},
		{name: "bad upload", err: fmt.Errorf("%w: unsupported image type text/plain", apperrors.ErrInvalidFile), status: http.StatusBadRequest, code: dto.ErrorCodeResourceInvalid},
		{name: "check-in window", err: apperrors.ErrCheckInWindowClosed, status: http.StatusBadRequest, code: dto.ErrorCodeCheckInWindow},
		{name: "delivery", err: fmt.Errorf("%w: smtp down", apperrors.ErrDeliveryFailed), status: http.StatusBadGateway, code: dto.ErrorCodeExternalServiceError},
		{name: "unknown", err: fmt.Errorf("pq: connection reset"), status: http.StatusInternalServerError, code: dto.ErrorCodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			detail := decodeError(t, w)
			assert.Equal(t, tt.code, detail.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, detail.Message, "pq:")
			}
		})
	}
}

type contactBody struct {
	Email string `json:"email" binding:"required,email"`
}

func TestValidateRequest(t *testing.T) {
	r := gin.New()
	r.POST("/contact", ValidateRequest[contactBody](), func(c *gin.Context) {
		body, ok := ValidatedBody[contactBody](c)
		require.True(t, ok)
		c.String(http.StatusOK, body.Email)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(`{"email":"x@uni.edu"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "x@uni.edu", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(`{"email":"nope"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, decodeError(t, w).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(TierContact, 2, time.Hour)
	r := gin.New()
	r.POST("/contact", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusCreated, send("10.0.0.1").Code)

	w := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrorCodeTooManyRequests, decodeError(t, w).Code)

	// other clients have their own budget
	assert.Equal(t, http.StatusCreated, send("10.0.0.2").Code)

	// idle visitors are swept
	rl.now = func() time.Time { return time.Now().Add(2 * visitorTTL) }
	rl.sweep()
	assert.Empty(t, rl.visitors)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(TierPublic, 0, time.Minute)
	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()), Metrics())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

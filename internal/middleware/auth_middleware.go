package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/auth"
)

// Context keys set by JWTAuth and OptionalAuth
const (
	ContextUserID   = "userID"
	ContextEmail    = "email"
	ContextUserType = "userType"
)

// UserLookup is the part of the user repository the middleware needs
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	users      UserLookup
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

// tokenFromRequest finds the access token in the Authorization header or, for
// Swagger UI and websocket clients, in the query string
func tokenFromRequest(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		for _, key := range []string{"authorization", "Authorization", "token"} {
			if v := c.Query(key); v != "" {
				authHeader = v
				break
			}
		}
	}
	if authHeader == "" {
		return "", false
	}

	// accepts "Bearer <jwt>", a raw jwt, and either one wrapped in quotes
	token, err := auth.ExtractBearerToken(authHeader)
	if err != nil {
		return "", false
	}
	return token, true
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextUserType, claims.UserType)
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, present := c.Get(ContextUserID); present {
			c.Next()
			return
		}

		tokenString, ok := tokenFromRequest(c)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header missing or malformed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Token has expired"
			} else if errors.Is(err, apperrors.ErrInvalidFormat) {
				errorDetails = "Invalid token format"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed").WithDetails(errorDetails)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller's identity when a valid token is present and
// otherwise lets the request through anonymously
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := tokenFromRequest(c); ok {
			if claims, err := m.jwtService.ValidateAndExtractClaims(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// EmailVerificationRequired rejects inactive accounts and accounts whose email is not confirmed.
// It must run after JWTAuth.
func (m *AuthMiddleware) EmailVerificationRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("User information not found")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
					WithDetails("Account no longer exists")
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
				return
			}
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
				WithDetails("Failed to check email verification status")
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
			return
		}

		if !user.IsActive {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeAccountDisabled, "Account is disabled")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}
		if !user.EmailConfirmed {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeEmailNotVerified, "Email not verified").
				WithDetails("Please verify your email address before accessing this resource")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// RoleRequired middleware to check if user has required role
func (m *AuthMiddleware) RoleRequired(requiredRole models.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextUserType)
		if !exists {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("User role not found")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		roleStr, ok := role.(string)
		if !ok || roleStr != string(requiredRole) {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// GetUserID returns the authenticated caller's id
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// IsAdmin reports whether the authenticated caller is an administrator
func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextUserType) == string(models.UserTypeAdmin)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
)

func newTestJWT() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "unievents.test",
	})
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := newTestJWT()
	user := &models.User{ID: 7, Email: "jane@uni.edu", UserType: models.UserTypeAdmin}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.Equal(t, 86400, pair.RefreshExpiresIn)

	claims, err := svc.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "jane@uni.edu", claims.Email)
	assert.Equal(t, "Admin", claims.UserType)
}

func TestJWT_Expired(t *testing.T) {
	svc := newTestJWT()
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GenerateTokenPair(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestJWT_WrongSecret(t *testing.T) {
	pair, err := newTestJWT().GenerateTokenPair(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "unievents.test"})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer aaa.bbb.ccc")
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", tok)

	tok, err = ExtractBearerToken(`"aaa.bbb.ccc"`)
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", tok)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)

	// the scheme marks a token even when it is malformed; validation rejects it later
	tok, err = ExtractBearerToken("Bearer not-a-jwt")
	require.NoError(t, err)
	assert.Equal(t, "not-a-jwt", tok)

	_, err = ExtractBearerToken("Bearer   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)

	_, err = ExtractBearerToken("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "Secret123"))
	assert.False(t, CheckPassword(hash, "secret123"))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("abcdefg1"))
	assert.ErrorIs(t, ValidatePasswordStrength("a1"), apperrors.ErrInvalidPassword)
	assert.ErrorIs(t, ValidatePasswordStrength("abcdefgh"), apperrors.ErrInvalidPassword)
	assert.ErrorIs(t, ValidatePasswordStrength("12345678"), apperrors.ErrInvalidPassword)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/auth"
	"github.com/yigit/unievents/internal/pkg/sms"
)

const testPassword = "campus2025"

func (e *testEnv) authService(smsSender *fakeSMS) *authServiceImpl {
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "unievents-test",
	})
	var sender sms.Sender
	if smsSender != nil {
		sender = smsSender
	}
	s := NewAuthService(e.users, e.tokens, e.otp, e.mailer, sender, jwtService, zerolog.Nop()).(*authServiceImpl)
	s.now = e.clock
	return s
}

func (e *testEnv) userWithPassword(t *testing.T, email string, twoFactor bool) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	return e.db.addUser(&models.User{
		Email:            email,
		PasswordHash:     hash,
		FirstName:        "Ada",
		LastName:         "Lovelace",
		EmailConfirmed:   true,
		TwoFactorEnabled: twoFactor,
		IsActive:         true,
	})
}

func TestRegisterAndVerifyEmail(t *testing.T) {
	env := newTestEnv()
	svc := env.authService(nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:     "  New.Student@Uni.edu ",
		Password:  testPassword,
		FirstName: "New",
		LastName:  "Student",
	})
	require.NoError(t, err)
	assert.True(t, resp.RequiresEmailVerification)
	assert.Equal(t, "new.student@uni.edu", resp.Email)

	code := env.mailer.lastCode("verify")
	require.Len(t, code, OTPLength)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "new.student@uni.edu", Password: testPassword})
	assert.ErrorIs(t, err, apperrors.ErrEmailNotVerified)

	// login re-sent the code; the latest one wins
	code = env.mailer.lastCode("verify")
	authResp, err := svc.VerifyEmail(ctx, &dto.EmailCodeRequest{Email: "NEW.student@uni.edu", Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, authResp.Token.AccessToken)
	assert.True(t, authResp.User.EmailConfirmed)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Email: "new.student@uni.edu", Password: testPassword, FirstName: "x", LastName: "y"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestLogin_Checks(t *testing.T) {
	env := newTestEnv()
	svc := env.authService(nil)
	ctx := context.Background()
	user := env.userWithPassword(t, "ada@uni.edu", false)

	_, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@uni.edu", Password: "wrong-pass1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@uni.edu", Password: testPassword})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "ADA@uni.edu", Password: testPassword})
	require.NoError(t, err)
	assert.False(t, resp.RequiresTwoFactor)
	require.NotNil(t, resp.Token)
	assert.NotEmpty(t, resp.Token.RefreshToken)

	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, env.now, *stored.LastLoginAt)

	env.db.users[user.ID].IsActive = false
	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@uni.edu", Password: testPassword})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestLogin_TwoFactor(t *testing.T) {
	env := newTestEnv()
	texts := &fakeSMS{enabled: true}
	svc := env.authService(texts)
	ctx := context.Background()
	user := env.userWithPassword(t, "ada@uni.edu", true)
	phone := "+905551112233"
	env.db.users[user.ID].Phone = &phone

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@uni.edu", Password: testPassword})
	require.NoError(t, err)
	assert.True(t, resp.RequiresTwoFactor)
	assert.Nil(t, resp.Token)
	assert.Equal(t, []string{phone}, texts.sent)
	code := env.mailer.lastCode("2fa")
	require.Len(t, texts.bodies, 1)
	assert.Contains(t, texts.bodies[0], code)
	// the test environment issues codes valid for one minute
	assert.Contains(t, texts.bodies[0], "It expires in 1 minute.")

	_, err = svc.VerifyTwoFactor(ctx, &dto.EmailCodeRequest{Email: "ada@uni.edu", Code: "000000x"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)

	authResp, err := svc.VerifyTwoFactor(ctx, &dto.EmailCodeRequest{Email: "ada@uni.edu", Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, authResp.Token.AccessToken)

	// codes are single use
	_, err = svc.VerifyTwoFactor(ctx, &dto.EmailCodeRequest{Email: "ada@uni.edu", Code: code})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)
}

func TestResendTwoFactor_NeedsPendingChallenge(t *testing.T) {
	env := newTestEnv()
	svc := env.authService(nil)
	ctx := context.Background()
	env.userWithPassword(t, "ada@uni.edu", true)

	assert.ErrorIs(t, svc.ResendTwoFactor(ctx, "ada@uni.edu"), apperrors.ErrNoPendingChallenge)

	_, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@uni.edu", Password: testPassword})
	require.NoError(t, err)
	require.NoError(t, svc.ResendTwoFactor(ctx, "ada@uni.edu"))
	assert.Equal(t, 2, env.mailer.count("2fa"))
}

func TestLogin_TwoFactorDeliveryFailure(t *testing.T) {
	env := newTestEnv()
	svc := env.authService(nil)
	user := env.userWithPassword(t, "ada@uni.edu", true)
	env.mailer.err = errMailDown

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "ada@uni.edu", Password: testPassword})
	assert.ErrorIs(t, err, apperrors.ErrDeliveryFailed)
	assert.False(t, env.otp.Pending(OTPTwoFactor, user.ID))
}

func TestRefreshToken_RotatesAndRevokes(t *testing.T) {
	env := newTestEnv()
	svc := env.authService(nil)
	ctx := context.Background()
	user := env.userWithPassword(t, "ada@uni.edu", false)

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@uni.edu", Password: testPassword})
	require.NoError(t, err)
	old := login.Token.RefreshToken

	refreshed, err := svc.RefreshToken(ctx, old)
	require.NoError(t, err)
	assert.NotEqual(t, old, refreshed.Token.RefreshToken)

	_, err = svc.RefreshToken(ctx, old)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	env.db.users[user.ID].IsActive = false
	_, err = svc.RefreshToken(ctx, refreshed.Token.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
	assert.Zero(t, env.tokens.activeCount(user.ID))
}

func TestForgotAndResetPassword(t *testing.T) {
	env := newTestEnv()
	svc := env.authService(nil)
	ctx := context.Background()
	user := env.userWithPassword(t, "ada@uni.edu", false)

	require.NoError(t, svc.ForgotPassword(ctx, "unknown@uni.edu"))
	assert.Zero(t, env.mailer.count("reset"))

	_, err := svc.Login(ctx, &dto.LoginRequest{Email: "ada@uni.edu", Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, 1, env.tokens.activeCount(user.ID))

	require.NoError(t, svc.ForgotPassword(ctx, "ada@uni.edu"))
	code := env.mailer.lastCode("reset")

	err = svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "ada@uni.edu", Code: code, NewPassword: "short"})
	assert.Error(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "ada@uni.edu", Code: wrong, NewPassword: "newpass123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidOTP)

	require.NoError(t, svc.ResetPassword(ctx, &dto.ResetPasswordRequest{Email: "ada@uni.edu", Code: code, NewPassword: "newpass123"}))
	assert.Zero(t, env.tokens.activeCount(user.ID))

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "ada@uni.edu", Password: "newpass123"})
	assert.NoError(t, err)
}

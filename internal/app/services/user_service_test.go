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
)

func (e *testEnv) userService() UserService {
	return NewUserService(e.users, e.tokens, e.otp, e.mailer, e.cache, zerolog.Nop())
}

func TestPasswordChange_ParksHashUntilConfirmed(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()
	user := env.userWithPassword(t, "ada@uni.edu", false)
	require.NoError(t, env.tokens.CreateToken(ctx, "rt-1", user.ID, env.now.Add(24*time.Hour)))

	err := svc.StartPasswordChange(ctx, user.ID, &dto.ChangePasswordRequest{CurrentPassword: "nope1234", NewPassword: "fresh2025"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	assert.ErrorIs(t, svc.ConfirmPasswordChange(ctx, user.ID, "123456"), apperrors.ErrNoPendingChallenge)

	require.NoError(t, svc.StartPasswordChange(ctx, user.ID, &dto.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "fresh2025"}))

	// nothing changes before the code is confirmed
	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, testPassword))

	code := env.mailer.lastCode("change")
	require.NoError(t, svc.ConfirmPasswordChange(ctx, user.ID, code))

	stored, err = env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "fresh2025"))
	assert.Zero(t, env.tokens.activeCount(user.ID))

	assert.ErrorIs(t, svc.ConfirmPasswordChange(ctx, user.ID, code), apperrors.ErrNoPendingChallenge)
}

func TestPasswordChange_DeliveryFailureDropsChallenge(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	user := env.userWithPassword(t, "ada@uni.edu", false)
	env.mailer.err = errMailDown

	err := svc.StartPasswordChange(context.Background(), user.ID, &dto.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "fresh2025"})
	assert.ErrorIs(t, err, apperrors.ErrDeliveryFailed)
	assert.False(t, env.otp.Pending(OTPPasswordChange, user.ID))
	_, parked := env.cache.Get(pendingPasswordKey(user.ID))
	assert.False(t, parked)
}

func TestTwoFactorToggle(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()
	user := env.userWithPassword(t, "ada@uni.edu", false)

	assert.ErrorIs(t, svc.EnableTwoFactor(ctx, user.ID, "wrong-pass1"), apperrors.ErrInvalidPassword)
	assert.ErrorIs(t, svc.DisableTwoFactor(ctx, user.ID, testPassword), apperrors.ErrTwoFactorNotActive)

	require.NoError(t, svc.EnableTwoFactor(ctx, user.ID, testPassword))
	assert.ErrorIs(t, svc.EnableTwoFactor(ctx, user.ID, testPassword), apperrors.ErrTwoFactorAlreadyActive)

	require.NoError(t, svc.DisableTwoFactor(ctx, user.ID, testPassword))
	stored, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.TwoFactorEnabled)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()
	admin := env.admin("admin@uni.edu")

	created, err := svc.CreateUser(ctx, &dto.CreateUserRequest{
		Email:     "Staff@Uni.edu",
		Password:  "welcome2025",
		FirstName: "Grace",
		LastName:  "Hopper",
		UserType:  models.UserTypeStudent,
	})
	require.NoError(t, err)
	assert.True(t, created.EmailConfirmed)
	assert.Equal(t, "staff@uni.edu", created.Email)

	promoted, err := svc.ChangeRole(ctx, created.ID, models.UserTypeAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeAdmin, promoted.UserType)

	_, err = svc.ChangeRole(ctx, created.ID, models.UserType("Root"))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	list, err := svc.ListUsers(ctx, models.UserFilter{UserType: models.UserTypeAdmin}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, list.Users, 2)
	assert.Equal(t, int64(2), list.Pagination.TotalItems)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, admin.ID), apperrors.ErrCannotDeleteSelf)
	require.NoError(t, svc.DeleteUser(ctx, admin.ID, created.ID))
	_, err = svc.GetUser(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUpdateUser_DeactivationRevokesTokens(t *testing.T) {
	env := newTestEnv()
	svc := env.userService()
	ctx := context.Background()
	user := env.student("s@uni.edu")
	require.NoError(t, env.tokens.CreateToken(ctx, "rt-1", user.ID, env.now.Add(24*time.Hour)))

	resp, err := svc.UpdateUser(ctx, user.ID, &dto.UpdateUserRequest{
		Email:     "s@uni.edu",
		FirstName: "Test",
		LastName:  "Student",
		IsActive:  false,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsActive)
	assert.Zero(t, env.tokens.activeCount(user.ID))
}

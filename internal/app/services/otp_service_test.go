package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/pkg/cache"
)

func TestOTP_SingleUse(t *testing.T) {
	otp := NewOTPService(cache.New(time.Hour, time.Minute), time.Minute, zerolog.Nop())

	code, err := otp.Generate(OTPEmailVerify, 7)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)
	assert.True(t, otp.Pending(OTPEmailVerify, 7))

	assert.True(t, otp.Verify(OTPEmailVerify, 7, code))
	assert.False(t, otp.Verify(OTPEmailVerify, 7, code))
	assert.False(t, otp.Pending(OTPEmailVerify, 7))
}

func TestOTP_PurposesAndUsersAreIsolated(t *testing.T) {
	otp := NewOTPService(cache.New(time.Hour, time.Minute), time.Minute, zerolog.Nop())

	code, err := otp.Generate(OTPTwoFactor, 1)
	require.NoError(t, err)

	assert.False(t, otp.Verify(OTPPasswordReset, 1, code))
	assert.False(t, otp.Verify(OTPTwoFactor, 2, code))
	assert.True(t, otp.Verify(OTPTwoFactor, 1, code))
}

func TestOTP_RejectsMalformedAndReplaced(t *testing.T) {
	otp := NewOTPService(cache.New(time.Hour, time.Minute), time.Minute, zerolog.Nop())

	first, err := otp.Generate(OTPPasswordChange, 3)
	require.NoError(t, err)
	assert.False(t, otp.Verify(OTPPasswordChange, 3, first[:5]))
	assert.False(t, otp.Verify(OTPPasswordChange, 3, first+"0"))

	second, err := otp.Generate(OTPPasswordChange, 3)
	require.NoError(t, err)
	if first != second {
		assert.False(t, otp.Verify(OTPPasswordChange, 3, first))
	}
	assert.True(t, otp.Verify(OTPPasswordChange, 3, second))
}

func TestOTP_InvalidateAndDefaultTTL(t *testing.T) {
	otp := NewOTPService(cache.New(time.Hour, time.Minute), 0, zerolog.Nop())
	assert.Equal(t, DefaultOTPTTL, otp.TTL())

	code, err := otp.Generate(OTPTwoFactor, 9)
	require.NoError(t, err)
	otp.Invalidate(OTPTwoFactor, 9)
	assert.False(t, otp.Verify(OTPTwoFactor, 9, code))
}

func TestOTP_ConcurrentVerifySucceedsOnce(t *testing.T) {
	otp := NewOTPService(cache.New(time.Hour, time.Minute), time.Minute, zerolog.Nop())
	code, err := otp.Generate(OTPTwoFactor, 11)
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	var accepted atomic.Int32
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if otp.Verify(OTPTwoFactor, 11, code) {
				accepted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}

func TestExpiryText(t *testing.T) {
	assert.Equal(t, "10 minutes", ExpiryText(10*time.Minute))
	assert.Equal(t, "1 minute", ExpiryText(time.Minute))
	assert.Equal(t, "90 minutes", ExpiryText(90*time.Minute))
	assert.Equal(t, "45s", ExpiryText(45*time.Second))
}

package services

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/pkg/cache"
	"github.com/yigit/unievents/internal/pkg/metrics"
)

// OTPLength is the number of digits in every one-time code
const OTPLength = 6

// DefaultOTPTTL is how long a code stays valid
const DefaultOTPTTL = 10 * time.Minute

// OTPPurpose prefixes the cache key of a code so flows never accept each other's codes
type OTPPurpose string

const (
	OTPTwoFactor      OTPPurpose = "2FA_OTP_"
	OTPEmailVerify    OTPPurpose = "EMAIL_VERIFY_"
	OTPPasswordReset  OTPPurpose = "PASSWORD_RESET_"
	OTPPasswordChange OTPPurpose = "PASSWORD_CHANGE_VERIFY_"
)

// Key returns the cache key holding the user's code for this purpose
func (p OTPPurpose) Key(userID int64) string {
	return fmt.Sprintf("%s%d", p, userID)
}

func (p OTPPurpose) label() string {
	switch p {
	case OTPTwoFactor:
		return "two_factor"
	case OTPEmailVerify:
		return "email_verify"
	case OTPPasswordReset:
		return "password_reset"
	case OTPPasswordChange:
		return "password_change"
	default:
		return "unknown"
	}
}

// OTPService issues and checks short-lived numeric codes
type OTPService interface {
	Generate(purpose OTPPurpose, userID int64) (string, error)
	Verify(purpose OTPPurpose, userID int64, code string) bool
	Pending(purpose OTPPurpose, userID int64) bool
	Invalidate(purpose OTPPurpose, userID int64)
	TTL() time.Duration
}

type otpServiceImpl struct {
	store  *cache.Store
	ttl    time.Duration
	logger zerolog.Logger
	// mu makes compare-and-consume atomic
	mu sync.Mutex
}

// NewOTPService creates an OTPService backed by store
func NewOTPService(store *cache.Store, ttl time.Duration, logger zerolog.Logger) OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &otpServiceImpl{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Generate stores a fresh code for the user, replacing any earlier one
func (s *otpServiceImpl) Generate(purpose OTPPurpose, userID int64) (string, error) {
	code, err := randomDigits(OTPLength)
	if err != nil {
		s.logger.Error().Err(err).Str("purpose", purpose.label()).Msg("Failed to generate one-time code")
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	s.mu.Lock()
	s.store.Set(purpose.Key(userID), code, s.ttl)
	s.mu.Unlock()
	s.logger.Debug().Int64("userID", userID).Str("purpose", purpose.label()).Msg("One-time code issued")
	return code, nil
}

// Verify checks code against the stored one and consumes it on success
func (s *otpServiceImpl) Verify(purpose OTPPurpose, userID int64, code string) bool {
	result := "invalid"
	defer func() {
		metrics.OTPVerifications.WithLabelValues(purpose.label(), result).Inc()
	}()

	if len(code) != OTPLength {
		return false
	}

	key := purpose.Key(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.store.Get(key)
	if !ok {
		result = "missing"
		return false
	}
	expected, ok := stored.(string)
	if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(code)) != 1 {
		return false
	}

	s.store.Delete(key)
	result = "ok"
	return true
}

// Pending reports whether an unexpired code exists
func (s *otpServiceImpl) Pending(purpose OTPPurpose, userID int64) bool {
	_, ok := s.store.Get(purpose.Key(userID))
	return ok
}

// Invalidate drops the stored code
func (s *otpServiceImpl) Invalidate(purpose OTPPurpose, userID int64) {
	s.store.Delete(purpose.Key(userID))
}

// TTL returns how long issued codes stay valid
func (s *otpServiceImpl) TTL() time.Duration {
	return s.ttl
}

// ExpiryText renders a code lifetime for message bodies, e.g. "10 minutes"
func ExpiryText(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("%d minutes", m)
		}
		return "1 minute"
	}
	return d.String()
}

// randomDigits returns n zero-padded decimal digits from crypto/rand
func randomDigits(n int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

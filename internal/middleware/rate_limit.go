package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

// Rate limit tiers
const (
	TierAuth    = "auth"
	TierContact = "contact"
	TierPublic  = "public"
)

// visitorTTL is how long an idle client's limiter is kept
const visitorTTL = time.Hour

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket that allows
// `requests` per `per` window
type RateLimiter struct {
	tier     string
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter creates a limiter for the tier. A non-positive request count
// disables limiting.
func NewRateLimiter(tier string, requests int, per time.Duration) *RateLimiter {
	rl := &RateLimiter{
		tier:     tier,
		burst:    requests,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
	if requests > 0 {
		rl.limit = rate.Every(per / time.Duration(requests))
	}
	return rl
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Middleware rejects clients over their budget with 429 and a Retry-After header
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.burst <= 0 {
			c.Next()
			return
		}

		limiter := rl.get(c.ClientIP())
		now := rl.now()
		reservation := limiter.ReserveN(now, 1)
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			metrics.RateLimited.WithLabelValues(rl.tier).Inc()

			seconds := int(delay.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeTooManyRequests, "Too many requests").
				WithDetails("Please try again later")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// Cleanup drops idle visitors every interval until ctx is done
func (rl *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-visitorTTL)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

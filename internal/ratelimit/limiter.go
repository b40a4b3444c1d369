package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"authrelay/pkg/logger"

	"github.com/gin-gonic/gin"
)

const window = time.Minute

// WindowStore maintains fixed-window counters with expiry.
type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter enforces a per-key request budget over a one-minute window.
type Limiter struct {
	store     WindowStore
	perMinute int
}

// NewLimiter builds a limiter; perMinute <= 0 disables it.
func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	return &Limiter{store: store, perMinute: perMinute}
}

// Allow reports whether the key is within budget, and if not, how long
// until the window resets.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil || l.perMinute == 0 {
		return true, 0, nil
	}
	if l.store == nil {
		return false, 0, fmt.Errorf("ratelimit: store is nil")
	}
	count, ttl, err := l.store.IncrementWindow(ctx, "ratelimit:proxy:"+key, window)
	if err != nil {
		return false, 0, err
	}
	if count > int64(l.perMinute) {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Middleware rejects over-budget proxy calls with 429. Store failures
// fail open: a broken redis must not take sign-in down with it.
func Middleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.FromGin(c).Warn("rate limit check failed", "err", err)
			c.Next()
			return
		}
		if !ok {
			secs := int64(retryAfter / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

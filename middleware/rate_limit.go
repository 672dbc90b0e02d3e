package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTimeout = 5 * time.Minute
	limiterMaxKeys     = 50_000
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c echo.Context) string

// ByRealIP buckets requests by client address.
func ByRealIP(c echo.Context) string {
	return c.RealIP()
}

// RateLimiter is a keyed token-bucket limiter. Buckets idle for five
// minutes are forgotten, and at most limiterMaxKeys are tracked.
type RateLimiter struct {
	buckets    *expirable.LRU[string, *rate.Limiter]
	limit      rate.Limit
	burst      int
	key        KeyFunc
	retryAfter string
}

// NewRateLimiter allows r requests per second with the given burst per key.
// A nil key buckets by client IP.
func NewRateLimiter(r rate.Limit, burst int, key KeyFunc) *RateLimiter {
	return newRateLimiter(r, burst, key, limiterIdleTimeout)
}

func newRateLimiter(r rate.Limit, burst int, key KeyFunc, idle time.Duration) *RateLimiter {
	if key == nil {
		key = ByRealIP
	}
	wait := 1.0
	if r > 0 {
		wait = math.Max(1, math.Ceil(1/float64(r)))
	}
	return &RateLimiter{
		buckets:    expirable.NewLRU[string, *rate.Limiter](limiterMaxKeys, nil, idle),
		limit:      r,
		burst:      burst,
		key:        key,
		retryAfter: strconv.Itoa(int(wait)),
	}
}

// bucket returns the limiter for key, creating it on first use. Every use
// re-adds the bucket so its idle clock restarts.
func (rl *RateLimiter) bucket(key string) *rate.Limiter {
	l, ok := rl.buckets.Get(key)
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
	}
	rl.buckets.Add(key, l)
	return l
}

func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl.bucket(rl.key(c)).Allow() {
				return next(c)
			}
			c.Response().Header().Set("Retry-After", rl.retryAfter)
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
	}
}

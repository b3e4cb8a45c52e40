// Package ratelimit provides keyed request rate limiting for the web layer.
// Login attempts are limited per client IP and submitted username, which
// slows down both credential stuffing from one address and spraying of a
// single account from many addresses.
package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Config defines the rate limiting parameters.
type Config struct {
	// Requests is the number of requests allowed per Window.
	Requests int
	// Window is the time window for rate limiting.
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit.
	Burst int
}

// LoginLimit is the default profile for authentication endpoints.
var LoginLimit = Config{
	Requests: 5,
	Window:   time.Minute,
	Burst:    5,
}

// KeyExtractor extracts a grouping key for rate limiting from the request.
type KeyExtractor func(*fiber.Ctx) string

// IPKey groups requests by client IP.
func IPKey(c *fiber.Ctx) string {
	return c.IP()
}

// IPAndFormFieldKey groups requests by client IP plus a form field value,
// e.g. the submitted username on a login form.
func IPAndFormFieldKey(field string) KeyExtractor {
	return func(c *fiber.Ctx) string {
		v := c.FormValue(field)
		if v == "" {
			return c.IP()
		}

		return c.IP() + ":" + v
	}
}

// limiter manages one token bucket per key.
type limiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	mu          sync.Mutex
	lastCleanup time.Time
}

func (l *limiter) get(key string) *rate.Limiter {
	if lim, ok := l.limiters.Load(key); ok {
		return lim.(*rate.Limiter)
	}

	lim := rate.NewLimiter(l.rate, l.burst)
	actual, _ := l.limiters.LoadOrStore(key, lim)

	l.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops buckets that are full again, i.e. keys that have been
// idle long enough to refill completely. Runs at most every five minutes.
func (l *limiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) < 5*time.Minute {
		return
	}

	l.lastCleanup = time.Now()

	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}

		return true
	})
}

// New creates a Fiber rate limiting middleware with the given configuration.
// The keyExtractor determines how requests are grouped.
func New(cfg Config, keyExtractor KeyExtractor) fiber.Handler {
	l := &limiter{
		rate:        rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(c *fiber.Ctx) error {
		key := keyExtractor(c)
		if key == "" {
			return c.Next()
		}

		lim := l.get(key)
		if lim.Allow() {
			return c.Next()
		}

		reservation := lim.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()

		retryAfter := int(delay.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}

		c.Set("Retry-After", strconv.Itoa(retryAfter))

		log.Warn().Str("key", key).Str("path", c.Path()).Int("retry_after", retryAfter).
			Msg("rate limit exceeded")

		return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests. Please try again later.")
	}
}

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/medibook/booking-backend/pkg/config"
)

// LoginRateLimiter throttles login attempts per client and locks a client
// out for a while once it exceeds its budget
type LoginRateLimiter struct {
	config config.RateLimitConfig
	logger *zap.Logger

	mu       sync.Mutex
	limiters map[string]*loginLimiter

	cleanupInterval time.Duration
	lastCleanup     time.Time
}

// loginLimiter tracks rate limiting state for a single identifier
type loginLimiter struct {
	limiter    *rate.Limiter
	lastSeen   time.Time
	lockoutEnd time.Time
}

// NewLoginRateLimiter creates a new rate limiter for the login endpoint
func NewLoginRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *LoginRateLimiter {
	cfg.SetDefaults()
	return &LoginRateLimiter{
		config:          cfg,
		logger:          logger.Named("login-ratelimit"),
		limiters:        make(map[string]*loginLimiter),
		cleanupInterval: 10 * time.Minute,
		lastCleanup:     time.Now(),
	}
}

// getLimiter returns the limiter for identifier, creating it if needed. Caller holds mu.
func (r *LoginRateLimiter) getLimiter(identifier string, now time.Time) *loginLimiter {
	if now.Sub(r.lastCleanup) > r.cleanupInterval {
		r.cleanup(now)
	}

	limiter, exists := r.limiters[identifier]
	if exists {
		limiter.lastSeen = now
		return limiter
	}

	limiter = &loginLimiter{
		limiter:  rate.NewLimiter(rate.Limit(float64(r.config.RequestsPerMinute)/60.0), r.config.Burst),
		lastSeen: now,
	}
	r.limiters[identifier] = limiter
	return limiter
}

// cleanup removes limiters that haven't been used recently
func (r *LoginRateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-30 * time.Minute)
	for key, limiter := range r.limiters {
		if limiter.lastSeen.Before(cutoff) && now.After(limiter.lockoutEnd) {
			delete(r.limiters, key)
		}
	}
	r.lastCleanup = now
}

// Allow reports whether identifier may attempt a login now.
// The returned duration is how long a rejected caller should wait.
func (r *LoginRateLimiter) Allow(identifier string) (bool, time.Duration) {
	if !r.config.Enabled {
		return true, 0
	}

	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter := r.getLimiter(identifier, now)
	if now.Before(limiter.lockoutEnd) {
		return false, limiter.lockoutEnd.Sub(now)
	}

	if !limiter.limiter.AllowN(now, 1) {
		lockout := time.Duration(r.config.LockoutSeconds) * time.Second
		limiter.lockoutEnd = now.Add(lockout)

		r.logger.Warn("Login rate limit exceeded, applying lockout",
			zap.String("identifier", identifier),
			zap.Duration("lockout_duration", lockout),
		)
		return false, lockout
	}

	return true, 0
}

// RecordFailure makes a failed attempt cost an extra token
func (r *LoginRateLimiter) RecordFailure(identifier string) {
	if !r.config.Enabled {
		return
	}

	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.getLimiter(identifier, now).limiter.AllowN(now, 1)
}

// ClientIdentifier identifies a login client by its IP address
func ClientIdentifier(c *gin.Context) string {
	return c.ClientIP()
}

// LoginRateLimitMiddleware rejects login attempts from clients over their budget with 429
func LoginRateLimitMiddleware(rl *LoginRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := ClientIdentifier(c)
		if identifier == "" {
			identifier = "_anonymous"
		}

		ok, wait := rl.Allow(identifier)
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			abortJSON(c, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			return
		}

		c.Next()
	}
}

package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/study-notes-bot/utils/cache"
)

// BruteForceProtection locks out clients that keep presenting a wrong admin token
type BruteForceProtection struct {
	redisCache *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{
		redisCache: redisCache,
	}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

// IsLocked reports whether the caller's IP is locked out and the Retry-After value to send.
// If Redis is down the request is let through.
func (b *BruteForceProtection) IsLocked(c *fiber.Ctx) (bool, string) {
	ctx := c.UserContext()
	key := lockKey(c.IP())

	locked, err := b.redisCache.Exists(ctx, key)
	if err != nil || !locked {
		return false, ""
	}

	retryAfter := 60
	if ttl, err := b.redisCache.TTL(ctx, key); err == nil && ttl > 0 {
		retryAfter = int(ttl.Seconds())
	}
	return true, strconv.Itoa(retryAfter)
}

// RecordFailedAttempt records a failed attempt and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx) {
	ctx := c.UserContext()
	ip := c.IP()

	attempts, err := b.redisCache.Increment(ctx, attemptKey(ip))
	if err != nil {
		return
	}

	// Set expiry on attempts counter (15 minute window)
	if attempts == 1 {
		_ = b.redisCache.Expire(ctx, attemptKey(ip), 15*time.Minute)
	}

	var lockDuration time.Duration
	switch {
	case attempts >= 25:
		lockDuration = 24 * time.Hour
	case attempts >= 10:
		lockDuration = time.Hour
	case attempts >= 5:
		lockDuration = 2 * time.Minute
	default:
		return
	}

	_ = b.redisCache.Set(ctx, lockKey(ip), "locked", lockDuration)
}

// RecordSuccessfulAttempt clears failed attempts
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx) {
	_ = b.redisCache.Delete(c.UserContext(), attemptKey(c.IP()), lockKey(c.IP()))
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"patisserie-backend/store"

	"github.com/gin-gonic/gin"
)

type rateLimitEntry struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter is a token-bucket limiter keyed by client IP. Bucket
// state lives in an injected store.Store so it can be shared across
// instances later; stale buckets expire via the store's TTL sweep.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    store.Store
	maxTokens  float64
	refillRate float64 // tokens per second
	entryTTL   time.Duration
}

// NewRateLimiter creates a rate limiter.
// maxRequests is the burst size, perDuration is the window over which
// maxRequests are allowed.
func NewRateLimiter(maxRequests int, perDuration time.Duration, buckets store.Store) *RateLimiter {
	return &RateLimiter{
		buckets:    buckets,
		maxTokens:  float64(maxRequests),
		refillRate: float64(maxRequests) / perDuration.Seconds(),
		entryTTL:   10 * time.Minute,
	}
}

func (rl *RateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	key := "ratelimit:" + clientIP

	raw, err := rl.buckets.Get(key)
	if err != nil {
		rl.buckets.Set(key, &rateLimitEntry{tokens: rl.maxTokens - 1, lastCheck: now}, rl.entryTTL)
		return true
	}

	entry, ok := raw.(*rateLimitEntry)
	if !ok {
		rl.buckets.Set(key, &rateLimitEntry{tokens: rl.maxTokens - 1, lastCheck: now}, rl.entryTTL)
		return true
	}

	// Refill tokens based on elapsed time
	elapsed := now.Sub(entry.lastCheck).Seconds()
	entry.tokens += elapsed * rl.refillRate
	if entry.tokens > rl.maxTokens {
		entry.tokens = rl.maxTokens
	}
	entry.lastCheck = now

	allowed := entry.tokens >= 1
	if allowed {
		entry.tokens--
	}
	rl.buckets.Set(key, entry, rl.entryTTL)
	return allowed
}

// Middleware returns a gin middleware that rate limits requests.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			c.Abort()
			return
		}
		c.Next()
	}
}

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// RateLimitConfig sets token bucket limits in requests per minute.
// Zero disables the corresponding limit.
type RateLimitConfig struct {
	Global int
	PerIP  int
	Burst  int
}

// RateLimiter holds a global bucket and one bucket per client IP
type RateLimiter struct {
	config  RateLimitConfig
	global  *rate.Limiter
	clients *lru.Cache[string, *rate.Limiter]
}

// NewRateLimiter creates the buckets for config
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.Burst <= 0 {
		config.Burst = 1
	}
	// Only fails for a non-positive size
	clients, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	rl := &RateLimiter{config: config, clients: clients}
	if config.Global > 0 {
		rl.global = rate.NewLimiter(perMinute(config.Global), config.Burst)
	}
	return rl
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60)
}

func (rl *RateLimiter) client(ip string) *rate.Limiter {
	if rl.config.PerIP <= 0 {
		return nil
	}
	if l, ok := rl.clients.Get(ip); ok {
		return l
	}
	// Concurrent first requests from one IP must share a bucket
	l := rate.NewLimiter(perMinute(rl.config.PerIP), rl.config.Burst)
	if prev, ok, _ := rl.clients.PeekOrAdd(ip, l); ok {
		return prev
	}
	return l
}

// Middleware rejects requests once either bucket is empty
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()

		if rl.global != nil && !rl.global.AllowN(now, 1) {
			reject(c, "GLOBAL_RATE_LIMIT_EXCEEDED", "Global rate limit exceeded", rl.config.Global, rl.global, now)
			return
		}

		if l := rl.client(c.ClientIP()); l != nil {
			if !l.AllowN(now, 1) {
				reject(c, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded", rl.config.PerIP, l, now)
				return
			}
			setRateLimitHeaders(c, rl.config.PerIP, l, now)
		}

		c.Next()
	}
}

// RateLimit creates a rate limiting middleware from config
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	return NewRateLimiter(config).Middleware()
}

func remaining(l *rate.Limiter, now time.Time) int {
	return int(math.Max(0, math.Floor(l.TokensAt(now))))
}

func retryAfter(l *rate.Limiter) time.Duration {
	if l.Limit() <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(l.Limit()))
}

func setRateLimitHeaders(c *gin.Context, limit int, l *rate.Limiter, now time.Time) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining(l, now)))
	c.Set("rate_limit", limit)
	c.Set("rate_remaining", remaining(l, now))
}

func reject(c *gin.Context, code, message string, limit int, l *rate.Limiter, now time.Time) {
	wait := retryAfter(l)
	setRateLimitHeaders(c, limit, l, now)
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"success": false,
		"error": gin.H{
			"code":        code,
			"message":     message,
			"limit":       limit,
			"retry_after": int(math.Ceil(wait.Seconds())),
		},
	})
}

package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter enforces a per-IP request budget. When a redis client is
// configured it uses a shared fixed window so every API instance counts
// against the same budget; without redis it falls back to an in-process
// token bucket.
type RateLimiter struct {
	perMinute int
	redis     *redis.Client
	logger    *zap.Logger

	mu    sync.Mutex
	state map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per client IP.
// redisClient may be nil.
func NewRateLimiter(perMinute int, redisClient *redis.Client, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		redis:     redisClient,
		logger:    logger,
		state:     make(map[string]*bucket),
	}
}

// Middleware returns the gin handler enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(c.Request.Context(), ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(ctx context.Context, key string) bool {
	if l.redis != nil {
		allowed, err := l.allowRedis(ctx, key)
		if err == nil {
			return allowed
		}
		l.logger.Warn("redis rate limit check failed, using local bucket", zap.Error(err))
	}
	return l.allowLocal(key)
}

// allowRedis counts requests in a one-minute fixed window shared across
// instances.
func (l *RateLimiter) allowRedis(ctx context.Context, key string) (bool, error) {
	window := time.Now().Unix() / 60
	redisKey := fmt.Sprintf("hourbank:ratelimit:%s:%d", key, window)

	count, err := l.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, redisKey, 2*time.Minute).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(l.perMinute), nil
}

func (l *RateLimiter) allowLocal(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		l.state[key] = &bucket{tokens: l.perMinute - 1, last: now}
		return true
	}

	refill := int(now.Sub(b.last).Minutes() * float64(l.perMinute))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.perMinute {
			b.tokens = l.perMinute
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

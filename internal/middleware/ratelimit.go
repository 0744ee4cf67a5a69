// ratelimit.go provides per-client rate limiting for the verification
// endpoints. Two interchangeable backends: an in-process sliding window for
// single-replica deployments, and a Redis-backed limiter for fleets.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/pfeak/codegate/internal/telemetry"
)

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Stop()
}

// SlidingWindowConfig tunes the in-memory limiter.
type SlidingWindowConfig struct {
	MaxAttempts     int
	Window          time.Duration
	CleanupInterval time.Duration
}

// DefaultSlidingWindowConfig matches the verification endpoint policy:
// 5 attempts per IP per 60 seconds.
func DefaultSlidingWindowConfig() SlidingWindowConfig {
	return SlidingWindowConfig{
		MaxAttempts:     5,
		Window:          60 * time.Second,
		CleanupInterval: 5 * time.Minute,
	}
}

// SlidingWindowLimiter is a process-local per-key sliding-window attempt
// counter guarded by one coarse mutex. Each Allow call prunes timestamps
// older than the window, checks the count, and records the attempt.
type SlidingWindowLimiter struct {
	config   SlidingWindowConfig
	mu       sync.Mutex
	attempts map[string][]time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSlidingWindowLimiter creates the limiter and starts its cleanup
// goroutine. Call Stop on shutdown.
func NewSlidingWindowLimiter(config SlidingWindowConfig) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		config:   config,
		attempts: make(map[string][]time.Time),
		stopCh:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *SlidingWindowLimiter) cleanup() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-l.config.Window)
			l.mu.Lock()
			for key, times := range l.attempts {
				if len(times) == 0 || !times[len(times)-1].After(cutoff) {
					delete(l.attempts, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

// Stop terminates the cleanup goroutine.
func (l *SlidingWindowLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Allow prunes expired attempts for key, rejects when the window is full,
// and otherwise records the attempt.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.config.Window)

	recent := l.attempts[key][:0]
	for _, t := range l.attempts[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.config.MaxAttempts {
		l.attempts[key] = recent
		return false, nil
	}

	l.attempts[key] = append(recent, now)
	return true, nil
}

// RedisLimiter enforces the same policy through redis_rate, so multiple
// replicas share one counter.
type RedisLimiter struct {
	limiter *redis_rate.Limiter
	client  *redis.Client
	limit   redis_rate.Limit
}

// NewRedisLimiter creates a Redis-backed limiter with maxAttempts per window.
func NewRedisLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		limiter: redis_rate.NewLimiter(client),
		client:  client,
		limit: redis_rate.Limit{
			Rate:   maxAttempts,
			Period: window,
			Burst:  maxAttempts,
		},
	}
}

// Allow consults the shared Redis counter for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := l.limiter.Allow(ctx, "ratelimit:verify:"+key, l.limit)
	if err != nil {
		return false, err
	}
	return res.Allowed > 0, nil
}

// Stop closes the Redis connection.
func (l *RedisLimiter) Stop() {
	_ = l.client.Close()
}

// RateLimitMiddleware limits verification attempts per client IP. Requests
// without a resolvable IP fail open, as does a limiter backend error: rate
// limiting protects against brute force, it must never take the verification
// path down with it.
func RateLimitMiddleware(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			c.Next()
			return
		}
		if !allowed {
			telemetry.RateLimitRejectionsTotal.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many verification attempts, retry later",
				"code":    "RATE_LIMITED",
			})
			return
		}

		c.Next()
	}
}

package middleware

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const RateLimitMessage = "Too many requests from this IP, please try again after an 15 minute window"

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Limit() int
}

// RedisLimiter is a fixed-window counter shared by every instance that
// points at the same Redis.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration, prefix string) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: max, window: window, prefix: prefix}
}

// INCR then set the expiry on the first hit of a window.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { count, ttl }
`)

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	vals, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{Allowed: true}, err
	}

	count, ttl := vals[0], vals[1]
	d := Decision{
		Allowed:   count <= int64(l.max),
		Remaining: max(l.max-int(count), 0),
	}
	if !d.Allowed && ttl > 0 {
		d.RetryAfter = time.Duration(ttl) * time.Millisecond
	}
	return d, nil
}

func (l *RedisLimiter) Limit() int { return l.max }

// MemoryLimiter is a fixed-window counter per key kept in process. Keys
// whose window has ended are dropped.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*counter
	max     int
	window  time.Duration
	now     func() time.Time
	swept   time.Time
}

type counter struct {
	count int
	start time.Time
}

func NewMemoryLimiter(max int, length time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*counter),
		max:     max,
		window:  length,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &counter{start: now}
		l.windows[key] = w
	}
	w.count++

	if w.count > l.max {
		return Decision{RetryAfter: w.start.Add(l.window).Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: l.max - w.count}, nil
}

func (l *MemoryLimiter) Limit() int { return l.max }

// Len reports how many keys are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
	l.swept = now
}

// RateLimit rejects requests from a client IP once the limiter denies it.
// Limiter errors let the request through and are logged at most once a
// minute.
func RateLimit(limiter Limiter, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	warn := &rate.Sometimes{Interval: time.Minute}
	return func(c *gin.Context) {
		key := c.ClientIP()

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			warn.Do(func() {
				logger.Warn("rate limiter unavailable", "key", key, "error", err)
			})
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.JSON(429, gin.H{"error": RateLimitMessage})
			c.Abort()
			return
		}

		c.Next()
	}
}

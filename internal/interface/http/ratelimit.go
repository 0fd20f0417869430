package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/tone-analyzer/internal/infra/config"
)

const visitorTTL = 5 * time.Minute

// rateLimitMiddleware caps Watson calls per client ip. Rejected requests get a
// Retry-After header; accepted ones report the remaining quota.
func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newIPRateLimiter(cfg, time.Now)
	limit := strconv.Itoa(cfg.RequestsPerMinute)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		decision := limiter.take(ip)
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.remaining))
		if decision.allowed {
			c.Next()
			return
		}
		retryAfter := int(math.Ceil(decision.retryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		logger.Warn("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path, "retry_after_s", retryAfter)
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

type rateDecision struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
}

// ipRateLimiter keeps one token bucket per client ip.
type ipRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perSecond float64
	burst     float64
	now       func() time.Time
	nextSweep time.Time
}

type bucket struct {
	tokens  float64
	updated time.Time
}

func newIPRateLimiter(cfg config.RateLimitConfig, now func() time.Time) *ipRateLimiter {
	burst := float64(cfg.Burst)
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{
		buckets:   make(map[string]*bucket),
		perSecond: float64(cfg.RequestsPerMinute) / 60,
		burst:     burst,
		now:       now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	return l.take(ip).allowed
}

func (l *ipRateLimiter) take(ip string) rateDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{tokens: l.burst, updated: now}
		l.buckets[ip] = b
	} else if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.burst, b.tokens+elapsed*l.perSecond)
		b.updated = now
	}

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / l.perSecond * float64(time.Second))
		return rateDecision{retryAfter: wait}
	}
	b.tokens--
	return rateDecision{allowed: true, remaining: int(b.tokens)}
}

// sweep drops idle buckets at most once per visitorTTL.
func (l *ipRateLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for ip, b := range l.buckets {
		if now.Sub(b.updated) > visitorTTL {
			delete(l.buckets, ip)
		}
	}
	l.nextSweep = now.Add(visitorTTL)
}

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/palette/internal/logging"
)

// RateLimitConfig configures the preview rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	Enabled           bool
}

// RateLimiter implements token bucket rate limiting
type RateLimiter struct {
	buckets     map[string]*TokenBucket
	bucketMutex sync.RWMutex
	config      *RateLimitConfig
	logger      logging.Logger
	cleaner     *time.Ticker
	stopCleaner chan struct{}
	stopOnce    sync.Once
}

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	tokens     int
	capacity   int
	refillRate int // tokens per minute
	lastRefill time.Time
	lastAccess time.Time
	mutex      sync.Mutex
}

// RateLimitResult represents the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetTime  time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig, logger logging.Logger) *RateLimiter {
	if config == nil {
		config = &RateLimitConfig{
			RequestsPerMinute: 600,
			BurstSize:         50,
			Enabled:           true,
		}
	}
	if logger == nil {
		logger = logging.Nop()
	}

	rl := &RateLimiter{
		buckets:     make(map[string]*TokenBucket),
		config:      config,
		logger:      logger,
		cleaner:     time.NewTicker(5 * time.Minute),
		stopCleaner: make(chan struct{}),
	}
	go rl.cleanupExpiredBuckets()

	return rl
}

// Check checks if a request is allowed for the given key (usually IP address)
func (rl *RateLimiter) Check(key string) RateLimitResult {
	if !rl.config.Enabled {
		return RateLimitResult{
			Allowed:   true,
			Remaining: rl.config.BurstSize,
		}
	}

	return rl.getBucket(key).consume()
}

// getBucket gets or creates a token bucket for the given key
func (rl *RateLimiter) getBucket(key string) *TokenBucket {
	now := time.Now()

	rl.bucketMutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.bucketMutex.RUnlock()

	if !exists {
		rl.bucketMutex.Lock()
		// Double-check after acquiring write lock
		if bucket, exists = rl.buckets[key]; !exists {
			bucket = &TokenBucket{
				tokens:     rl.config.BurstSize,
				capacity:   rl.config.BurstSize,
				refillRate: rl.config.RequestsPerMinute,
				lastRefill: now,
			}
			rl.buckets[key] = bucket
		}
		rl.bucketMutex.Unlock()
	}

	bucket.mutex.Lock()
	bucket.lastAccess = now
	bucket.mutex.Unlock()
	return bucket
}

// consume attempts to consume a token from the bucket
func (tb *TokenBucket) consume() RateLimitResult {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	tb.refill(now)

	if tb.tokens > 0 {
		tb.tokens--
		return RateLimitResult{
			Allowed:   true,
			Remaining: tb.tokens,
			ResetTime: now.Add(time.Minute),
		}
	}

	retryAfter := time.Minute
	if tb.refillRate > 0 {
		retryAfter = time.Minute / time.Duration(tb.refillRate)
	}
	return RateLimitResult{
		Allowed:    false,
		RetryAfter: retryAfter,
		ResetTime:  now.Add(retryAfter),
	}
}

// refill adds tokens to the bucket based on elapsed time
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill)
	if elapsed < time.Second {
		return
	}

	tokensToAdd := int(elapsed.Minutes() * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.tokens+tokensToAdd, tb.capacity)
		tb.lastRefill = now
	}
}

// cleanupExpiredBuckets removes buckets that haven't been accessed recently
func (rl *RateLimiter) cleanupExpiredBuckets() {
	for {
		select {
		case <-rl.cleaner.C:
			rl.performCleanup()
		case <-rl.stopCleaner:
			return
		}
	}
}

func (rl *RateLimiter) performCleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)

	rl.bucketMutex.Lock()
	defer rl.bucketMutex.Unlock()

	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		expired := bucket.lastAccess.Before(cutoff)
		bucket.mutex.Unlock()
		if expired {
			delete(rl.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleaner.Stop()
		close(rl.stopCleaner)
	})
}

// RateLimitMiddleware creates HTTP middleware for rate limiting
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			result := limiter.Check(ip)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.config.RequestsPerMinute))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))

			if !result.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", result.RetryAfter.Seconds()))
				limiter.logger.Warn(context.WithoutCancel(r.Context()), nil, "Rate limit exceeded",
					"client_ip", ip,
					"path", r.URL.Path)
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware has already resolved from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

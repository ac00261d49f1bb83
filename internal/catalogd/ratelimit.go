package catalogd

import (
	"context"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RateLimit is a token bucket configuration.
type RateLimit struct {
	// RequestsPerSecond is the refill rate.
	RequestsPerSecond float64

	// BurstSize is the bucket capacity.
	BurstSize int
}

// DefaultRateLimits are the per-method limits applied by NewRateLimiter.
var DefaultRateLimits = map[string]RateLimit{
	ResolveMethod:          {RequestsPerSecond: 50, BurstSize: 100},
	DescribeTemplateMethod: {RequestsPerSecond: 100, BurstSize: 200},
	ListTemplatesMethod:    {RequestsPerSecond: 100, BurstSize: 200},
	PingMethod:             {RequestsPerSecond: 1000, BurstSize: 1000},
}

type bucket struct {
	mu       sync.Mutex
	limit    RateLimit
	tokens   float64
	last     time.Time
	allowed  int64
	rejected int64
}

func newBucket(limit RateLimit, now time.Time) *bucket {
	return &bucket{limit: limit, tokens: float64(limit.BurstSize), last: now}
}

func (b *bucket) refill(now time.Time) {
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * b.limit.RequestsPerSecond
		if capacity := float64(b.limit.BurstSize); b.tokens > capacity {
			b.tokens = capacity
		}
	}
	b.last = now
}

func (b *bucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	if b.tokens < 1 {
		b.rejected++
		return false
	}
	b.tokens--
	b.allowed++
	return true
}

// LimitStats reports a bucket's state.
type LimitStats struct {
	Method    string  `json:"method"`
	Available float64 `json:"available"`
	Allowed   int64   `json:"allowed"`
	Rejected  int64   `json:"rejected"`
}

func (b *bucket) stats(method string, now time.Time) LimitStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	return LimitStats{Method: method, Available: b.tokens, Allowed: b.allowed, Rejected: b.rejected}
}

// RateLimiter applies a global token bucket and per-method buckets to unary calls.
type RateLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	limits  map[string]RateLimit
	buckets map[string]*bucket
	global  *bucket
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithGlobalLimit caps the combined rate of all methods.
func WithGlobalLimit(limit RateLimit) RateLimiterOption {
	return func(rl *RateLimiter) {
		if limit.RequestsPerSecond > 0 && limit.BurstSize > 0 {
			rl.global = newBucket(limit, rl.now())
		}
	}
}

// WithMethodLimit overrides the limit of a single method.
func WithMethodLimit(method string, limit RateLimit) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.limits[method] = limit
	}
}

// withRateClock replaces the time source.
func withRateClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// NewRateLimiter creates a limiter seeded with DefaultRateLimits.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		now:     time.Now,
		limits:  make(map[string]RateLimit, len(DefaultRateLimits)),
		buckets: make(map[string]*bucket),
	}
	for method, limit := range DefaultRateLimits {
		rl.limits[method] = limit
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Allow consumes a token for method. Methods without a configured limit are only
// subject to the global limit.
func (rl *RateLimiter) Allow(method string) bool {
	now := rl.now()
	if rl.global != nil && !rl.global.take(now) {
		return false
	}

	b := rl.bucketFor(method, now)
	if b == nil {
		return true
	}
	return b.take(now)
}

func (rl *RateLimiter) bucketFor(method string, now time.Time) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if b, ok := rl.buckets[method]; ok {
		return b
	}
	limit, ok := rl.limits[method]
	if !ok {
		return nil
	}
	b := newBucket(limit, now)
	rl.buckets[method] = b
	return b
}

// Stats returns per-method statistics sorted by method, followed by the global bucket.
func (rl *RateLimiter) Stats() []LimitStats {
	now := rl.now()

	rl.mu.Lock()
	methods := make([]string, 0, len(rl.buckets))
	for method := range rl.buckets {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	stats := make([]LimitStats, 0, len(methods)+1)
	for _, method := range methods {
		stats = append(stats, rl.buckets[method].stats(method, now))
	}
	rl.mu.Unlock()

	if rl.global != nil {
		stats = append(stats, rl.global.stats("global", now))
	}
	return stats
}

// UnaryServerInterceptor rejects calls over the limit with ResourceExhausted.
func (rl *RateLimiter) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !rl.Allow(info.FullMethod) {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", info.FullMethod)
		}
		return handler(ctx, req)
	}
}

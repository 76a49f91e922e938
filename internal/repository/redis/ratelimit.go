package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const rateLimitSegment = "ratelimit"

// RateLimitResult is the outcome of one Allow call
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts requests per key in fixed one-minute windows
type RateLimiter struct {
	client *Client
	limit  int
}

// NewRateLimiter creates a new rate limiter allowing requestsPerMinute plus
// burst requests per window
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  requestsPerMinute + burst,
	}
}

// Allow records one request for key and reports whether it fits the window
func (r *RateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	now := time.Now()
	windowStart := now.Truncate(time.Minute)
	fullKey := r.client.key(rateLimitSegment, key, strconv.FormatInt(windowStart.Unix(), 10))

	pipe := r.client.rdb.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count := int(incr.Val())
	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: remaining,
		ResetAt:   windowStart.Add(time.Minute),
	}, nil
}
